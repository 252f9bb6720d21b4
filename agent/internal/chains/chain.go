package chains

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Chain identifies a supported blockchain ecosystem.
type Chain string

const (
	Solana   Chain = "solana"
	Ethereum Chain = "ethereum"
)

func ParseChain(s string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "solana", "sol":
		return Solana, nil
	case "ethereum", "eth":
		return Ethereum, nil
	default:
		return "", fmt.Errorf("unsupported chain %q", s)
	}
}

// TokenMetadata is what a chain RPC/metadata source can tell us about a mint:
// who created it, how often the creator has burned liquidity before, and which
// program owns the primary pool.
type TokenMetadata struct {
	CreatorAddress   string
	CreatorBurnCount int
	ProgramID        string
}

// MetadataSource fetches on-chain metadata for a token. Implementations wrap a
// chain-specific RPC endpoint.
type MetadataSource interface {
	TokenMetadata(ctx context.Context, address string) (*TokenMetadata, error)
}

// RouteHop is one AMM leg of a swap route.
type RouteHop struct {
	AMM        string  `json:"amm"`
	InputMint  string  `json:"inputMint"`
	OutputMint string  `json:"outputMint"`
	FeePct     float64 `json:"feePct"`
}

// SwapQuote is an ephemeral quote from a chain-specific quoting service. It is
// fetched immediately before use and never reused across trade attempts.
type SwapQuote struct {
	InputMint         string     `json:"inputMint"`
	OutputMint        string     `json:"outputMint"`
	AmountIn          float64    `json:"amountIn"`
	ExpectedAmountOut float64    `json:"expectedAmountOut"`
	PriceImpactPct    float64    `json:"priceImpactPct"`
	Route             []RouteHop `json:"route"`
	ValidUntil        time.Time  `json:"validUntil"`
}

// Quoter retrieves swap quotes for a mint pair and input amount.
type Quoter interface {
	Quote(ctx context.Context, inputMint, outputMint string, amountIn float64) (*SwapQuote, error)
}

// Capabilities is the per-chain variant set. All chain-conditional behaviour in
// the engine goes through this table instead of string comparisons.
type Capabilities struct {
	Metadata         MetadataSource
	Quoter           Quoter
	MinLiquidityUSD  float64
	KnownAMMPrograms map[string]bool
	AllowedRouteAMMs map[string]bool
}

// Registry maps chains to their capability sets. Populated once at startup;
// read-only afterwards.
type Registry struct {
	caps map[Chain]*Capabilities
}

func NewRegistry() *Registry {
	return &Registry{caps: make(map[Chain]*Capabilities)}
}

func (r *Registry) Register(chain Chain, caps *Capabilities) {
	r.caps[chain] = caps
}

func (r *Registry) Lookup(chain Chain) (*Capabilities, error) {
	caps, ok := r.caps[chain]
	if !ok {
		return nil, fmt.Errorf("no capabilities registered for chain %q", chain)
	}
	return caps, nil
}
