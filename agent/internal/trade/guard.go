package trade

import (
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/risk"
)

// GuardConfig is the safety policy the guard enforces.
type GuardConfig struct {
	// MaxPriceImpact rejects at and above this fraction.
	MaxPriceImpact float64
	// PerTradeMaxAmount is an absolute cap in base-asset units, independent of
	// the caller's slippage settings.
	PerTradeMaxAmount float64
	// BlockLevel and above is rejected outright. Levels at Medium or above but
	// below BlockLevel pass only with an explicit confirmation flag.
	BlockLevel risk.Level
}

func (c *GuardConfig) withDefaults() GuardConfig {
	out := *c
	if out.MaxPriceImpact <= 0 {
		out.MaxPriceImpact = 0.10
	}
	if out.PerTradeMaxAmount <= 0 {
		out.PerTradeMaxAmount = 0.1
	}
	if out.BlockLevel == 0 {
		out.BlockLevel = risk.High
	}
	return out
}

// Guard validates a quote and trade request against the safety policy.
type Guard struct {
	registry *chains.Registry
	cfg      GuardConfig
	now      func() time.Time
}

func NewGuard(registry *chains.Registry, cfg GuardConfig) *Guard {
	return &Guard{registry: registry, cfg: cfg.withDefaults(), now: time.Now}
}

// Validate runs every check in a fixed order and reports the first failure.
// ok is true only when all checks pass.
func (g *Guard) Validate(quote *chains.SwapQuote, req TradeRequest, verdict *risk.Verdict) (reason RejectReason, ok bool) {
	if quote.PriceImpactPct >= g.cfg.MaxPriceImpact {
		return RejectPriceImpactTooHigh, false
	}

	caps, err := g.registry.Lookup(req.Chain)
	if err != nil || len(quote.Route) == 0 || !caps.AllowedRouteAMMs[quote.Route[0].AMM] {
		return RejectUnsupportedRoute, false
	}

	if !g.now().Before(quote.ValidUntil) {
		return RejectQuoteExpired, false
	}

	minOut := quote.AmountIn * (1 - float64(req.MaxSlippageBps)/10000)
	if quote.ExpectedAmountOut < minOut {
		return RejectSlippageExceeded, false
	}

	if req.Amount > g.cfg.PerTradeMaxAmount {
		return RejectAmountExceedsLimit, false
	}

	if verdict.Blacklisted {
		return RejectTokenBlacklisted, false
	}

	if verdict.Composite >= g.cfg.BlockLevel {
		return RejectTokenRiskTooHigh, false
	}
	if verdict.Composite >= risk.Medium && !req.ConfirmMediumRisk {
		return RejectTokenRiskTooHigh, false
	}

	return "", true
}
