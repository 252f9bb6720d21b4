// Package risk aggregates token facts from external sources into a snapshot
// and scores that snapshot into a composite risk verdict.
package risk

import (
	"context"
	"errors"
	"time"

	"dex-guard/agent/internal/chains"
)

// ErrDataUnavailable is returned when the mandatory market-data source cannot
// be reached within the fetch timeout.
var ErrDataUnavailable = errors.New("mandatory market data unavailable")

// MarketStats is the mandatory slice of a snapshot, sourced from the
// market-data API.
type MarketStats struct {
	Symbol       string
	LiquidityUSD float64
	Volume24hUSD float64
	HolderCount  int
	CreatedAt    time.Time
}

// MarketDataSource provides liquidity/volume/holder stats by token address.
type MarketDataSource interface {
	TokenStats(ctx context.Context, chain chains.Chain, address string) (*MarketStats, error)
}

// LabelSource is a reputation-style collaborator returning a free-text risk
// label for a token. Labels are mapped to ordinals via LevelFromLabel.
type LabelSource interface {
	RiskLabel(ctx context.Context, chain chains.Chain, address string) (string, error)
}

// SourceFlags records which external sources contributed to a snapshot.
type SourceFlags struct {
	Market     bool `json:"market"`
	Metadata   bool `json:"metadata"`
	Reputation bool `json:"reputation"`
	FakeVolume bool `json:"fakeVolume"`
}

// TokenSnapshot is the merged view of a token at fetch time. Re-fetched and
// overwritten on each evaluation cycle.
type TokenSnapshot struct {
	Chain            chains.Chain `json:"chain"`
	Address          string       `json:"address"`
	Symbol           string       `json:"symbol"`
	LiquidityUSD     float64      `json:"liquidityUsd"`
	Volume24hUSD     float64      `json:"volume24hUsd"`
	HolderCount      int          `json:"holderCount"`
	CreatorAddress   string       `json:"creatorAddress,omitempty"`
	CreatorBurnCount int          `json:"creatorBurnCount"`
	ProgramID        string       `json:"programId,omitempty"`
	ReputationLabel  string       `json:"reputationLabel,omitempty"`
	FakeVolumeLabel  string       `json:"fakeVolumeLabel,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	FetchedAt        time.Time    `json:"fetchedAt"`
	Sources          SourceFlags  `json:"sources"`
	// Partial is set when any optional source failed; the snapshot is still
	// scorable but missing dimensions read as unknown.
	Partial bool `json:"partial"`
}

// Reason names the dimension that contributed a score to the composite.
type Reason struct {
	Dimension string `json:"dimension"`
	Score     Level  `json:"score"`
}

// Verdict is the immutable outcome of scoring one snapshot. A verdict is
// superseded by a newer one once the freshness window elapses; it is never
// mutated in place.
type Verdict struct {
	Chain          chains.Chain `json:"chain"`
	Address        string       `json:"address"`
	EvaluatedAt    time.Time    `json:"evaluatedAt"`
	LiquidityRisk  Level        `json:"liquidityRisk"`
	ProgramRisk    Level        `json:"programRisk"`
	CreatorRisk    Level        `json:"creatorRisk"`
	FakeVolumeRisk Level        `json:"fakeVolumeRisk"`
	RugRisk        Level        `json:"rugRisk"`
	Blacklisted    bool         `json:"blacklisted"`
	Composite      Level        `json:"compositeRiskLevel"`
	Reasons        []Reason     `json:"reasons"`
	Partial        bool         `json:"partialData"`
}
