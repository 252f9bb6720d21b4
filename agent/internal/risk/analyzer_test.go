package risk

import (
	"context"
	"testing"
	"time"

	"dex-guard/agent/internal/blacklist"
	"dex-guard/agent/internal/chains"
	"dex-guard/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnalyzer(market *fakeMarket, freshness time.Duration) *Analyzer {
	meta := &fakeMetadata{meta: &chains.TokenMetadata{
		CreatorAddress: "Creator111",
		ProgramID:      "RaydiumV4Program",
	}}
	reg := aggregatorRegistry(meta)
	agg := NewAggregator(reg, market,
		&fakeLabels{label: "good"}, &fakeLabels{label: "ok"},
		nil, AggregatorConfig{}, logger.NewNop())
	engine := NewEngine(reg, blacklist.NewRegistry(), Thresholds{
		MaxCreatorBurns:      2,
		VolumeLiquidityRatio: 5.0,
		MinHolderCount:       100,
	})
	return NewAnalyzer(agg, engine, freshness)
}

func TestAnalyzeTokenProducesVerdict(t *testing.T) {
	a := testAnalyzer(&fakeMarket{stats: goodStats()}, time.Minute)

	v, err := a.AnalyzeToken(context.Background(), chains.Solana, "Mint111")
	require.NoError(t, err)
	assert.Equal(t, chains.Solana, v.Chain)
	assert.Equal(t, "Mint111", v.Address)
	assert.Equal(t, Low, v.Composite)
}

func TestFreshVerdictReusesWithinWindow(t *testing.T) {
	market := &fakeMarket{stats: goodStats()}
	a := testAnalyzer(market, time.Minute)

	first, err := a.AnalyzeToken(context.Background(), chains.Solana, "Mint111")
	require.NoError(t, err)

	second, err := a.FreshVerdict(context.Background(), chains.Solana, "Mint111")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), market.calls.Load())
}

func TestFreshVerdictReevaluatesWhenStale(t *testing.T) {
	market := &fakeMarket{stats: goodStats()}
	a := testAnalyzer(market, time.Minute)

	_, err := a.AnalyzeToken(context.Background(), chains.Solana, "Mint111")
	require.NoError(t, err)

	// Jump the clock past the freshness window.
	a.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = a.FreshVerdict(context.Background(), chains.Solana, "Mint111")
	require.NoError(t, err)
	assert.Equal(t, int64(2), market.calls.Load())
}

func TestFreshVerdictWithoutCachedEntry(t *testing.T) {
	market := &fakeMarket{stats: goodStats()}
	a := testAnalyzer(market, time.Minute)

	v, err := a.FreshVerdict(context.Background(), chains.Solana, "Mint111")
	require.NoError(t, err)
	assert.Equal(t, Low, v.Composite)
	assert.Equal(t, int64(1), market.calls.Load())
}
