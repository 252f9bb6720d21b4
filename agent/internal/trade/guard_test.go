package trade

import (
	"testing"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/risk"

	"github.com/stretchr/testify/assert"
)

var guardNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testGuard(cfg GuardConfig) *Guard {
	reg := chains.NewRegistry()
	reg.Register(chains.Solana, &chains.Capabilities{
		MinLiquidityUSD:  5000,
		AllowedRouteAMMs: map[string]bool{"Raydium": true, "Orca": true},
	})
	g := NewGuard(reg, cfg)
	g.now = func() time.Time { return guardNow }
	return g
}

func goodQuote() *chains.SwapQuote {
	return &chains.SwapQuote{
		InputMint:         "So11111111111111111111111111111111111111112",
		OutputMint:        "Mint111",
		AmountIn:          0.05,
		ExpectedAmountOut: 0.0499,
		PriceImpactPct:    0.01,
		Route:             []chains.RouteHop{{AMM: "Raydium"}},
		ValidUntil:        guardNow.Add(30 * time.Second),
	}
}

func goodRequest() TradeRequest {
	return TradeRequest{
		UserID:         "alice",
		Chain:          chains.Solana,
		TokenIn:        "So11111111111111111111111111111111111111112",
		TokenOut:       "Mint111",
		Amount:         0.05,
		MaxSlippageBps: 100,
	}
}

func lowVerdict() *risk.Verdict {
	return &risk.Verdict{Chain: chains.Solana, Address: "Mint111", Composite: risk.Low}
}

func TestGuardAcceptsHealthyTrade(t *testing.T) {
	reason, ok := testGuard(GuardConfig{}).Validate(goodQuote(), goodRequest(), lowVerdict())
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestGuardPriceImpactBoundary(t *testing.T) {
	g := testGuard(GuardConfig{MaxPriceImpact: 0.10})

	quote := goodQuote()
	quote.PriceImpactPct = 0.0999
	_, ok := g.Validate(quote, goodRequest(), lowVerdict())
	assert.True(t, ok)

	// Exactly at the limit is rejected.
	quote.PriceImpactPct = 0.10
	reason, ok := g.Validate(quote, goodRequest(), lowVerdict())
	assert.False(t, ok)
	assert.Equal(t, RejectPriceImpactTooHigh, reason)
}

func TestGuardUnsupportedRoute(t *testing.T) {
	g := testGuard(GuardConfig{})

	quote := goodQuote()
	quote.Route = []chains.RouteHop{{AMM: "ShadyForkSwap"}}
	reason, ok := g.Validate(quote, goodRequest(), lowVerdict())
	assert.False(t, ok)
	assert.Equal(t, RejectUnsupportedRoute, reason)

	quote.Route = nil
	reason, ok = g.Validate(quote, goodRequest(), lowVerdict())
	assert.False(t, ok)
	assert.Equal(t, RejectUnsupportedRoute, reason)
}

func TestGuardQuoteExpiry(t *testing.T) {
	g := testGuard(GuardConfig{})

	quote := goodQuote()
	quote.ValidUntil = guardNow // expired at the boundary instant
	reason, ok := g.Validate(quote, goodRequest(), lowVerdict())
	assert.False(t, ok)
	assert.Equal(t, RejectQuoteExpired, reason)
}

func TestGuardSlippage(t *testing.T) {
	g := testGuard(GuardConfig{})

	// 100 bps tolerance on 0.05 in allows as little as 0.0495 out.
	quote := goodQuote()
	quote.ExpectedAmountOut = 0.0494
	reason, ok := g.Validate(quote, goodRequest(), lowVerdict())
	assert.False(t, ok)
	assert.Equal(t, RejectSlippageExceeded, reason)
}

func TestGuardPerTradeCap(t *testing.T) {
	g := testGuard(GuardConfig{PerTradeMaxAmount: 0.1})

	req := goodRequest()
	req.Amount = 0.5
	quote := goodQuote()
	quote.AmountIn = 0.5
	quote.ExpectedAmountOut = 0.499
	reason, ok := g.Validate(quote, req, lowVerdict())
	assert.False(t, ok)
	assert.Equal(t, RejectAmountExceedsLimit, reason)
}

func TestGuardBlacklistedToken(t *testing.T) {
	verdict := lowVerdict()
	verdict.Blacklisted = true
	verdict.Composite = risk.High

	reason, ok := testGuard(GuardConfig{}).Validate(goodQuote(), goodRequest(), verdict)
	assert.False(t, ok)
	assert.Equal(t, RejectTokenBlacklisted, reason)
}

func TestGuardRiskLevels(t *testing.T) {
	cases := []struct {
		name      string
		composite risk.Level
		confirm   bool
		wantOK    bool
	}{
		{"low passes", risk.Low, false, true},
		{"medium needs confirmation", risk.Medium, false, false},
		{"medium confirmed passes", risk.Medium, true, true},
		{"unknown needs confirmation", risk.Unknown, false, false},
		{"unknown confirmed passes", risk.Unknown, true, true},
		{"high blocked outright", risk.High, false, false},
		{"high cannot be confirmed past", risk.High, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := lowVerdict()
			verdict.Composite = tc.composite
			req := goodRequest()
			req.ConfirmMediumRisk = tc.confirm

			reason, ok := testGuard(GuardConfig{}).Validate(goodQuote(), req, verdict)
			assert.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				assert.Equal(t, RejectTokenRiskTooHigh, reason)
			}
		})
	}
}

func TestGuardCheckOrder(t *testing.T) {
	// A quote failing several checks reports the earliest one.
	g := testGuard(GuardConfig{MaxPriceImpact: 0.10, PerTradeMaxAmount: 0.1})

	quote := goodQuote()
	quote.PriceImpactPct = 0.5
	quote.Route = nil
	quote.ValidUntil = guardNow.Add(-time.Minute)

	verdict := lowVerdict()
	verdict.Blacklisted = true

	reason, ok := g.Validate(quote, goodRequest(), verdict)
	assert.False(t, ok)
	assert.Equal(t, RejectPriceImpactTooHigh, reason)
}
