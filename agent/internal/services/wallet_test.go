package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/trade"
	"dex-guard/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletQuote() *chains.SwapQuote {
	return &chains.SwapQuote{
		InputMint:         "So11111111111111111111111111111111111111112",
		OutputMint:        "Mint111",
		AmountIn:          0.05,
		ExpectedAmountOut: 0.0499,
		Route:             []chains.RouteHop{{AMM: "Raydium"}},
		ValidUntil:        time.Now().Add(30 * time.Second),
	}
}

func walletRequest() trade.TradeRequest {
	return trade.TradeRequest{
		UserID:         "alice",
		Chain:          chains.Solana,
		TokenOut:       "Mint111",
		Amount:         0.05,
		MaxSlippageBps: 100,
	}
}

func TestWalletSign(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sign", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body signRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body.UserID)
		assert.Equal(t, 100, body.SlippageBps)

		json.NewEncoder(w).Encode(signResponse{SignedTx: "deadbeef"})
	}))
	defer srv.Close()

	c, err := NewWalletClient(srv.URL, "secret", logger.NewNop())
	require.NoError(t, err)

	signed, err := c.Sign(context.Background(), walletQuote(), walletRequest())
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", signed)
}

func TestWalletSignDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewWalletClient(srv.URL, "", logger.NewNop())
	require.NoError(t, err)

	_, err = c.Sign(context.Background(), walletQuote(), walletRequest())
	assert.ErrorIs(t, err, trade.ErrSigningDenied)
}

func TestWalletSignServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewWalletClient(srv.URL, "", logger.NewNop())
	require.NoError(t, err)

	_, err = c.Sign(context.Background(), walletQuote(), walletRequest())
	assert.ErrorIs(t, err, trade.ErrSigningUnavailable)
}

func TestWalletSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/submit", r.URL.Path)
		json.NewEncoder(w).Encode(submitResponse{TxID: "5xTxSig"})
	}))
	defer srv.Close()

	c, err := NewWalletClient(srv.URL, "", logger.NewNop())
	require.NoError(t, err)

	txID, err := c.Submit(context.Background(), chains.Solana, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "5xTxSig", txID)
}

func TestWalletSubmitTransientOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewWalletClient(srv.URL, "", logger.NewNop())
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), chains.Solana, "deadbeef")
	assert.ErrorIs(t, err, trade.ErrTransient)
}

func TestWalletSubmitHardFailureOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c, err := NewWalletClient(srv.URL, "", logger.NewNop())
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), chains.Solana, "deadbeef")
	assert.ErrorIs(t, err, trade.ErrSubmissionFailed)
	assert.NotErrorIs(t, err, trade.ErrTransient)
}

func TestWalletRequiresBaseURL(t *testing.T) {
	_, err := NewWalletClient("", "", logger.NewNop())
	assert.Error(t, err)
}

func TestRiskLabelClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/solana/Mint111", r.URL.Path)
		w.Write([]byte(`{"riskLevel": "danger"}`))
	}))
	defer srv.Close()

	c := NewRugCheckClient(srv.URL, logger.NewNop())
	label, err := c.RiskLabel(context.Background(), chains.Solana, "Mint111")
	require.NoError(t, err)
	assert.Equal(t, "danger", label)
}

func TestRiskLabelClientNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewFakeVolumeClient(srv.URL, logger.NewNop())
	_, err := c.RiskLabel(context.Background(), chains.Solana, "Mint111")
	assert.Error(t, err)
}
