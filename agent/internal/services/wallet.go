package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/trade"
	"dex-guard/shared/logger"
)

// WalletClient delegates signing and submission to the external wallet
// service. Key custody never enters this process.
type WalletClient struct {
	baseURL string
	token   string
	client  *http.Client
	log     *logger.Logger
}

func NewWalletClient(baseURL, token string, log *logger.Logger) (*WalletClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("wallet service URL not set")
	}
	return &WalletClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 20 * time.Second},
		log:     log,
	}, nil
}

type signRequest struct {
	Chain       chains.Chain      `json:"chain"`
	UserID      string            `json:"userId"`
	Quote       *chains.SwapQuote `json:"quote"`
	SlippageBps int               `json:"slippageBps"`
}

type signResponse struct {
	SignedTx string `json:"signedTx"`
}

type submitRequest struct {
	Chain    chains.Chain `json:"chain"`
	SignedTx string       `json:"signedTx"`
}

type submitResponse struct {
	TxID string `json:"txId"`
}

func (w *WalletClient) post(ctx context.Context, path string, payload, out interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, fmt.Errorf("wallet service %s returned status %s", path, resp.Status)
}

// Sign implements trade.Wallet.
func (w *WalletClient) Sign(ctx context.Context, quote *chains.SwapQuote, req trade.TradeRequest) (string, error) {
	var out signResponse
	status, err := w.post(ctx, "/sign", signRequest{
		Chain:       req.Chain,
		UserID:      req.UserID,
		Quote:       quote,
		SlippageBps: req.MaxSlippageBps,
	}, &out)
	if err != nil {
		switch {
		case status == http.StatusForbidden || status == http.StatusUnauthorized:
			return "", fmt.Errorf("%w: %v", trade.ErrSigningDenied, err)
		case status >= http.StatusInternalServerError || status == 0:
			return "", fmt.Errorf("%w: %v", trade.ErrSigningUnavailable, err)
		default:
			return "", err
		}
	}
	if out.SignedTx == "" {
		return "", fmt.Errorf("%w: empty signed transaction", trade.ErrSigningUnavailable)
	}
	return out.SignedTx, nil
}

// Submit implements trade.Wallet. Network errors and 5xx responses are marked
// transient so the executor can retry with a fresh quote.
func (w *WalletClient) Submit(ctx context.Context, chain chains.Chain, signedTx string) (string, error) {
	var out submitResponse
	status, err := w.post(ctx, "/submit", submitRequest{Chain: chain, SignedTx: signedTx}, &out)
	if err != nil {
		if status >= http.StatusInternalServerError || status == 0 {
			return "", fmt.Errorf("%w: %v", trade.ErrTransient, err)
		}
		return "", fmt.Errorf("%w: %v", trade.ErrSubmissionFailed, err)
	}
	if out.TxID == "" {
		return "", fmt.Errorf("%w: submission returned no transaction id", trade.ErrSubmissionFailed)
	}
	w.log.Info("transaction submitted via wallet service", "chain", chain, "txId", out.TxID)
	return out.TxID, nil
}
