package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/shared/logger"

	"golang.org/x/time/rate"
)

// labelResponse is the shape both reputation-style sources answer with. Some
// deployments use "riskLevel", others "label"; accept either.
type labelResponse struct {
	Label     string `json:"label"`
	RiskLevel string `json:"riskLevel"`
}

func (r labelResponse) value() string {
	if r.Label != "" {
		return r.Label
	}
	return r.RiskLevel
}

// labelClient is the common GET-a-risk-label client behind RugCheckClient and
// FakeVolumeClient.
type labelClient struct {
	name    string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

func (lc *labelClient) RiskLabel(ctx context.Context, chain chains.Chain, address string) (string, error) {
	if err := lc.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s rate limiter wait: %w", lc.name, err)
	}

	url := fmt.Sprintf("%s/%s/%s", lc.baseURL, chain, address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := lc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", lc.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %s", lc.name, resp.Status)
	}

	var body labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%s response decode failed: %w", lc.name, err)
	}

	label := body.value()
	lc.log.Debug("risk label fetched", "source", lc.name, "chain", chain, "address", address, "label", label)
	return label, nil
}

// RugCheckClient asks the rug-check reputation source for a token risk label.
type RugCheckClient struct {
	labelClient
}

func NewRugCheckClient(baseURL string, log *logger.Logger) *RugCheckClient {
	return &RugCheckClient{labelClient{
		name:    "rugcheck",
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		log:     log,
	}}
}
