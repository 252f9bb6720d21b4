package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dex-guard/shared/logger"
)

// CredentialClient verifies login credentials against the external identity
// service. The core never sees how credentials are checked.
type CredentialClient struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

func NewCredentialClient(baseURL string, log *logger.Logger) (*CredentialClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("credential check URL not set")
	}
	return &CredentialClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}, nil
}

// Verify implements session.CredentialVerifier.
func (c *CredentialClient) Verify(ctx context.Context, userID, credential string) (bool, error) {
	payload, err := json.Marshal(map[string]string{
		"userId":     userID,
		"credential": credential,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("credential check request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("credential service returned status %s", resp.Status)
	}

	var body struct {
		Valid bool `json:"valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("credential response decode failed: %w", err)
	}
	return body.Valid, nil
}
