package services

import (
	"net/http"
	"time"

	"dex-guard/shared/logger"

	"golang.org/x/time/rate"
)

// FakeVolumeClient asks the wash-trading detection source for a label.
type FakeVolumeClient struct {
	labelClient
}

func NewFakeVolumeClient(baseURL string, log *logger.Logger) *FakeVolumeClient {
	return &FakeVolumeClient{labelClient{
		name:    "fakevolume",
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		log:     log,
	}}
}
