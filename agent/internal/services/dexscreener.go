// Package services holds the HTTP/RPC clients for every external collaborator:
// market data, chain metadata, reputation, fake-volume detection, quoting,
// wallet signing and credential verification.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/risk"
	"dex-guard/shared/logger"

	"golang.org/x/time/rate"
)

const defaultDexScreenerAPI = "https://api.dexscreener.com/tokens/v1"

// DexScreener holds ~300 req/min; stay under it.
var dexScreenerLimiter = rate.NewLimiter(rate.Limit(4.66), 5)

type dexPair struct {
	ChainID       string             `json:"chainId"`
	DexID         string             `json:"dexId"`
	PairAddress   string             `json:"pairAddress"`
	BaseToken     dexToken           `json:"baseToken"`
	QuoteToken    dexToken           `json:"quoteToken"`
	PriceUsd      string             `json:"priceUsd"`
	Volume        map[string]float64 `json:"volume"`
	Liquidity     *dexLiquidity      `json:"liquidity"`
	Holders       int                `json:"holders"`
	MarketCap     float64            `json:"marketCap"`
	PairCreatedAt int64              `json:"pairCreatedAt"`
}

type dexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexLiquidity struct {
	Usd   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// DexScreenerClient is the mandatory market-data source of the aggregator.
type DexScreenerClient struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

func NewDexScreenerClient(baseURL string, log *logger.Logger) *DexScreenerClient {
	if baseURL == "" {
		baseURL = defaultDexScreenerAPI
	}
	return &DexScreenerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// TokenStats fetches liquidity, volume and holder stats for the token's most
// liquid pair.
func (d *DexScreenerClient) TokenStats(ctx context.Context, chain chains.Chain, address string) (*risk.MarketStats, error) {
	if err := dexScreenerLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", d.baseURL, chain, address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market data request failed for %s: %w", address, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("market data rate limit exceeded (429)")
	case http.StatusNotFound:
		return nil, fmt.Errorf("token %s not found on market data source", address)
	default:
		body, _ := io.ReadAll(resp.Body)
		d.log.Warn("market data non-OK status", "status", resp.Status, "address", address, "body", string(body))
		return nil, fmt.Errorf("market data request failed with status %s", resp.Status)
	}

	var pairs []dexPair
	if err := json.NewDecoder(resp.Body).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("market data JSON parsing failed for %s: %w", address, err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no trading pairs found for %s", address)
	}

	// Pairs arrive sorted by liquidity; the first one is the primary market.
	pair := pairs[0]
	stats := &risk.MarketStats{
		Symbol:      pair.BaseToken.Symbol,
		HolderCount: pair.Holders,
	}
	if pair.Liquidity != nil {
		stats.LiquidityUSD = pair.Liquidity.Usd
	} else {
		d.log.Warn("liquidity data missing, treating as 0", "address", address, "pair", pair.PairAddress)
	}
	if vol, ok := pair.Volume["h24"]; ok {
		stats.Volume24hUSD = vol
	} else {
		d.log.Warn("24h volume missing, treating as 0", "address", address, "pair", pair.PairAddress)
	}
	if pair.PairCreatedAt > 0 {
		stats.CreatedAt = time.UnixMilli(pair.PairCreatedAt)
	}

	d.log.Debug("market stats fetched",
		"address", address, "pair", pair.PairAddress,
		"liquidityUsd", stats.LiquidityUSD, "volume24hUsd", stats.Volume24hUSD,
		"holders", stats.HolderCount)
	return stats, nil
}
