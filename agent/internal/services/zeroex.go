package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/trade"
	"dex-guard/shared/logger"

	"golang.org/x/time/rate"
)

const (
	defaultZeroExAPI = "https://api.0x.org"
	ethDecimals      = 18
	zeroExQuoteTTL   = 30 * time.Second
)

var zeroExLimiter = rate.NewLimiter(rate.Limit(2), 4)

type zeroExQuoteResponse struct {
	BuyAmount            string `json:"buyAmount"`
	SellAmount           string `json:"sellAmount"`
	EstimatedPriceImpact string `json:"estimatedPriceImpact"`
	Sources              []struct {
		Name       string `json:"name"`
		Proportion string `json:"proportion"`
	} `json:"sources"`
}

// ZeroExClient quotes Ethereum swaps through the 0x aggregator.
type ZeroExClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logger.Logger
	now     func() time.Time
}

func NewZeroExClient(baseURL, apiKey string, log *logger.Logger) *ZeroExClient {
	if baseURL == "" {
		baseURL = defaultZeroExAPI
	}
	return &ZeroExClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
		now:     time.Now,
	}
}

// Quote implements chains.Quoter. amountIn is in base-asset (ETH) units.
func (z *ZeroExClient) Quote(ctx context.Context, inputMint, outputMint string, amountIn float64) (*chains.SwapQuote, error) {
	if err := zeroExLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("0x rate limiter wait: %w", err)
	}

	params := url.Values{}
	params.Set("sellToken", inputMint)
	params.Set("buyToken", outputMint)
	params.Set("sellAmount", fmt.Sprintf("%.0f", amountIn*math.Pow10(ethDecimals)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, z.baseURL+"/swap/v1/quote?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if z.apiKey != "" {
		req.Header.Set("0x-api-key", z.apiKey)
	}

	resp, err := z.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 0x quote request: %v", trade.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: 0x quote status %s", trade.ErrTransient, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("0x quote failed with status %s", resp.Status)
	}

	var body zeroExQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("0x quote decode failed: %w", err)
	}

	buyWei, err := strconv.ParseFloat(body.BuyAmount, 64)
	if err != nil {
		return nil, fmt.Errorf("0x buyAmount %q unparseable: %w", body.BuyAmount, err)
	}
	// 0x reports price impact as a percentage string ("1.5" = 1.5%).
	impactPct, err := strconv.ParseFloat(body.EstimatedPriceImpact, 64)
	if err != nil {
		return nil, fmt.Errorf("0x estimatedPriceImpact %q unparseable: %w", body.EstimatedPriceImpact, err)
	}

	quote := &chains.SwapQuote{
		InputMint:         inputMint,
		OutputMint:        outputMint,
		AmountIn:          amountIn,
		ExpectedAmountOut: buyWei / math.Pow10(ethDecimals),
		PriceImpactPct:    impactPct / 100,
		ValidUntil:        z.now().Add(zeroExQuoteTTL),
	}

	// Sources arrive with proportions; order hops largest-first so the
	// primary route leg is Route[0].
	best := -1.0
	for _, src := range body.Sources {
		prop, err := strconv.ParseFloat(src.Proportion, 64)
		if err != nil || prop <= 0 {
			continue
		}
		hop := chains.RouteHop{AMM: src.Name, InputMint: inputMint, OutputMint: outputMint}
		if prop > best {
			quote.Route = append([]chains.RouteHop{hop}, quote.Route...)
			best = prop
		} else {
			quote.Route = append(quote.Route, hop)
		}
	}

	z.log.Debug("0x quote fetched",
		"sellToken", inputMint, "buyToken", outputMint,
		"amountIn", amountIn, "expectedOut", quote.ExpectedAmountOut,
		"priceImpactPct", quote.PriceImpactPct, "sources", len(quote.Route))
	return quote, nil
}
