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
	defaultJupiterAPI = "https://quote-api.jup.ag/v6"
	solDecimals       = 9
	// Jupiter quotes have no server-side expiry field; treat one as stale
	// after this long.
	jupiterQuoteTTL = 30 * time.Second
)

var jupiterLimiter = rate.NewLimiter(rate.Limit(8), 10)

type jupiterQuoteResponse struct {
	InAmount       string  `json:"inAmount"`
	OutAmount      string  `json:"outAmount"`
	PriceImpactPct string  `json:"priceImpactPct"`
	RoutePlan      []struct {
		SwapInfo struct {
			Label      string `json:"label"`
			InputMint  string `json:"inputMint"`
			OutputMint string `json:"outputMint"`
			FeeAmount  string `json:"feeAmount"`
		} `json:"swapInfo"`
		Percent float64 `json:"percent"`
	} `json:"routePlan"`
}

// JupiterClient quotes Solana swaps.
type JupiterClient struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
	now     func() time.Time
}

func NewJupiterClient(baseURL string, log *logger.Logger) *JupiterClient {
	if baseURL == "" {
		baseURL = defaultJupiterAPI
	}
	return &JupiterClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
		now:     time.Now,
	}
}

// Quote implements chains.Quoter. amountIn is in base-asset (SOL) units.
func (j *JupiterClient) Quote(ctx context.Context, inputMint, outputMint string, amountIn float64) (*chains.SwapQuote, error) {
	if err := jupiterLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("jupiter rate limiter wait: %w", err)
	}

	lamports := uint64(math.Round(amountIn * math.Pow10(solDecimals)))
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatUint(lamports, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: jupiter quote request: %v", trade.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: jupiter quote status %s", trade.ErrTransient, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter quote failed with status %s", resp.Status)
	}

	var body jupiterQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("jupiter quote decode failed: %w", err)
	}

	outLamports, err := strconv.ParseFloat(body.OutAmount, 64)
	if err != nil {
		return nil, fmt.Errorf("jupiter outAmount %q unparseable: %w", body.OutAmount, err)
	}
	impact, err := strconv.ParseFloat(body.PriceImpactPct, 64)
	if err != nil {
		return nil, fmt.Errorf("jupiter priceImpactPct %q unparseable: %w", body.PriceImpactPct, err)
	}

	quote := &chains.SwapQuote{
		InputMint:         inputMint,
		OutputMint:        outputMint,
		AmountIn:          amountIn,
		ExpectedAmountOut: outLamports / math.Pow10(solDecimals),
		PriceImpactPct:    impact,
		ValidUntil:        j.now().Add(jupiterQuoteTTL),
	}
	for _, hop := range body.RoutePlan {
		quote.Route = append(quote.Route, chains.RouteHop{
			AMM:        hop.SwapInfo.Label,
			InputMint:  hop.SwapInfo.InputMint,
			OutputMint: hop.SwapInfo.OutputMint,
		})
	}

	j.log.Debug("jupiter quote fetched",
		"inputMint", inputMint, "outputMint", outputMint,
		"amountIn", amountIn, "expectedOut", quote.ExpectedAmountOut,
		"priceImpactPct", impact, "hops", len(quote.Route))
	return quote, nil
}
