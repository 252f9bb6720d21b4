// Package trade validates swap quotes against safety policy and runs the
// guarded execution pipeline.
package trade

import (
	"context"
	"errors"

	"dex-guard/agent/internal/chains"
)

// TradeRequest is a caller's intent to swap. Amount is denominated in the
// chain's base asset.
type TradeRequest struct {
	UserID         string       `json:"userId"`
	Chain          chains.Chain `json:"chain"`
	TokenIn        string       `json:"tokenIn"`
	TokenOut       string       `json:"tokenOut"`
	Amount         float64      `json:"amount"`
	MaxSlippageBps int          `json:"maxSlippageBps"`
	// ConfirmMediumRisk acknowledges a medium/unknown composite risk level.
	// High risk and blacklisted tokens cannot be confirmed past.
	ConfirmMediumRisk bool `json:"confirmMediumRisk"`
}

// Status of a trade attempt.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// RejectReason is a stable guard rejection code, surfaced verbatim to callers.
type RejectReason string

const (
	RejectPriceImpactTooHigh RejectReason = "PriceImpactTooHigh"
	RejectUnsupportedRoute   RejectReason = "UnsupportedRoute"
	RejectQuoteExpired       RejectReason = "QuoteExpired"
	RejectSlippageExceeded   RejectReason = "SlippageExceeded"
	RejectAmountExceedsLimit RejectReason = "AmountExceedsLimit"
	RejectTokenBlacklisted   RejectReason = "TokenBlacklisted"
	RejectTokenRiskTooHigh   RejectReason = "TokenRiskTooHigh"
)

// FailureReason is a stable code for a failed (not rejected) attempt.
type FailureReason string

const (
	FailAuthenticationRequired FailureReason = "AuthenticationRequired"
	FailDataUnavailable        FailureReason = "DataUnavailable"
	FailTransientNetwork       FailureReason = "TransientNetworkFailure"
	FailExecution              FailureReason = "ExecutionFailed"
)

// TradeResult is the terminal outcome of ExecuteTrade. TxID is set iff
// submitted; RejectReason iff rejected; FailureReason iff failed.
type TradeResult struct {
	Status        Status        `json:"status"`
	TxID          string        `json:"txId,omitempty"`
	RejectReason  RejectReason  `json:"rejectReason,omitempty"`
	FailureReason FailureReason `json:"failureReason,omitempty"`
}

// Wallet failure kinds. Signing and submission errors wrap one of these so the
// executor can tell a hard denial from a retryable outage.
var (
	ErrSigningDenied      = errors.New("signing denied")
	ErrSigningUnavailable = errors.New("signing service unavailable")
	ErrSubmissionFailed   = errors.New("transaction submission failed")
)

// ErrTransient marks a network failure worth one bounded retry. External
// clients wrap timeouts and 5xx responses with it.
var ErrTransient = errors.New("transient network failure")

// Wallet is the external signing/submission collaborator. The core never
// touches key material.
type Wallet interface {
	Sign(ctx context.Context, quote *chains.SwapQuote, req TradeRequest) (signedTx string, err error)
	Submit(ctx context.Context, chain chains.Chain, signedTx string) (txID string, err error)
}
