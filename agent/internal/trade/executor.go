package trade

import (
	"context"
	"errors"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/risk"
	"dex-guard/shared/logger"
)

// Authenticator answers whether a user currently holds a live session.
type Authenticator interface {
	Authenticate(userID string) bool
}

// VerdictProvider supplies a risk verdict no older than the freshness window.
type VerdictProvider interface {
	FreshVerdict(ctx context.Context, chain chains.Chain, address string) (*risk.Verdict, error)
}

// TradeStore records submitted trades. Recording is best-effort and happens
// only after successful submission; nothing is persisted for rejected or
// failed attempts.
type TradeStore interface {
	RecordSubmitted(ctx context.Context, req TradeRequest, quote *chains.SwapQuote, txID string) error
}

// Notifier announces submitted trades. Optional.
type Notifier interface {
	TradeSubmitted(req TradeRequest, txID string)
}

// ExecutorConfig bounds the execution pipeline.
type ExecutorConfig struct {
	// Retries is the number of extra attempts after a transient quote or
	// submission failure. The quote is re-fetched in full on every attempt.
	Retries int
	// AttemptTimeout bounds each quote+sign+submit attempt.
	AttemptTimeout time.Duration
}

func (c *ExecutorConfig) withDefaults() ExecutorConfig {
	out := *c
	if out.Retries < 0 {
		out.Retries = 0
	}
	if out.AttemptTimeout <= 0 {
		out.AttemptTimeout = 20 * time.Second
	}
	return out
}

// Executor orchestrates authentication, risk evaluation, quoting, guard
// validation and delegated signing/submission.
type Executor struct {
	sessions Authenticator
	verdicts VerdictProvider
	guard    *Guard
	registry *chains.Registry
	wallet   Wallet
	store    TradeStore
	notifier Notifier
	cfg      ExecutorConfig
	log      *logger.Logger
}

func NewExecutor(sessions Authenticator, verdicts VerdictProvider, guard *Guard, registry *chains.Registry, wallet Wallet, store TradeStore, notifier Notifier, cfg ExecutorConfig, log *logger.Logger) *Executor {
	return &Executor{
		sessions: sessions,
		verdicts: verdicts,
		guard:    guard,
		registry: registry,
		wallet:   wallet,
		store:    store,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// ExecuteTrade runs the guarded pipeline. Every terminal outcome is a typed
// result; errors are returned only for programming mistakes such as an
// unregistered chain.
func (e *Executor) ExecuteTrade(ctx context.Context, req TradeRequest) (TradeResult, error) {
	if !e.sessions.Authenticate(req.UserID) {
		e.log.Warn("trade refused, no live session", "userId", req.UserID)
		return TradeResult{Status: StatusFailed, FailureReason: FailAuthenticationRequired}, nil
	}

	caps, err := e.registry.Lookup(req.Chain)
	if err != nil {
		return TradeResult{}, err
	}

	verdict, err := e.verdicts.FreshVerdict(ctx, req.Chain, req.TokenOut)
	if err != nil {
		if errors.Is(err, risk.ErrDataUnavailable) {
			e.log.Warn("trade failed, risk data unavailable", "chain", req.Chain, "token", req.TokenOut, "error", err)
			return TradeResult{Status: StatusFailed, FailureReason: FailDataUnavailable}, nil
		}
		return TradeResult{}, err
	}

	attempts := e.cfg.Retries + 1
	var lastTransient error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, transientErr := e.attempt(ctx, caps, req, verdict, attempt)
		if transientErr == nil {
			return result, nil
		}
		lastTransient = transientErr
		e.log.Warn("trade attempt hit transient failure", "attempt", attempt, "error", transientErr)
	}

	e.log.Error("trade failed after retry exhaustion", "userId", req.UserID, "error", lastTransient)
	return TradeResult{Status: StatusFailed, FailureReason: FailTransientNetwork}, nil
}

// attempt runs one full quote → guard → sign → submit pass. A non-nil
// transient error asks the caller to retry with a fresh quote; any other
// outcome is terminal.
func (e *Executor) attempt(ctx context.Context, caps *chains.Capabilities, req TradeRequest, verdict *risk.Verdict, attempt int) (TradeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
	defer cancel()

	// A quote is never reused across attempts; validUntil may have lapsed.
	quote, err := caps.Quoter.Quote(ctx, req.TokenIn, req.TokenOut, req.Amount)
	if err != nil {
		if errors.Is(err, ErrTransient) {
			return TradeResult{}, err
		}
		e.log.Error("quote retrieval failed", "chain", req.Chain, "error", err)
		return TradeResult{Status: StatusFailed, FailureReason: FailExecution}, nil
	}

	if reason, ok := e.guard.Validate(quote, req, verdict); !ok {
		e.log.Info("trade rejected by guard", "userId", req.UserID, "reason", reason, "attempt", attempt)
		return TradeResult{Status: StatusRejected, RejectReason: reason}, nil
	}

	signedTx, err := e.wallet.Sign(ctx, quote, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSigningDenied):
			e.log.Warn("signing denied", "userId", req.UserID)
		case errors.Is(err, ErrSigningUnavailable):
			e.log.Error("signing service unavailable", "error", err)
		default:
			e.log.Error("signing failed", "error", err)
		}
		return TradeResult{Status: StatusFailed, FailureReason: FailExecution}, nil
	}

	txID, err := e.wallet.Submit(ctx, req.Chain, signedTx)
	if err != nil {
		if errors.Is(err, ErrTransient) {
			return TradeResult{}, err
		}
		e.log.Error("submission failed", "chain", req.Chain, "error", err)
		return TradeResult{Status: StatusFailed, FailureReason: FailExecution}, nil
	}

	e.log.Info("trade submitted", "userId", req.UserID, "chain", req.Chain, "txId", txID)
	e.recordSubmitted(req, quote, txID)
	if e.notifier != nil {
		e.notifier.TradeSubmitted(req, txID)
	}
	return TradeResult{Status: StatusSubmitted, TxID: txID}, nil
}

// recordSubmitted persists the submitted trade in the background; a storage
// failure never fails an already-submitted trade.
func (e *Executor) recordSubmitted(req TradeRequest, quote *chains.SwapQuote, txID string) {
	if e.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.store.RecordSubmitted(ctx, req, quote, txID); err != nil {
			e.log.Warn("failed to record submitted trade", "txId", txID, "error", err)
		}
	}()
}
