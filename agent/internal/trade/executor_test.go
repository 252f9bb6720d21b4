package trade

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/risk"
	"dex-guard/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct{ live bool }

func (f *fakeAuth) Authenticate(userID string) bool { return f.live }

type fakeVerdicts struct {
	verdict *risk.Verdict
	err     error
}

func (f *fakeVerdicts) FreshVerdict(ctx context.Context, chain chains.Chain, address string) (*risk.Verdict, error) {
	return f.verdict, f.err
}

// fakeQuoter returns quotes in sequence, one per attempt.
type fakeQuoter struct {
	mu     sync.Mutex
	calls  int
	quotes []*chains.SwapQuote
	errs   []error
}

func (f *fakeQuoter) Quote(ctx context.Context, inputMint, outputMint string, amountIn float64) (*chains.SwapQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.quotes) {
		return f.quotes[i], nil
	}
	return f.quotes[len(f.quotes)-1], nil
}

func (f *fakeQuoter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWallet struct {
	signErr    error
	submitErrs []error
	submits    int
	txID       string
}

func (f *fakeWallet) Sign(ctx context.Context, quote *chains.SwapQuote, req TradeRequest) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "signed-tx-bytes", nil
}

func (f *fakeWallet) Submit(ctx context.Context, chain chains.Chain, signedTx string) (string, error) {
	i := f.submits
	f.submits++
	if i < len(f.submitErrs) && f.submitErrs[i] != nil {
		return "", f.submitErrs[i]
	}
	return f.txID, nil
}

type fakeTradeStore struct {
	mu       sync.Mutex
	recorded []string
}

func (f *fakeTradeStore) RecordSubmitted(ctx context.Context, req TradeRequest, quote *chains.SwapQuote, txID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, txID)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	txIDs []string
}

func (f *fakeNotifier) TradeSubmitted(req TradeRequest, txID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txIDs = append(f.txIDs, txID)
}

type executorFixture struct {
	executor *Executor
	quoter   *fakeQuoter
	wallet   *fakeWallet
	store    *fakeTradeStore
	notifier *fakeNotifier
}

func newExecutorFixture(auth *fakeAuth, verdicts *fakeVerdicts, quoter *fakeQuoter, wallet *fakeWallet, retries int) *executorFixture {
	reg := chains.NewRegistry()
	reg.Register(chains.Solana, &chains.Capabilities{
		Quoter:           quoter,
		MinLiquidityUSD:  5000,
		AllowedRouteAMMs: map[string]bool{"Raydium": true},
	})
	guard := NewGuard(reg, GuardConfig{MaxPriceImpact: 0.10, PerTradeMaxAmount: 0.1})
	store := &fakeTradeStore{}
	notifier := &fakeNotifier{}
	exec := NewExecutor(auth, verdicts, guard, reg, wallet, store, notifier, ExecutorConfig{
		Retries:        retries,
		AttemptTimeout: 5 * time.Second,
	}, logger.NewNop())
	return &executorFixture{executor: exec, quoter: quoter, wallet: wallet, store: store, notifier: notifier}
}

func liveQuote() *chains.SwapQuote {
	return &chains.SwapQuote{
		InputMint:         "So11111111111111111111111111111111111111112",
		OutputMint:        "Mint111",
		AmountIn:          0.05,
		ExpectedAmountOut: 0.0499,
		PriceImpactPct:    0.01,
		Route:             []chains.RouteHop{{AMM: "Raydium"}},
		ValidUntil:        time.Now().Add(30 * time.Second),
	}
}

func executorRequest() TradeRequest {
	return TradeRequest{
		UserID:         "alice",
		Chain:          chains.Solana,
		TokenIn:        "So11111111111111111111111111111111111111112",
		TokenOut:       "Mint111",
		Amount:         0.05,
		MaxSlippageBps: 100,
	}
}

func lowRiskVerdict() *risk.Verdict {
	return &risk.Verdict{
		Chain:       chains.Solana,
		Address:     "Mint111",
		Composite:   risk.Low,
		EvaluatedAt: time.Now(),
	}
}

func TestExecuteTradeHappyPath(t *testing.T) {
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{verdict: lowRiskVerdict()},
		&fakeQuoter{quotes: []*chains.SwapQuote{liveQuote()}},
		&fakeWallet{txID: "tx-abc"},
		1)

	res, err := fx.executor.ExecuteTrade(context.Background(), executorRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusSubmitted, res.Status)
	assert.Equal(t, "tx-abc", res.TxID)
	assert.Empty(t, res.RejectReason)
	assert.Empty(t, res.FailureReason)

	assert.Eventually(t, func() bool {
		fx.store.mu.Lock()
		defer fx.store.mu.Unlock()
		return len(fx.store.recorded) == 1 && fx.store.recorded[0] == "tx-abc"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"tx-abc"}, fx.notifier.txIDs)
}

func TestExecuteTradeRequiresSession(t *testing.T) {
	fx := newExecutorFixture(
		&fakeAuth{live: false},
		&fakeVerdicts{verdict: lowRiskVerdict()},
		&fakeQuoter{quotes: []*chains.SwapQuote{liveQuote()}},
		&fakeWallet{txID: "tx-abc"},
		1)

	res, err := fx.executor.ExecuteTrade(context.Background(), executorRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, FailAuthenticationRequired, res.FailureReason)
	assert.Zero(t, fx.quoter.callCount(), "no quote should be fetched without a session")
}

func TestExecuteTradeRiskDataUnavailable(t *testing.T) {
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{err: fmt.Errorf("%w: dexscreener 503", risk.ErrDataUnavailable)},
		&fakeQuoter{quotes: []*chains.SwapQuote{liveQuote()}},
		&fakeWallet{txID: "tx-abc"},
		1)

	res, err := fx.executor.ExecuteTrade(context.Background(), executorRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, FailDataUnavailable, res.FailureReason)
	assert.Zero(t, fx.quoter.callCount())
}

func TestExecuteTradeRetriesTransientQuoteFailure(t *testing.T) {
	quoter := &fakeQuoter{
		errs:   []error{fmt.Errorf("jupiter: %w", ErrTransient), nil},
		quotes: []*chains.SwapQuote{nil, liveQuote()},
	}
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{verdict: lowRiskVerdict()},
		quoter,
		&fakeWallet{txID: "tx-retry"},
		1)

	res, err := fx.executor.ExecuteTrade(context.Background(), executorRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusSubmitted, res.Status)
	assert.Equal(t, "tx-retry", res.TxID)
	assert.Equal(t, 2, fx.quoter.callCount(), "quote must be re-fetched on retry")
}

func TestExecuteTradeRetriesTransientSubmitFailure(t *testing.T) {
	wallet := &fakeWallet{
		txID:       "tx-second",
		submitErrs: []error{fmt.Errorf("rpc: %w", ErrTransient), nil},
	}
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{verdict: lowRiskVerdict()},
		&fakeQuoter{quotes: []*chains.SwapQuote{liveQuote(), liveQuote()}},
		wallet,
		1)

	res, err := fx.executor.ExecuteTrade(context.Background(), executorRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusSubmitted, res.Status)
	assert.Equal(t, 2, fx.quoter.callCount(), "retry must not reuse the stale quote")
	assert.Equal(t, 2, wallet.submits)
}

func TestExecuteTradeExhaustsRetries(t *testing.T) {
	quoter := &fakeQuoter{errs: []error{
		fmt.Errorf("jupiter: %w", ErrTransient),
		fmt.Errorf("jupiter: %w", ErrTransient),
	}, quotes: []*chains.SwapQuote{nil, nil}}
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{verdict: lowRiskVerdict()},
		quoter,
		&fakeWallet{txID: "tx-abc"},
		1)

	res, err := fx.executor.ExecuteTrade(context.Background(), executorRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, FailTransientNetwork, res.FailureReason)
	assert.Equal(t, 2, fx.quoter.callCount())
}

func TestExecuteTradeGuardRejectionIsFinal(t *testing.T) {
	quote := liveQuote()
	quote.PriceImpactPct = 0.5
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{verdict: lowRiskVerdict()},
		&fakeQuoter{quotes: []*chains.SwapQuote{quote}},
		&fakeWallet{txID: "tx-abc"},
		3)

	res, err := fx.executor.ExecuteTrade(context.Background(), executorRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, res.Status)
	assert.Equal(t, RejectPriceImpactTooHigh, res.RejectReason)
	assert.Equal(t, 1, fx.quoter.callCount(), "a rejection must not be retried")
	assert.Equal(t, 0, fx.wallet.submits, "nothing reaches the wallet after a rejection")
	fx.store.mu.Lock()
	assert.Empty(t, fx.store.recorded, "rejected trades are never persisted")
	fx.store.mu.Unlock()
}

func TestExecuteTradeHighRiskBlocked(t *testing.T) {
	verdict := lowRiskVerdict()
	verdict.Composite = risk.High
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{verdict: verdict},
		&fakeQuoter{quotes: []*chains.SwapQuote{liveQuote()}},
		&fakeWallet{txID: "tx-abc"},
		1)

	req := executorRequest()
	req.ConfirmMediumRisk = true

	res, err := fx.executor.ExecuteTrade(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Status)
	assert.Equal(t, RejectTokenRiskTooHigh, res.RejectReason)
}

func TestExecuteTradeSigningDenied(t *testing.T) {
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{verdict: lowRiskVerdict()},
		&fakeQuoter{quotes: []*chains.SwapQuote{liveQuote()}},
		&fakeWallet{signErr: fmt.Errorf("wallet: %w", ErrSigningDenied)},
		1)

	res, err := fx.executor.ExecuteTrade(context.Background(), executorRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, FailExecution, res.FailureReason)
	assert.Equal(t, 1, fx.quoter.callCount(), "a signing denial is not transient")
}

func TestExecuteTradeHardSubmitFailure(t *testing.T) {
	wallet := &fakeWallet{submitErrs: []error{fmt.Errorf("node: %w", ErrSubmissionFailed)}}
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{verdict: lowRiskVerdict()},
		&fakeQuoter{quotes: []*chains.SwapQuote{liveQuote()}},
		wallet,
		2)

	res, err := fx.executor.ExecuteTrade(context.Background(), executorRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, FailExecution, res.FailureReason)
	assert.Equal(t, 1, wallet.submits, "hard submission failures are not retried")
}

func TestExecuteTradeUnregisteredChain(t *testing.T) {
	fx := newExecutorFixture(
		&fakeAuth{live: true},
		&fakeVerdicts{verdict: lowRiskVerdict()},
		&fakeQuoter{quotes: []*chains.SwapQuote{liveQuote()}},
		&fakeWallet{txID: "tx-abc"},
		1)

	req := executorRequest()
	req.Chain = chains.Ethereum

	_, err := fx.executor.ExecuteTrade(context.Background(), req)
	assert.Error(t, err)
}
