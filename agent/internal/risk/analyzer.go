package risk

import (
	"context"
	"sync"
	"time"

	"dex-guard/agent/internal/chains"
)

// Analyzer ties the aggregator and engine together behind the public
// analyze-token operation and keeps the latest verdict per (chain, address)
// so the executor can reuse it within the freshness window.
type Analyzer struct {
	agg       *Aggregator
	engine    *Engine
	freshness time.Duration

	mu       sync.RWMutex
	verdicts map[string]*Verdict
	now      func() time.Time
}

const DefaultFreshness = 60 * time.Second

func NewAnalyzer(agg *Aggregator, engine *Engine, freshness time.Duration) *Analyzer {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Analyzer{
		agg:       agg,
		engine:    engine,
		freshness: freshness,
		verdicts:  make(map[string]*Verdict),
		now:       time.Now,
	}
}

// AnalyzeToken fetches a fresh snapshot and scores it. The resulting verdict
// replaces any cached one for the pair.
func (a *Analyzer) AnalyzeToken(ctx context.Context, chain chains.Chain, address string) (*Verdict, error) {
	snap, err := a.agg.FetchSnapshot(ctx, chain, address)
	if err != nil {
		return nil, err
	}
	v, err := a.engine.ScoreToken(snap)
	if err != nil {
		return nil, err
	}
	key := string(chain) + "|" + address
	a.mu.Lock()
	a.verdicts[key] = v
	a.mu.Unlock()
	return v, nil
}

// FreshVerdict returns a verdict no older than the freshness window,
// re-evaluating synchronously when the cached one is stale or absent.
func (a *Analyzer) FreshVerdict(ctx context.Context, chain chains.Chain, address string) (*Verdict, error) {
	key := string(chain) + "|" + address
	a.mu.RLock()
	v, ok := a.verdicts[key]
	a.mu.RUnlock()
	if ok && a.now().Sub(v.EvaluatedAt) < a.freshness {
		return v, nil
	}
	return a.AnalyzeToken(ctx, chain, address)
}
