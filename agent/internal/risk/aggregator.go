package risk

import (
	"context"
	"fmt"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/shared/logger"

	"golang.org/x/sync/singleflight"
)

// SnapshotStore persists snapshots keyed by (chain, address). Writes are
// best-effort; an upsert failure never fails a fetch.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, snap *TokenSnapshot) error
}

// AggregatorConfig bounds the external fan-out.
type AggregatorConfig struct {
	// FetchTimeout bounds the whole FetchSnapshot call.
	FetchTimeout time.Duration
	// OptionalTimeout bounds each optional source individually. An optional
	// source hitting its own deadline does not fail the call.
	OptionalTimeout time.Duration
}

func (c *AggregatorConfig) withDefaults() AggregatorConfig {
	out := *c
	if out.FetchTimeout <= 0 {
		out.FetchTimeout = 10 * time.Second
	}
	if out.OptionalTimeout <= 0 {
		out.OptionalTimeout = 4 * time.Second
	}
	return out
}

// Aggregator fans out to the market-data, chain-metadata, reputation and
// fake-volume sources concurrently and merges the answers into one snapshot.
// Concurrent fetches for the same (chain, address) are coalesced into a single
// underlying fan-out.
type Aggregator struct {
	registry   *chains.Registry
	market     MarketDataSource
	reputation LabelSource
	fakeVolume LabelSource
	store      SnapshotStore
	cfg        AggregatorConfig
	group      singleflight.Group
	log        *logger.Logger
	now        func() time.Time
}

func NewAggregator(registry *chains.Registry, market MarketDataSource, reputation, fakeVolume LabelSource, store SnapshotStore, cfg AggregatorConfig, log *logger.Logger) *Aggregator {
	return &Aggregator{
		registry:   registry,
		market:     market,
		reputation: reputation,
		fakeVolume: fakeVolume,
		store:      store,
		cfg:        cfg.withDefaults(),
		log:        log,
		now:        time.Now,
	}
}

// FetchSnapshot fetches a fresh snapshot for (chain, address). It fails with
// ErrDataUnavailable only when the mandatory market-data source is
// unreachable; optional-source failures mark the snapshot Partial instead.
func (a *Aggregator) FetchSnapshot(ctx context.Context, chain chains.Chain, address string) (*TokenSnapshot, error) {
	key := string(chain) + "|" + address
	v, err, shared := a.group.Do(key, func() (interface{}, error) {
		return a.fetch(ctx, chain, address)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		a.log.Debug("snapshot fetch coalesced", "chain", chain, "address", address)
	}
	return v.(*TokenSnapshot), nil
}

type metadataResult struct {
	meta *chains.TokenMetadata
	err  error
}

type labelResult struct {
	label string
	err   error
}

func (a *Aggregator) fetch(ctx context.Context, chain chains.Chain, address string) (*TokenSnapshot, error) {
	caps, err := a.registry.Lookup(chain)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
	defer cancel()

	metaCh := make(chan metadataResult, 1)
	repCh := make(chan labelResult, 1)
	fakeCh := make(chan labelResult, 1)

	go func() {
		subCtx, subCancel := context.WithTimeout(ctx, a.cfg.OptionalTimeout)
		defer subCancel()
		meta, err := caps.Metadata.TokenMetadata(subCtx, address)
		metaCh <- metadataResult{meta: meta, err: err}
	}()
	go func() {
		subCtx, subCancel := context.WithTimeout(ctx, a.cfg.OptionalTimeout)
		defer subCancel()
		label, err := a.reputation.RiskLabel(subCtx, chain, address)
		repCh <- labelResult{label: label, err: err}
	}()
	go func() {
		subCtx, subCancel := context.WithTimeout(ctx, a.cfg.OptionalTimeout)
		defer subCancel()
		label, err := a.fakeVolume.RiskLabel(subCtx, chain, address)
		fakeCh <- labelResult{label: label, err: err}
	}()

	// The market source is mandatory, so its failure fails the whole call.
	stats, err := a.market.TokenStats(ctx, chain, address)
	if err != nil {
		a.log.Warn("market data fetch failed", "chain", chain, "address", address, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	snap := &TokenSnapshot{
		Chain:        chain,
		Address:      address,
		Symbol:       stats.Symbol,
		LiquidityUSD: stats.LiquidityUSD,
		Volume24hUSD: stats.Volume24hUSD,
		HolderCount:  stats.HolderCount,
		CreatedAt:    stats.CreatedAt,
		FetchedAt:    a.now(),
	}
	snap.Sources.Market = true

	meta := <-metaCh
	if meta.err != nil || meta.meta == nil {
		a.log.Debug("chain metadata unavailable", "chain", chain, "address", address, "error", meta.err)
		snap.Partial = true
	} else {
		snap.Sources.Metadata = true
		snap.CreatorAddress = meta.meta.CreatorAddress
		snap.CreatorBurnCount = meta.meta.CreatorBurnCount
		snap.ProgramID = meta.meta.ProgramID
	}

	rep := <-repCh
	if rep.err != nil {
		a.log.Debug("reputation source unavailable", "chain", chain, "address", address, "error", rep.err)
		snap.Partial = true
	} else {
		snap.Sources.Reputation = true
		snap.ReputationLabel = rep.label
	}

	fake := <-fakeCh
	if fake.err != nil {
		a.log.Debug("fake-volume source unavailable", "chain", chain, "address", address, "error", fake.err)
		snap.Partial = true
	} else {
		snap.Sources.FakeVolume = true
		snap.FakeVolumeLabel = fake.label
	}

	a.persist(snap)
	return snap, nil
}

// persist upserts the snapshot in the background. Storage failures are logged
// and dropped so they can never block or fail an evaluation.
func (a *Aggregator) persist(snap *TokenSnapshot) {
	if a.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.UpsertSnapshot(ctx, snap); err != nil {
			a.log.Warn("snapshot upsert failed", "chain", snap.Chain, "address", snap.Address, "error", err)
		}
	}()
}
