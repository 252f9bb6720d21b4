package risk

import (
	"time"

	"dex-guard/agent/internal/blacklist"
	"dex-guard/agent/internal/chains"
)

// Thresholds are the static tuning knobs of the scoring engine. They come from
// configuration, not from code; the engine only defines the composition rules.
type Thresholds struct {
	// MaxCreatorBurns is the number of prior liquidity burns by the creator
	// above which creatorRisk reads high.
	MaxCreatorBurns int
	// VolumeLiquidityRatio is the 24h-volume to liquidity ratio above which
	// volume looks manufactured.
	VolumeLiquidityRatio float64
	// MinHolderCount below which a high volume ratio escalates from medium to
	// high.
	MinHolderCount int
}

// Engine turns a snapshot plus the current blacklist state into a verdict.
// Scoring is deterministic: same snapshot, same blacklist entries, same
// thresholds give the same verdict.
type Engine struct {
	registry  *chains.Registry
	blacklist *blacklist.Registry
	cfg       Thresholds
	now       func() time.Time
}

func NewEngine(registry *chains.Registry, bl *blacklist.Registry, cfg Thresholds) *Engine {
	return &Engine{registry: registry, blacklist: bl, cfg: cfg, now: time.Now}
}

// ScoreToken scores one snapshot. The only error case is a chain with no
// registered capability set.
func (e *Engine) ScoreToken(snap *TokenSnapshot) (*Verdict, error) {
	caps, err := e.registry.Lookup(snap.Chain)
	if err != nil {
		return nil, err
	}

	v := &Verdict{
		Chain:       snap.Chain,
		Address:     snap.Address,
		EvaluatedAt: e.now(),
		Partial:     snap.Partial,
	}

	v.LiquidityRisk = Low
	if snap.LiquidityUSD < caps.MinLiquidityUSD {
		v.LiquidityRisk = High
	}

	// An empty program id means the metadata source could not identify the
	// pool program; that counts as absent data, not as unverified.
	v.ProgramRisk = Unknown
	if snap.Sources.Metadata && snap.ProgramID != "" {
		if caps.KnownAMMPrograms[snap.ProgramID] {
			v.ProgramRisk = Low
		} else {
			v.ProgramRisk = High
		}
	}

	v.CreatorRisk = Unknown
	if snap.Sources.Metadata {
		if snap.CreatorBurnCount > e.cfg.MaxCreatorBurns {
			v.CreatorRisk = High
		} else {
			v.CreatorRisk = Low
		}
	}

	external := Unknown
	if snap.Sources.FakeVolume {
		external = LevelFromLabel(snap.FakeVolumeLabel)
	}
	v.FakeVolumeRisk = MaxLevel(e.volumeHeuristic(snap), external)

	v.RugRisk = Unknown
	if snap.Sources.Reputation {
		v.RugRisk = LevelFromLabel(snap.ReputationLabel)
	}

	v.Blacklisted = e.isBlacklisted(snap)
	v.Composite = MaxLevel(v.LiquidityRisk, v.ProgramRisk, v.CreatorRisk, v.FakeVolumeRisk, v.RugRisk)
	if v.Blacklisted {
		// Blacklist override beats every dimension score.
		v.Composite = High
	}

	v.Reasons = buildReasons(v)
	return v, nil
}

// volumeHeuristic flags 24h volume that is large relative to pooled liquidity,
// escalating when the holder base is thin.
func (e *Engine) volumeHeuristic(snap *TokenSnapshot) Level {
	if snap.LiquidityUSD <= 0 {
		if snap.Volume24hUSD > 0 {
			return High
		}
		return Low
	}
	ratio := snap.Volume24hUSD / snap.LiquidityUSD
	if ratio <= e.cfg.VolumeLiquidityRatio {
		return Low
	}
	if snap.HolderCount < e.cfg.MinHolderCount {
		return High
	}
	return Medium
}

func (e *Engine) isBlacklisted(snap *TokenSnapshot) bool {
	if e.blacklist.Matches(snap.Address, blacklist.KindCoin, snap.Chain) {
		return true
	}
	if snap.Symbol != "" && e.blacklist.Matches(snap.Symbol, blacklist.KindCoin, snap.Chain) {
		return true
	}
	if snap.CreatorAddress != "" {
		if e.blacklist.Matches(snap.CreatorAddress, blacklist.KindDeveloper, snap.Chain) {
			return true
		}
		if e.blacklist.Matches(snap.CreatorAddress, blacklist.KindWallet, snap.Chain) {
			return true
		}
	}
	return false
}

// buildReasons lists the contributing dimensions in a fixed order. Anything
// scoring above Low contributes; the blacklist override leads when set.
func buildReasons(v *Verdict) []Reason {
	reasons := make([]Reason, 0, 6)
	if v.Blacklisted {
		reasons = append(reasons, Reason{Dimension: "blacklist", Score: High})
	}
	for _, d := range []struct {
		name  string
		score Level
	}{
		{"liquidity", v.LiquidityRisk},
		{"program", v.ProgramRisk},
		{"creator", v.CreatorRisk},
		{"fakeVolume", v.FakeVolumeRisk},
		{"rug", v.RugRisk},
	} {
		if d.score > Low {
			reasons = append(reasons, Reason{Dimension: d.name, Score: d.score})
		}
	}
	return reasons
}
