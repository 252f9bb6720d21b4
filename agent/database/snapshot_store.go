package database

import (
	"context"

	"dex-guard/agent/internal/models"
	"dex-guard/agent/internal/risk"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotStore upserts token snapshots by (chain, address).
type SnapshotStore struct {
	db *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// UpsertSnapshot implements risk.SnapshotStore. The latest snapshot wins;
// history is not kept.
func (s *SnapshotStore) UpsertSnapshot(ctx context.Context, snap *risk.TokenSnapshot) error {
	record := models.TokenSnapshotRecord{
		Chain:            string(snap.Chain),
		Address:          snap.Address,
		Symbol:           snap.Symbol,
		LiquidityUSD:     snap.LiquidityUSD,
		Volume24hUSD:     snap.Volume24hUSD,
		HolderCount:      snap.HolderCount,
		CreatorAddress:   snap.CreatorAddress,
		CreatorBurnCount: snap.CreatorBurnCount,
		ProgramID:        snap.ProgramID,
		ReputationLabel:  snap.ReputationLabel,
		FakeVolumeLabel:  snap.FakeVolumeLabel,
		Partial:          snap.Partial,
		FetchedAt:        snap.FetchedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chain"}, {Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"symbol", "liquidity_usd", "volume24h_usd", "holder_count",
			"creator_address", "creator_burn_count", "program_id",
			"reputation_label", "fake_volume_label", "partial", "fetched_at",
			"updated_at",
		}),
	}).Create(&record).Error
}
