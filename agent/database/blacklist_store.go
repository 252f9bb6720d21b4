package database

import (
	"context"

	"dex-guard/agent/internal/blacklist"
	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlacklistStore persists blacklist patterns so the registry survives
// restarts.
type BlacklistStore struct {
	db *gorm.DB
}

func NewBlacklistStore(db *gorm.DB) *BlacklistStore {
	return &BlacklistStore{db: db}
}

// LoadInto replays every stored entry into the registry. Called once at
// startup.
func (s *BlacklistStore) LoadInto(ctx context.Context, registry *blacklist.Registry) error {
	var records []models.BlacklistEntryRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return err
	}
	for _, r := range records {
		registry.Add(blacklist.Kind(r.Kind), r.Pattern, chains.Chain(r.Chain))
	}
	return nil
}

// Save upserts one entry.
func (s *BlacklistStore) Save(ctx context.Context, entry blacklist.Entry) error {
	record := models.BlacklistEntryRecord{
		Kind:    string(entry.Kind),
		Pattern: entry.Pattern,
		Chain:   string(entry.Chain),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

// Delete removes every row with the given pattern.
func (s *BlacklistStore) Delete(ctx context.Context, pattern string) error {
	return s.db.WithContext(ctx).Where("pattern = ?", pattern).Delete(&models.BlacklistEntryRecord{}).Error
}
