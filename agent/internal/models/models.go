package models

import "time"

// TokenSnapshotRecord is the persisted form of a token snapshot, upserted by
// (chain, address) on every evaluation cycle.
type TokenSnapshotRecord struct {
	ID               uint      `gorm:"primaryKey"`
	Chain            string    `gorm:"uniqueIndex:idx_snapshot_chain_address;not null"`
	Address          string    `gorm:"uniqueIndex:idx_snapshot_chain_address;not null"`
	Symbol           string
	LiquidityUSD     float64   `gorm:"not null"`
	Volume24hUSD     float64   `gorm:"not null"`
	HolderCount      int       `gorm:"not null"`
	CreatorAddress   string
	CreatorBurnCount int       `gorm:"not null"`
	ProgramID        string
	ReputationLabel  string
	FakeVolumeLabel  string
	Partial          bool      `gorm:"not null"`
	FetchedAt        time.Time `gorm:"not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TradeRecord is written only for submitted trades.
type TradeRecord struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      string    `gorm:"not null"`
	Chain       string    `gorm:"not null"`
	TokenIn     string    `gorm:"not null"`
	TokenOut    string    `gorm:"not null"`
	Amount      float64   `gorm:"not null"`
	AmountOut   float64   `gorm:"not null"`
	TxID        string    `gorm:"unique;not null"`
	SubmittedAt time.Time `gorm:"autoCreateTime"`
}

// BlacklistEntryRecord persists blacklist patterns across restarts.
type BlacklistEntryRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Kind      string    `gorm:"uniqueIndex:idx_blacklist_entry;not null"`
	Pattern   string    `gorm:"uniqueIndex:idx_blacklist_entry;not null"`
	Chain     string    `gorm:"uniqueIndex:idx_blacklist_entry"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
