package database

import (
	"database/sql"
	"log"

	"dex-guard/agent/internal/models"

	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

// MigrateDatabase runs GORM AutoMigrate for the models plus raw SQL as a
// safety fallback for fresh databases.
func MigrateDatabase(db *gorm.DB, dsn string) error {
	log.Println("Running GORM migrations...")
	err := db.AutoMigrate(
		&models.TokenSnapshotRecord{},
		&models.TradeRecord{},
		&models.BlacklistEntryRecord{},
	)
	if err != nil {
		return err
	}
	log.Println("GORM migrations executed successfully.")

	dbSQL, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer dbSQL.Close()

	return executeSQLMigrations(dbSQL)
}

func executeSQLMigrations(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS token_snapshot_records (
            id SERIAL PRIMARY KEY,
            chain TEXT NOT NULL,
            address TEXT NOT NULL,
            symbol TEXT,
            liquidity_usd FLOAT NOT NULL,
            volume24h_usd FLOAT NOT NULL,
            holder_count INT NOT NULL,
            creator_address TEXT,
            creator_burn_count INT NOT NULL,
            program_id TEXT,
            reputation_label TEXT,
            fake_volume_label TEXT,
            partial BOOLEAN NOT NULL,
            fetched_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (chain, address)
        );`,
		`CREATE TABLE IF NOT EXISTS trade_records (
            id SERIAL PRIMARY KEY,
            user_id TEXT NOT NULL,
            chain TEXT NOT NULL,
            token_in TEXT NOT NULL,
            token_out TEXT NOT NULL,
            amount FLOAT NOT NULL,
            amount_out FLOAT NOT NULL,
            tx_id TEXT UNIQUE NOT NULL,
            submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS blacklist_entry_records (
            id SERIAL PRIMARY KEY,
            kind TEXT NOT NULL,
            pattern TEXT NOT NULL,
            chain TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (kind, pattern, chain)
        );`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			log.Printf("Failed to execute migration query: %v", err)
			return err
		}
	}
	log.Println("Raw SQL migrations executed successfully.")
	return nil
}
