package database

import (
	"context"

	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/models"
	"dex-guard/agent/internal/trade"

	"gorm.io/gorm"
)

// TradeStore records submitted trades. Nothing is ever written for rejected
// or failed attempts.
type TradeStore struct {
	db *gorm.DB
}

func NewTradeStore(db *gorm.DB) *TradeStore {
	return &TradeStore{db: db}
}

// RecordSubmitted implements trade.TradeStore.
func (s *TradeStore) RecordSubmitted(ctx context.Context, req trade.TradeRequest, quote *chains.SwapQuote, txID string) error {
	record := models.TradeRecord{
		UserID:    req.UserID,
		Chain:     string(req.Chain),
		TokenIn:   req.TokenIn,
		TokenOut:  req.TokenOut,
		Amount:    req.Amount,
		AmountOut: quote.ExpectedAmountOut,
		TxID:      txID,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}
