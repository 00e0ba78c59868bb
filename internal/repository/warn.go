package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WarnRepository is the per (chat, user) warn ledger.
type WarnRepository interface {
	// IncrementWarn adds exactly one warning and returns the new count.
	IncrementWarn(ctx context.Context, chatID, userID int64) (int, error)
	GetWarnCount(ctx context.Context, chatID, userID int64) (int, error)
}

type PostgresWarnRepository struct {
	db       *gorm.DB
	onChange func(chatID int64)
}

// NewWarnRepository returns the SQL warn ledger. onChange, when set, runs
// after every increment; the app passes the settings cache invalidation so
// cached WarnCounts never lag the ledger.
func NewWarnRepository(db *gorm.DB, onChange func(chatID int64)) WarnRepository {
	return &PostgresWarnRepository{db: db, onChange: onChange}
}

func (r *PostgresWarnRepository) IncrementWarn(ctx context.Context, chatID, userID int64) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"warns":      clause.Expr{SQL: "warn_counts.warns + 1"},
				"updated_at": time.Now(),
			}),
		}).Create(&WarnCount{
			ChatID:    chatID,
			UserID:    userID,
			Warns:     1,
			UpdatedAt: time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("failed to increment warn: %w", err)
		}

		var row WarnCount
		if err := tx.First(&row, "chat_id = ? AND user_id = ?", chatID, userID).Error; err != nil {
			return fmt.Errorf("failed to read warn count: %w", err)
		}
		count = row.Warns
		return nil
	})
	if err != nil {
		return 0, err
	}
	if r.onChange != nil {
		r.onChange(chatID)
	}
	return count, nil
}

func (r *PostgresWarnRepository) GetWarnCount(ctx context.Context, chatID, userID int64) (int, error) {
	var row WarnCount
	err := r.db.WithContext(ctx).First(&row, "chat_id = ? AND user_id = ?", chatID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get warn count: %w", err)
	}
	return row.Warns, nil
}

// loadWarnCounts reads every counter of a chat, keyed by user id.
func loadWarnCounts(db *gorm.DB, chatID int64) (map[int64]int, error) {
	var rows []WarnCount
	if err := db.Where("chat_id = ?", chatID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load warn counts: %w", err)
	}
	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.Warns
	}
	return counts, nil
}
