package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	StatLinkViolations  = "link_violations"
	StatWordViolations  = "word_violations"
	StatFloodViolations = "flood_violations"
	StatMuteCount       = "mute_count"
	StatBanCount        = "ban_count"
	StatWelcomeCount    = "welcome_count"
)

var statFields = map[string]func(*ChatStats){
	StatLinkViolations:  func(s *ChatStats) { s.LinkViolations = 1 },
	StatWordViolations:  func(s *ChatStats) { s.WordViolations = 1 },
	StatFloodViolations: func(s *ChatStats) { s.FloodViolations = 1 },
	StatMuteCount:       func(s *ChatStats) { s.MuteCount = 1 },
	StatBanCount:        func(s *ChatStats) { s.BanCount = 1 },
	StatWelcomeCount:    func(s *ChatStats) { s.WelcomeCount = 1 },
}

// StatsRepository keeps daily per-chat moderation counters.
type StatsRepository interface {
	IncrementChatStat(ctx context.Context, chatID int64, field string) error
	GetChatTotalStats(ctx context.Context, chatID int64) (*ChatStats, error)
}

type PostgresStatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &PostgresStatsRepository{db: db}
}

func statsDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

func (r *PostgresStatsRepository) IncrementChatStat(ctx context.Context, chatID int64, field string) error {
	set, ok := statFields[field]
	if !ok {
		return fmt.Errorf("unknown stat field: %s", field)
	}
	row := ChatStats{ChatID: chatID, Date: statsDay(time.Now())}
	set(&row)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			field: clause.Expr{SQL: "chat_stats." + field + " + 1"},
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}
	return nil
}

func (r *PostgresStatsRepository) GetChatTotalStats(ctx context.Context, chatID int64) (*ChatStats, error) {
	var stats ChatStats
	err := r.db.WithContext(ctx).Model(&ChatStats{}).
		Select("chat_id, SUM(link_violations) as link_violations, SUM(word_violations) as word_violations, SUM(flood_violations) as flood_violations, SUM(mute_count) as mute_count, SUM(ban_count) as ban_count, SUM(welcome_count) as welcome_count").
		Where("chat_id = ?", chatID).
		Group("chat_id").
		Take(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ChatStats{ChatID: chatID}, nil
		}
		return nil, fmt.Errorf("failed to get chat stats: %w", err)
	}
	return &stats, nil
}
