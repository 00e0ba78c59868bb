package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository stores one ChatSettings record per chat.
//
// GetOrInit is insert-if-absent: concurrent first reads for the same chat
// converge on the single row keyed by chat_id, and every caller sees the
// stored defaults. Update is an atomic read-modify-write per chat.
type SettingsRepository interface {
	GetOrInit(ctx context.Context, chatID int64) (*ChatSettings, error)
	Update(ctx context.Context, chatID int64, fn func(*ChatSettings) error) (*ChatSettings, error)
}

type SettingsOptions struct {
	DefaultWebsiteLink string
	EnableCache        bool
	CacheSize          int
	CacheTTL           time.Duration
}

type CachedSettingsRepository struct {
	db          *gorm.DB
	defaultLink string
	cache       *expirable.LRU[int64, ChatSettings]
	locks       *chatLocks
}

const (
	defaultCacheSize = 1024
	defaultCacheTTL  = 5 * time.Minute
)

func NewSettingsRepository(db *gorm.DB, opts SettingsOptions) *CachedSettingsRepository {
	return &CachedSettingsRepository{
		db:          db,
		defaultLink: opts.DefaultWebsiteLink,
		cache:       newSettingsCache(opts),
		locks:       newChatLocks(),
	}
}

func newSettingsCache(opts SettingsOptions) *expirable.LRU[int64, ChatSettings] {
	if !opts.EnableCache {
		return nil
	}
	size, ttl := opts.CacheSize, opts.CacheTTL
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return expirable.NewLRU[int64, ChatSettings](size, nil, ttl)
}

func (r *CachedSettingsRepository) GetOrInit(ctx context.Context, chatID int64) (*ChatSettings, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(chatID); ok {
			s := cached.Clone()
			return &s, nil
		}
	}

	var settings ChatSettings
	err := r.db.WithContext(ctx).First(&settings, "chat_id = ?", chatID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := DefaultSettings(chatID, r.defaultLink)
		if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoNothing: true,
		}).Create(&defaults).Error; err != nil {
			return nil, fmt.Errorf("failed to init settings: %w", err)
		}
		err = r.db.WithContext(ctx).First(&settings, "chat_id = ?", chatID).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if settings.WarnCounts, err = loadWarnCounts(r.db.WithContext(ctx), chatID); err != nil {
		return nil, err
	}

	r.remember(settings)
	return &settings, nil
}

func (r *CachedSettingsRepository) Update(ctx context.Context, chatID int64, fn func(*ChatSettings) error) (*ChatSettings, error) {
	unlock := r.locks.Lock(chatID)
	defer unlock()

	var updated ChatSettings
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settings, err := r.lockRow(tx, chatID)
		if err != nil {
			return err
		}
		counts, err := loadWarnCounts(tx, chatID)
		if err != nil {
			return err
		}
		settings.WarnCounts = counts
		*settings = settings.Clone()
		if err := fn(settings); err != nil {
			return err
		}
		settings.WarnCounts = counts
		settings.ChatID = chatID
		if err := tx.Save(settings).Error; err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		updated = *settings
		return nil
	})
	if err != nil {
		r.Invalidate(chatID)
		return nil, err
	}

	r.remember(updated)
	return &updated, nil
}

// lockRow loads the row FOR UPDATE, creating it with defaults when missing.
func (r *CachedSettingsRepository) lockRow(tx *gorm.DB, chatID int64) (*ChatSettings, error) {
	var settings ChatSettings
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&settings, "chat_id = ?", chatID).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lock settings: %w", err)
	}

	defaults := DefaultSettings(chatID, r.defaultLink)
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoNothing: true,
	}).Create(&defaults).Error; err != nil {
		return nil, fmt.Errorf("failed to init settings: %w", err)
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&settings, "chat_id = ?", chatID).Error; err != nil {
		return nil, fmt.Errorf("failed to lock settings: %w", err)
	}
	return &settings, nil
}

// Invalidate drops the cached copy of a chat so the next read hits the database.
func (r *CachedSettingsRepository) Invalidate(chatID int64) {
	if r.cache != nil {
		r.cache.Remove(chatID)
	}
}

func (r *CachedSettingsRepository) remember(settings ChatSettings) {
	if r.cache != nil {
		r.cache.Add(settings.ChatID, settings.Clone())
	}
}
