package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebsite = "https://example.org"

var ignoreTimestamps = cmpopts.IgnoreFields(ChatSettings{}, "CreatedAt", "UpdatedAt")

func TestSettingsRepository_GetOrInit(t *testing.T) {
	for _, enableCache := range []bool{false, true} {
		t.Run(fmt.Sprintf("cache=%v", enableCache), func(t *testing.T) {
			repo := NewSettingsRepository(newTestDB(t), SettingsOptions{
				DefaultWebsiteLink: testWebsite,
				EnableCache:        enableCache,
			})
			ctx := context.Background()

			first, err := repo.GetOrInit(ctx, -100)
			require.NoError(t, err)
			assert.False(t, first.LinkFilterEnabled)
			assert.True(t, first.WelcomeEnabled)
			assert.True(t, first.CleanServiceMessages)
			assert.Equal(t, testWebsite, first.WebsiteLink)
			assert.Empty(t, first.BannedWords)
			assert.Empty(t, first.BannedUsers)
			assert.Empty(t, first.MutedUsers)

			second, err := repo.GetOrInit(ctx, -100)
			require.NoError(t, err)
			if diff := cmp.Diff(first, second, ignoreTimestamps, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("GetOrInit() not idempotent (-first +second):\n%s", diff)
			}
		})
	}
}

func TestSettingsRepository_GetOrInitConcurrentFirstAccess(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingsRepository(db, SettingsOptions{DefaultWebsiteLink: testWebsite})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetOrInit(context.Background(), -200); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("GetOrInit() error = %v", err)
	}

	var count int64
	require.NoError(t, db.Model(&ChatSettings{}).Where("chat_id = ?", -200).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSettingsRepository_UpdateKeepsOtherFields(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t), SettingsOptions{DefaultWebsiteLink: testWebsite, EnableCache: true})
	ctx := context.Background()

	_, err := repo.Update(ctx, -1, func(s *ChatSettings) error {
		s.BannedWords = append(s.BannedWords, "spam")
		return nil
	})
	require.NoError(t, err)

	enabled := true
	updated, err := repo.Update(ctx, -1, func(s *ChatSettings) error {
		*s = Merge(*s, SettingsPatch{LinkFilterEnabled: &enabled})
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.LinkFilterEnabled)
	assert.Equal(t, []string{"spam"}, []string(updated.BannedWords))
	assert.True(t, updated.WelcomeEnabled)
	assert.Equal(t, testWebsite, updated.WebsiteLink)

	reloaded, err := repo.GetOrInit(ctx, -1)
	require.NoError(t, err)
	if diff := cmp.Diff(updated, reloaded, ignoreTimestamps, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("GetOrInit() after Update mismatch (-updated +reloaded):\n%s", diff)
	}
}

func TestSettingsRepository_UpdateErrorRollsBack(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t), SettingsOptions{})
	ctx := context.Background()
	errBoom := errors.New("boom")

	_, err := repo.Update(ctx, -5, func(s *ChatSettings) error {
		s.WebsiteLink = "https://changed.example"
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	s, err := repo.GetOrInit(ctx, -5)
	require.NoError(t, err)
	assert.Empty(t, s.WebsiteLink)
}

func TestSettingsRepository_ConcurrentUpdatesAreNotLost(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t), SettingsOptions{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(ctx, -7, func(s *ChatSettings) error {
				s.BannedWords = append(s.BannedWords, fmt.Sprintf("word%d", i))
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := repo.Update(ctx, -7, func(s *ChatSettings) error {
			s.LinkFilterEnabled = !s.LinkFilterEnabled
			return nil
		})
		assert.NoError(t, err)
	}()
	wg.Wait()

	s, err := repo.GetOrInit(ctx, -7)
	require.NoError(t, err)
	assert.Len(t, s.BannedWords, 10)
	assert.True(t, s.LinkFilterEnabled)
}

func TestSettingsRepository_CachedValueIsNotShared(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t), SettingsOptions{EnableCache: true, CacheTTL: time.Minute})
	ctx := context.Background()

	s, err := repo.GetOrInit(ctx, -9)
	require.NoError(t, err)
	s.BannedWords = append(s.BannedWords, "local")
	s.LinkFilterEnabled = true

	again, err := repo.GetOrInit(ctx, -9)
	require.NoError(t, err)
	assert.Empty(t, again.BannedWords)
	assert.False(t, again.LinkFilterEnabled)
}

func TestSettingsRepository_WarnCountsFollowTheLedger(t *testing.T) {
	for _, enableCache := range []bool{false, true} {
		t.Run(fmt.Sprintf("cache=%v", enableCache), func(t *testing.T) {
			db := newTestDB(t)
			repo := NewSettingsRepository(db, SettingsOptions{EnableCache: enableCache})
			warns := NewWarnRepository(db, repo.Invalidate)
			ctx := context.Background()

			first, err := repo.GetOrInit(ctx, -11)
			require.NoError(t, err)
			assert.Empty(t, first.WarnCounts)

			for i := 0; i < 2; i++ {
				_, err := warns.IncrementWarn(ctx, -11, 42)
				require.NoError(t, err)
			}
			_, err = warns.IncrementWarn(ctx, -11, 43)
			require.NoError(t, err)
			_, err = warns.IncrementWarn(ctx, -12, 42)
			require.NoError(t, err)

			s, err := repo.GetOrInit(ctx, -11)
			require.NoError(t, err)
			assert.Equal(t, map[int64]int{42: 2, 43: 1}, s.WarnCounts)

			updated, err := repo.Update(ctx, -11, func(s *ChatSettings) error {
				assert.Equal(t, 2, s.WarnCounts[42])
				s.WarnCounts[42] = 100
				s.LinkFilterEnabled = true
				return nil
			})
			require.NoError(t, err)
			assert.True(t, updated.LinkFilterEnabled)

			reloaded, err := repo.GetOrInit(ctx, -11)
			require.NoError(t, err)
			assert.Equal(t, map[int64]int{42: 2, 43: 1}, reloaded.WarnCounts, "settings writes never change the ledger")
		})
	}
}
