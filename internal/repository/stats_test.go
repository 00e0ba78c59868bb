package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRepository_IncrementAndTotals(t *testing.T) {
	repo := NewStatsRepository(newTestDB(t))
	ctx := context.Background()

	empty, err := repo.GetChatTotalStats(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, &ChatStats{ChatID: -1}, empty)

	for _, field := range []string{StatLinkViolations, StatLinkViolations, StatWordViolations, StatBanCount, StatWelcomeCount} {
		require.NoError(t, repo.IncrementChatStat(ctx, -1, field))
	}
	require.NoError(t, repo.IncrementChatStat(ctx, -2, StatMuteCount))

	stats, err := repo.GetChatTotalStats(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.LinkViolations)
	assert.Equal(t, int64(1), stats.WordViolations)
	assert.Equal(t, int64(1), stats.BanCount)
	assert.Equal(t, int64(1), stats.WelcomeCount)
	assert.Equal(t, int64(0), stats.MuteCount)
}

func TestStatsRepository_UnknownField(t *testing.T) {
	repo := NewStatsRepository(newTestDB(t))
	err := repo.IncrementChatStat(context.Background(), -1, "image_violations")
	assert.EqualError(t, err, "unknown stat field: image_violations")
}
