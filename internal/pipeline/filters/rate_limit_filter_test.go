package filters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/pipeline"
)

func TestRateLimitFilter_Process(t *testing.T) {
	filter := NewRateLimitFilter(5, 100*time.Millisecond)

	ctx := context.Background()
	payload := pipeline.Payload{
		ChatID:   -100,
		SenderID: 123,
		Text:     "text",
	}

	for i := 0; i < 5; i++ {
		res, err := filter.Process(ctx, payload)
		assert.NoError(t, err)
		assert.True(t, res.IsAllowed, "Message %d should be allowed", i+1)
	}

	res, err := filter.Process(ctx, payload)
	assert.NoError(t, err)
	assert.False(t, res.IsAllowed, "6th message should be blocked")
	assert.Equal(t, moderation.ReasonFlood, res.Reason)

	payload2 := pipeline.Payload{
		ChatID:   -100,
		SenderID: 456,
		Text:     "text",
	}
	res, err = filter.Process(ctx, payload2)
	assert.NoError(t, err)
	assert.True(t, res.IsAllowed, "Different user should be allowed")

	time.Sleep(150 * time.Millisecond)

	res, err = filter.Process(ctx, payload)
	assert.NoError(t, err)
	assert.True(t, res.IsAllowed, "Message after window should be allowed")
}

func TestRateLimitFilter_Disabled(t *testing.T) {
	filter := NewRateLimitFilter(0, time.Second)
	for i := 0; i < 100; i++ {
		res, err := filter.Process(context.Background(), pipeline.Payload{ChatID: -1, SenderID: 1})
		assert.NoError(t, err)
		assert.True(t, res.IsAllowed)
	}
	assert.Empty(t, filter.msgTimestamps)
}

func TestRateLimitFilter_Prune(t *testing.T) {
	filter := NewRateLimitFilter(3, 20*time.Millisecond)
	_, _ = filter.Process(context.Background(), pipeline.Payload{ChatID: -1, SenderID: 1})
	assert.Len(t, filter.msgTimestamps, 1)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, filter.Prune())
	assert.Empty(t, filter.msgTimestamps)
}
