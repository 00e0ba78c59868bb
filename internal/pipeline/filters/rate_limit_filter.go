package filters

import (
	"context"
	"sync"
	"time"

	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/pipeline"
)

// RateLimitFilter blocks a sender who posts more than limit messages within
// window in one chat. A limit of zero disables it.
type RateLimitFilter struct {
	mu            sync.Mutex
	msgTimestamps map[string][]time.Time
	limit         int
	window        time.Duration
}

func NewRateLimitFilter(limit int, window time.Duration) *RateLimitFilter {
	return &RateLimitFilter{
		msgTimestamps: make(map[string][]time.Time),
		limit:         limit,
		window:        window,
	}
}

func (f *RateLimitFilter) Name() string {
	return "rate_limit_filter"
}

func (f *RateLimitFilter) Process(_ context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	if f.limit <= 0 {
		return &pipeline.Result{IsAllowed: true}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := payload.SenderIDUserKey()
	now := time.Now()

	var validTimestamps []time.Time
	for _, t := range f.msgTimestamps[key] {
		if now.Sub(t) <= f.window {
			validTimestamps = append(validTimestamps, t)
		}
	}
	validTimestamps = append(validTimestamps, now)
	f.msgTimestamps[key] = validTimestamps

	if len(validTimestamps) > f.limit {
		return &pipeline.Result{
			IsAllowed:  false,
			Reason:     moderation.ReasonFlood,
			FilterName: f.Name(),
		}, nil
	}
	return &pipeline.Result{IsAllowed: true}, nil
}

// Prune drops senders with no messages inside the window and returns how
// many senders are still tracked.
func (f *RateLimitFilter) Prune() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for key, timestamps := range f.msgTimestamps {
		if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) > f.window {
			delete(f.msgTimestamps, key)
		}
	}
	return len(f.msgTimestamps)
}
