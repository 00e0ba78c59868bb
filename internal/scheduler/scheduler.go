// Package scheduler runs best-effort deferred tasks such as removing
// transient bot messages.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is a deferred callback. Its error is logged and otherwise dropped.
type Task func(ctx context.Context) error

// Clock schedules deferred tasks.
type Clock interface {
	ScheduleAfter(delay time.Duration, name string, task Task)
}

// Scheduler runs each task on its own timer. Pending timers are stopped when
// the context passed to New is done. Task panics are recovered.
type Scheduler struct {
	ctx         context.Context
	logger      *slog.Logger
	taskTimeout time.Duration

	mu     sync.Mutex
	timers map[uint64]*time.Timer
	nextID uint64
	wg     sync.WaitGroup
}

func New(ctx context.Context, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		ctx:         ctx,
		logger:      logger,
		taskTimeout: 10 * time.Second,
		timers:      make(map[uint64]*time.Timer),
	}
	go func() {
		<-ctx.Done()
		s.stopAll()
	}()
	return s
}

func (s *Scheduler) ScheduleAfter(delay time.Duration, name string, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	id := s.nextID
	s.nextID++

	s.wg.Add(1)
	s.timers[id] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.run(name, task)
	})
}

func (s *Scheduler) run(name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Scheduled task panicked", "task", name, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()
	if err := task(ctx); err != nil {
		s.logger.Debug("Scheduled task failed", "task", name, "error", err)
	}
}

func (s *Scheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
}

// Pending is the number of tasks that have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Wait blocks until every fired task has returned and the rest were stopped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
