package callbacks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/repository"
	"group-guard-bot/internal/service"
	"group-guard-bot/internal/session"
)

// MockService implements only what the callbacks use. Calling anything else panics.
type MockService struct {
	service.Service

	AuthorizeFunc        func(ctx context.Context, chatID, userID int64) error
	GetChatSettingsFunc  func(ctx context.Context, chatID int64) (*repository.ChatSettings, error)
	ToggleSettingFunc    func(ctx context.Context, chatID, actorID int64, key string) (*repository.ChatSettings, error)
	ClearBannedWordsFunc func(ctx context.Context, chatID, actorID int64) (int, error)
	GetChatStatsFunc     func(ctx context.Context, chatID, actorID int64) (*repository.ChatStats, error)
}

func (m *MockService) Authorize(ctx context.Context, chatID, userID int64) error {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, chatID, userID)
	}
	return nil
}

func (m *MockService) GetChatSettings(ctx context.Context, chatID int64) (*repository.ChatSettings, error) {
	if m.GetChatSettingsFunc != nil {
		return m.GetChatSettingsFunc(ctx, chatID)
	}
	s := repository.DefaultSettings(chatID, "")
	return &s, nil
}

func (m *MockService) ToggleSetting(ctx context.Context, chatID, actorID int64, key string) (*repository.ChatSettings, error) {
	return m.ToggleSettingFunc(ctx, chatID, actorID, key)
}

func (m *MockService) ClearBannedWords(ctx context.Context, chatID, actorID int64) (int, error) {
	return m.ClearBannedWordsFunc(ctx, chatID, actorID)
}

func (m *MockService) GetChatStats(ctx context.Context, chatID, actorID int64) (*repository.ChatStats, error) {
	return m.GetChatStatsFunc(ctx, chatID, actorID)
}

// MockPlatform records outgoing calls.
type MockPlatform struct {
	platform.Platform

	SendMessageFunc func(ctx context.Context, msg platform.OutgoingMessage) (int, error)

	mu       sync.Mutex
	Sent     []platform.OutgoingMessage
	Edited   [][][]platform.Button
	Deleted  []int
	Answered []string
}

func (m *MockPlatform) SendMessage(ctx context.Context, msg platform.OutgoingMessage) (int, error) {
	m.mu.Lock()
	m.Sent = append(m.Sent, msg)
	n := len(m.Sent)
	m.mu.Unlock()
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, msg)
	}
	return 500 + n, nil
}

func (m *MockPlatform) EditButtons(_ context.Context, _ int64, _ int, buttons [][]platform.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, buttons)
	return nil
}

func (m *MockPlatform) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, messageID)
	return nil
}

func (m *MockPlatform) AnswerCallback(_ context.Context, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answered = append(m.Answered, text)
	return nil
}

func (m *MockPlatform) ChatTitle(_ context.Context, chatID int64) (string, error) {
	return fmt.Sprintf("Group %d", chatID), nil
}

func newTestHandler(svc *MockService, plat *MockPlatform) (*CallbackHandler, *session.Store) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewStore(time.Minute)
	return NewCallbackHandler(logger, svc, plat, sessions, noop.NewTracerProvider().Tracer("test")), sessions
}
