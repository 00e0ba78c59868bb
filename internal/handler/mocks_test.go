package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/repository"
	"group-guard-bot/internal/service"
	"group-guard-bot/internal/session"
)

// MockService implements the service methods the handler calls. Calling
// anything else panics through the nil embedded interface.
type MockService struct {
	service.Service

	EvaluateIncomingTextFunc func(ctx context.Context, msg service.IncomingText) (service.Decision, error)
	EvaluateNewMemberFunc    func(ctx context.Context, join service.NewMembers) (service.NewMemberResult, error)
	ApplyWarnOrBanFunc       func(ctx context.Context, chatID, actorID, targetID int64) (moderation.Infraction, error)
	ApplyDirectBanFunc       func(ctx context.Context, chatID, actorID, targetID int64) error
	SetWebsiteLinkFunc       func(ctx context.Context, chatID, actorID int64, raw string) (*repository.ChatSettings, error)
	AddBannedWordsFunc       func(ctx context.Context, chatID, actorID int64, words []string) (int, error)
	RemoveBannedWordFunc     func(ctx context.Context, chatID, actorID int64, word string) error
	GetChatSettingsFunc      func(ctx context.Context, chatID int64) (*repository.ChatSettings, error)
	GetWarnCountFunc         func(ctx context.Context, chatID, actorID, targetID int64) (int, error)
	AuthorizeFunc            func(ctx context.Context, chatID, userID int64) error
	ChatAllowedFunc          func(chatID int64) bool

	mu        sync.Mutex
	Scheduled []int
}

func (m *MockService) EvaluateIncomingText(ctx context.Context, msg service.IncomingText) (service.Decision, error) {
	if m.EvaluateIncomingTextFunc != nil {
		return m.EvaluateIncomingTextFunc(ctx, msg)
	}
	return service.Decision{}, nil
}

func (m *MockService) EvaluateNewMember(ctx context.Context, join service.NewMembers) (service.NewMemberResult, error) {
	return m.EvaluateNewMemberFunc(ctx, join)
}

func (m *MockService) ApplyWarnOrBan(ctx context.Context, chatID, actorID, targetID int64) (moderation.Infraction, error) {
	return m.ApplyWarnOrBanFunc(ctx, chatID, actorID, targetID)
}

func (m *MockService) ApplyDirectBan(ctx context.Context, chatID, actorID, targetID int64) error {
	return m.ApplyDirectBanFunc(ctx, chatID, actorID, targetID)
}

func (m *MockService) SetWebsiteLink(ctx context.Context, chatID, actorID int64, raw string) (*repository.ChatSettings, error) {
	return m.SetWebsiteLinkFunc(ctx, chatID, actorID, raw)
}

func (m *MockService) AddBannedWords(ctx context.Context, chatID, actorID int64, words []string) (int, error) {
	return m.AddBannedWordsFunc(ctx, chatID, actorID, words)
}

func (m *MockService) RemoveBannedWord(ctx context.Context, chatID, actorID int64, word string) error {
	return m.RemoveBannedWordFunc(ctx, chatID, actorID, word)
}

func (m *MockService) GetChatSettings(ctx context.Context, chatID int64) (*repository.ChatSettings, error) {
	if m.GetChatSettingsFunc != nil {
		return m.GetChatSettingsFunc(ctx, chatID)
	}
	s := repository.DefaultSettings(chatID, "")
	return &s, nil
}

func (m *MockService) GetWarnCount(ctx context.Context, chatID, actorID, targetID int64) (int, error) {
	return m.GetWarnCountFunc(ctx, chatID, actorID, targetID)
}

func (m *MockService) Authorize(ctx context.Context, chatID, userID int64) error {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, chatID, userID)
	}
	return nil
}

func (m *MockService) ChatAllowed(chatID int64) bool {
	if m.ChatAllowedFunc != nil {
		return m.ChatAllowedFunc(chatID)
	}
	return true
}

func (m *MockService) ScheduleDeletion(_ int64, messageID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scheduled = append(m.Scheduled, messageID)
}

type MockPlatform struct {
	platform.Platform

	DownloadFileFunc func(ctx context.Context, fileID string, maxBytes int64) ([]byte, error)

	mu      sync.Mutex
	Sent    []platform.OutgoingMessage
	Deleted []int
}

func (m *MockPlatform) SendMessage(_ context.Context, msg platform.OutgoingMessage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return 900 + len(m.Sent), nil
}

func (m *MockPlatform) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, messageID)
	return nil
}

func (m *MockPlatform) DownloadFile(ctx context.Context, fileID string, maxBytes int64) ([]byte, error) {
	return m.DownloadFileFunc(ctx, fileID, maxBytes)
}

func (m *MockPlatform) ChatTitle(context.Context, int64) (string, error) {
	return "Test group", nil
}

func (m *MockPlatform) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Sent))
	for _, s := range m.Sent {
		out = append(out, s.Text)
	}
	return out
}

func newTestHandler(svc *MockService, plat *MockPlatform) (*Handler, *session.Store) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewStore(time.Minute)
	return NewHandler(logger, svc, plat, sessions, Options{BotUserName: "group_guard_bot"}), sessions
}
