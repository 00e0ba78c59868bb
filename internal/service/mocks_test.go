package service

import (
	"context"
	"sync"
	"time"

	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/repository"
	"group-guard-bot/internal/scheduler"
)

// MockSettingsRepository keeps settings in memory unless a Func is set.
type MockSettingsRepository struct {
	GetOrInitFunc func(ctx context.Context, chatID int64) (*repository.ChatSettings, error)
	UpdateFunc    func(ctx context.Context, chatID int64, fn func(*repository.ChatSettings) error) (*repository.ChatSettings, error)

	mu      sync.Mutex
	records map[int64]repository.ChatSettings
	updates int
}

func (m *MockSettingsRepository) Seed(s repository.ChatSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[int64]repository.ChatSettings)
	}
	m.records[s.ChatID] = s.Clone()
}

func (m *MockSettingsRepository) Stored(chatID int64) repository.ChatSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[chatID].Clone()
}

func (m *MockSettingsRepository) load(chatID int64) repository.ChatSettings {
	if m.records == nil {
		m.records = make(map[int64]repository.ChatSettings)
	}
	s, ok := m.records[chatID]
	if !ok {
		s = repository.DefaultSettings(chatID, "")
		m.records[chatID] = s
	}
	return s.Clone()
}

func (m *MockSettingsRepository) GetOrInit(ctx context.Context, chatID int64) (*repository.ChatSettings, error) {
	if m.GetOrInitFunc != nil {
		return m.GetOrInitFunc(ctx, chatID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.load(chatID)
	return &s, nil
}

func (m *MockSettingsRepository) Update(ctx context.Context, chatID int64, fn func(*repository.ChatSettings) error) (*repository.ChatSettings, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, chatID, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.load(chatID)
	if err := fn(&s); err != nil {
		return nil, err
	}
	m.records[chatID] = s.Clone()
	m.updates++
	return &s, nil
}

// MockWarnRepository counts in memory unless a Func is set.
type MockWarnRepository struct {
	IncrementWarnFunc func(ctx context.Context, chatID, userID int64) (int, error)
	GetWarnCountFunc  func(ctx context.Context, chatID, userID int64) (int, error)

	mu     sync.Mutex
	counts map[[2]int64]int
}

func (m *MockWarnRepository) IncrementWarn(ctx context.Context, chatID, userID int64) (int, error) {
	if m.IncrementWarnFunc != nil {
		return m.IncrementWarnFunc(ctx, chatID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[[2]int64]int)
	}
	m.counts[[2]int64{chatID, userID}]++
	return m.counts[[2]int64{chatID, userID}], nil
}

func (m *MockWarnRepository) GetWarnCount(ctx context.Context, chatID, userID int64) (int, error) {
	if m.GetWarnCountFunc != nil {
		return m.GetWarnCountFunc(ctx, chatID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[[2]int64{chatID, userID}], nil
}

type MockStatsRepository struct {
	IncrementChatStatFunc func(ctx context.Context, chatID int64, field string) error
	GetChatTotalStatsFunc func(ctx context.Context, chatID int64) (*repository.ChatStats, error)

	mu     sync.Mutex
	fields []string
}

func (m *MockStatsRepository) IncrementChatStat(ctx context.Context, chatID int64, field string) error {
	m.mu.Lock()
	m.fields = append(m.fields, field)
	m.mu.Unlock()
	if m.IncrementChatStatFunc != nil {
		return m.IncrementChatStatFunc(ctx, chatID, field)
	}
	return nil
}

func (m *MockStatsRepository) GetChatTotalStats(ctx context.Context, chatID int64) (*repository.ChatStats, error) {
	if m.GetChatTotalStatsFunc != nil {
		return m.GetChatTotalStatsFunc(ctx, chatID)
	}
	return &repository.ChatStats{ChatID: chatID}, nil
}

func (m *MockStatsRepository) Fields() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fields...)
}

// MockPlatform records every call in Calls in the order it was made.
type MockPlatform struct {
	GetMemberFunc      func(ctx context.Context, chatID, userID int64) (platform.Member, error)
	IsAdminFunc        func(ctx context.Context, chatID, userID int64) (bool, error)
	DeleteMessageFunc  func(ctx context.Context, chatID int64, messageID int) error
	RestrictUserFunc   func(ctx context.Context, chatID, userID int64, until time.Time) error
	BanUserFunc        func(ctx context.Context, chatID, userID int64) error
	SendMessageFunc    func(ctx context.Context, msg platform.OutgoingMessage) (int, error)
	EditButtonsFunc    func(ctx context.Context, chatID int64, messageID int, buttons [][]platform.Button) error
	AnswerCallbackFunc func(ctx context.Context, callbackID, text string) error
	ChatTitleFunc      func(ctx context.Context, chatID int64) (string, error)
	DownloadFileFunc   func(ctx context.Context, fileID string, maxBytes int64) ([]byte, error)

	mu    sync.Mutex
	Calls []string
	Sent  []platform.OutgoingMessage
}

func (m *MockPlatform) record(call string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	m.mu.Unlock()
}

func (m *MockPlatform) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

func (m *MockPlatform) GetMember(ctx context.Context, chatID, userID int64) (platform.Member, error) {
	m.record("GetMember")
	if m.GetMemberFunc != nil {
		return m.GetMemberFunc(ctx, chatID, userID)
	}
	return platform.Member{UserID: userID, Status: "member"}, nil
}

func (m *MockPlatform) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	m.record("IsAdmin")
	if m.IsAdminFunc != nil {
		return m.IsAdminFunc(ctx, chatID, userID)
	}
	return false, nil
}

func (m *MockPlatform) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.record("DeleteMessage")
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, chatID, messageID)
	}
	return nil
}

func (m *MockPlatform) RestrictUser(ctx context.Context, chatID, userID int64, until time.Time) error {
	m.record("RestrictUser")
	if m.RestrictUserFunc != nil {
		return m.RestrictUserFunc(ctx, chatID, userID, until)
	}
	return nil
}

func (m *MockPlatform) BanUser(ctx context.Context, chatID, userID int64) error {
	m.record("BanUser")
	if m.BanUserFunc != nil {
		return m.BanUserFunc(ctx, chatID, userID)
	}
	return nil
}

func (m *MockPlatform) SendMessage(ctx context.Context, msg platform.OutgoingMessage) (int, error) {
	m.record("SendMessage")
	m.mu.Lock()
	m.Sent = append(m.Sent, msg)
	n := len(m.Sent)
	m.mu.Unlock()
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, msg)
	}
	return 1000 + n, nil
}

func (m *MockPlatform) EditButtons(ctx context.Context, chatID int64, messageID int, buttons [][]platform.Button) error {
	m.record("EditButtons")
	if m.EditButtonsFunc != nil {
		return m.EditButtonsFunc(ctx, chatID, messageID, buttons)
	}
	return nil
}

func (m *MockPlatform) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.record("AnswerCallback")
	if m.AnswerCallbackFunc != nil {
		return m.AnswerCallbackFunc(ctx, callbackID, text)
	}
	return nil
}

func (m *MockPlatform) ChatTitle(ctx context.Context, chatID int64) (string, error) {
	if m.ChatTitleFunc != nil {
		return m.ChatTitleFunc(ctx, chatID)
	}
	return "Test group", nil
}

func (m *MockPlatform) DownloadFile(ctx context.Context, fileID string, maxBytes int64) ([]byte, error) {
	if m.DownloadFileFunc != nil {
		return m.DownloadFileFunc(ctx, fileID, maxBytes)
	}
	return nil, nil
}

type scheduledTask struct {
	delay time.Duration
	name  string
	task  scheduler.Task
}

// MockClock keeps scheduled tasks so tests can inspect or run them.
type MockClock struct {
	OnSchedule func(delay time.Duration, name string)

	mu    sync.Mutex
	tasks []scheduledTask
}

func (m *MockClock) ScheduleAfter(delay time.Duration, name string, task scheduler.Task) {
	if m.OnSchedule != nil {
		m.OnSchedule(delay, name)
	}
	m.mu.Lock()
	m.tasks = append(m.tasks, scheduledTask{delay: delay, name: name, task: task})
	m.mu.Unlock()
}

func (m *MockClock) Scheduled() []scheduledTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]scheduledTask(nil), m.tasks...)
}

// RunAll runs every scheduled task and returns their errors.
func (m *MockClock) RunAll(ctx context.Context) []error {
	var errs []error
	for _, t := range m.Scheduled() {
		errs = append(errs, t.task(ctx))
	}
	return errs
}
