package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"group-guard-bot/internal/metrics"
	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/pipeline"
	"group-guard-bot/internal/pipeline/filters"
	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/repository"
	"group-guard-bot/internal/scheduler"
	"group-guard-bot/internal/utils"
)

var (
	// ErrUnauthorized is returned when the acting user may not administer the chat.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when a target user or banned word does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidConfig is returned for malformed settings input.
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Service interface {
	EvaluateIncomingText(ctx context.Context, msg IncomingText) (Decision, error)
	EvaluateNewMember(ctx context.Context, join NewMembers) (NewMemberResult, error)
	ApplyWarnOrBan(ctx context.Context, chatID, actorID, targetID int64) (moderation.Infraction, error)
	ApplyDirectBan(ctx context.Context, chatID, actorID, targetID int64) error
	ToggleSetting(ctx context.Context, chatID, actorID int64, key string) (*repository.ChatSettings, error)
	SetWebsiteLink(ctx context.Context, chatID, actorID int64, raw string) (*repository.ChatSettings, error)
	AddBannedWords(ctx context.Context, chatID, actorID int64, words []string) (int, error)
	RemoveBannedWord(ctx context.Context, chatID, actorID int64, word string) error
	ClearBannedWords(ctx context.Context, chatID, actorID int64) (int, error)
	GetChatSettings(ctx context.Context, chatID int64) (*repository.ChatSettings, error)
	GetWarnCount(ctx context.Context, chatID, actorID, targetID int64) (int, error)
	GetChatStats(ctx context.Context, chatID, actorID int64) (*repository.ChatStats, error)
	Authorize(ctx context.Context, chatID, userID int64) error
	ChatAllowed(chatID int64) bool
	ScheduleDeletion(chatID int64, messageID int)
	StartMaintenance(ctx context.Context)
}

// IncomingText is a user message posted in a group.
type IncomingText struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
}

// Decision is the outcome of evaluating an incoming text. When Deleted is
// set the message was removed and the author should be warned.
type Decision struct {
	Deleted bool
	Reason  moderation.Reason
	Match   string
}

// NewMembers is a join service message carrying one or more members.
type NewMembers struct {
	ChatID        int64
	JoinMessageID int
	Members       []platform.Member
}

type NewMemberResult struct {
	WelcomeMessageIDs []int
	JoinDeleted       bool
}

type Options struct {
	WarnLimit    int
	MuteDuration time.Duration
	NoticeTTL    time.Duration
	FloodLimit   int
	FloodWindow  time.Duration
	Welcome      moderation.WelcomeSelector
	Now          func() time.Time
}

type ModerationService struct {
	logger       *slog.Logger
	settingsRepo repository.SettingsRepository
	warnRepo     repository.WarnRepository
	statsRepo    repository.StatsRepository
	platform     platform.Platform
	clock        scheduler.Clock
	authz        moderation.Authorizer
	pipeline     *pipeline.Manager
	flood        *filters.RateLimitFilter
	opts         Options
	tracer       trace.Tracer
}

func NewModerationService(
	logger *slog.Logger,
	settingsRepo repository.SettingsRepository,
	warnRepo repository.WarnRepository,
	statsRepo repository.StatsRepository,
	plat platform.Platform,
	clock scheduler.Clock,
	authz moderation.Authorizer,
	opts Options,
) Service {
	if opts.WarnLimit <= 0 {
		opts.WarnLimit = moderation.DefaultWarnLimit
	}
	if opts.MuteDuration <= 0 {
		opts.MuteDuration = moderation.DefaultMuteDuration
	}
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	flood := filters.NewRateLimitFilter(opts.FloodLimit, opts.FloodWindow)
	pm := pipeline.NewManager(flood, filters.NewPolicyFilter())

	return &ModerationService{
		logger:       logger,
		settingsRepo: settingsRepo,
		warnRepo:     warnRepo,
		statsRepo:    statsRepo,
		platform:     plat,
		clock:        clock,
		authz:        authz,
		pipeline:     pm,
		flood:        flood,
		opts:         opts,
		tracer:       otel.Tracer("service"),
	}
}

// StartMaintenance prunes idle flood-filter state once a minute until ctx is done.
func (s *ModerationService) StartMaintenance(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.SetFloodTrackedSenders(float64(s.flood.Prune()))
			}
		}
	}()
}

var reasonStats = map[moderation.Reason]string{
	moderation.ReasonLink:       repository.StatLinkViolations,
	moderation.ReasonBannedWord: repository.StatWordViolations,
	moderation.ReasonFlood:      repository.StatFloodViolations,
}

func (s *ModerationService) EvaluateIncomingText(ctx context.Context, msg IncomingText) (Decision, error) {
	ctx, span := s.tracer.Start(ctx, "EvaluateIncomingText")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", msg.ChatID), attribute.Int64("user_id", msg.UserID))

	settings, err := s.settingsRepo.GetOrInit(ctx, msg.ChatID)
	if err != nil {
		return Decision{}, err
	}
	if !settings.LinkFilterEnabled && len(settings.BannedWords) == 0 && s.opts.FloodLimit <= 0 {
		return Decision{}, nil
	}

	exempt, err := s.isPrivileged(ctx, msg.ChatID, msg.UserID)
	if err != nil {
		return Decision{}, err
	}

	res, err := s.pipeline.Process(ctx, pipeline.Payload{
		ChatID:   msg.ChatID,
		SenderID: msg.UserID,
		Text:     msg.Text,
		Settings: settings,
		Exempt:   exempt,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("failed to run moderation pipeline: %w", err)
	}
	if res.IsAllowed {
		return Decision{}, nil
	}

	s.logger.Info("Blocking message",
		"chat_id", msg.ChatID, "user_id", msg.UserID, "reason", res.Reason, "filter", res.FilterName)

	if err := s.platform.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
		return Decision{}, fmt.Errorf("failed to delete message: %w", err)
	}
	metrics.IncDeletedMessages(string(res.Reason))
	if field, ok := reasonStats[res.Reason]; ok {
		s.recordStat(ctx, msg.ChatID, field)
	}

	return Decision{Deleted: true, Reason: res.Reason, Match: res.Match}, nil
}

// EvaluateNewMember sends the welcomes first, then removes the join message,
// then schedules removal of each welcome.
func (s *ModerationService) EvaluateNewMember(ctx context.Context, join NewMembers) (NewMemberResult, error) {
	ctx, span := s.tracer.Start(ctx, "EvaluateNewMember")
	defer span.End()

	settings, err := s.settingsRepo.GetOrInit(ctx, join.ChatID)
	if err != nil {
		return NewMemberResult{}, err
	}

	var result NewMemberResult
	if settings.WelcomeEnabled {
		for _, m := range join.Members {
			if m.IsBot {
				continue
			}
			welcome := s.opts.Welcome.Select(m.Name, settings.WebsiteLink)
			msgID, err := s.platform.SendMessage(ctx, platform.OutgoingMessage{
				ChatID:  join.ChatID,
				Text:    welcome.Text,
				Buttons: welcomeButtons(welcome),
			})
			if err != nil {
				s.logger.Error("Failed to send welcome", "chat_id", join.ChatID, "user_id", m.UserID, "error", err)
				continue
			}
			result.WelcomeMessageIDs = append(result.WelcomeMessageIDs, msgID)
			metrics.IncWelcome()
			s.recordStat(ctx, join.ChatID, repository.StatWelcomeCount)
		}
	}

	if settings.CleanServiceMessages && join.JoinMessageID != 0 {
		if err := s.platform.DeleteMessage(ctx, join.ChatID, join.JoinMessageID); err != nil {
			s.logger.Warn("Failed to delete join message", "chat_id", join.ChatID, "error", err)
		} else {
			result.JoinDeleted = true
		}
	}

	for _, id := range result.WelcomeMessageIDs {
		s.ScheduleDeletion(join.ChatID, id)
	}
	return result, nil
}

func welcomeButtons(w moderation.Welcome) [][]platform.Button {
	if len(w.Buttons) == 0 {
		return nil
	}
	row := make([]platform.Button, 0, len(w.Buttons))
	for _, b := range w.Buttons {
		row = append(row, platform.Button{Text: b.Label, URL: b.URL})
	}
	return [][]platform.Button{row}
}

// ApplyWarnOrBan records one infraction for targetID. The user is muted for
// the configured duration until the warn count reaches the limit, then banned.
func (s *ModerationService) ApplyWarnOrBan(ctx context.Context, chatID, actorID, targetID int64) (moderation.Infraction, error) {
	ctx, span := s.tracer.Start(ctx, "ApplyWarnOrBan")
	defer span.End()

	if err := s.Authorize(ctx, chatID, actorID); err != nil {
		return moderation.Infraction{}, err
	}
	if err := s.resolveTarget(ctx, chatID, targetID); err != nil {
		return moderation.Infraction{}, err
	}

	count, err := s.warnRepo.IncrementWarn(ctx, chatID, targetID)
	if err != nil {
		return moderation.Infraction{}, err
	}
	infraction := moderation.DecideInfraction(count, s.opts.WarnLimit)

	switch infraction.Action {
	case moderation.ActionBan:
		if err := s.ban(ctx, chatID, targetID); err != nil {
			return moderation.Infraction{}, err
		}
	default:
		until := s.opts.Now().Add(s.opts.MuteDuration)
		if err := s.platform.RestrictUser(ctx, chatID, targetID, until); err != nil {
			return moderation.Infraction{}, fmt.Errorf("failed to mute user: %w", err)
		}
		s.updateLedger(ctx, chatID, func(cs *repository.ChatSettings) bool { return cs.AddMutedUser(targetID) })
		s.recordStat(ctx, chatID, repository.StatMuteCount)
	}

	metrics.IncInfraction(string(infraction.Action))
	s.logger.Info("Infraction recorded",
		"chat_id", chatID, "user_id", targetID, "admin_id", actorID,
		"count", infraction.Count, "action", infraction.Action)
	return infraction, nil
}

// ApplyDirectBan bans targetID without touching the warn counter.
func (s *ModerationService) ApplyDirectBan(ctx context.Context, chatID, actorID, targetID int64) error {
	ctx, span := s.tracer.Start(ctx, "ApplyDirectBan")
	defer span.End()

	if err := s.Authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	if err := s.resolveTarget(ctx, chatID, targetID); err != nil {
		return err
	}
	if err := s.ban(ctx, chatID, targetID); err != nil {
		return err
	}
	metrics.IncInfraction("direct_ban")
	s.logger.Info("User banned", "chat_id", chatID, "user_id", targetID, "admin_id", actorID)
	return nil
}

func (s *ModerationService) ban(ctx context.Context, chatID, targetID int64) error {
	if err := s.platform.BanUser(ctx, chatID, targetID); err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}
	s.updateLedger(ctx, chatID, func(cs *repository.ChatSettings) bool { return cs.AddBannedUser(targetID) })
	s.recordStat(ctx, chatID, repository.StatBanCount)
	return nil
}

// errUnchanged aborts a ledger update that would not modify the record.
var errUnchanged = errors.New("unchanged")

// updateLedger records advisory banned/muted state. The platform action has
// already happened, so failures are logged and not returned.
func (s *ModerationService) updateLedger(ctx context.Context, chatID int64, add func(*repository.ChatSettings) bool) {
	_, err := s.settingsRepo.Update(ctx, chatID, func(cs *repository.ChatSettings) error {
		if !add(cs) {
			return errUnchanged
		}
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		s.logger.Warn("Failed to update user ledger", "chat_id", chatID, "error", err)
	}
}

func (s *ModerationService) resolveTarget(ctx context.Context, chatID, targetID int64) error {
	if _, err := s.platform.GetMember(ctx, chatID, targetID); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return fmt.Errorf("user %d: %w", targetID, ErrNotFound)
		}
		return fmt.Errorf("failed to get member: %w", err)
	}
	return nil
}

func (s *ModerationService) ToggleSetting(ctx context.Context, chatID, actorID int64, key string) (*repository.ChatSettings, error) {
	ctx, span := s.tracer.Start(ctx, "ToggleSetting")
	defer span.End()

	if err := s.Authorize(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	settingKey, ok := moderation.ParseSettingKey(key)
	if !ok {
		return nil, fmt.Errorf("unknown setting %q: %w", key, ErrInvalidConfig)
	}

	updated, err := s.settingsRepo.Update(ctx, chatID, func(cs *repository.ChatSettings) error {
		*cs = repository.Merge(*cs, moderation.TogglePatch(cs, settingKey))
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncBotAction("toggle_" + key)
	return updated, nil
}

func (s *ModerationService) SetWebsiteLink(ctx context.Context, chatID, actorID int64, raw string) (*repository.ChatSettings, error) {
	ctx, span := s.tracer.Start(ctx, "SetWebsiteLink")
	defer span.End()

	if err := s.Authorize(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	link, ok := utils.NormalizeWebsiteLink(raw)
	if !ok {
		return nil, fmt.Errorf("website link %q: %w", raw, ErrInvalidConfig)
	}
	return s.settingsRepo.Update(ctx, chatID, func(cs *repository.ChatSettings) error {
		*cs = repository.Merge(*cs, repository.SettingsPatch{WebsiteLink: &link})
		return nil
	})
}

// AddBannedWords merges words into the chat list and returns how many were new.
func (s *ModerationService) AddBannedWords(ctx context.Context, chatID, actorID int64, words []string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "AddBannedWords")
	defer span.End()

	if err := s.Authorize(ctx, chatID, actorID); err != nil {
		return 0, err
	}
	incoming := utils.NormalizeWords(words)
	if len(incoming) == 0 {
		return 0, fmt.Errorf("no words given: %w", ErrInvalidConfig)
	}

	var added int
	_, err := s.settingsRepo.Update(ctx, chatID, func(cs *repository.ChatSettings) error {
		merged := utils.NormalizeWords(append(slices.Clone([]string(cs.BannedWords)), incoming...))
		added = len(merged) - len(utils.NormalizeWords(cs.BannedWords))
		*cs = repository.Merge(*cs, repository.SettingsPatch{BannedWords: &merged})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (s *ModerationService) RemoveBannedWord(ctx context.Context, chatID, actorID int64, word string) error {
	ctx, span := s.tracer.Start(ctx, "RemoveBannedWord")
	defer span.End()

	if err := s.Authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	target := utils.NormalizeWord(word)

	_, err := s.settingsRepo.Update(ctx, chatID, func(cs *repository.ChatSettings) error {
		kept := make([]string, 0, len(cs.BannedWords))
		for _, w := range cs.BannedWords {
			if utils.NormalizeWord(w) != target {
				kept = append(kept, w)
			}
		}
		if len(kept) == len(cs.BannedWords) {
			return fmt.Errorf("banned word %q: %w", target, ErrNotFound)
		}
		*cs = repository.Merge(*cs, repository.SettingsPatch{BannedWords: &kept})
		return nil
	})
	return err
}

// ClearBannedWords empties the list and returns how many words were removed.
func (s *ModerationService) ClearBannedWords(ctx context.Context, chatID, actorID int64) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ClearBannedWords")
	defer span.End()

	if err := s.Authorize(ctx, chatID, actorID); err != nil {
		return 0, err
	}
	var removed int
	_, err := s.settingsRepo.Update(ctx, chatID, func(cs *repository.ChatSettings) error {
		removed = len(cs.BannedWords)
		empty := []string{}
		*cs = repository.Merge(*cs, repository.SettingsPatch{BannedWords: &empty})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *ModerationService) GetChatSettings(ctx context.Context, chatID int64) (*repository.ChatSettings, error) {
	ctx, span := s.tracer.Start(ctx, "GetChatSettings")
	defer span.End()
	return s.settingsRepo.GetOrInit(ctx, chatID)
}

func (s *ModerationService) GetWarnCount(ctx context.Context, chatID, actorID, targetID int64) (int, error) {
	ctx, span := s.tracer.Start(ctx, "GetWarnCount")
	defer span.End()

	if err := s.Authorize(ctx, chatID, actorID); err != nil {
		return 0, err
	}
	return s.warnRepo.GetWarnCount(ctx, chatID, targetID)
}

func (s *ModerationService) GetChatStats(ctx context.Context, chatID, actorID int64) (*repository.ChatStats, error) {
	ctx, span := s.tracer.Start(ctx, "GetChatStats")
	defer span.End()

	if err := s.Authorize(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	return s.statsRepo.GetChatTotalStats(ctx, chatID)
}

// Authorize returns ErrUnauthorized unless userID is an owner or an admin of chatID.
func (s *ModerationService) Authorize(ctx context.Context, chatID, userID int64) error {
	ok, err := s.isPrivileged(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %d in chat %d: %w", userID, chatID, ErrUnauthorized)
	}
	return nil
}

func (s *ModerationService) isPrivileged(ctx context.Context, chatID, userID int64) (bool, error) {
	if s.authz.IsOwner(userID) {
		return true, nil
	}
	isAdmin, err := s.platform.IsAdmin(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check admin status: %w", err)
	}
	return s.authz.IsPrivileged(userID, isAdmin), nil
}

func (s *ModerationService) ChatAllowed(chatID int64) bool {
	return s.authz.ChatAllowed(chatID)
}

// ScheduleDeletion removes the message after the notice TTL. Failures are only logged.
func (s *ModerationService) ScheduleDeletion(chatID int64, messageID int) {
	s.clock.ScheduleAfter(s.opts.NoticeTTL, "delete_message", func(ctx context.Context) error {
		return s.platform.DeleteMessage(ctx, chatID, messageID)
	})
}

func (s *ModerationService) recordStat(ctx context.Context, chatID int64, field string) {
	if err := s.statsRepo.IncrementChatStat(ctx, chatID, field); err != nil {
		s.logger.Warn("Failed to record chat stat", "chat_id", chatID, "field", field, "error", err)
	}
}
