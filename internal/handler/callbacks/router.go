package callbacks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"group-guard-bot/internal/messages"
	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/service"
	"group-guard-bot/internal/session"
)

const (
	ActionToggle     = "toggle"
	ActionWebsite    = "website"
	ActionWords      = "words"
	ActionImport     = "import"
	ActionClearWords = "clearwords"
	ActionStats      = "stats"
	ActionCancel     = "cancel"
	ActionClose      = "close"
)

var errMalformed = errors.New("malformed callback data")

// Data is a decoded callback payload such as "toggle:link_filter:-100123"
// or "cancel:<session id>".
type Data struct {
	Action    string
	Key       moderation.SettingKey
	ChatID    int64
	SessionID uuid.UUID
}

func ToggleData(key moderation.SettingKey, chatID int64) string {
	return fmt.Sprintf("%s:%s:%d", ActionToggle, key, chatID)
}

func ChatData(action string, chatID int64) string {
	return fmt.Sprintf("%s:%d", action, chatID)
}

func CancelData(id uuid.UUID) string {
	return ActionCancel + ":" + id.String()
}

func ParseData(raw string) (Data, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return Data{}, fmt.Errorf("%w: %q", errMalformed, raw)
	}

	d := Data{Action: parts[0]}
	switch d.Action {
	case ActionToggle:
		if len(parts) != 3 {
			return Data{}, fmt.Errorf("%w: %q", errMalformed, raw)
		}
		key, ok := moderation.ParseSettingKey(parts[1])
		if !ok {
			return Data{}, fmt.Errorf("%w: unknown setting %q", errMalformed, parts[1])
		}
		d.Key = key
		return d, parseChatID(parts[2], &d)
	case ActionWebsite, ActionWords, ActionImport, ActionClearWords, ActionStats, ActionClose:
		if len(parts) != 2 {
			return Data{}, fmt.Errorf("%w: %q", errMalformed, raw)
		}
		return d, parseChatID(parts[1], &d)
	case ActionCancel:
		id, err := uuid.Parse(parts[1])
		if err != nil || len(parts) != 2 {
			return Data{}, fmt.Errorf("%w: %q", errMalformed, raw)
		}
		d.SessionID = id
		return d, nil
	}
	return Data{}, fmt.Errorf("%w: unknown action %q", errMalformed, d.Action)
}

func parseChatID(s string, d *Data) error {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: chat id %q", errMalformed, s)
	}
	d.ChatID = id
	return nil
}

func (h *CallbackHandler) Handle(ctx context.Context, q *tgbotapi.CallbackQuery) {
	ctx, span := h.tracer.Start(ctx, "handleCallback")
	defer span.End()

	var userID int64
	if q.From != nil {
		userID = q.From.ID
	}
	span.SetAttributes(
		attribute.String("payload", q.Data),
		attribute.Int64("user_id", userID),
	)
	h.logger.Info("Received callback", "payload", q.Data, "user_id", userID)

	data, err := ParseData(q.Data)
	if err != nil {
		h.logger.Warn("Unknown callback payload", "payload", q.Data, "error", err)
		h.answer(ctx, q.ID, "")
		return
	}

	var messageID int
	if q.Message != nil {
		messageID = q.Message.MessageID
	}

	switch data.Action {
	case ActionToggle:
		h.handleToggle(ctx, q.ID, data, userID, messageID)
	case ActionWebsite:
		h.handlePrompt(ctx, q.ID, data.ChatID, userID, session.KindWebsiteLink)
	case ActionWords:
		h.handlePrompt(ctx, q.ID, data.ChatID, userID, session.KindAddWords)
	case ActionImport:
		h.handlePrompt(ctx, q.ID, data.ChatID, userID, session.KindImportWords)
	case ActionClearWords:
		h.handleClearWords(ctx, q.ID, data.ChatID, userID)
	case ActionStats:
		h.handleViewStats(ctx, q.ID, data.ChatID, userID)
	case ActionClose:
		h.handleClose(ctx, q.ID, data.ChatID, userID, messageID)
	case ActionCancel:
		if q.Message == nil || q.Message.Chat == nil {
			h.answer(ctx, q.ID, messages.CbExpired)
			return
		}
		h.handleCancel(ctx, q.ID, session.Key{ChatID: q.Message.Chat.ID, UserID: userID}, data.SessionID, messageID)
	}
}

func (h *CallbackHandler) answer(ctx context.Context, callbackID, text string) {
	if err := h.platform.AnswerCallback(ctx, callbackID, text); err != nil {
		h.logger.Debug("Failed to answer callback", "error", err)
	}
}

// answerError tells the user why a callback failed.
func (h *CallbackHandler) answerError(ctx context.Context, callbackID string, chatID, userID int64, err error) {
	if errors.Is(err, service.ErrUnauthorized) {
		h.logger.Info("Callback denied", "chat_id", chatID, "user_id", userID)
		h.answer(ctx, callbackID, messages.CbAdminsOnly)
		return
	}
	h.logger.Error("Callback failed", "chat_id", chatID, "user_id", userID, "error", err)
	h.answer(ctx, callbackID, messages.CbError)
}
