package callbacks

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"

	"group-guard-bot/internal/messages"
	"group-guard-bot/internal/metrics"
	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/repository"
	"group-guard-bot/internal/session"
)

// BuildSettingsKeyboard lays out one row per toggle followed by the action rows.
func BuildSettingsKeyboard(chatID int64, toggles []moderation.Toggle) [][]platform.Button {
	rows := make([][]platform.Button, 0, len(toggles)+4)
	for _, t := range toggles {
		mark := messages.BtnDisabled
		if t.Enabled {
			mark = messages.BtnEnabled
		}
		rows = append(rows, []platform.Button{{
			Text: fmt.Sprintf("%s %s", mark, t.Label),
			Data: ToggleData(t.Key, chatID),
		}})
	}
	rows = append(rows,
		[]platform.Button{{Text: messages.BtnWebsite, Data: ChatData(ActionWebsite, chatID)}},
		[]platform.Button{
			{Text: messages.BtnAddWords, Data: ChatData(ActionWords, chatID)},
			{Text: messages.BtnImportWords, Data: ChatData(ActionImport, chatID)},
		},
		[]platform.Button{
			{Text: messages.BtnClearWords, Data: ChatData(ActionClearWords, chatID)},
			{Text: messages.BtnStatistics, Data: ChatData(ActionStats, chatID)},
		},
		[]platform.Button{{Text: messages.BtnClose, Data: ChatData(ActionClose, chatID)}},
	)
	return rows
}

func settingsText(title string, s *repository.ChatSettings) string {
	website := messages.MsgSettingsNoWebsite
	if s.WebsiteLink != "" {
		website = html.EscapeString(s.WebsiteLink)
	}
	return fmt.Sprintf(messages.MsgSettingsTitle, html.EscapeString(title), website, len(s.BannedWords))
}

// ShowSettings posts the settings panel into the chat. Only admins may open it.
func (h *CallbackHandler) ShowSettings(ctx context.Context, chatID, userID int64) error {
	ctx, span := h.tracer.Start(ctx, "ShowSettings")
	defer span.End()

	if err := h.svc.Authorize(ctx, chatID, userID); err != nil {
		return err
	}
	settings, err := h.svc.GetChatSettings(ctx, chatID)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%d", chatID)
	if t, err := h.platform.ChatTitle(ctx, chatID); err == nil && t != "" {
		title = t
	}

	_, err = h.platform.SendMessage(ctx, platform.OutgoingMessage{
		ChatID:  chatID,
		Text:    settingsText(title, settings),
		HTML:    true,
		Buttons: BuildSettingsKeyboard(chatID, moderation.RenderToggles(settings)),
	})
	if err != nil {
		return fmt.Errorf("failed to send settings: %w", err)
	}
	metrics.IncBotAction("show_settings")
	return nil
}

func (h *CallbackHandler) handleToggle(ctx context.Context, callbackID string, data Data, userID int64, messageID int) {
	h.logger.Info("Toggle setting requested", "setting", data.Key, "chat_id", data.ChatID, "user_id", userID)

	updated, err := h.svc.ToggleSetting(ctx, data.ChatID, userID, string(data.Key))
	if err != nil {
		h.answerError(ctx, callbackID, data.ChatID, userID, err)
		return
	}

	if messageID != 0 {
		buttons := BuildSettingsKeyboard(data.ChatID, moderation.RenderToggles(updated))
		if err := h.platform.EditButtons(ctx, data.ChatID, messageID, buttons); err != nil {
			h.logger.Warn("Failed to refresh settings keyboard", "chat_id", data.ChatID, "error", err)
		}
	}
	h.answer(ctx, callbackID, messages.CbSettingUpdated)
}

var promptTexts = map[session.Kind]string{
	session.KindWebsiteLink: messages.MsgPromptWebsite,
	session.KindAddWords:    messages.MsgPromptAddWords,
	session.KindImportWords: messages.MsgPromptImportWords,
}

// handlePrompt opens an input session for the admin and asks for the value.
func (h *CallbackHandler) handlePrompt(ctx context.Context, callbackID string, chatID, userID int64, kind session.Kind) {
	if err := h.svc.Authorize(ctx, chatID, userID); err != nil {
		h.answerError(ctx, callbackID, chatID, userID, err)
		return
	}

	sess := h.sessions.Begin(chatID, userID, kind)
	promptID, err := h.platform.SendMessage(ctx, platform.OutgoingMessage{
		ChatID:  chatID,
		Text:    promptTexts[kind],
		Buttons: [][]platform.Button{{{Text: messages.BtnCancel, Data: CancelData(sess.ID)}}},
	})
	if err != nil {
		h.sessions.Cancel(sess.Key, sess.ID)
		h.answerError(ctx, callbackID, chatID, userID, err)
		return
	}
	h.sessions.SetPrompt(sess.ID, sess.Key, promptID)
	metrics.SetActiveSessions(float64(h.sessions.Len()))
	h.answer(ctx, callbackID, "")
}

func (h *CallbackHandler) handleCancel(ctx context.Context, callbackID string, key session.Key, id uuid.UUID, messageID int) {
	if _, ok := h.sessions.Cancel(key, id); !ok {
		h.answer(ctx, callbackID, messages.CbExpired)
		return
	}
	metrics.SetActiveSessions(float64(h.sessions.Len()))
	if messageID != 0 {
		if err := h.platform.DeleteMessage(ctx, key.ChatID, messageID); err != nil {
			h.logger.Debug("Failed to delete prompt", "chat_id", key.ChatID, "error", err)
		}
	}
	h.answer(ctx, callbackID, messages.MsgSessionCancelled)
}

func (h *CallbackHandler) handleClearWords(ctx context.Context, callbackID string, chatID, userID int64) {
	removed, err := h.svc.ClearBannedWords(ctx, chatID, userID)
	if err != nil {
		h.answerError(ctx, callbackID, chatID, userID, err)
		return
	}
	h.answer(ctx, callbackID, fmt.Sprintf(messages.MsgWordsCleared, removed))
}

func (h *CallbackHandler) handleClose(ctx context.Context, callbackID string, chatID, userID int64, messageID int) {
	if err := h.svc.Authorize(ctx, chatID, userID); err != nil {
		h.answerError(ctx, callbackID, chatID, userID, err)
		return
	}
	if messageID != 0 {
		if err := h.platform.DeleteMessage(ctx, chatID, messageID); err != nil {
			h.logger.Debug("Failed to delete settings panel", "chat_id", chatID, "error", err)
		}
	}
	h.answer(ctx, callbackID, "")
}
