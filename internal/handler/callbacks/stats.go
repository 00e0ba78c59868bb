package callbacks

import (
	"context"
	"fmt"
	"html"

	"group-guard-bot/internal/messages"
	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/repository"
)

func FormatStats(title string, stats *repository.ChatStats) string {
	return fmt.Sprintf(messages.MsgChatStatistics,
		html.EscapeString(title),
		stats.LinkViolations,
		stats.WordViolations,
		stats.FloodViolations,
		stats.MuteCount,
		stats.BanCount,
		stats.WelcomeCount,
	)
}

// SendStats posts the totals for chatID. Only admins may read them.
func (h *CallbackHandler) SendStats(ctx context.Context, chatID, userID int64) error {
	stats, err := h.svc.GetChatStats(ctx, chatID, userID)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%d", chatID)
	if t, err := h.platform.ChatTitle(ctx, chatID); err == nil && t != "" {
		title = t
	}

	msgID, err := h.platform.SendMessage(ctx, platform.OutgoingMessage{
		ChatID: chatID,
		Text:   FormatStats(title, stats),
		HTML:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to send stats: %w", err)
	}
	h.logger.Debug("Sent stats", "chat_id", chatID, "message_id", msgID)
	return nil
}

func (h *CallbackHandler) handleViewStats(ctx context.Context, callbackID string, chatID, userID int64) {
	if err := h.SendStats(ctx, chatID, userID); err != nil {
		h.answerError(ctx, callbackID, chatID, userID, err)
		return
	}
	h.answer(ctx, callbackID, "")
}
