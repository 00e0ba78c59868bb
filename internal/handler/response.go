package handler

import (
	"context"
	"errors"
	"log/slog"

	"group-guard-bot/internal/messages"
	"group-guard-bot/internal/metrics"
	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/service"
)

// errorText maps a service error to the reply shown in chat and the level it is logged at.
func errorText(err error) (string, slog.Level) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return messages.MsgAdminsOnly, slog.LevelInfo
	case errors.Is(err, service.ErrNotFound):
		return messages.MsgUserNotFound, slog.LevelInfo
	case errors.Is(err, service.ErrInvalidConfig):
		return messages.MsgNoValidItems, slog.LevelInfo
	default:
		return messages.MsgGenericError, slog.LevelError
	}
}

func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	text, level := errorText(err)
	h.logger.Log(ctx, level, "Request failed", "chat_id", chatID, "error", err)
	h.sendTransient(ctx, chatID, text, false)
}

func (h *Handler) sendText(ctx context.Context, chatID int64, text string, asHTML bool) int {
	id, err := h.platform.SendMessage(ctx, platform.OutgoingMessage{ChatID: chatID, Text: text, HTML: asHTML})
	if err != nil {
		h.logger.Error("Failed to send message", "chat_id", chatID, "error", err)
		return 0
	}
	return id
}

// sendTransient posts text and schedules its removal after the notice TTL.
func (h *Handler) sendTransient(ctx context.Context, chatID int64, text string, asHTML bool) {
	if id := h.sendText(ctx, chatID, text, asHTML); id != 0 {
		h.svc.ScheduleDeletion(chatID, id)
	}
}

func (h *Handler) deleteMessage(ctx context.Context, chatID int64, messageID int, reason string) {
	if err := h.platform.DeleteMessage(ctx, chatID, messageID); err != nil {
		h.logger.Debug("Failed to delete message", "chat_id", chatID, "message_id", messageID, "error", err)
		return
	}
	h.logger.Debug("Deleted message", "chat_id", chatID, "message_id", messageID, "reason", reason)
	metrics.IncDeletedMessages(reason)
}
