package handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	ctx, span := h.tracer.Start(ctx, "handleMessage")
	defer span.End()

	var senderID int64
	if msg.From != nil {
		senderID = msg.From.ID
	}
	span.SetAttributes(
		attribute.Int64("chat_id", msg.Chat.ID),
		attribute.Int64("user_id", senderID),
	)
	h.logger.Debug("Dispatching message", "chat_id", msg.Chat.ID, "sender_id", senderID)

	if msg.Chat.IsPrivate() {
		h.handlePrivateMessage(ctx, msg)
		return
	}
	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		return
	}
	if !h.svc.ChatAllowed(msg.Chat.ID) {
		h.logger.Debug("Ignoring unauthorized chat", "chat_id", msg.Chat.ID)
		return
	}
	h.handleGroupMessage(ctx, msg)
}

// handleEditedMessage re-checks edited group texts so a clean message
// cannot be edited into a violation.
func (h *Handler) handleEditedMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.From == nil || msg.Chat.IsPrivate() || !h.svc.ChatAllowed(msg.Chat.ID) {
		return
	}
	h.moderateText(ctx, msg)
}
