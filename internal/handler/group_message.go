package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"group-guard-bot/internal/messages"
	"group-guard-bot/internal/metrics"
	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/service"
	"group-guard-bot/internal/session"
	"group-guard-bot/internal/utils"
)

func (h *Handler) handleGroupMessage(ctx context.Context, msg *tgbotapi.Message) {
	if len(msg.NewChatMembers) > 0 {
		h.handleNewMembers(ctx, msg)
		return
	}
	if msg.LeftChatMember != nil {
		h.handleLeftMember(ctx, msg)
		return
	}
	if msg.From == nil {
		return
	}

	// Commands go through the filters too. Privileged senders are exempt
	// there, so only their commands reach the switch unchecked.
	moderated := false
	if msg.IsCommand() {
		if h.moderateText(ctx, msg) {
			return
		}
		moderated = true
		if h.handleCommand(ctx, msg) {
			return
		}
	}
	if sess, ok := h.sessions.Get(msg.Chat.ID, msg.From.ID); ok {
		h.handleSessionInput(ctx, msg, sess)
		return
	}
	if !moderated {
		h.moderateText(ctx, msg)
	}
}

var warningTexts = map[moderation.Reason]string{
	moderation.ReasonLink:       messages.MsgProhibitedLink,
	moderation.ReasonBannedWord: messages.MsgProhibitedWord,
	moderation.ReasonFlood:      messages.MsgProhibitedFlood,
}

// moderateText reports whether the message was deleted.
func (h *Handler) moderateText(ctx context.Context, msg *tgbotapi.Message) bool {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" || msg.From == nil {
		return false
	}

	decision, err := h.svc.EvaluateIncomingText(ctx, service.IncomingText{
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		MessageID: msg.MessageID,
		Text:      text,
	})
	if err != nil {
		h.logger.Error("Failed to moderate message", "chat_id", msg.Chat.ID, "user_id", msg.From.ID, "error", err)
		return false
	}
	if !decision.Deleted {
		return false
	}

	if tmpl, ok := warningTexts[decision.Reason]; ok {
		h.sendTransient(ctx, msg.Chat.ID, fmt.Sprintf(tmpl, mention(msg.From.ID, displayName(msg.From))), true)
		metrics.IncBotAction("warning")
	}
	return true
}

func (h *Handler) handleNewMembers(ctx context.Context, msg *tgbotapi.Message) {
	members := make([]platform.Member, 0, len(msg.NewChatMembers))
	for i := range msg.NewChatMembers {
		u := &msg.NewChatMembers[i]
		members = append(members, platform.Member{UserID: u.ID, Name: displayName(u), IsBot: u.IsBot})
	}

	res, err := h.svc.EvaluateNewMember(ctx, service.NewMembers{
		ChatID:        msg.Chat.ID,
		JoinMessageID: msg.MessageID,
		Members:       members,
	})
	if err != nil {
		h.logger.Error("Failed to handle new members", "chat_id", msg.Chat.ID, "error", err)
		return
	}
	h.logger.Info("New members handled",
		"chat_id", msg.Chat.ID, "members", len(members),
		"welcomes", len(res.WelcomeMessageIDs), "join_deleted", res.JoinDeleted)
}

func (h *Handler) handleLeftMember(ctx context.Context, msg *tgbotapi.Message) {
	settings, err := h.svc.GetChatSettings(ctx, msg.Chat.ID)
	if err != nil {
		h.logger.Error("Failed to get settings", "chat_id", msg.Chat.ID, "error", err)
		return
	}
	if settings.CleanServiceMessages {
		h.deleteMessage(ctx, msg.Chat.ID, msg.MessageID, "left_member")
	}
}

// handleSessionInput consumes the admin's reply to an open prompt. Invalid
// input keeps the session open so the admin can try again.
func (h *Handler) handleSessionInput(ctx context.Context, msg *tgbotapi.Message, sess session.Session) {
	chatID, userID := msg.Chat.ID, msg.From.ID

	switch sess.Kind {
	case session.KindWebsiteLink:
		updated, err := h.svc.SetWebsiteLink(ctx, chatID, userID, msg.Text)
		if errors.Is(err, service.ErrInvalidConfig) {
			h.sendTransient(ctx, chatID, messages.MsgInvalidWebsite, false)
			return
		}
		h.endSession(ctx, chatID, userID)
		if err != nil {
			h.replyError(ctx, chatID, err)
			return
		}
		h.sendTransient(ctx, chatID, fmt.Sprintf(messages.MsgWebsiteSet, html.EscapeString(updated.WebsiteLink)), true)

	case session.KindAddWords:
		added, err := h.svc.AddBannedWords(ctx, chatID, userID, utils.SplitWords(msg.Text))
		if errors.Is(err, service.ErrInvalidConfig) {
			h.sendTransient(ctx, chatID, messages.MsgNoValidItems, false)
			return
		}
		h.endSession(ctx, chatID, userID)
		if err != nil {
			h.replyError(ctx, chatID, err)
			return
		}
		h.deleteMessage(ctx, chatID, msg.MessageID, "banned_words_input")
		h.sendTransient(ctx, chatID, fmt.Sprintf(messages.MsgWordsAdded, added), false)

	case session.KindImportWords:
		if msg.Document == nil {
			h.sendTransient(ctx, chatID, messages.MsgImportFileNeeded, false)
			return
		}
		h.handleFileImport(ctx, chatID, userID, msg.Document)
	}
}

func (h *Handler) endSession(ctx context.Context, chatID, userID int64) bool {
	sess, ok := h.sessions.End(chatID, userID)
	if !ok {
		return false
	}
	metrics.SetActiveSessions(float64(h.sessions.Len()))
	if sess.PromptID != 0 {
		h.deleteMessage(ctx, chatID, sess.PromptID, "prompt")
	}
	return true
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	if name == "" {
		name = fmt.Sprintf("user %d", u.ID)
	}
	return name
}

func mention(userID int64, name string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}
