package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"group-guard-bot/internal/messages"
	"group-guard-bot/internal/metrics"
	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/service"
	"group-guard-bot/internal/utils"
)

// handleCommand runs a group command and reports whether it was consumed.
// Commands addressed to another bot are consumed without a reply.
func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) bool {
	chatID, userID := msg.Chat.ID, msg.From.ID
	if !h.addressedToUs(msg) {
		h.logger.Debug("Command for another bot ignored", "command", msg.CommandWithAt(), "chat_id", chatID)
		return true
	}
	args := strings.TrimSpace(msg.CommandArguments())

	h.logger.Info("Command received", "command", msg.Command(), "chat_id", chatID, "user_id", userID)

	switch msg.Command() {
	case "settings", "group":
		h.deleteMessage(ctx, chatID, msg.MessageID, "settings_command")
		if err := h.callbackHandler.ShowSettings(ctx, chatID, userID); err != nil {
			h.replyError(ctx, chatID, err)
		}
	case "mute":
		h.handleMuteCommand(ctx, msg)
	case "ban":
		h.handleBanCommand(ctx, msg)
	case "warns":
		h.handleWarnsCommand(ctx, msg)
	case "setwebsite":
		h.handleSetWebsiteCommand(ctx, chatID, userID, args)
	case "addword", "addwords":
		added, err := h.svc.AddBannedWords(ctx, chatID, userID, utils.SplitWords(args))
		if err != nil {
			h.replyError(ctx, chatID, err)
			return true
		}
		h.deleteMessage(ctx, chatID, msg.MessageID, "addword_command")
		h.sendTransient(ctx, chatID, fmt.Sprintf(messages.MsgWordsAdded, added), false)
	case "delword":
		h.handleDelWordCommand(ctx, chatID, userID, args)
	case "words":
		h.handleWordsCommand(ctx, chatID, userID)
	case "clearwords":
		removed, err := h.svc.ClearBannedWords(ctx, chatID, userID)
		if err != nil {
			h.replyError(ctx, chatID, err)
			return true
		}
		h.sendTransient(ctx, chatID, fmt.Sprintf(messages.MsgWordsCleared, removed), false)
	case "stats":
		if err := h.callbackHandler.SendStats(ctx, chatID, userID); err != nil {
			h.replyError(ctx, chatID, err)
		}
	case "cancel":
		if h.endSession(ctx, chatID, userID) {
			h.sendTransient(ctx, chatID, messages.MsgSessionCancelled, false)
		} else {
			h.sendTransient(ctx, chatID, messages.MsgNothingToCancel, false)
		}
	case "help":
		h.sendText(ctx, chatID, messages.MsgHelp, true)
	default:
		return false
	}
	metrics.IncBotAction("command_" + msg.Command())
	return true
}

// addressedToUs is false for /cmd@name when name is not this bot.
func (h *Handler) addressedToUs(msg *tgbotapi.Message) bool {
	_, name, found := strings.Cut(msg.CommandWithAt(), "@")
	if !found || h.opts.BotUserName == "" {
		return true
	}
	return strings.EqualFold(name, h.opts.BotUserName)
}

type target struct {
	ID   int64
	Name string
}

// resolveTarget takes the replied-to author, or a numeric id argument.
func resolveTarget(msg *tgbotapi.Message) (target, bool) {
	if reply := msg.ReplyToMessage; reply != nil && reply.From != nil {
		return target{ID: reply.From.ID, Name: displayName(reply.From)}, true
	}
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) == 0 {
		return target{}, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(fields[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return target{}, false
	}
	return target{ID: id, Name: fmt.Sprintf("user %d", id)}, true
}

func (h *Handler) handleMuteCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	t, ok := resolveTarget(msg)
	if !ok {
		h.sendTransient(ctx, chatID, messages.MsgTargetRequired, false)
		return
	}

	inf, err := h.svc.ApplyWarnOrBan(ctx, chatID, msg.From.ID, t.ID)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.deleteMessage(ctx, chatID, msg.MessageID, "mute_command_cleanup")

	who := mention(t.ID, t.Name)
	var text string
	switch inf.Action {
	case moderation.ActionBan:
		text = fmt.Sprintf(messages.MsgUserBanned, who, inf.Count, h.opts.WarnLimit)
	default:
		text = fmt.Sprintf(messages.MsgUserMuted, who, humanDuration(h.opts.MuteDuration), inf.Count, h.opts.WarnLimit)
	}
	h.sendText(ctx, chatID, text, true)
}

func (h *Handler) handleBanCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	t, ok := resolveTarget(msg)
	if !ok {
		h.sendTransient(ctx, chatID, messages.MsgTargetRequired, false)
		return
	}
	if err := h.svc.ApplyDirectBan(ctx, chatID, msg.From.ID, t.ID); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.deleteMessage(ctx, chatID, msg.MessageID, "ban_command_cleanup")
	h.sendText(ctx, chatID, fmt.Sprintf(messages.MsgUserBannedDirect, mention(t.ID, t.Name)), true)
}

func (h *Handler) handleWarnsCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	t, ok := resolveTarget(msg)
	if !ok {
		h.sendTransient(ctx, chatID, messages.MsgTargetRequired, false)
		return
	}
	count, err := h.svc.GetWarnCount(ctx, chatID, msg.From.ID, t.ID)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	text := fmt.Sprintf(messages.MsgUserWarns,
		mention(t.ID, t.Name), utils.Plural(int64(count), "warning", "warnings"), h.opts.WarnLimit)
	h.sendTransient(ctx, chatID, text, true)
}

func (h *Handler) handleSetWebsiteCommand(ctx context.Context, chatID, userID int64, args string) {
	updated, err := h.svc.SetWebsiteLink(ctx, chatID, userID, args)
	if err != nil {
		if errors.Is(err, service.ErrInvalidConfig) {
			h.sendTransient(ctx, chatID, messages.MsgInvalidWebsite, false)
			return
		}
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendTransient(ctx, chatID, fmt.Sprintf(messages.MsgWebsiteSet, html.EscapeString(updated.WebsiteLink)), true)
}

func (h *Handler) handleDelWordCommand(ctx context.Context, chatID, userID int64, args string) {
	word := utils.NormalizeWord(args)
	err := h.svc.RemoveBannedWord(ctx, chatID, userID, word)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.sendTransient(ctx, chatID, fmt.Sprintf(messages.MsgWordNotFound, word), false)
	case err != nil:
		h.replyError(ctx, chatID, err)
	default:
		h.sendTransient(ctx, chatID, fmt.Sprintf(messages.MsgWordRemoved, word), false)
	}
}

func (h *Handler) handleWordsCommand(ctx context.Context, chatID, userID int64) {
	if err := h.svc.Authorize(ctx, chatID, userID); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	settings, err := h.svc.GetChatSettings(ctx, chatID)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	if len(settings.BannedWords) == 0 {
		h.sendTransient(ctx, chatID, messages.MsgWordsEmpty, false)
		return
	}
	text := fmt.Sprintf(messages.MsgWordsList, len(settings.BannedWords), strings.Join(settings.BannedWords, ", "))
	h.sendText(ctx, chatID, text, false)
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return utils.Plural(int64(d/time.Hour), "hour", "hours")
	}
	if d >= time.Minute && d%time.Minute == 0 {
		return utils.Plural(int64(d/time.Minute), "minute", "minutes")
	}
	return d.String()
}
