package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memberKey struct {
	chatID int64
	userID int64
}

// Telegram implements Platform on the Bot API. Admin lookups are cached
// briefly because every group message needs one.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
	admins *expirable.LRU[memberKey, bool]
	client *http.Client
}

func NewTelegram(bot *tgbotapi.BotAPI, logger *slog.Logger, adminCacheTTL time.Duration) *Telegram {
	if adminCacheTTL <= 0 {
		adminCacheTTL = time.Minute
	}
	return &Telegram{
		bot:    bot,
		logger: logger,
		admins: expirable.NewLRU[memberKey, bool](4096, nil, adminCacheTTL),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

func isNotFound(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return apiErr.Code == http.StatusBadRequest &&
		(strings.Contains(msg, "not found") || strings.Contains(msg, "invalid user_id"))
}

func (t *Telegram) GetMember(ctx context.Context, chatID, userID int64) (Member, error) {
	if err := ctx.Err(); err != nil {
		return Member{}, err
	}
	cm, err := t.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		if isNotFound(err) {
			return Member{}, fmt.Errorf("member %d in chat %d: %w", userID, chatID, ErrNotFound)
		}
		return Member{}, fmt.Errorf("failed to get chat member: %w", err)
	}

	m := Member{UserID: userID, Status: cm.Status}
	if cm.User != nil {
		m.Name = displayName(cm.User)
		m.IsBot = cm.User.IsBot
	}
	t.admins.Add(memberKey{chatID, userID}, m.IsAdmin())
	return m, nil
}

func (t *Telegram) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if isAdmin, ok := t.admins.Get(memberKey{chatID, userID}); ok {
		return isAdmin, nil
	}
	m, err := t.GetMember(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return m.IsAdmin(), nil
}

func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("failed to delete message %d: %w", messageID, err)
	}
	return nil
}

func (t *Telegram) RestrictUser(ctx context.Context, chatID, userID int64, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Request(tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		UntilDate:        until.Unix(),
		Permissions:      &tgbotapi.ChatPermissions{},
	})
	if err != nil {
		return fmt.Errorf("failed to restrict user %d: %w", userID, err)
	}
	return nil
}

func (t *Telegram) BanUser(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return fmt.Errorf("failed to ban user %d: %w", userID, err)
	}
	t.admins.Remove(memberKey{chatID, userID})
	return nil
}

func keyboard(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	markup := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		markup = append(markup, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(markup...)
}

func (t *Telegram) SendMessage(ctx context.Context, msg OutgoingMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	m.ReplyToMessageID = msg.ReplyTo
	m.AllowSendingWithoutReply = true
	m.DisableWebPagePreview = true
	if msg.HTML {
		m.ParseMode = tgbotapi.ModeHTML
	}
	if len(msg.Buttons) > 0 {
		m.ReplyMarkup = keyboard(msg.Buttons)
	}
	sent, err := t.bot.Send(m)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sent.MessageID, nil
}

func (t *Telegram) EditButtons(ctx context.Context, chatID int64, messageID int, buttons [][]Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, keyboard(buttons)))
	if err != nil && !strings.Contains(err.Error(), "message is not modified") {
		return fmt.Errorf("failed to edit keyboard: %w", err)
	}
	return nil
}

func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

func (t *Telegram) ChatTitle(ctx context.Context, chatID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chat, err := t.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chatID}})
	if err != nil {
		return "", fmt.Errorf("failed to get chat: %w", err)
	}
	return chat.Title, nil
}

// DownloadFile fetches an uploaded file, refusing anything larger than maxBytes.
func (t *Telegram) DownloadFile(ctx context.Context, fileID string, maxBytes int64) ([]byte, error) {
	link, err := t.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Warn("Failed to close response body", "error", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	return data, nil
}
