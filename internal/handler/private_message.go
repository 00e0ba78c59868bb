package handler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"group-guard-bot/internal/messages"
	"group-guard-bot/internal/service"
)

func (h *Handler) handlePrivateMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}
	switch msg.Command() {
	case "start":
		h.sendText(ctx, msg.Chat.ID, messages.MsgStart, false)
	case "help":
		h.sendText(ctx, msg.Chat.ID, messages.MsgHelp, true)
	default:
		h.sendText(ctx, msg.Chat.ID, messages.MsgPrivateOnlyStart, false)
	}
}

var (
	errNotText     = errors.New("file is not plain text")
	errFileTooBig  = errors.New("file is too large")
	errNoFileWords = errors.New("file has no words")
)

// handleFileImport adds the words of an uploaded .txt file to the banned list
// and closes the import session on success.
func (h *Handler) handleFileImport(ctx context.Context, chatID, userID int64, doc *tgbotapi.Document) {
	added, skipped, err := h.importWords(ctx, chatID, userID, doc)
	switch {
	case errors.Is(err, errNotText), errors.Is(err, errFileTooBig):
		h.logger.Info("Import rejected", "chat_id", chatID, "file", doc.FileName, "error", err)
		h.sendTransient(ctx, chatID, messages.MsgImportFileNeeded, false)
		return
	case errors.Is(err, errNoFileWords):
		h.sendTransient(ctx, chatID, messages.MsgImportEmpty, false)
		return
	case errors.Is(err, service.ErrUnauthorized):
		h.endSession(ctx, chatID, userID)
		h.replyError(ctx, chatID, err)
		return
	case err != nil:
		h.logger.Error("Failed to import words", "chat_id", chatID, "error", err)
		h.sendTransient(ctx, chatID, messages.MsgImportError, false)
		return
	}

	h.endSession(ctx, chatID, userID)
	if skipped > 0 {
		h.sendTransient(ctx, chatID, fmt.Sprintf(messages.MsgImportPartial, added, skipped), false)
		return
	}
	h.sendTransient(ctx, chatID, fmt.Sprintf(messages.MsgImportSuccess, added), false)
}

func (h *Handler) importWords(ctx context.Context, chatID, userID int64, doc *tgbotapi.Document) (int, int, error) {
	if strings.ToLower(filepath.Ext(doc.FileName)) != ".txt" {
		return 0, 0, errNotText
	}
	if int64(doc.FileSize) > h.opts.MaxImportBytes {
		return 0, 0, errFileTooBig
	}

	data, err := h.platform.DownloadFile(ctx, doc.FileID, h.opts.MaxImportBytes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to download file: %w", err)
	}
	if !strings.HasPrefix(http.DetectContentType(data), "text/plain") {
		return 0, 0, errNotText
	}

	words, skipped, err := parseWordsFile(bufio.NewScanner(bytes.NewReader(data)))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read file: %w", err)
	}
	if len(words) == 0 {
		return 0, skipped, errNoFileWords
	}

	added, err := h.svc.AddBannedWords(ctx, chatID, userID, words)
	if err != nil {
		return 0, skipped, err
	}
	return added, skipped, nil
}

// parseWordsFile reads one word per line. Lines holding more than one word are skipped.
func parseWordsFile(scanner *bufio.Scanner) ([]string, int, error) {
	var words []string
	var skippedCount int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.ContainsAny(line, " \t") {
			skippedCount++
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return words, skippedCount, nil
}
