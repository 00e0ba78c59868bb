// Package platform adapts the messaging platform to the narrow set of calls
// the bot needs.
package platform

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the platform cannot resolve a chat member.
var ErrNotFound = errors.New("not found")

const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
)

type Member struct {
	UserID int64
	Name   string
	Status string
	IsBot  bool
}

func (m Member) IsAdmin() bool {
	return m.Status == StatusCreator || m.Status == StatusAdministrator
}

// Button is an inline button. Exactly one of URL and Data is set.
type Button struct {
	Text string
	URL  string
	Data string
}

type OutgoingMessage struct {
	ChatID  int64
	Text    string
	ReplyTo int
	HTML    bool
	Buttons [][]Button
}

type Platform interface {
	GetMember(ctx context.Context, chatID, userID int64) (Member, error)
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	RestrictUser(ctx context.Context, chatID, userID int64, until time.Time) error
	BanUser(ctx context.Context, chatID, userID int64) error
	SendMessage(ctx context.Context, msg OutgoingMessage) (int, error)
	EditButtons(ctx context.Context, chatID int64, messageID int, buttons [][]Button) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	ChatTitle(ctx context.Context, chatID int64) (string, error)
	DownloadFile(ctx context.Context, fileID string, maxBytes int64) ([]byte, error)
}
