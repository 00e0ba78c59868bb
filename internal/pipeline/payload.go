package pipeline

import (
	"fmt"

	"group-guard-bot/internal/repository"
)

type Payload struct {
	ChatID   int64
	SenderID int64
	Text     string
	Settings *repository.ChatSettings
	// Exempt marks owners and chat admins. Exempt payloads skip every filter.
	Exempt bool
}

func (p Payload) SenderIDUserKey() string {
	return fmt.Sprintf("%d:%d", p.ChatID, p.SenderID)
}
