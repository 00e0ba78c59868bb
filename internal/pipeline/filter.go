package pipeline

import (
	"context"

	"group-guard-bot/internal/moderation"
)

type Result struct {
	IsAllowed  bool
	Reason     moderation.Reason
	Match      string
	FilterName string
}

type Filter interface {
	Name() string
	Process(ctx context.Context, payload Payload) (*Result, error)
}
