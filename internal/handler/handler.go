package handler

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"group-guard-bot/internal/handler/callbacks"
	"group-guard-bot/internal/metrics"
	"group-guard-bot/internal/moderation"
	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/service"
	"group-guard-bot/internal/session"
)

type Options struct {
	WarnLimit      int
	MuteDuration   time.Duration
	MaxImportBytes int64
	// BotUserName is matched against the @suffix of commands. Empty accepts every suffix.
	BotUserName string
}

type Handler struct {
	logger          *slog.Logger
	svc             service.Service
	platform        platform.Platform
	sessions        *session.Store
	tracer          trace.Tracer
	opts            Options
	callbackHandler *callbacks.CallbackHandler
}

const defaultMaxImportBytes = 256 << 10

func NewHandler(logger *slog.Logger, svc service.Service, plat platform.Platform, sessions *session.Store, opts Options) *Handler {
	if opts.WarnLimit <= 0 {
		opts.WarnLimit = moderation.DefaultWarnLimit
	}
	if opts.MuteDuration <= 0 {
		opts.MuteDuration = moderation.DefaultMuteDuration
	}
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = defaultMaxImportBytes
	}
	return &Handler{
		logger:          logger,
		svc:             svc,
		platform:        plat,
		sessions:        sessions,
		tracer:          otel.Tracer("handler"),
		opts:            opts,
		callbackHandler: callbacks.NewCallbackHandler(logger, svc, plat, sessions, otel.Tracer("callbacks")),
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	ctx, span := h.tracer.Start(ctx, "HandleUpdate")
	defer span.End()
	span.SetAttributes(attribute.Int("update_id", upd.UpdateID))

	start := time.Now()
	var updateType string
	switch {
	case upd.Message != nil:
		updateType = "message"
		h.handleMessage(ctx, upd.Message)
	case upd.EditedMessage != nil:
		updateType = "edited_message"
		h.handleEditedMessage(ctx, upd.EditedMessage)
	case upd.CallbackQuery != nil:
		updateType = "callback_query"
		h.handleCallback(ctx, upd.CallbackQuery)
	default:
		h.logger.Debug("Received unhandled update type", "update_id", upd.UpdateID)
		return
	}
	span.SetAttributes(attribute.String("update_type", updateType))
	metrics.ObserveUpdateProcessing(updateType, time.Since(start).Seconds(), nil)
}
