package callbacks

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"group-guard-bot/internal/platform"
	"group-guard-bot/internal/service"
	"group-guard-bot/internal/session"
)

type CallbackHandler struct {
	logger   *slog.Logger
	svc      service.Service
	platform platform.Platform
	sessions *session.Store
	tracer   trace.Tracer
}

func NewCallbackHandler(logger *slog.Logger, svc service.Service, plat platform.Platform, sessions *session.Store, tracer trace.Tracer) *CallbackHandler {
	return &CallbackHandler{
		logger:   logger,
		svc:      svc,
		platform: plat,
		sessions: sessions,
		tracer:   tracer,
	}
}
