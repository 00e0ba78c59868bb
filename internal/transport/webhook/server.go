package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Bot is the part of *tgbotapi.BotAPI the webhook needs.
type Bot interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

type Server struct {
	logger *slog.Logger
	bot    Bot
	host   string
	port   string
	path   string
}

// NewServer serves updates under a random path so only Telegram, which
// learns the URL from setWebhook, can post to it.
func NewServer(logger *slog.Logger, bot Bot, host, port string) *Server {
	return &Server{
		logger: logger,
		bot:    bot,
		host:   strings.TrimRight(host, "/"),
		port:   port,
		path:   "/webhook/" + uuid.NewString(),
	}
}

func (s *Server) Start(ctx context.Context) (<-chan tgbotapi.Update, func() error, error) {
	updates := make(chan tgbotapi.Update, 100)

	wh, err := tgbotapi.NewWebhook(s.host + s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	wh.AllowedUpdates = []string{"message", "edited_message", "callback_query"}
	if _, err := s.bot.Request(wh); err != nil {
		return nil, nil, fmt.Errorf("failed to set webhook: %w", err)
	}
	s.logger.Info("Webhook registered", "host", s.host)

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWebhook(ctx, updates))

	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info("Webhook server listening", "port", s.port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Webhook server failed", "error", err)
		}
	}()

	cleanup := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if _, err := s.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
		return nil
	}

	return updates, cleanup, nil
}

func (s *Server) handleWebhook(ctx context.Context, updates chan<- tgbotapi.Update) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upd, err := s.bot.HandleUpdate(r)
		if err != nil {
			s.logger.Warn("Rejected webhook request", "method", r.Method, "error", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		select {
		case updates <- *upd:
			w.WriteHeader(http.StatusOK)
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		case <-r.Context().Done():
		}
	}
}
