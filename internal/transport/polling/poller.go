package polling

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateSource is the long-polling half of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Poller struct {
	logger  *slog.Logger
	bot     UpdateSource
	timeout int
}

func NewPoller(logger *slog.Logger, bot UpdateSource) *Poller {
	return &Poller{
		logger:  logger,
		bot:     bot,
		timeout: 60,
	}
}

// Start begins long polling. The returned channel is closed after ctx is done.
func (p *Poller) Start(ctx context.Context) tgbotapi.UpdatesChannel {
	p.logger.Info("Starting Long Polling", "timeout", p.timeout)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.timeout
	cfg.AllowedUpdates = []string{"message", "edited_message", "callback_query"}
	updates := p.bot.GetUpdatesChan(cfg)

	go func() {
		<-ctx.Done()
		p.logger.Info("Stopping Long Polling")
		p.bot.StopReceivingUpdates()
	}()
	return updates
}
