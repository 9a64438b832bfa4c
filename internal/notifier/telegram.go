package notifier

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"smishguard/internal/config"
	"smishguard/internal/pipeline"
)

// Telegram pushes retraining outcomes to an operator chat. A nil *Telegram
// is valid and does nothing, so callers never need to branch on whether
// notifications are enabled.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// New creates the notifier, or (nil, nil) when notifications are disabled.
func New(cfg *config.Config, logger *zap.Logger) (*Telegram, error) {
	if !cfg.Notifications.TelegramEnabled || cfg.Notifications.TelegramBotToken == "" {
		logger.Info("Telegram notifications are disabled")
		return nil, nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.Notifications.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram notifier authorized", zap.String("username", api.Self.UserName))
	return &Telegram{
		api:    api,
		chatID: cfg.Notifications.TelegramChatID,
		logger: logger,
	}, nil
}

// RetrainCompleted reports a successful pipeline run with its per-family
// scores.
func (t *Telegram) RetrainCompleted(summary *pipeline.Summary) {
	if t == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Retraining finished: %d records (%d from feedback)\n",
		summary.TrainingSetSize, summary.FeedbackCount)
	for _, report := range summary.Families {
		fmt.Fprintf(&b, "%s: F1 %.4f, accuracy %.4f\n",
			report.Family, report.F1Score, report.Accuracy)
	}
	t.send(b.String())
}

// RetrainFailed reports a failed pipeline run. The previous generations
// remain in service.
func (t *Telegram) RetrainFailed(err error) {
	if t == nil {
		return
	}
	t.send(fmt.Sprintf("Retraining failed: %v\nPrevious model generations remain in service.", err))
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send Telegram notification", zap.Error(err))
	}
}
