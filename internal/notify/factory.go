package notify

import (
	"github.com/rs/zerolog"

	"github.com/helixir/paper-agent/internal/config"
)

// FromConfig selects the delivery channel from configuration. The first
// channel with complete credentials wins: Telegram, then Pushover, then
// Kafka. Returns nil when no channel is configured; callers keep papers
// unpushed in that case.
func FromConfig(cfg config.NotifyConfig, logger zerolog.Logger) Notifier {
	switch {
	case cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "":
		logger.Info().Str("channel", "telegram").Msg("notification channel configured")
		return NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, "")
	case cfg.Pushover.APIToken != "" && cfg.Pushover.UserKey != "":
		logger.Info().Str("channel", "pushover").Msg("notification channel configured")
		return NewPushoverNotifier(cfg.Pushover.APIToken, cfg.Pushover.UserKey, "")
	case len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic != "":
		logger.Info().Str("channel", "kafka").Strs("brokers", cfg.Kafka.Brokers).Msg("notification channel configured")
		return NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	default:
		logger.Warn().Msg("no notification channel configured, digests will not be delivered")
		return nil
	}
}
