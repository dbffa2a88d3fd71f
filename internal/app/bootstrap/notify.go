package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/turnoflow/booking-platform/internal/config"
	"github.com/turnoflow/booking-platform/internal/notify"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// BuildEmailSender selects the configured email provider. Misconfigured
// providers fall back to the stub so booking creation never depends on email
// credentials.
func BuildEmailSender(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.NotifyProvider {
	case "ses":
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
		if sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but no API key configured, using stub sender")
	}
	return notify.NewStubEmailSender(logger)
}

// BuildNotifyQueue returns the notification queue, or nil for inline sending.
func BuildNotifyQueue(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.Queue {
	if cfg.UseMemoryQueue {
		return notify.NewMemoryQueue(64)
	}
	if cfg.NotifyQueueURL == "" {
		return nil
	}
	return notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
}
