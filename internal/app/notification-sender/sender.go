// Package sender собирает и запускает сервис доставки уведомлений:
// подключение к брокеру, SMTP транспорт, SMS-шлюз и потребители очередей.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/faithbyexperiments/content-api/internal/config"
	"github.com/faithbyexperiments/content-api/internal/lib/sms"
	"github.com/faithbyexperiments/content-api/internal/lib/smtp"
	"github.com/faithbyexperiments/content-api/internal/rabbitmq"
	senderservice "github.com/faithbyexperiments/content-api/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	smsClient := sms.NewClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSFrom)
	senderService := senderservice.NewSenderService(logger, transport, smsClient,
		cfg.FrontendURL, cfg.OperatorEmail)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := a.senderService.Run(ctx, a.ch)

	a.logger.Info("sender service shutting down gracefully")
	if closeErr := a.ch.Close(); closeErr != nil {
		a.logger.Error("failed to close channel", slog.Any("err", closeErr))
	}
	if closeErr := a.conn.Close(); closeErr != nil {
		a.logger.Error("failed to close connection", slog.Any("err", closeErr))
	}
	return err
}
