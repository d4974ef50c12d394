// Package sender реализует доставку уведомлений: потребляет сообщения из
// очередей RabbitMQ и рассылает письма по SMTP и SMS через шлюз.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/streadway/amqp"

	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/lib/smtp"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/rabbitmq"
)

// SMSSender описывает контракт отправки SMS.
type SMSSender interface {
	Configured() bool
	Send(ctx context.Context, to, body string) error
}

// SenderService потребляет очереди уведомлений и доставляет сообщения получателям.
type SenderService struct {
	log           *slog.Logger
	transport     smtp.TransportInterface
	sms           SMSSender
	frontendURL   string
	operatorEmail string
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface, sms SMSSender,
	frontendURL, operatorEmail string) *SenderService {
	return &SenderService{
		log:           log,
		transport:     transport,
		sms:           sms,
		frontendURL:   frontendURL,
		operatorEmail: operatorEmail,
	}
}

// Run подписывает обработчики на очереди уведомлений и блокируется
// до отмены контекста.
func (s *SenderService) Run(ctx context.Context, ch *amqp.Channel) error {
	const op = "sender.Run"

	handlers := map[string]func(context.Context, []byte) error{
		"notifications.purchase": s.handlePurchase,
		"notifications.expiry":   s.handleExpiry,
		"notifications.reset":    s.handleReset,
		"notifications.contact":  s.handleContact,
	}
	for _, q := range rabbitmq.GetNotificationQueues() {
		handler, ok := handlers[q.QueueName]
		if !ok {
			continue
		}
		h := handler
		if err := rabbitmq.ConsumerMessage(ctx, ch, q.QueueName, func(body []byte) error {
			return h(ctx, body)
		}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("consuming notification queue", slog.String("queue", q.QueueName))
	}

	<-ctx.Done()
	return nil
}

// sendEmail отправляет одно письмо через SMTP транспорт.
func (s *SenderService) sendEmail(to, subject, body string) error {
	const op = "sender.sendEmail"

	client, err := s.transport.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := client.Quit(); err != nil {
			s.log.Error("failed to quit SMTP session", sl.Err(err))
		}
	}()

	from := s.transport.GetSMTPUser()
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var msg strings.Builder
	msg.WriteString("From: Faith by Experiments <" + from + ">\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if _, err := w.Write([]byte(msg.String())); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// sendSMS отправляет SMS, если шлюз сконфигурирован и номер известен.
func (s *SenderService) sendSMS(ctx context.Context, mobile *string, body string) {
	if s.sms == nil || !s.sms.Configured() || mobile == nil || *mobile == "" {
		return
	}
	if err := s.sms.Send(ctx, *mobile, body); err != nil {
		s.log.Error("failed to send sms", sl.Err(err))
	}
}

func (s *SenderService) handlePurchase(ctx context.Context, body []byte) error {
	const op = "sender.handlePurchase"

	var msg models.PurchaseNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrReject, err)
	}

	subject := "Welcome to Faith by Experiments"
	text := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"Thank you for subscribing! Your %s subscription is now active.\r\n"+
			"Amount paid: Rs. %s.\r\n\r\n"+
			"You now have full access to all premium articles at %s.\r\n\r\n"+
			"Faith by Experiments",
		msg.Name, msg.SubscriptionType, msg.AmountRupees, s.frontendURL)
	if err := s.sendEmail(msg.Email, subject, text); err != nil {
		return err
	}

	s.sendSMS(ctx, msg.Mobile, fmt.Sprintf(
		"Hi %s, your %s subscription to Faith by Experiments is active. Happy reading!",
		msg.Name, msg.SubscriptionType))
	return nil
}

func (s *SenderService) handleExpiry(ctx context.Context, body []byte) error {
	const op = "sender.handleExpiry"

	var msg models.ExpiryNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrReject, err)
	}

	subject := "Your subscription has expired"
	text := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"Your %s subscription to Faith by Experiments has expired.\r\n"+
			"Renew at %s to keep full access to premium articles.\r\n\r\n"+
			"Faith by Experiments",
		msg.Name, msg.SubscriptionType, s.frontendURL)
	if err := s.sendEmail(msg.Email, subject, text); err != nil {
		return err
	}

	s.sendSMS(ctx, msg.Mobile, fmt.Sprintf(
		"Hi %s, your Faith by Experiments subscription has expired. Renew at %s",
		msg.Name, s.frontendURL))
	return nil
}

func (s *SenderService) handleReset(_ context.Context, body []byte) error {
	const op = "sender.handleReset"

	var msg models.ResetNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrReject, err)
	}

	link := s.frontendURL + "/reset-password?token=" + msg.Token
	subject := "Password reset"
	text := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"We received a request to reset your password. The link below is valid "+
			"for one hour and can be used once:\r\n\r\n%s\r\n\r\n"+
			"If you did not request a reset, ignore this email.\r\n\r\n"+
			"Faith by Experiments",
		msg.Name, link)
	return s.sendEmail(msg.Email, subject, text)
}

func (s *SenderService) handleContact(_ context.Context, body []byte) error {
	const op = "sender.handleContact"

	var msg models.ContactNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrReject, err)
	}
	if s.operatorEmail == "" {
		s.log.Warn("operator email is not configured, dropping contact message",
			slog.String("from", msg.Email))
		return nil
	}

	whatsapp := "-"
	if msg.WhatsApp != nil && *msg.WhatsApp != "" {
		whatsapp = *msg.WhatsApp
	}
	subject := "New contact form message from " + msg.Name
	text := fmt.Sprintf(
		"Name: %s\r\nEmail: %s\r\nWhatsApp: %s\r\n\r\n%s",
		msg.Name, msg.Email, whatsapp, msg.Message)
	return s.sendEmail(s.operatorEmail, subject, text)
}
