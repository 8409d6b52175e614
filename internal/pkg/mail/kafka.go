package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tush00nka/chitchat/internal/pkg/logging"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMailer публикует события подтверждения для почтового воркера,
// чтобы не ходить в SMTP из обработчика запроса
type KafkaMailer struct {
	writer messageWriter
}

func NewKafkaMailer(brokers []string, topic string) *KafkaMailer {
	return &KafkaMailer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			WriteTimeout:           10 * time.Second,
			AllowAutoTopicCreation: true,
		},
	}
}

func (m *KafkaMailer) SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	value, err := json.Marshal(VerificationEvent{Email: email, Code: code, ExpiresAt: expiresAt.UTC()})
	if err != nil {
		return fmt.Errorf("marshal verification event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(email),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("publish verification event: %w", err)
	}

	return nil
}

func (m *KafkaMailer) Close() error {
	return m.writer.Close()
}

const (
	deliveryAttempts = 3
	deliveryBackoff  = 2 * time.Second
)

// Consumer читает события подтверждения и передаёт их Mailer. Неудачная
// отправка повторяется с растущей паузой. Когда попытки кончились, событие
// логируется и всё равно коммитится: пользователь может запросить новый код
// через resend_code. Событие, которое повторялось в момент остановки, не
// коммитится и придёт снова при следующем запуске.
type Consumer struct {
	reader   messageReader
	mailer   Mailer
	log      logging.Logger
	attempts int
	backoff  time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, mailer Mailer, log logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &Consumer{
		reader:   reader,
		mailer:   mailer,
		log:      log,
		attempts: deliveryAttempts,
		backoff:  deliveryBackoff,
	}
}

// Run блокируется до отмены ctx или неустранимой ошибки чтения
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			// Остановка посреди повторов: без коммита, событие придёт снова
			c.log.Info(ctx, "delivery interrupted", "offset", msg.Offset)
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error(ctx, "commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

// handle возвращает ошибку, только если ctx отменён до завершения обработки
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var ev VerificationEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil || ev.Email == "" || ev.Code == "" {
		c.log.Warn(ctx, "skipping malformed verification event", "offset", msg.Offset)
		return nil
	}

	for attempt := 1; ; attempt++ {
		if time.Now().After(ev.ExpiresAt) {
			c.log.Info(ctx, "skipping expired verification event", "email", ev.Email)
			return nil
		}

		err := c.mailer.SendVerificationCode(ctx, ev.Email, ev.Code, ev.ExpiresAt)
		if err == nil {
			c.log.Info(ctx, "verification code delivered", "email", ev.Email, "attempt", attempt)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= c.attempts {
			c.log.Error(ctx, "dropping verification event", "email", ev.Email, "attempts", attempt, "error", err)
			return nil
		}

		c.log.Warn(ctx, "failed to deliver verification code", "email", ev.Email, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
