package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tush00nka/chitchat/internal/config"
	"tush00nka/chitchat/internal/handler"
	"tush00nka/chitchat/internal/pkg/auth"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/pkg/mail"
	"tush00nka/chitchat/internal/repository"
	"tush00nka/chitchat/internal/service"
	"tush00nka/chitchat/internal/ws"

	"gorm.io/gorm/logger"
)

type closer struct {
	name  string
	close func(context.Context) error
}

type App struct {
	cfg     *config.Config
	log     logging.Logger
	server  *Server
	hub     *ws.Hub
	closers []closer
}

type stores struct {
	users    repository.UserRepository
	friends  repository.FriendRepository
	messages repository.MessageRepository
}

// Run запускает API сервер и блокируется до SIGINT или SIGTERM
func Run(cfg *config.Config) error {
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}

	return a.Run(ctx)
}

// New подключается к хранилищам и собирает HTTP слой.
// При ошибке всё уже открытое закрывается.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, log: log, hub: ws.NewHub()}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	cache, err := a.openHistoryCache(ctx)
	if err != nil {
		return nil, err
	}

	mailer, err := a.openMailer()
	if err != nil {
		return nil, err
	}

	retired, err := cfg.RetiredKeys()
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenIssuer(cfg.JWTKeyID, []byte(cfg.JWTSecret), retired, cfg.TokenTTL)
	hasher := auth.NewHasher(cfg.BcryptCost)

	authService := service.NewAuthService(st.users, hasher, tokens, mailer, cfg.VerificationCodeTTL, log)
	userService := service.NewUserService(st.users)
	friendService := service.NewFriendService(st.users, st.friends, cache, log)
	messageService := service.NewMessageService(st.users, st.messages, cache, log)

	a.server = NewServer(log, cfg.Origins(), a.hub,
		handler.NewLiveHandler(a.hub, ws.NewUpgrader(cfg.Origins(), !cfg.IsProduction()), log),
		handler.NewAuthHandler(authService, userService, friendService, log),
		handler.NewUserHandler(userService, log),
		handler.NewMessageHandler(messageService, log),
	)

	return a, nil
}

// Run обслуживает запросы до отмены ctx, затем освобождает соединения
func (a *App) Run(ctx context.Context) error {
	err := a.server.Run(ctx, a.cfg.ServerPort)

	a.hub.Shutdown()
	a.close(context.Background())

	return err
}

func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(ctx); err != nil {
			a.log.Error(ctx, "close failed", "resource", c.name, "error", err)
		}
	}
	a.closers = nil
}

func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, close: fn})
}

func (a *App) openStore(ctx context.Context) (stores, error) {
	switch a.cfg.StoreDriver {
	case config.StorePostgres:
		db, err := repository.NewDB(a.cfg.DSN(), gormLogLevel(a.cfg.LogLevel))
		if err != nil {
			return stores{}, err
		}
		a.onClose("postgres", func(context.Context) error { return repository.CloseDB(db) })
		a.log.Info(ctx, "connected to postgres", "host", a.cfg.Host, "db", a.cfg.Name)

		return stores{
			users:    repository.NewUserRepository(db),
			friends:  repository.NewFriendRepository(db),
			messages: repository.NewMessageRepository(db),
		}, nil

	case config.StoreMongo:
		db, err := repository.NewMongo(ctx, a.cfg.MongoURI, a.cfg.MongoDatabase)
		if err != nil {
			return stores{}, err
		}
		a.onClose("mongo", db.Client().Disconnect)
		a.log.Info(ctx, "connected to mongo", "db", a.cfg.MongoDatabase)

		return stores{
			users:    repository.NewMongoUserRepository(db),
			friends:  repository.NewMongoFriendRepository(db),
			messages: repository.NewMongoMessageRepository(db),
		}, nil
	}

	return stores{}, fmt.Errorf("unknown STORE_DRIVER %q", a.cfg.StoreDriver)
}

func (a *App) openHistoryCache(ctx context.Context) (repository.HistoryCache, error) {
	if a.cfg.RedisURL == "" {
		a.log.Info(ctx, "REDIS_URL not set, history cache disabled")
		return repository.NewNoopHistoryCache(), nil
	}

	rdb, err := repository.NewRedis(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.onClose("redis", func(context.Context) error { return rdb.Close() })

	return repository.NewHistoryCache(rdb, a.cfg.HistoryCacheTTL), nil
}

func (a *App) openMailer() (mail.Mailer, error) {
	switch a.cfg.MailProvider {
	case config.MailLog:
		return mail.NewLogMailer(a.log), nil
	case config.MailSMTP:
		return mail.NewSMTPMailer(smtpConfig(a.cfg)), nil
	case config.MailKafka:
		m := mail.NewKafkaMailer(a.cfg.Brokers(), a.cfg.KafkaTopic)
		a.onClose("kafka", func(context.Context) error { return m.Close() })
		return m, nil
	}

	return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", a.cfg.MailProvider)
}

func smtpConfig(cfg *config.Config) mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		Subject:  cfg.MailSubject,
	}
}

// RunMailer читает события подтверждения из Kafka и отправляет их по SMTP
// до SIGINT или SIGTERM
func RunMailer(cfg *config.Config) error {
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := mail.NewConsumer(cfg.Brokers(), cfg.KafkaTopic, cfg.KafkaGroupID,
		mail.NewSMTPMailer(smtpConfig(cfg)), log)
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Error(context.Background(), "close consumer", "error", err)
		}
	}()

	log.Info(ctx, "mailer started", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	return consumer.Run(ctx)
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}
