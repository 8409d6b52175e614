package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	MailLog   = "log"
	MailSMTP  = "smtp"
	MailKafka = "kafka"
)

type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`

	Host     string `mapstructure:"DB_HOST"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	DBPort   string `mapstructure:"DB_PORT"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisURL        string        `mapstructure:"REDIS_URL"`
	HistoryCacheTTL time.Duration `mapstructure:"HISTORY_CACHE_TTL"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTKeyID       string        `mapstructure:"JWT_KEY_ID"`
	JWTRetiredKeys string        `mapstructure:"JWT_RETIRED_KEYS"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	BcryptCost     int           `mapstructure:"BCRYPT_COST"`

	VerificationCodeTTL time.Duration `mapstructure:"VERIFICATION_CODE_TTL"`

	MailProvider string `mapstructure:"MAIL_PROVIDER"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	MailSubject  string `mapstructure:"MAIL_SUBJECT"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
}

var defaults = map[string]any{
	"SERVER_PORT":           "8080",
	"ENVIRONMENT":           "development",
	"LOG_LEVEL":             "info",
	"STORE_DRIVER":          StorePostgres,
	"DB_HOST":               "localhost",
	"DB_USER":               "",
	"DB_PASSWORD":           "",
	"DB_NAME":               "chitchat",
	"DB_PORT":               "5432",
	"DB_SSLMODE":            "disable",
	"MONGO_URI":             "",
	"MONGO_DATABASE":        "chitchat",
	"REDIS_URL":             "",
	"HISTORY_CACHE_TTL":     time.Minute,
	"JWT_SECRET":            "",
	"JWT_KEY_ID":            "v1",
	"JWT_RETIRED_KEYS":      "",
	"TOKEN_TTL":             time.Hour,
	"BCRYPT_COST":           10,
	"VERIFICATION_CODE_TTL": 15 * time.Minute,
	"MAIL_PROVIDER":         MailLog,
	"MAIL_FROM":             "no-reply@chitchat.local",
	"MAIL_SUBJECT":          "Your verification code",
	"SMTP_HOST":             "",
	"SMTP_PORT":             "587",
	"SMTP_USER":             "",
	"SMTP_PASSWORD":         "",
	"KAFKA_BROKERS":         "",
	"KAFKA_TOPIC":           "verification-emails",
	"KAFKA_GROUP_ID":        "chitchat-mailer",
	"ALLOWED_ORIGINS":       "*",
}

// Load читает ./.env (если есть) и окружение, затем проверяет настройки API сервера
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile то же, что Load, но с явным путём к env файлу. Отсутствие файла не ошибка.
func LoadFile(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.validateServer(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadMailer загружает только настройки почтового воркера
func LoadMailer(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if len(cfg.Brokers()) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}

	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validateServer() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWTKeyID == "" {
		return fmt.Errorf("JWT_KEY_ID is required")
	}

	if _, err := c.RetiredKeys(); err != nil {
		return err
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	if c.VerificationCodeTTL <= 0 {
		return fmt.Errorf("VERIFICATION_CODE_TTL must be positive")
	}

	switch c.StoreDriver {
	case StorePostgres:
		if c.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if c.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
		if c.DBPort == "" {
			return fmt.Errorf("DB_PORT is required")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
		if c.MongoDatabase == "" {
			return fmt.Errorf("MONGO_DATABASE is required")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.MailProvider {
	case MailLog:
	case MailSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required for MAIL_PROVIDER=smtp")
		}
	case MailKafka:
		if len(c.Brokers()) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for MAIL_PROVIDER=kafka")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider)
	}

	return nil
}

// DSN собирает строку подключения к PostgreSQL для gorm
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.DBPort, c.SSLMode)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

// RetiredKeys разбирает JWT_RETIRED_KEYS ("kid:secret,kid:secret") в набор ключей
func (c *Config) RetiredKeys() (map[string][]byte, error) {
	keys := make(map[string][]byte)
	for _, pair := range splitList(c.JWTRetiredKeys) {
		kid, secret, ok := strings.Cut(pair, ":")
		if !ok || kid == "" || secret == "" {
			return nil, fmt.Errorf("malformed JWT_RETIRED_KEYS entry %q", pair)
		}
		if kid == c.JWTKeyID {
			return nil, fmt.Errorf("retired key id %q collides with JWT_KEY_ID", kid)
		}
		keys[kid] = []byte(secret)
	}
	return keys, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
