package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Config is read once at process start.
type Config struct {
	Port            string        `mapstructure:"PORT"`
	PublicURL       string        `mapstructure:"PUBLIC_URL"`
	StoreDriver     string        `mapstructure:"STORE_DRIVER"`
	MongoURI        string        `mapstructure:"MONGO_URI"`
	MongoDatabase   string        `mapstructure:"MONGO_DATABASE"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTTTL          time.Duration `mapstructure:"JWT_TTL"`
	AdminEmails     []string      `mapstructure:"ADMIN_EMAILS"`
	MailProvider    string        `mapstructure:"MAIL_PROVIDER"`
	PostmarkToken   string        `mapstructure:"POSTMARK_API_TOKEN"`
	SendGridAPIKey  string        `mapstructure:"SENDGRID_API_KEY"`
	EmailSender     string        `mapstructure:"EMAIL_SENDER"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`
	KafkaBrokers    []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string        `mapstructure:"KAFKA_ORDER_TOPIC"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogPretty       bool          `mapstructure:"LOG_PRETTY"`
}

var defaults = map[string]any{
	"PORT":               "8000",
	"PUBLIC_URL":         "http://localhost:8000",
	"STORE_DRIVER":       StoreDriverMongo,
	"MONGO_URI":          "",
	"MONGO_DATABASE":     "ecommerce",
	"JWT_SECRET":         "",
	"JWT_TTL":            24 * time.Hour,
	"ADMIN_EMAILS":       []string{"admin@mystore.com"},
	"MAIL_PROVIDER":      "none",
	"POSTMARK_API_TOKEN": "",
	"SENDGRID_API_KEY":   "",
	"EMAIL_SENDER":       "",
	"REDIS_ADDR":         "",
	"REDIS_PASSWORD":     "",
	"REDIS_DB":           0,
	"CATALOG_CACHE_TTL":  5 * time.Minute,
	"KAFKA_BROKERS":      []string{},
	"KAFKA_ORDER_TOPIC":  "orders",
	"REQUEST_TIMEOUT":    10 * time.Second,
	"LOG_LEVEL":          "info",
	"LOG_PRETTY":         false,
}

// Load reads .env files (missing ones are ignored) and then the process
// environment, which takes precedence.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.AdminEmails = splitList(cfg.AdminEmails)
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)
	cfg.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required for the mongo store"))
		}
	case StoreDriverMemory:
		// serve generates a throwaway secret when none is set
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if !strings.HasPrefix(c.PublicURL, "http://") && !strings.HasPrefix(c.PublicURL, "https://") {
		errs = append(errs, fmt.Errorf("PUBLIC_URL %q must be an http(s) URL", c.PublicURL))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	switch c.MailProvider {
	case "", "none":
	case "postmark":
		if c.PostmarkToken == "" || c.EmailSender == "" {
			errs = append(errs, errors.New("POSTMARK_API_TOKEN and EMAIL_SENDER are required for postmark"))
		}
	case "sendgrid":
		if c.SendGridAPIKey == "" || c.EmailSender == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY and EMAIL_SENDER are required for sendgrid"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaOrderTopic == "" {
		errs = append(errs, errors.New("KAFKA_ORDER_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
