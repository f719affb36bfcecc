package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.PublicURL)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "ecommerce", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"admin@mystore.com"}, cfg.AdminEmails)
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "orders", cfg.KafkaOrderTopic)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("ADMIN_EMAILS", "ops@mystore.com, Admin@MyStore.com ,")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("PUBLIC_URL", " https://shop.example.com/ ")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"ops@mystore.com", "Admin@MyStore.com"}, cfg.AdminEmails)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "https://shop.example.com", cfg.PublicURL)
}

func TestLoadFromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=memory\nJWT_SECRET=from-file\nPORT=9090\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("PORT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "9090", cfg.Port)
}

func TestValidate(t *testing.T) {
	valid := Config{
		StoreDriver:    StoreDriverMemory,
		PublicURL:      "http://localhost:8000",
		JWTSecret:      "secret",
		JWTTTL:         time.Hour,
		RequestTimeout: time.Second,
	}
	require.NoError(t, valid.Validate())

	noSecret := valid
	noSecret.JWTSecret = ""
	assert.NoError(t, noSecret.Validate(), "memory driver runs without a configured secret")

	cases := map[string]func(c *Config){
		"mongo without uri":    func(c *Config) { c.StoreDriver = StoreDriverMongo },
		"unknown driver":       func(c *Config) { c.StoreDriver = "firestore" },
		"mongo without secret": func(c *Config) { c.StoreDriver = StoreDriverMongo; c.MongoURI = "mongodb://db"; c.JWTSecret = "" },
		"no ttl":               func(c *Config) { c.JWTTTL = 0 },
		"relative public url":  func(c *Config) { c.PublicURL = "shop.example.com" },
		"postmark no token":    func(c *Config) { c.MailProvider = "postmark"; c.EmailSender = "shop@example.com" },
		"sendgrid no sender":   func(c *Config) { c.MailProvider = "sendgrid"; c.SendGridAPIKey = "key" },
		"unknown mail":         func(c *Config) { c.MailProvider = "fax" },
		"kafka without topic":  func(c *Config) { c.KafkaBrokers = []string{"k:9092"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
