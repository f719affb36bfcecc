// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/config"
	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/notify"
	"go-storefront/routes"
	"go-storefront/services"
	"go-storefront/store"
	"go-storefront/store/memory"
	"go-storefront/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	serve := serveCmd()
	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront API: catalog, cart, UPI checkout and order admin",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	rootCmd.PersistentFlags().StringSlice("env-file", nil, ".env files to load before reading the environment")

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(grantAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the products listed in a YAML catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("file")
			return runSeed(cmd.Context(), cfg, logger, path)
		},
	}
	cmd.Flags().StringP("file", "f", "catalog.yaml", "YAML file with a top-level products list")
	return cmd
}

func grantAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant-admin",
		Short: "Give an existing account the admin role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			return runGrantAdmin(cmd.Context(), cfg, logger, email)
		},
	}
	cmd.Flags().String("email", "", "email of the account to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg)
	zerolog.DefaultContextLogger = &logger
	return cfg, logger, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "storefront").Logger()
}

// openStores connects the configured backend. The returned func releases
// every connection it opened.
func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Stores, func(), error) {
	var (
		stores  store.Stores
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn().Msg("using the in-memory store; data is lost on restart")
		stores = memory.New().Stores()
	default:
		client, err := store.ConnectDB(ctx, cfg.MongoURI)
		if err != nil {
			return stores, nil, err
		}
		closers = append(closers, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Error().Err(err).Msg("mongo disconnect failed")
			}
		})
		db := client.Database(cfg.MongoDatabase)
		if err := store.EnsureIndexes(ctx, db); err != nil {
			closeAll()
			return stores, nil, err
		}
		stores = store.NewMongoStores(db)
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
	}

	if cfg.RedisAddr != "" {
		client, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			closeAll()
			return stores, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		stores.Products = store.NewCachedProductStore(stores.Products, store.NewRedisCache(client), cfg.CatalogCacheTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CatalogCacheTTL).Msg("catalog cache enabled")
	}
	return stores, closeAll, nil
}

func newMailer(cfg *config.Config) (utils.Mailer, error) {
	return utils.NewMailer(utils.MailerConfig{
		Provider:         cfg.MailProvider,
		Sender:           cfg.EmailSender,
		PostmarkAPIToken: cfg.PostmarkToken,
		SendGridAPIKey:   cfg.SendGridAPIKey,
	})
}

func buildNotifier(cfg *config.Config, mailer utils.Mailer, stores store.Stores, logger zerolog.Logger) (notify.Multi, func()) {
	var notifiers notify.Multi
	closer := func() {}

	if cfg.MailProvider != "" && cfg.MailProvider != "none" {
		notifiers = append(notifiers, notify.NewEmailNotifier(mailer, stores.Accounts, stores.Users))
	}

	if len(cfg.KafkaBrokers) > 0 {
		events := notify.NewEventNotifier(notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger))
		notifiers = append(notifiers, events)
		closer = func() {
			if err := events.Close(); err != nil {
				logger.Error().Err(err).Msg("kafka writer close failed")
			}
		}
	}
	return notifiers, closer
}

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn().Msg("JWT_SECRET not set; using a random secret, sessions end on restart")
	}
	tokens, err := utils.NewTokenMaker(secret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	gate := services.NewAdminGate(cfg.AdminEmails)

	mailer, err := newMailer(cfg)
	if err != nil {
		return err
	}
	notifier, closeNotifier := buildNotifier(cfg, mailer, stores, logger)
	defer closeNotifier()

	// Initialize controllers
	c := routes.Controllers{
		Users: controllers.NewUserController(
			services.NewAuthService(stores.Accounts, stores.Users, tokens, gate, mailer, cfg.PublicURL+"/auth/verify"),
			services.NewProfileService(stores.Users),
			cfg.RequestTimeout,
		),
		Products: controllers.NewProductController(services.NewCatalogService(stores.Products), cfg.RequestTimeout),
		Carts:    controllers.NewCartController(services.NewCartService(stores.Carts, stores.Products), cfg.RequestTimeout),
		Orders:   controllers.NewOrderController(services.NewOrderService(stores.Orders, stores.Carts, notifier, logger), cfg.RequestTimeout),
	}
	router := routes.NewRouter(logger, middleware.NewAuthenticator(tokens, gate), c)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("shutdown completed")
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, logger zerolog.Logger, path string) error {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return errors.New("seed needs a persistent store; set STORE_DRIVER=mongo")
	}
	reqs, err := services.LoadCatalogFile(path)
	if err != nil {
		return err
	}

	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	inserted, err := services.NewCatalogService(stores.Products).Seed(ctx, reqs)
	if err != nil {
		return err
	}
	logger.Info().Str("file", path).Int("inserted", inserted).Msg("catalog seeded")
	return nil
}

func runGrantAdmin(ctx context.Context, cfg *config.Config, logger zerolog.Logger, email string) error {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return errors.New("grant-admin needs a persistent store; set STORE_DRIVER=mongo")
	}
	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	// Promotion only touches the account table; no tokens are issued.
	auth := services.NewAuthService(stores.Accounts, stores.Users, nil, services.NewAdminGate(cfg.AdminEmails), nil, "")
	account, err := auth.GrantAdmin(ctx, email)
	if err != nil {
		return err
	}
	logger.Info().Str("email", account.Email).Str("uid", account.UID).Msg("admin role granted")
	return nil
}
