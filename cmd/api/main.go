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

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harentsoaR/mysimo-api/internal/config"
	"github.com/harentsoaR/mysimo-api/internal/handlers"
	"github.com/harentsoaR/mysimo-api/internal/services"
	"github.com/harentsoaR/mysimo-api/internal/store"
	"github.com/harentsoaR/mysimo-api/internal/store/memstore"
	"github.com/harentsoaR/mysimo-api/internal/store/mongostore"
	"github.com/harentsoaR/mysimo-api/internal/store/pgstore"
	"github.com/harentsoaR/mysimo-api/internal/utils"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	devJWTSecret    = "mysimo-dev-secret"
)

func main() {
	serve := serveCmd()
	rootCmd := &cobra.Command{
		Use:   "mysimo-api",
		Short: "mysimo doctor directory and appointments API",
		RunE:  serve.RunE,
	}

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, indexes and unique constraints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			if err := st.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info().Str("driver", cfg.DBDriver).Msg("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the admin account and the specialty and city tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			demo, _ := cmd.Flags().GetBool("demo")

			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			if err := st.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			_, err = services.NewReferenceService(st, logger).Seed(ctx, services.SeedOptions{Demo: demo})
			return err
		},
	}
	cmd.Flags().Bool("demo", false, "also create sample patients, doctors and promotions")
	return cmd
}

// bootstrap loads the configuration and builds the logger.
func bootstrap() (*config.Config, zerolog.Logger, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return nil, logger, err
	}
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	if cfg.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET is not set, using the development secret")
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.DBDriver {
	case config.DriverMongo:
		st, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
		return st, nil
	case config.DriverPostgres:
		st, err := pgstore.Open(cfg.PostgresURI, logger)
		if err != nil {
			return nil, err
		}
		if err := st.Ping(ctx); err != nil {
			_ = st.Close(context.Background())
			return nil, err
		}
		logger.Info().Msg("connected to PostgreSQL")
		return st, nil
	case config.DriverMemory:
		logger.Warn().Msg("using the in-memory store, data is lost on restart")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

func runServer() error {
	cfg, logger, err := bootstrap()
	if err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	st, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open store")
		return err
	}
	defer st.Close(context.Background())

	if cfg.DBDriver == config.DriverMemory {
		if _, err := services.NewReferenceService(st, logger).Seed(context.Background(), services.SeedOptions{Demo: true}); err != nil {
			return err
		}
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, utils.TokenTTL)
	notifier := services.NewNotificationService("", cfg.TextbeltAPIKey, nil, logger)
	if !notifier.Enabled() {
		logger.Info().Msg("TEXTBELT_API_KEY is not set, booking SMS are disabled")
	}
	reference := services.NewReferenceService(st, logger)

	h := handlers.NewHandler(handlers.Services{
		Auth:         services.NewAuthService(st, tokens, logger),
		Doctors:      services.NewDoctorService(st, logger),
		Appointments: services.NewAppointmentService(st, notifier, logger),
		Reference:    reference,
		Assistant:    services.NewAssistant("", cfg.GeminiAPIKey, nil, reference, logger),
	}, logger)

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(h, handlers.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		Tokens:      tokens,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("driver", cfg.DBDriver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	notifier.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
