package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/patients/internal/config"
	"github.com/ehr/patients/internal/domain/patient"
	"github.com/ehr/patients/internal/domain/profile"
	"github.com/ehr/patients/internal/platform/db"
	"github.com/ehr/patients/internal/platform/middleware"
	"github.com/ehr/patients/internal/platform/openapi"
	"github.com/ehr/patients/internal/platform/validation"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "patient-server",
		Short:   "Patient records API",
		Version: version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(validateProfileCmd())
	rootCmd.AddCommand(bmiCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the patient API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the patient document table (postgres backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.BackendPostgres {
				return fmt.Errorf("migrate requires STORE_BACKEND=%s, got %q", config.BackendPostgres, cfg.StoreBackend)
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool, patient.DocumentSchema); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "patient_documents table is ready.")
			return nil
		},
	}
}

func validateProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-profile [file]",
		Short: "Validate a patient profile JSON document and print its normalized form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domains, _ := cmd.Flags().GetStringSlice("allowed-domain")

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return validateProfile(in, cmd.OutOrStdout(), domains)
		},
	}
	cmd.Flags().StringSlice("allowed-domain", []string{"hdfc.com", "icici.com"}, "Allowed email domain (repeatable)")
	return cmd
}

func validateProfile(in io.Reader, out io.Writer, domains []string) error {
	var p profile.Profile
	if err := json.NewDecoder(in).Decode(&p); err != nil {
		if verr := validation.FromDecodeError(err); verr != nil {
			return verr
		}
		return fmt.Errorf("decode profile: %w", err)
	}

	normalized, err := profile.NewSchema(validation.New(domains)).Validate(p)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(normalized)
}

func bmiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bmi",
		Short: "Compute body-mass index and verdict",
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, _ := cmd.Flags().GetFloat64("weight")
			height, _ := cmd.Flags().GetFloat64("height")

			bmi, err := patient.BMI(weight, height)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bmi=%.2f verdict=%s\n", bmi, patient.Verdict(bmi))
			return nil
		},
	}
	cmd.Flags().Float64("weight", 0, "Weight in kilograms")
	cmd.Flags().Float64("height", 0, "Height in meters")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		l := newLogger(os.Getenv("ENV"))
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Env)

	ctx := context.Background()
	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open patient store")
	}
	if pool != nil {
		defer pool.Close()
	}
	logger.Info().Str("backend", cfg.StoreBackend).Msg("patient store ready")

	e := newServer(cfg, logger, store, pool)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{
		URL:          cfg.DatabaseURL,
		MaxConns:     cfg.DBMaxConns,
		MinConns:     cfg.DBMinConns,
		PingAttempts: cfg.DBPingAttempts,
		PingInterval: cfg.DBPingInterval,
	}
}

// openStore picks the document backend. The pool is nil unless the
// postgres backend is selected.
func openStore(ctx context.Context, cfg *config.Config) (patient.DocumentStore, *pgxpool.Pool, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, poolConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		return patient.NewPGStore(pool), pool, nil
	case config.BackendMemory:
		return patient.NewMemoryStore(nil), nil, nil
	default:
		return patient.NewFileStore(cfg.DataFile), nil, nil
	}
}

func newServer(cfg *config.Config, logger zerolog.Logger, store patient.DocumentStore, pool *pgxpool.Pool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.ReadRPS, rateLimitCfg.ReadBurst = cfg.RateLimitRPS, cfg.RateLimitBurst
	}
	if cfg.WriteRateLimitRPS > 0 {
		rateLimitCfg.WriteRPS, rateLimitCfg.WriteBurst = cfg.WriteRateLimitRPS, cfg.WriteRateLimitBurst
	}
	e.Use(middleware.RateLimit(rateLimitCfg))

	var check db.Checker = func(ctx context.Context) error {
		_, err := store.Load(ctx)
		return err
	}
	if pool != nil {
		check = db.PoolChecker(pool)
	}
	e.GET("/health", db.HealthHandler(cfg.StoreBackend, check, pool))

	v := validation.New(cfg.AllowedEmailDomains)
	root := e.Group("")

	patientSvc := patient.NewService(patient.NewRepository(store), patient.NewSchema(v), logger)
	patient.NewHandler(patientSvc).RegisterRoutes(root)
	profile.NewHandler(profile.NewSchema(v)).RegisterRoutes(root)

	docs := openapi.NewGenerator("Patient Management API", version)
	patient.RegisterDocs(docs)
	profile.RegisterDocs(docs)
	docs.RegisterRoutes(root)

	return e
}
