package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/kvota/internal"
	"github.com/dukerupert/kvota/internal/calc"
	"github.com/dukerupert/kvota/internal/domain"
	"github.com/dukerupert/kvota/internal/handler"
	"github.com/dukerupert/kvota/internal/middleware"
	"github.com/dukerupert/kvota/internal/postgres"
	"github.com/dukerupert/kvota/internal/router"
	"github.com/dukerupert/kvota/internal/routes"
	"github.com/dukerupert/kvota/internal/service"
	"github.com/dukerupert/kvota/internal/settings"
	"github.com/dukerupert/kvota/internal/telemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const usage = `usage: quotecalc <command> [flags]

commands:
  calc      calculate one quote read from -in (default stdin) and print JSON
  serve     serve POST /api/v1/quotes/calculate on $PORT
  settings  append a new admin settings version (requires DATABASE_URL)
`

// errRejected marks a calc run whose quote was refused. The reason is
// already printed as JSON.
var errRejected = errors.New("quote rejected")

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}
	switch args[0] {
	case "calc", "serve", "settings":
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if args[0] == "settings" {
		return saveSettings(ctx, cfg, logger, args[1:])
	}

	provider, closeProvider, err := newSettingsProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	reg := prometheus.NewRegistry()
	calcMetrics := telemetry.NewCalculationMetrics(cfg.MetricsNamespace, reg)

	engine := calc.New(calc.WithWorkers(cfg.Workers))
	quotes := service.NewQuoteService(engine, provider, calcMetrics, logger)

	switch args[0] {
	case "calc":
		fs := flag.NewFlagSet("calc", flag.ContinueOnError)
		in := fs.String("in", "", "request JSON file (default stdin)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return calculate(ctx, quotes, cfg, *in, stdin, stdout)
	default:
		return serve(ctx, quotes, cfg, logger, reg)
	}
}

// newSettingsProvider uses the postgres settings store when DATABASE_URL is
// set and the configured defaults otherwise.
func newSettingsProvider(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (settings.Provider, func(), error) {
	if cfg.DatabaseUrl == "" {
		logger.Info("DATABASE_URL not set, using admin settings from environment")
		return settings.NewStatic(domain.AdminSettings{
			OrganizationID:    cfg.OrganizationID,
			ForexRiskRate:     cfg.Admin.ForexRiskRate,
			FinCommissionRate: cfg.Admin.FinCommissionRate,
			LoanInterestDaily: cfg.Admin.LoanInterestDaily,
		}), func() {}, nil
	}

	store, closeStore, err := openSettingsStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, closeStore, nil
}

// openSettingsStore migrates the schema and opens the pgx pool.
func openSettingsStore(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*postgres.SettingsStore, func(), error) {
	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	logger.Info("Admin settings store ready")

	return postgres.NewSettingsStore(pool), pool.Close, nil
}

// saveSettings appends one settings version for the configured organization.
func saveSettings(ctx context.Context, cfg *internal.Config, logger *slog.Logger, args []string) error {
	if cfg.DatabaseUrl == "" {
		return errors.New("settings: DATABASE_URL is required")
	}

	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	forex := fs.String("forex", cfg.Admin.ForexRiskRate.String(), "forex risk reserve, percent")
	commission := fs.String("commission", cfg.Admin.FinCommissionRate.String(), "financial agent commission, percent")
	loan := fs.String("loan", cfg.Admin.LoanInterestDaily.String(), "daily loan interest, percent")
	markup := fs.String("markup", "", "organization default markup, percent (optional)")
	deliveryDays := fs.Int("delivery-days", -1, "organization default delivery days (optional)")
	from := fs.String("from", "", "effective from, RFC 3339 (default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	params := postgres.SaveParams{
		OrganizationID: cfg.OrganizationID,
		EffectiveFrom:  time.Now().UTC(),
	}
	if *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return fmt.Errorf("settings: invalid -from: %w", err)
		}
		params.EffectiveFrom = t
	}

	var err error
	if params.ForexRiskRate, err = decimal.NewFromString(*forex); err != nil {
		return fmt.Errorf("settings: invalid -forex: %w", err)
	}
	if params.FinCommissionRate, err = decimal.NewFromString(*commission); err != nil {
		return fmt.Errorf("settings: invalid -commission: %w", err)
	}
	if params.LoanInterestDaily, err = decimal.NewFromString(*loan); err != nil {
		return fmt.Errorf("settings: invalid -loan: %w", err)
	}
	if *markup != "" {
		m, err := decimal.NewFromString(*markup)
		if err != nil {
			return fmt.Errorf("settings: invalid -markup: %w", err)
		}
		params.DefaultMarkup = decimal.NewNullDecimal(m)
	}
	if *deliveryDays >= 0 {
		params.DefaultDeliveryDays = deliveryDays
	}

	store, closeStore, err := openSettingsStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Save(ctx, params); err != nil {
		return err
	}
	logger.Info("Admin settings saved",
		slog.String("organization_id", params.OrganizationID.String()),
		slog.Time("effective_from", params.EffectiveFrom),
	)
	return nil
}

func calculate(ctx context.Context, quotes *service.QuoteService, cfg *internal.Config, path string, stdin io.Reader, stdout io.Writer) error {
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	req, err := service.DecodeRequest(r)
	if err != nil {
		return err
	}
	params, err := req.Params()
	if err != nil {
		return err
	}
	if params.OrganizationID == uuid.Nil {
		params.OrganizationID = cfg.OrganizationID
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	result, err := quotes.Calculate(ctx, params)
	switch {
	case err == nil:
		return enc.Encode(result)
	case domain.IsValidationError(err):
		if encErr := enc.Encode(map[string]any{"errors": domain.GetValidationErrors(err)}); encErr != nil {
			return encErr
		}
		return errRejected
	case domain.IsLookupError(err):
		if encErr := enc.Encode(map[string]any{"error": err.Error()}); encErr != nil {
			return encErr
		}
		return errRejected
	default:
		return err
	}
}

func serve(ctx context.Context, quotes *service.QuoteService, cfg *internal.Config, logger *slog.Logger, reg *prometheus.Registry) error {
	httpMetrics := middleware.NewMetrics(cfg.MetricsNamespace, reg, reg)

	cleanupSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return err
	}
	defer cleanupSentry()

	r := router.New(
		router.Recovery(logger),
		telemetry.SentryMiddleware(),
		middleware.RequestID,
		httpMetrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	routes.RegisterAPIRoutes(r, routes.APIDeps{
		QuoteHandler:   handler.NewQuoteHandler(quotes, cfg.OrganizationID),
		MetricsHandler: httpMetrics.Handler(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting quote calculation server", slog.String("address", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errRejected) {
			stop()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
