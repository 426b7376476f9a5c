package main

import (
	"context"
	"encoding/json"
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

	"github.com/mcu/mcu/internal/config"
	"github.com/mcu/mcu/internal/domain/framingham"
	"github.com/mcu/mcu/internal/domain/mcu"
	"github.com/mcu/mcu/internal/platform/auth"
	"github.com/mcu/mcu/internal/platform/db"
	"github.com/mcu/mcu/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mcu-server",
		Short: "Medical check-up clinic API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(riskCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCU API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(w io.Writer, env string) zerolog.Logger {
	if env == "development" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func openPool(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Schema:   cfg.DBSchema,
	}, logger)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			schema, dir := migrateTarget(cmd, cfg)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg, zerolog.Nop())
			if err != nil {
				return err
			}
			defer pool.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running migrations from %s on schema: %s\n", dir, schema)
			count, err := db.NewMigrator(pool, os.DirFS(dir)).Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(out, "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	addMigrateFlags(upCmd)
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			schema, dir := migrateTarget(cmd, cfg)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg, zerolog.Nop())
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, os.DirFS(dir)).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), schema, statuses)
			return nil
		},
	}
	addMigrateFlags(statusCmd)
	cmd.AddCommand(statusCmd)

	return cmd
}

func addMigrateFlags(cmd *cobra.Command) {
	cmd.Flags().String("schema", "", "Target schema (default DB_SCHEMA)")
	cmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
}

func migrateTarget(cmd *cobra.Command, cfg *config.Config) (schema, dir string) {
	schema, _ = cmd.Flags().GetString("schema")
	dir, _ = cmd.Flags().GetString("dir")
	if schema == "" {
		schema = cfg.DBSchema
	}
	if dir == "" {
		dir = cfg.MigrationsDir
	}
	return schema, dir
}

func printStatus(w io.Writer, schema string, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// riskCmd scores one participant from flags without touching the database.
// Flags left unset are treated as missing inputs.
func riskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Compute a Framingham risk score from flags and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := riskInputFromFlags(cmd)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(mcu.Preview(in))
		},
	}
	f := cmd.Flags()
	f.String("sex", "", "MALE/FEMALE or a form code such as L or P")
	f.Int("age", 0, "Age in years")
	f.Float64("cholesterol", 0, "Total cholesterol (mg/dL)")
	f.Float64("hdl", 0, "HDL cholesterol (mg/dL)")
	f.Float64("systolic", 0, "Systolic blood pressure (mmHg)")
	f.Bool("smoker", false, "Current smoker")
	f.Bool("treated", false, "On antihypertensive treatment")
	return cmd
}

func riskInputFromFlags(cmd *cobra.Command) (framingham.Input, error) {
	f := cmd.Flags()
	var in framingham.Input
	if f.Changed("sex") {
		v, _ := f.GetString("sex")
		sex, err := framingham.ParseSex(v)
		if err != nil {
			return in, err
		}
		in.Sex = sex
	}
	if f.Changed("age") {
		v, _ := f.GetInt("age")
		in.AgeYears = &v
	}
	for name, dst := range map[string]**float64{
		"cholesterol": &in.TotalCholesterolMgDl,
		"hdl":         &in.HDLCholesterolMgDl,
		"systolic":    &in.SystolicBPMmHg,
	} {
		if f.Changed(name) {
			v, _ := f.GetFloat64(name)
			*dst = &v
		}
	}
	for name, dst := range map[string]**bool{
		"smoker":  &in.IsSmoker,
		"treated": &in.OnHypertensionTreatment,
	} {
		if f.Changed(name) {
			v, _ := f.GetBool(name)
			*dst = &v
		}
	}
	return in, nil
}

// newServer wires middleware and routes. health backs the /health endpoint and
// revoked is consulted for every bearer token.
func newServer(cfg *config.Config, svc *mcu.Service, health db.Pinger, revoked *auth.TokenRevocationStore, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.ImportBodyLimit, "/api/v1/mcu-records/import"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(health))

	// Auth middleware
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:      cfg.AuthIssuer,
			Audience:    cfg.AuthAudience,
			SigningKey:  []byte(cfg.AuthSigningKey),
			Revocations: revoked,
		}))
	}
	auth.RegisterRevocationRoutes(apiV1, revoked)

	mcu.NewHandler(svc, cfg.PublicBaseURL).RegisterRoutes(apiV1)
	return e
}

func runServer() error {
	// Logger
	logger := newLogger(os.Stdout, os.Getenv("ENV"))

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	svc := mcu.NewService(mcu.NewRecordRepoPG(pool), mcu.NewCheckinRepoPG(pool), logger)
	revoked := auth.NewTokenRevocationStore(cfg.AuthTokenTTL)
	defer revoked.Close()
	e := newServer(cfg, svc, pool, revoked, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
