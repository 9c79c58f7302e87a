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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/curenation/hms/internal/config"
	"github.com/curenation/hms/internal/domain/admin"
	"github.com/curenation/hms/internal/domain/identity"
	"github.com/curenation/hms/internal/domain/scheduling"
	"github.com/curenation/hms/internal/platform/auth"
	"github.com/curenation/hms/internal/platform/db"
	"github.com/curenation/hms/internal/platform/jobs"
	"github.com/curenation/hms/internal/platform/middleware"
	"github.com/curenation/hms/internal/platform/notification"
	"github.com/curenation/hms/internal/platform/reporting"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hms-server",
		Short:         "Hospital management API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(patientsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
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
			dir, _ := cmd.Flags().GetString("dir")
			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if dir == "" {
				dir = cfg.MigrationsDir
			}
			count, err := db.NewMigrator(pool, dir).Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if dir == "" {
				dir = cfg.MigrationsDir
			}
			statuses, err := db.NewMigrator(pool, dir).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format(time.RFC3339)
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	setPassword := &cobra.Command{
		Use:   "set-password",
		Short: "Create the admin account or replace its password",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminID, _ := cmd.Flags().GetString("admin-id")
			password, _ := cmd.Flags().GetString("password")

			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			directory := identity.NewService(identity.NewPatientRepo(pool), identity.NewDoctorRepo(pool),
				auth.NewBcryptHasher(cfg.BcryptCost), nil, cfg.DefaultPatientPassword)
			creds := identity.NewCredentialService(directory, identity.NewAdminRepo(pool), nil)
			if err := creds.SetAdminPassword(cmd.Context(), adminID, password); err != nil {
				return err
			}
			fmt.Printf("Password set for admin %q.\n", adminID)
			return nil
		},
	}
	setPassword.Flags().String("admin-id", "admin", "Admin login id")
	setPassword.Flags().String("password", "", "New password (at least 8 characters)")
	_ = setPassword.MarkFlagRequired("password")
	cmd.AddCommand(setPassword)

	return cmd
}

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Patient maintenance tasks",
	}

	reset := &cobra.Command{
		Use:   "reset-passwords",
		Short: "Set every patient's password to the given value",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")

			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if password == "" {
				password = cfg.DefaultPatientPassword
			}
			directory := identity.NewService(identity.NewPatientRepo(pool), identity.NewDoctorRepo(pool),
				auth.NewBcryptHasher(cfg.BcryptCost), nil, cfg.DefaultPatientPassword)
			n, err := directory.ResetPatientPasswords(cmd.Context(), password)
			if err != nil {
				return err
			}
			fmt.Printf("Reset passwords for %d patient(s).\n", n)
			return nil
		},
	}
	reset.Flags().String("password", "", "New password (defaults to DEFAULT_PATIENT_PASSWORD)")
	cmd.AddCommand(reset)

	return cmd
}

// connect loads configuration and opens a pool for the maintenance commands.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, poolOptions(cfg))
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func poolOptions(cfg *config.Config) db.PoolOptions {
	return db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, poolOptions(cfg))
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	a, err := newApp(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("jobs did not stop in time")
		}
	}
	if err := a.notifier.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("pending notifications dropped")
	}
	return nil
}

// app holds the wired server and the resources it must release on exit.
type app struct {
	echo      *echo.Echo
	notifier  *notification.Notifier
	scheduler *jobs.Scheduler
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	// Sessions
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		generated, err := auth.RandomSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		logger.Warn().Msg("JWT_SECRET not set, using a random secret; sessions end on restart")
	}
	tokens := auth.NewTokenIssuer(secret, cfg.JWTIssuer, cfg.TokenTTL)

	var revoked auth.RevocationStore
	if cfg.RedisURL != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		revoked = auth.NewRedisRevocationStore(client, "hms:revoked:")
		logger.Info().Msg("token revocation backed by redis")
	} else {
		mem := auth.NewMemoryRevocationStore(time.Minute)
		a.closers = append(a.closers, mem.Close)
		revoked = mem
	}
	authn := auth.NewAuthenticator(tokens, revoked, cfg.IsDev())
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	// Email
	var sender notification.EmailSender
	if cfg.SMTPEnabled() {
		sender = notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		sender = notification.NewLogSender(logger)
	}
	a.notifier = notification.NewNotifier(sender, notification.NewTemplateEngine(), true)

	policy, err := scheduling.ParsePolicy(cfg.StatusPolicy)
	if err != nil {
		return nil, err
	}

	// Domain services
	directory := identity.NewService(identity.NewPatientRepo(pool), identity.NewDoctorRepo(pool),
		hasher, a.notifier, cfg.DefaultPatientPassword)
	creds := identity.NewCredentialService(directory, identity.NewAdminRepo(pool), tokens)
	departments := admin.NewService(admin.NewDepartmentRepo(pool))
	appointments := scheduling.NewService(scheduling.NewAppointmentRepo(pool), policy, a.notifier)
	stats := reporting.NewService(reporting.NewRepo(pool))

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(cfg.IsDev())

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(echomw.Gzip())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", db.HealthHandler(pool))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	api := e.Group("/api", middleware.RateLimit(rateLimitCfg))
	protected := api.Group("", authn.Required())

	reporting.NewHandler(stats).RegisterRoutes(protected, auth.RequireRole(auth.RoleAdmin))
	identity.NewHandler(directory, creds, authn).RegisterRoutes(api, protected)
	admin.NewHandler(departments).RegisterRoutes(api, protected)
	scheduling.NewHandler(appointments).RegisterRoutes(protected)

	a.echo = e

	// Background jobs
	if cfg.ReminderSchedule != "" {
		a.scheduler = jobs.NewScheduler(logger, 5*time.Minute)
		if err := a.scheduler.Add("appointment-reminders", cfg.ReminderSchedule, appointments.ReminderJob()); err != nil {
			return nil, err
		}
	}

	return a, nil
}
