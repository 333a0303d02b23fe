package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"alzie-companion/internal/config"
	"alzie-companion/internal/patient"
	"alzie-companion/internal/platform/telegram"
	"alzie-companion/internal/report"
	"alzie-companion/internal/response"
	"alzie-companion/internal/session"
	"alzie-companion/internal/voice"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "alzie",
		Short:        "AlziE, a voice companion for people living with Alzheimer's",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app holds what every command needs.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   *patient.Store
	catalog response.Catalog
}

func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg, logOut)

	store := patient.NewStore(logger)
	if err := store.Open(cfg.PatientCSV); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	var catalog response.Catalog
	if cfg.PhrasesFile != "" {
		catalog, err = response.CatalogFromFile(cfg.PhrasesFile)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("file", cfg.PhrasesFile).Msg("phrase catalog loaded")
	}

	return &app{cfg: cfg, logger: logger, store: store, catalog: catalog}, nil
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	logger := zerolog.New(out).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		logger = logger.Level(level)
	}
	return logger
}

// watchPatients keeps vitals and medications current while ctx lives.
func (a *app) watchPatients(ctx context.Context) {
	w := patient.NewWatcher(a.store, a.cfg.PatientCSV, 500*time.Millisecond, a.logger)
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error().Err(err).Msg("patient file watcher stopped")
		}
	}()
}

// notifier returns the caregiver channel, nil when none is configured.
func (a *app) notifier() session.Notifier {
	if !a.cfg.CaregiverEnabled() {
		a.logger.Warn().Msg("CAREGIVER_CHAT_ID or TELEGRAM_BOT_TOKEN not set, caregiver alerts are disabled")
		return nil
	}
	tg := telegram.NewClient(a.cfg.TelegramBotToken)
	return report.NewService(tg, a.cfg.CaregiverChatID, a.cfg.ReportFontPaths, a.logger)
}

func (a *app) ttsClient() voice.TTSClient {
	if a.cfg.ElevenLabsAPIKey != "" {
		return voice.NewElevenLabsClient(a.cfg.ElevenLabsAPIKey, a.logger)
	}
	return voice.NewLocalClient(a.cfg.TTSURL, a.logger)
}

func (a *app) sessionOptions(sinks ...session.Sink) []session.Option {
	opts := []session.Option{
		session.WithLogger(a.logger),
		session.WithCatalog(a.catalog),
		session.WithDecayInterval(a.cfg.StressDecayInterval),
		session.WithOrientationInterval(a.cfg.OrientationInterval),
		session.WithSinks(sinks...),
	}
	if n := a.notifier(); n != nil {
		opts = append(opts, session.WithNotifier(n))
	}
	return opts
}

// openDB connects to Postgres, retrying while the database starts up.
func openDB(ctx context.Context, dsn string, attempts int, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Info().Msg("connected to database")
			return db, nil
		}
		logger.Warn().Err(err).Int("attempt", i).Int("of", attempts).Msg("waiting for database")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database: %w", err)
}

func newMigrator(cfg *config.Config) (*migrate.Migrate, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	m, err := migrate.New("file://"+cfg.MigrationsDir, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("migration init failed: %w", err)
	}
	return m, nil
}

func runMigrations(cfg *config.Config, logger zerolog.Logger) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	logger.Info().Msg("migrations applied")
	return nil
}
