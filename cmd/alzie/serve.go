package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"alzie-companion/internal/metrics"
	"alzie-companion/internal/session"
	"alzie-companion/internal/voice"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve conversations over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	cfg, logger := a.cfg, a.logger

	collector := metrics.NewCollector("alzie")
	a.watchPatients(ctx)

	sinks := []session.Sink{session.NewFileSink(cfg.SessionLog)}
	var repo session.Repository
	if cfg.DatabaseURL != "" {
		db, err := openDB(ctx, cfg.DatabaseURL, 10, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("continuing without database, finished sessions go to the log file only")
		} else {
			defer db.Close()
			if err := runMigrations(cfg, logger); err != nil {
				return err
			}
			repo = session.NewRepository(db)
			sinks = append(sinks, repo)
		}
	}

	opts := append(a.sessionOptions(sinks...), session.WithObserver(collector))
	svc := session.NewService(session.ServiceConfig{
		Profiles:   a.store,
		Repository: repo,
		STT:        voice.NewWhisperClient(cfg.STTURL, logger),
		TTS:        a.ttsClient(),
		VoiceID:    cfg.TTSVoice,
		Options:    opts,
	})
	handler := session.NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)

	// CORS for the caregiver web client
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		session.RegisterRoutes(r, handler)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
