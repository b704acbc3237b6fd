package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ivr-flow/internal/config"
	"ivr-flow/internal/database"
	"ivr-flow/internal/ivr"
	"ivr-flow/internal/menu"
	"ivr-flow/internal/router"
	"ivr-flow/internal/session"

	"github.com/spf13/cobra"
)

var memorySessions bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Plivo webhooks and the admin API",
	Long: `Start the HTTP server.

Examples:
  ivr serve
  ivr serve --config /etc/ivr/config.yaml
  ivr serve --memory-sessions   # single process, no redis`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&memorySessions, "memory-sessions", false, "keep sessions in process memory instead of redis")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	sessions, closeSessions, err := openSessionStore(cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	engine := ivr.NewEngine(
		sessions,
		menu.NewGormRepository(db),
		ivr.NewGormFinalizer(db),
		cfg.IVR,
		ivr.WithLogger(engineLogger(cfg.Log.Level)),
	)

	r := router.SetupRouter(cfg, router.Deps{DB: db, Sessions: sessions, Engine: engine})
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openSessionStore(cfg *config.Config) (session.Store, func(), error) {
	opts := session.Options{
		RootMenuID:       cfg.IVR.RootMenuID,
		TTL:              cfg.IVR.SessionTTLDuration(),
		RejectDuplicates: cfg.IVR.RejectDuplicateSessions,
	}

	if memorySessions {
		log.Printf("sessions: in-process memory, not shared between instances")
		return session.NewMemoryStore(opts), func() {}, nil
	}

	client, err := session.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("redis client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// webhooks answer with the unavailable message until redis is back
		log.Printf("sessions: redis ping failed: %v", err)
	}
	store := session.NewRedisStore(client, cfg.Redis.KeyPrefix, opts)
	return store, func() { _ = client.Close() }, nil
}

func engineLogger(level string) *log.Logger {
	switch level {
	case "off", "silent":
		return log.New(io.Discard, "", 0)
	default:
		return log.New(os.Stderr, "ivr: ", log.LstdFlags)
	}
}
