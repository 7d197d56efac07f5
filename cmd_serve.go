package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akinalp/circles/config"
	"github.com/akinalp/circles/embedding"
	"github.com/akinalp/circles/pkg/i18n"
	"github.com/akinalp/circles/services"
	"github.com/akinalp/circles/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := i18n.Load(i18n.Locales()); err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	db, store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	embedder, err := embedding.New(cfg.Embedding, log)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding engine: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	hub := ws.NewHub(log)

	svcs, limiters, err := initServices(store, hub, embedder, cfg, log)
	if err != nil {
		return err
	}
	defer limiters.Stop()
	defer svcs.Suggestion.Close()

	registerHubCallbacks(hub, svcs.Notification)

	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	go purgeExpiredCredentials(ctx, svcs.Auth)

	h := initHandlers(svcs, limiters, hub, db, cfg)
	handler := initRoutes(http.NewServeMux(), h, svcs.Auth, store, cfg.Upload.Dir, log)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(handler),
		ReadTimeout:  30 * time.Second, // uploads
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("embedder", embedder.Name()),
			zap.String("timezone", cfg.App.TimeZone),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			cancel()
			<-hubDone
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down")

	// Hub first so clients see the close frame before the listener goes.
	cancel()
	<-hubDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// purgeExpiredCredentials drops stale sessions and reset tokens once an hour
// until ctx is cancelled.
func purgeExpiredCredentials(ctx context.Context, auth services.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
				log.Warn("failed to purge expired credentials", zap.Error(err))
			}
		}
	}
}
