package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"go-project-finance/internal/database"
	"go-project-finance/internal/handlers"
	"go-project-finance/internal/lifecycle"
	"go-project-finance/internal/logger"
	"go-project-finance/internal/middleware"
	"go-project-finance/internal/notify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the notification scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newScanner() *notify.Scanner {
	return notify.NewScanner(
		database.NewRecordStore(database.DB),
		database.NewConfigStore(database.DB),
		database.NewNotificationStore(database.DB),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("server")

	if err := database.Connect(cfg.Database, cfg.Log.Level); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := notify.NewScheduler(newScanner(), cfg.Scan.Interval, cfg.Scan.Timeout)
	if cfg.Scan.Enabled {
		scheduler.Start(ctx)
	} else {
		log.Warn().Msg("scheduled notification scan is disabled, only on-demand scans will run")
	}

	handlers.Init(handlers.Deps{
		Guard: lifecycle.NewGuard(database.DB, cfg.Scan.Audit),
		Scans: scheduler,
		AI:    cfg.AI,
	})

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(r, cfg.Server.AllowRegistration)
	if cfg.Server.AllowRegistration {
		log.Warn().Msg("registration route is OPEN, disable it in production")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if cfg.Scan.Enabled {
		scheduler.Wait()
	}

	log.Info().Msg("server exited gracefully")
	return nil
}
