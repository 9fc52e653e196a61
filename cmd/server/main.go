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
	"github.com/sirupsen/logrus"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/a2a"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/advisor"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/api"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/config"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/export"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/gemini"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/locale"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/logging"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/wizard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

type generator interface {
	advisor.Generator
	Close() error
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := newGenerator(ctx, cfg.Gemini, logger)
	if err != nil {
		return err
	}
	defer gen.Close()

	instructions, err := advisor.LoadInstructions(cfg.Wizard.PromptsFile)
	if err != nil {
		return err
	}

	money := locale.New(cfg.Export.Locale)
	adv := advisor.New(gen, advisor.Config{
		FastModel:    cfg.Gemini.FastModel,
		DeepModel:    cfg.Gemini.DeepModel,
		Language:     cfg.Wizard.Language,
		Instructions: instructions,
	}, money, logger)

	store := wizard.NewStore(cfg.Wizard.MaxSessions)
	wiz := wizard.New(adv, store, cfg.Wizard.StageTimeoutDuration(), logger)

	if ttl := cfg.Wizard.SessionTTLDuration(); ttl > 0 {
		go pruneSessions(ctx, store, ttl, logger)
	}

	if cfg.Log.Level != "debug" && cfg.Log.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(api.RequestLogger(logger), gin.Recovery())

	router.GET("/health", api.Health)
	a2a.NewA2AHandler(wiz, money, logger).Register(router)
	api.NewHandler(wiz, export.New(cfg.Export.Title, money), logger).Register(router.Group("/api"))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr": srv.Addr,
			"env":  cfg.Env(),
		}).Info("idea wizard agent starting")
		logger.Infof("Agent card available at: http://localhost:%d/.well-known/agent.json", cfg.Server.Port)
		logger.Infof("A2A endpoint available at: http://localhost:%d/a2a/ideation", cfg.Server.Port)

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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newGenerator returns the Gemini client, or a generator whose every call
// fails when no API key is configured.
func newGenerator(ctx context.Context, cfg config.GeminiConfig, logger *logrus.Logger) (generator, error) {
	if cfg.APIKey == "" {
		logger.Warnf("%s is not set; every stage request will fail", config.EnvGeminiAPIKey)
		return gemini.Unavailable{}, nil
	}

	client, err := gemini.NewGeminiClient(ctx, gemini.Options{
		APIKey:          cfg.APIKey,
		TopP:            cfg.TopP,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func pruneSessions(ctx context.Context, store *wizard.Store, ttl time.Duration, logger *logrus.Logger) {
	ticker := time.NewTicker(max(ttl/4, time.Minute))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Prune(now.Add(-ttl)); n > 0 {
				logger.WithField("removed", n).Info("expired sessions pruned")
			}
		}
	}
}
