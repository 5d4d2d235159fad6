package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/sentence-sub-translator/internal/config"
	"github.com/MimeLyc/sentence-sub-translator/internal/httpapi"
	"github.com/MimeLyc/sentence-sub-translator/internal/llm"
	"github.com/MimeLyc/sentence-sub-translator/internal/service"
	"github.com/MimeLyc/sentence-sub-translator/internal/termmap"
	"github.com/MimeLyc/sentence-sub-translator/internal/translator"
	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	config.LoadDotEnv()

	var opts []config.Option
	settingsPath := config.RuntimeSettingsFilePath()
	if settings, err := config.LoadRuntimeSettingsFile(settingsPath); err == nil {
		opts = append(opts, config.WithRuntimeSettings(settings))
	} else if !os.IsNotExist(err) {
		log.Warn("Ignoring settings file %s: %v", settingsPath, err)
	}

	// Initialize configuration
	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))

	llmClient, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		RateLimit:   cfg.LLM.RateLimit,
		SiteURL:     cfg.LLM.SiteURL,
		AppName:     cfg.LLM.AppName,
	})
	if err != nil {
		log.Fatal("Failed to create LLM client: %v", err)
	}
	backend := translator.NewLLMBackend(llmClient)

	svcOpts := []service.Option{}
	if cfg.Translate.GlossaryFile != "" {
		glossary, err := termmap.Load(cfg.Translate.GlossaryFile)
		if err != nil {
			log.Fatal("Failed to load glossary: %v", err)
		}
		backend.SetGlossary(glossary)
		svcOpts = append(svcOpts, service.WithGlossaryFile(cfg.Translate.GlossaryFile))
		log.Info("Loaded %d glossary terms from %s", len(glossary), cfg.Translate.GlossaryFile)
	}

	settingsStore, err := config.NewRuntimeSettingsStore(cfg.Translate.SettingsFile, cfg.RuntimeSettings())
	if err != nil {
		log.Warn("Runtime settings will not be persisted: %v", err)
	} else {
		svcOpts = append(svcOpts, service.WithSettingsStore(settingsStore))
	}

	cronSched := cron.New()
	svcOpts = append(svcOpts, service.WithCron(cronSched))
	svc := service.New(*cfg, backend, svcOpts...)

	if cfg.Translate.SubtitleFile != "" {
		if _, err := svc.LoadFile(cfg.Translate.SubtitleFile); err != nil {
			log.Warn("Starting with an empty session: %v", err)
		}
	}

	httpSrv := httpapi.NewServer(
		svc,
		httpapi.WithCORS(cfg.HTTP.CORSOrigins),
		httpapi.WithUI(cfg.HTTP.UIStaticDir, cfg.HTTP.UIEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go svc.CheckConnection(ctx)

	if err := runWithComponents(ctx, cfg, svc, cronSched, httpSrv); err != nil {
		log.Error("Server stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Warn("Translation job did not stop in time: %v", err)
	}
}

// runWithComponents schedules the health check, serves HTTP and blocks until
// ctx is cancelled or the server fails.
func runWithComponents(
	ctx context.Context,
	cfg *config.Config,
	scheduler scheduler,
	engine cronEngine,
	httpSrv httpServer,
) error {
	if err := scheduler.Schedule(ctx); err != nil {
		return err
	}
	engine.Start()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		errCh <- httpSrv.ListenAndServe(cfg.HTTP.Addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown: %v", err)
	}

	select {
	case <-engine.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("Cron jobs did not finish before shutdown")
	}
	return runErr
}
