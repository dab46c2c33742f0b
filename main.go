package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/oauth2"

	"github.com/fmuoria/interview-review-agent/internal/agent"
	"github.com/fmuoria/interview-review-agent/internal/api"
	"github.com/fmuoria/interview-review-agent/internal/auth"
	"github.com/fmuoria/interview-review-agent/internal/config"
	"github.com/fmuoria/interview-review-agent/internal/evaluation"
	"github.com/fmuoria/interview-review-agent/internal/ingestion"
	"github.com/fmuoria/interview-review-agent/internal/logger"
	"github.com/fmuoria/interview-review-agent/internal/notify"
	"github.com/fmuoria/interview-review-agent/internal/store"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logger)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewMySQL(cfg.MySQL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open candidate store")
	}
	defer db.Close()

	states, err := store.NewStateStore(cfg.Redis, cfg.StateTTL())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer states.Close()

	records := db.Records(cfg.RecordTTL())
	go store.NewPurger(records, cfg.PurgeInterval()).Run(ctx)

	evaluator, err := evaluation.New(ctx, cfg.Evaluator)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create evaluator")
	}
	defer evaluator.Close()

	jobs := db.Jobs()
	outbound := &http.Client{Timeout: 30 * time.Second}

	server := api.NewServer(api.Deps{
		Agent:    agent.NewReviewAgent(records, jobs, evaluator),
		Identity: auth.NewIdentityResolver(),
		OpenArtifacts: func(ctx context.Context, ts oauth2.TokenSource) (agent.ArtifactStore, error) {
			dh, err := ingestion.NewDriveHandler(ctx, ts, cfg.Drive.ListPageSize)
			if err != nil {
				return nil, err
			}
			return dh, nil
		},
		Jobs:    jobs,
		Users:   db.Users(),
		States:  states,
		Slack:   notify.NewSlackOAuth(cfg.Slack, outbound),
		Poster:  notify.NewChatPoster(cfg.Evaluator.SendToURL, outbound),
		Manatal: notify.NewManatalClient(cfg.Manatal.BaseURL, outbound),
		Ready: func(ctx context.Context) error {
			if err := db.Ping(ctx); err != nil {
				return err
			}
			return states.Ping(ctx)
		},
		BaseURL:           cfg.Server.BaseURL,
		ExportConcurrency: cfg.Server.ExportConcurrency,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Server.Port).
			Str("evaluator", cfg.Evaluator.Provider).
			Msg("starting interview review agent")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
