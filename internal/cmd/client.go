package cmd

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	manacube "github.com/manacube/manacube-go"
	"github.com/manacube/manacube-go/internal/config"
	"github.com/manacube/manacube-go/internal/core/store"
	"github.com/manacube/manacube-go/internal/observability"
)

// apiClient bundles a client with the store backing its rate-limit window.
type apiClient struct {
	*manacube.Client
	db *store.Store
}

func (a *apiClient) Close() error {
	err := a.Client.Close()
	if a.db != nil {
		if cerr := a.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// newAPIClient loads config and builds a client from it.
func newAPIClient(ctx context.Context) (*apiClient, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newAPIClientWith(ctx, cfg, observability.CLILogger)
}

func newAPIClientWith(ctx context.Context, cfg *config.Config, logger manacube.Logger) (*apiClient, error) {
	var db *store.Store
	if cfg.Store.PersistRateLimit {
		opened, err := openStoreWith(ctx, cfg.Store)
		if err != nil {
			logger.Warn("Rate limit persistence unavailable", zap.Error(err))
		} else {
			db = opened
		}
	}

	client, err := manacube.New(clientOptions(cfg, logger, db)...)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	return &apiClient{Client: client, db: db}, nil
}

func clientOptions(cfg *config.Config, logger manacube.Logger, db *store.Store) []manacube.Option {
	opts := []manacube.Option{
		manacube.WithBaseURL(cfg.API.BaseURL),
		manacube.WithAPIKey(cfg.API.APIKey),
		manacube.WithSafeUUIDCheck(cfg.API.SafeUUIDCheck),
		manacube.WithQueueing(cfg.Queue.Enabled),
		manacube.WithQueueConfig(queueConfig(cfg.Queue)),
	}
	if logger != nil {
		opts = append(opts,
			manacube.WithLogger(logger),
			manacube.WithProgress(func(p manacube.Progress) {
				logger.Info(fmt.Sprintf("Waiting for rate limit: %s remaining (%.0f%%)", p.RemainingText, p.Percent),
					zap.Int("queued", p.QueueDepth))
			}))
	}
	if cfg.API.UserAgent != "" {
		opts = append(opts, manacube.WithUserAgent(cfg.API.UserAgent))
	}
	if cfg.API.Timeout > 0 {
		opts = append(opts, manacube.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}))
	}
	if cfg.Rate.RequestsPerSecond > 0 {
		opts = append(opts, manacube.WithRequestRate(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst))
	}
	if cfg.API.ValidateResponses {
		opts = append(opts, manacube.WithValidator(manacube.NewStructValidator()))
	}
	if db != nil {
		opts = append(opts, manacube.WithStateStore(db))
	}
	return opts
}

func queueConfig(cfg config.QueueConfig) manacube.QueueConfig {
	qc := manacube.DefaultQueueConfig()
	qc.Queueing = cfg.Enabled
	if cfg.MaxRetries > 0 {
		qc.MaxRetries = cfg.MaxRetries
	}
	if cfg.MaxIterations > 0 {
		qc.MaxIterations = cfg.MaxIterations
	}
	if cfg.DefaultBackoff > 0 {
		qc.DefaultBackoff = cfg.DefaultBackoff
	}
	qc.WaitSlack = cfg.WaitSlack
	qc.IterationDelay = cfg.IterationDelay
	return qc
}
