// Package cli holds the cobra commands of the draftboard binary.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/draftboard/internal/adapters/repository"
	"github.com/okian/draftboard/internal/adapters/upstream"
	"github.com/okian/draftboard/internal/config"
	"github.com/okian/draftboard/pkg/logger"
	"github.com/okian/draftboard/pkg/metrics"
)

const pushTimeout = 10 * time.Second

// env is the per-command runtime: configuration plus a logger configured
// from it.
type env struct {
	cfg *config.Config
	log logger.Logger
}

// bootstrap loads configuration and reconfigures the global logger with the
// configured format and level.
func bootstrap(ctx context.Context, name string) (*env, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get().Named(name)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return &env{cfg: cfg, log: log}, nil
}

func (e *env) openStore(ctx context.Context, opts ...repository.Option) (*repository.SQLStore, error) {
	opts = append([]repository.Option{repository.WithDriver(e.cfg.DBDriver), repository.WithPath(e.cfg.DBPath)}, opts...)
	s, err := repository.Open(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s store at %q: %w", e.cfg.DBDriver, e.cfg.DBPath, err)
	}
	return s, nil
}

func (e *env) client() (*upstream.Client, error) {
	return upstream.NewClient(upstream.ClientConfig{
		BaseURL:    e.cfg.UpstreamBaseURL,
		LeagueID:   e.cfg.LeagueID,
		Timeout:    e.cfg.UpstreamTimeout(),
		MaxRetries: e.cfg.UpstreamMaxRetries,
	})
}

// closeStore closes s, logging rather than returning a close failure so the
// command's own error wins.
func (e *env) closeStore(ctx context.Context, s *repository.SQLStore) {
	if err := s.Close(); err != nil {
		e.log.Error(ctx, "close store", logger.Error(err))
	}
}

// push sends batch metrics to the configured Pushgateway. Failures are logged
// and never fail the command.
func (e *env) push(ctx context.Context, job string) {
	if e.cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	if err := metrics.Push(ctx, e.cfg.PushgatewayURL, job); err != nil {
		e.log.Warn(ctx, "metrics push failed", logger.String("url", e.cfg.PushgatewayURL), logger.Error(err))
	}
}
