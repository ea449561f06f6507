package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/auth"
	"github.com/hy4ri/slack-tui/internal/cache"
	"github.com/hy4ri/slack-tui/internal/config"
	"github.com/hy4ri/slack-tui/internal/directory"
	"github.com/hy4ri/slack-tui/internal/logging"
)

// app is everything a Slack-facing command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *api.Client
	store  *cache.Store
	dir    *directory.Service
	self   *api.Identity

	closers []func()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// clientOptions applies the api section of cfg and the hidden base URL flag.
func clientOptions(cmd *cobra.Command, cfg *config.Config) []api.Option {
	opts := []api.Option{
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		api.WithTimeout(cfg.API.Timeout),
	}
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		opts = append(opts, api.WithBaseURL(u))
	}
	return opts
}

// newApp loads config, opens the log and cache, and verifies the token.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: zap.NewNop()}

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.New(logPath, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a.logger = logger.With(zap.String("command", cmd.Name()))
	a.closers = append(a.closers, closeLog)

	token, src, err := auth.ResolveToken(cfg)
	if errors.Is(err, auth.ErrNoToken) {
		a.Close()
		return nil, fmt.Errorf("%w; run '%s login' or set %s", err, AppName, config.TokenEnv)
	}
	if err != nil {
		a.Close()
		return nil, err
	}
	a.logger.Debug("token resolved", zap.String("source", string(src)))

	a.client = api.NewClient(token, clientOptions(cmd, cfg)...)
	a.self, err = auth.Verify(ctx, a.client)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.logger.Info("authenticated", zap.String("user", a.self.UserID), zap.String("team", a.self.TeamID))

	a.openCache(ctx)
	a.dir = directory.New(a.client,
		directory.WithCache(a.store),
		directory.WithLogger(a.logger),
		directory.WithNamespace(a.self.TeamID),
	)
	return a, nil
}

// openCache is best effort: without it every run starts cold.
func (a *app) openCache(ctx context.Context) {
	if a.cfg.Cache.Disable {
		return
	}
	path, err := a.cfg.CachePath()
	if err == nil {
		a.store, err = cache.Open(path, a.cfg.Cache.TTL)
	}
	if err != nil {
		a.logger.Warn("cache disabled", zap.Error(err))
		a.store = nil
		return
	}
	a.closers = append(a.closers, func() { _ = a.store.Close() })

	if n, err := a.store.Prune(ctx); err != nil {
		a.logger.Warn("cache prune failed", zap.Error(err))
	} else if n > 0 {
		a.logger.Debug("cache pruned", zap.Int64("entries", n))
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
