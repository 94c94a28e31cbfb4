package convbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/ascn-convert/internal/archive"
	"github.com/park285/ascn-convert/internal/config"
	"github.com/park285/ascn-convert/internal/convert"
	"github.com/park285/ascn-convert/internal/rules"
	"go.uber.org/zap"
)

type Deps struct {
	Service *convert.Service
	Engine  rules.Engine
	Cache   *archive.RedisCache
	Repo    *archive.Repository
}

// New wires the converter. Redis and Postgres are only dialed when their
// URLs are configured.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := rules.NewChessEngine()
	deps := &Deps{Engine: engine}
	var opts []convert.Option

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if strings.TrimSpace(cfg.RedisURL) != "" {
		c, err := archive.DialRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL())
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		deps.Cache = c
		opts = append(opts, convert.WithCache(c))
		logger.Info("cache_enabled", zap.Duration("ttl", cfg.CacheTTL()))
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err := archive.OpenRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = deps.Close()
			return nil, fmt.Errorf("init repository: %w", err)
		}
		deps.Repo = repo
		opts = append(opts, convert.WithRecorder(repo))
		logger.Info("conversion_log_enabled")
	}

	deps.Service = convert.NewService(engine, logger, opts...)
	return deps, nil
}

func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var firstErr error
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			firstErr = err
		}
	}
	if d.Repo != nil {
		if err := d.Repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
