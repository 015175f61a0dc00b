// Package webrunner runs the connector's HTTP API.
package webrunner

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Vector/hubspot-connector/hubspot"
	"github.com/Vector/hubspot-connector/redis"
	redisconfig "github.com/Vector/hubspot-connector/redis/config"
	"github.com/Vector/hubspot-connector/runner"
	"github.com/Vector/hubspot-connector/web"
)

type webrunner struct {
	srv    *web.Server
	store  *redis.Store
	queue  *redis.Client
	logger *zap.Logger
}

func New(cfg *runner.Config) (runner.Runner, error) {
	logger, err := runner.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}

	redisCfg, err := redisconfig.NewRedisConfig()
	if err != nil {
		return nil, err
	}

	store, err := redis.NewStore(context.Background(), redisCfg)
	if err != nil {
		return nil, err
	}

	connector, err := hubspot.New(cfg.HubSpot, store, logger)
	if err != nil {
		return nil, err
	}

	queue, err := redis.NewClient(redisCfg)
	if err != nil {
		return nil, err
	}

	handler := web.NewIntegrationHandler(connector, queue, logger)

	srv := web.NewServer(web.Config{
		Addr:   cfg.Addr,
		Logger: logger,
	}, handler)

	return &webrunner{
		srv:    srv,
		store:  store,
		queue:  queue,
		logger: logger,
	}, nil
}

func (w *webrunner) Run(ctx context.Context) error {
	return w.srv.Start(ctx)
}

func (w *webrunner) Close(_ context.Context) error {
	err := multierr.Append(w.store.Close(), w.queue.Close())

	_ = w.logger.Sync()

	return err
}
