// Package workerrunner runs the asynq consumer that processes background
// contact fetches.
package workerrunner

import (
	"context"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Vector/hubspot-connector/hubspot"
	"github.com/Vector/hubspot-connector/redis"
	redisconfig "github.com/Vector/hubspot-connector/redis/config"
	"github.com/Vector/hubspot-connector/redis/tasks"
	"github.com/Vector/hubspot-connector/runner"
)

type workerrunner struct {
	srv     *redis.Server
	handler *tasks.Handler
	store   *redis.Store
	logger  *zap.Logger
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if err := os.MkdirAll(cfg.DataFolder, os.ModePerm); err != nil {
		return nil, err
	}

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

	handler := tasks.NewHandler(connector, logger, tasks.WithDataFolder(cfg.DataFolder))

	srv, err := redis.NewServer(redisCfg, logger)
	if err != nil {
		return nil, err
	}

	return &workerrunner{
		srv:     srv,
		handler: handler,
		store:   store,
		logger:  logger,
	}, nil
}

func (w *workerrunner) Run(ctx context.Context) error {
	if err := w.srv.Start(w.handler.NewServeMux()); err != nil {
		return err
	}

	<-ctx.Done()

	return w.srv.Shutdown(context.Background())
}

func (w *workerrunner) Close(_ context.Context) error {
	err := multierr.Append(nil, w.store.Close())

	_ = w.logger.Sync()

	return err
}
