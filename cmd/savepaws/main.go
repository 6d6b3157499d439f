package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	asynqmod "savepaws-backend/pkg/asynq"
	"savepaws-backend/pkg/config"
	"savepaws-backend/pkg/db"
	"savepaws-backend/pkg/gen"
	"savepaws-backend/pkg/health"
	"savepaws-backend/pkg/httpapi"
	"savepaws-backend/pkg/logger"
	"savepaws-backend/pkg/objectstore"
	"savepaws-backend/pkg/redis"
	"savepaws-backend/pkg/server"
	"savepaws-backend/services/activity"
	"savepaws-backend/services/allocation"
	"savepaws-backend/services/animal"
	"savepaws-backend/services/donation"
	"savepaws-backend/services/reward"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		asynqmod.Client,
		asynqmod.Server,
		objectstore.Module,
		fx.Provide(
			gen.NewSnowflakeNode,
		),
		fx.Invoke(
			db.Otel,
			db.Metric,
		),
		health.Module,
		httpapi.Module,
		activity.Module,
		animal.Module,
		donation.Module,
		allocation.Module,
		reward.Module,
		reward.TaskModule,
		server.ProvideHTTPServer,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
