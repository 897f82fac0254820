package app

import (
	"context"

	"github.com/AlexMickh/speak-messenger/internal/config"
	"github.com/AlexMickh/speak-messenger/internal/http/server"
	"github.com/AlexMickh/speak-messenger/internal/service"
	"github.com/AlexMickh/speak-messenger/internal/storage/minio"
	"github.com/AlexMickh/speak-messenger/internal/storage/postgres"
	"github.com/AlexMickh/speak-messenger/internal/storage/redis"
	"github.com/AlexMickh/speak-messenger/pkg/logger"
	minioclient "github.com/AlexMickh/speak-messenger/pkg/minio-client"
	postgresclient "github.com/AlexMickh/speak-messenger/pkg/postgres-client"
	redisclient "github.com/AlexMickh/speak-messenger/pkg/redis-client"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type App struct {
	db  *pgxpool.Pool
	srv *server.Server
}

func Register(ctx context.Context, cfg *config.Config) *App {
	const op = "app.Register"

	ctx = logger.GetFromCtx(ctx).With(ctx, zap.String("op", op))

	logger.GetFromCtx(ctx).Info(ctx, "initing postgres")
	pgCfg := postgresclient.NewConfig(
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
		cfg.DB.MinPools,
		cfg.DB.MaxPools,
		cfg.DB.MigrationsPath,
	)
	db, err := postgresclient.New(ctx, pgCfg)
	if err != nil {
		logger.GetFromCtx(ctx).Fatal(ctx, "failed to init pgx pool", zap.Error(err))
	}

	storage := postgres.New(db)

	logger.GetFromCtx(ctx).Info(ctx, "initing minio")
	minioCfg := minioclient.NewConfig(
		cfg.S3.Endpoint,
		cfg.S3.User,
		cfg.S3.Password,
		cfg.S3.BucketName,
		cfg.S3.IsUseSsl,
	)
	s3, err := minioclient.New(ctx, minioCfg)
	if err != nil {
		logger.GetFromCtx(ctx).Fatal(ctx, "failed to init minio", zap.Error(err))
	}

	blobs := minio.New(s3, cfg.S3.BucketName, cfg.S3.UrlExpires)

	logger.GetFromCtx(ctx).Info(ctx, "initing redis")
	redisCfg := redisclient.NewConfig(
		cfg.Redis.Addr,
		cfg.Redis.User,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	rdb, err := redisclient.New(ctx, redisCfg)
	if err != nil {
		logger.GetFromCtx(ctx).Fatal(ctx, "failed to init redis", zap.Error(err))
	}

	cache := redis.New(rdb, cfg.Redis.Expiration)

	srv := server.New(ctx, cfg.Server, cfg.Auth, service.New(storage, cache, blobs))

	return &App{
		db:  db,
		srv: srv,
	}
}

func (a *App) Run(ctx context.Context) {
	const op = "app.Run"

	go func() {
		if err := a.srv.Run(); err != nil {
			logger.GetFromCtx(ctx).Fatal(ctx, "server stopped with error",
				zap.String("op", op),
				zap.Error(err),
			)
		}
	}()
}

func (a *App) GracefulStop(ctx context.Context) {
	const op = "app.GracefulStop"

	ctx = logger.GetFromCtx(ctx).With(ctx, zap.String("op", op))

	logger.GetFromCtx(ctx).Info(ctx, "stopping server")
	if err := a.srv.GracefulStop(ctx); err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to stop server", zap.Error(err))
	}

	logger.GetFromCtx(ctx).Info(ctx, "stopping postgres")
	a.db.Close()
}
