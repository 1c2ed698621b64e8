// Package app assembles the stores, services and lease from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lecturepdf/internal/config"
	"lecturepdf/internal/domain"
	"lecturepdf/internal/keys"
	"lecturepdf/internal/lease"
	"lecturepdf/internal/services"
	"lecturepdf/internal/storage"
)

type App struct {
	Config   config.Config
	Stores   *storage.Stores
	Schedule []domain.ScheduleSlot
	Syncer   *services.Syncer
	Lister   *services.Lister
	Logger   *slog.Logger

	// Share is set only in signed link mode.
	Share *services.ShareService

	redis *lease.Redis
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	schedule, err := keys.LoadSchedule(cfg.ScheduleFile)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	stores, err := storage.NewStores(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init stores: %w", err)
	}

	a := &App{Config: cfg, Stores: stores, Schedule: schedule, Logger: logger}

	var locker lease.Locker
	if cfg.LeaseRedisAddr != "" {
		a.redis = lease.NewRedis(cfg.LeaseRedisAddr, cfg.LeaseRedisPassword, cfg.LeaseRedisDB, cfg.LeaseTTL)
		locker = a.redis
		logger.Info("conversion lease enabled", "redis", cfg.LeaseRedisAddr, "ttl", cfg.LeaseTTL)
	}

	linker, err := a.linker()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	conv := services.NewConverter(stores.Source, stores.Target, services.NewPDFService(), locker, logger)
	a.Syncer = services.NewSyncer(stores.Source, conv, cfg.SyncConcurrency, logger)
	a.Lister = services.NewLister(stores.Target, linker, schedule, loc, logger)

	return a, nil
}

func (a *App) linker() (services.Linker, error) {
	switch a.Config.LinkMode {
	case config.LinkPresigned:
		target, ok := a.Stores.Target.(*storage.S3Store)
		if !ok || a.Stores.S3Client == nil {
			return nil, errors.New("presigned links need the s3 backend")
		}
		return services.NewPresignedLinker(storage.NewS3Presigner(a.Stores.S3Client, target), a.Config.ShareTTL), nil
	case config.LinkSigned:
		a.Share = services.NewShareService(a.Config)
		return a.Share, nil
	default:
		return services.NewPublicLinker(a.Stores.Target, a.Config.PublicBaseURL), nil
	}
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.Stores.Close())
	return errors.Join(errs...)
}
