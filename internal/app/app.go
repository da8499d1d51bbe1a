// Package app assembles stores, notifiers and services from configuration.
// Both the API server and the catalog CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/gym-routines/internal/config"
	"alcyxob/gym-routines/internal/notify"
	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/repository"
	"alcyxob/gym-routines/internal/repository/memory"
	mongorepo "alcyxob/gym-routines/internal/repository/mongo"
	"alcyxob/gym-routines/internal/service"
	"alcyxob/gym-routines/internal/storage"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Store is the set of repositories backing the services.
type Store struct {
	MuscleGroups repository.MuscleGroupRepository
	Exercises    repository.ExerciseRepository
	Routines     repository.RoutineRepository
	Sessions     repository.SessionRepository
	Users        repository.UserRepository

	closers []func() error
}

// Close releases every connection held by the store.
func (s *Store) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) onClose(fn func() error) { s.closers = append(s.closers, fn) }

// OpenStore connects the configured backend. With ensureIndexes set the Mongo
// indexes are created before returning, since activation relies on them.
func OpenStore(ctx context.Context, log *logger.Logger, cfg config.DatabaseConfig, ensureIndexes bool) (*Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory:
		log.Warn("using in-memory store; data is lost on exit")
		return &Store{
			MuscleGroups: memory.NewMuscleGroupRepository(),
			Exercises:    memory.NewExerciseRepository(),
			Routines:     memory.NewRoutineRepository(),
			Sessions:     memory.NewSessionRepository(),
			Users:        memory.NewUserRepository(),
		}, nil

	case DriverMongo, "":
		client, err := mongorepo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.Database(cfg.Name)
		store := &Store{
			MuscleGroups: mongorepo.NewMongoMuscleGroupRepository(db),
			Exercises:    mongorepo.NewMongoExerciseRepository(db),
			Routines:     mongorepo.NewMongoRoutineRepository(db),
			Sessions:     mongorepo.NewMongoSessionRepository(db),
			Users:        mongorepo.NewMongoUserRepository(db),
		}
		store.onClose(func() error { return mongorepo.DisconnectDB(client) })
		log.Info("database connection established", "database", cfg.Name)

		if ensureIndexes {
			idxCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			if err := mongorepo.EnsureIndexes(idxCtx, db); err != nil {
				_ = store.Close()
				return nil, err
			}
			log.Info("database indexes ensured")
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// NewFileStorage returns the S3 media store, or nil when none is configured.
func NewFileStorage(ctx context.Context, log *logger.Logger, cfg config.S3Config) (storage.FileStorage, error) {
	if !cfg.Enabled() {
		log.Warn("media storage not configured; exercise media uploads are disabled")
		return nil, nil
	}
	return storage.NewS3Storage(ctx, log, cfg)
}

// NewNotifier fans notifications out to every configured channel. The log
// channel is always present so a notification leaves a trace even when no
// delivery channel is configured.
func NewNotifier(log *logger.Logger, cfg config.Config, users repository.UserRepository) (notify.Notifier, func() error, error) {
	channels := notify.Multi{notify.NewLogNotifier(log)}
	closeFn := func() error { return nil }

	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rn, err := notify.NewRedisNotifier(log, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		channels = append(channels, rn)
		closeFn = rn.Close
		log.Info("redis notifications enabled", "channel", cfg.Redis.Channel)
	}
	if strings.TrimSpace(cfg.Email.ResendAPIKey) != "" {
		sender := notify.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From)
		channels = append(channels, notify.NewEmailNotifier(log, users, sender))
		log.Info("e-mail notifications enabled")
	}
	return channels, closeFn, nil
}

// Services is the service layer built over one store.
type Services struct {
	Catalog    service.CatalogService
	Routines   service.RoutineService
	Activation service.ActivationService
	Sessions   service.SessionService
}

func NewServices(log *logger.Logger, store *Store, files storage.FileStorage, notifier notify.Notifier) Services {
	catalog := service.NewCatalogService(store.MuscleGroups, store.Exercises, files, log)
	return Services{
		Catalog:    catalog,
		Routines:   service.NewRoutineService(store.Routines, store.Sessions, catalog, log),
		Activation: service.NewActivationService(store.Routines, notifier, log),
		Sessions:   service.NewSessionService(store.Sessions, store.Routines, catalog, log),
	}
}
