// Package storage picks a blog.Manager implementation from configuration.
package storage

import (
	"context"
	"miniblog/blog"
	"miniblog/blog/badgerimpl"
	"miniblog/blog/fileimpl"
	"miniblog/blog/inmemoryimpl"
	"miniblog/blog/mongoimpl"
	"miniblog/blog/redisimpl"
	"miniblog/blog/sqlimpl"
	"miniblog/config"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrUnknownMode = errors.New("unknown storage mode")

// Open builds the manager for cfg.Mode. The returned release function closes
// whatever the manager holds and is never nil.
func Open(ctx context.Context, cfg config.Storage, logger zerolog.Logger) (blog.Manager, func(), error) {
	logger = logger.With().Str("storage", cfg.Mode).Logger()
	noop := func() {}

	switch cfg.Mode {
	case "", "inmemory":
		return inmemoryimpl.NewInMemoryManager(), noop, nil

	case "file":
		manager, err := fileimpl.NewFileManager(cfg.DBFile, logger)
		if err != nil {
			return nil, noop, err
		}
		watchCtx, cancel := context.WithCancel(ctx)
		if err := manager.Watch(watchCtx); err != nil {
			cancel()
			return nil, noop, err
		}
		return manager, cancel, nil

	case "mongo":
		manager := mongoimpl.NewMongoManager(cfg.MongoURL, cfg.MongoDBName)
		return manager, func() { closeMongo(manager, logger) }, nil

	case "cached":
		mongoManager := mongoimpl.NewMongoManager(cfg.MongoURL, cfg.MongoDBName)
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		release := func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing redis client")
			}
			closeMongo(mongoManager, logger)
		}
		return redisimpl.NewRedisManager(redisClient, mongoManager), release, nil

	case "sql":
		manager, err := sqlimpl.NewSQLManager(cfg.SQLDriver, cfg.SQLDSN, logger)
		if err != nil {
			return nil, noop, errors.Wrapf(err, "open %s database", cfg.SQLDriver)
		}
		if err := manager.Migrate(ctx); err != nil {
			manager.Close()
			return nil, noop, errors.Wrap(err, "migrate posts table")
		}
		return manager, func() {
			if err := manager.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing database")
			}
		}, nil

	case "badger":
		db, err := badger.Open(badger.DefaultOptions(cfg.BadgerPath).WithLogger(nil))
		if err != nil {
			return nil, noop, errors.Wrapf(err, "open badger at %s", cfg.BadgerPath)
		}
		return badgerimpl.NewBadgerManager(db), func() {
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing badger")
			}
		}, nil
	}

	return nil, noop, errors.Wrap(ErrUnknownMode, cfg.Mode)
}

func closeMongo(manager *mongoimpl.MongoManager, logger zerolog.Logger) {
	if err := manager.Close(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("closing mongo client")
	}
}
