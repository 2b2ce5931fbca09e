package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerCache implements Cache on an embedded BadgerDB.
type BadgerCache struct {
	db  *badger.DB
	log *zap.Logger
}

// NewBadgerCache opens (or creates) the database at path.
// An empty path opens an in-memory database.
func NewBadgerCache(path string, log *zap.Logger) (*BadgerCache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "badgerdb"))

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = &badgerLogger{log.Sugar()}

	db, err := badger.Open(opts)
	if err != nil {
		log.Error("failed to open BadgerDB", zap.Error(err))
		return nil, fmt.Errorf("failed to open badger db at %s: %w", path, err)
	}
	log.Info("BadgerDB opened", zap.String("path", path))

	return &BadgerCache{db: db, log: log}, nil
}

// Get returns the cached value or ErrMiss
func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return out, nil
}

// Set stores value; entries expire after ttl when ttl is positive
func (c *BadgerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Delete removes a key
func (c *BadgerCache) Delete(ctx context.Context, key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Ping reports whether the database is still open
func (c *BadgerCache) Ping(ctx context.Context) error {
	if c.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return nil
}

// RunGC reclaims value log space every interval until ctx is cancelled.
func (c *BadgerCache) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := c.db.RunValueLogGC(0.7)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				c.log.Warn("BadgerDB GC failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the BadgerDB database.
func (c *BadgerCache) Close() error {
	if err := c.db.Close(); err != nil {
		c.log.Error("error closing BadgerDB", zap.Error(err))
		return err
	}
	return nil
}

func (c *BadgerCache) Name() string { return "badger" }

// badgerLogger adapts a zap logger to Badger's logger interface.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(f, v...) }
func (l *badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(f, v...) }
func (l *badgerLogger) Infof(f string, v ...interface{})    { l.s.Debugf(f, v...) }
func (l *badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(f, v...) }
