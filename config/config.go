// Package config stores namespace-keyed key/value state on disk. A Store
// wraps one bolt database; each namespace maps to a bucket and is accessed
// through a Config handle that caches the namespace in memory.
//
// Saving can be done manually with Save, or automatically: SetAutoTimer arms
// a debounce timer that saves shortly after the last Set, so bursts of Set
// calls cost a single write.
package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var (
	ErrNoKey  = errors.New("no such key")
	ErrClosed = errors.New("store is closed")
)

// Store is a handle to the on-disk database shared by all namespaces.
type Store struct {
	db     *bolt.DB
	logger *logrus.Logger

	mu      sync.Mutex
	configs []*Config
	closed  bool
}

// Open opens (or creates) the database at path.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open config database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close flushes every namespace with a pending autosave, then releases the
// database. After Close, Save returns ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	configs := append([]*Config{}, s.configs...)
	s.mu.Unlock()

	for _, c := range configs {
		c.flushPending()
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return s.db.Close()
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Namespace returns a Config for one namespace, preloaded with whatever the
// namespace already holds on disk.
func (s *Store) Namespace(name string) (*Config, error) {
	if s.isClosed() {
		return nil, fmt.Errorf("failed to load namespace %q: %w", name, ErrClosed)
	}
	c := &Config{
		store:     s,
		namespace: name,
		data:      make(map[string]string),
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			c.data[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load namespace %q: %w", name, err)
	}
	s.mu.Lock()
	s.configs = append(s.configs, c)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"namespace": name, "keys": len(c.data)}).Debug("namespace loaded")
	return c, nil
}

// Config is the in-memory view of one namespace.
type Config struct {
	store     *Store
	namespace string

	mu            sync.Mutex
	data          map[string]string
	autosave      *time.Timer
	autosaveDelay time.Duration
}

// Set merges data into the namespace. Nothing is written to disk unless an
// autosave timer is armed; for an immediate write, call Save.
func (c *Config) Set(data map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range data {
		c.data[k] = v
	}
	c.armAutosaveLocked()
}

// Put sets a single key.
func (c *Config) Put(key, value string) {
	c.Set(map[string]string{key: value})
}

// Get returns the value stored under key, or ErrNoKey.
func (c *Config) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if !ok {
		return "", fmt.Errorf("%w: %q in namespace %q", ErrNoKey, key, c.namespace)
	}
	return v, nil
}

// Has reports whether key exists in the namespace.
func (c *Config) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.data[key]
	return ok
}

// All returns a copy of every key/value pair in the namespace.
func (c *Config) All() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// Save writes the namespace to disk. The write is non-destructive: keys
// already in the bucket but absent from memory are merged in rather than
// dropped, so a partially loaded Config cannot erase data.
func (c *Config) Save() error {
	if c.store.isClosed() {
		return fmt.Errorf("failed to save namespace %q: %w", c.namespace, ErrClosed)
	}

	c.mu.Lock()
	snapshot := make(map[string]string, len(c.data))
	for k, v := range c.data {
		snapshot[k] = v
	}
	c.mu.Unlock()

	err := c.store.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(c.namespace))
		if err != nil {
			return err
		}
		for k, v := range snapshot {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save namespace %q: %w", c.namespace, err)
	}
	c.store.logger.WithFields(logrus.Fields{"namespace": c.namespace, "keys": len(snapshot)}).Debug("namespace saved")
	return nil
}

// Bleach erases the namespace to a bare state, both in memory and on disk.
func (c *Config) Bleach() error {
	c.mu.Lock()
	c.data = make(map[string]string)
	c.mu.Unlock()

	err := c.store.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(c.namespace)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(c.namespace))
	})
	if err != nil {
		return fmt.Errorf("failed to bleach namespace %q: %w", c.namespace, err)
	}
	c.store.logger.WithField("namespace", c.namespace).Info("namespace bleached")
	return nil
}

// SetAutoTimer sets the delay between the last Set and an automatic Save. A
// non-positive delay disables autosaving.
func (c *Config) SetAutoTimer(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.autosaveDelay = d
	if d <= 0 && c.autosave != nil {
		c.autosave.Stop()
		c.autosave = nil
	}
}

// armAutosaveLocked restarts the debounce timer. Callers hold c.mu.
func (c *Config) armAutosaveLocked() {
	if c.autosaveDelay <= 0 {
		return
	}
	if c.autosave != nil {
		c.autosave.Stop()
	}
	c.autosave = time.AfterFunc(c.autosaveDelay, func() {
		if err := c.Save(); err != nil && !errors.Is(err, ErrClosed) {
			c.store.logger.WithError(err).Error("autosave failed")
		}
	})
}

// flushPending stops an armed autosave timer and, if it had not fired yet,
// performs the save it was debouncing. Store.Close calls this so pending
// writes land before the database goes away.
func (c *Config) flushPending() {
	c.mu.Lock()
	pending := c.autosave != nil && c.autosave.Stop()
	c.autosave = nil
	c.mu.Unlock()

	if pending {
		if err := c.Save(); err != nil {
			c.store.logger.WithError(err).Error("flush on close failed")
		}
	}
}
