package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/btree"

	"github.com/backbone81/kvs/internal/encoding"
	"github.com/backbone81/kvs/internal/wal"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrStoreClosed = errors.New("the store is closed")
)

// item is a single key value pair held in memory.
type item struct {
	key   string
	value string
}

func itemLess(a, b item) bool {
	return a.key < b.key
}

// Store is a persistent key-value store. Every mutation is appended to the write-ahead log before it is applied to
// the in-memory map, so the map always equals the fold of all entries in the log.
//
// Store is safe to use from multiple Go routines.
type Store struct {
	mutex sync.Mutex

	log       *wal.Log
	items     *btree.BTreeG[item]
	logger    logr.Logger
	readAudit bool
	closed    bool

	// Only used by Open for opening the log.
	logOptions []wal.Option
}

// Option describes the function signature which all store options need to implement.
type Option func(s *Store)

// WithLogger sets the logger for reporting what the store is doing.
func WithLogger(logger logr.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithReadAudit enables or disables appending a get entry to the log for every read. It is enabled by default.
func WithReadAudit(enabled bool) Option {
	return func(s *Store) {
		s.readAudit = enabled
	}
}

// WithLogOptions sets the options Open uses for opening the write-ahead log. It has no effect on New.
func WithLogOptions(options ...wal.Option) Option {
	return func(s *Store) {
		s.logOptions = append(s.logOptions, options...)
	}
}

// Open opens the log file at path and returns the store holding its content. The log file is created if it does not
// exist.
//
// To avoid resources leaking, the returned Store needs to be closed by calling Close().
func Open(path string, options ...Option) (*Store, error) {
	var settings Store
	for _, option := range options {
		option(&settings)
	}

	log, err := wal.Open(path, settings.logOptions...)
	if err != nil {
		return nil, err
	}

	newStore, err := New(log, options...)
	if err != nil {
		return nil, errors.Join(err, log.Close())
	}
	return newStore, nil
}

// New replays the whole log and returns the store holding its content. The store takes ownership of the log and
// closes it on Close. New fails if the log contains a malformed entry, because appending behind an unreadable tail
// would make all later entries unreadable as well.
func New(log *wal.Log, options ...Option) (*Store, error) {
	newStore := Store{
		log:       log,
		items:     btree.NewG[item](2, itemLess),
		logger:    logr.Discard(),
		readAudit: true,
	}
	for _, option := range options {
		option(&newStore)
	}

	if err := newStore.recover(); err != nil {
		return nil, err
	}
	Keys.Set(float64(newStore.items.Len()))
	return &newStore, nil
}

// recover folds all entries of the log into the in-memory map.
func (s *Store) recover() error {
	var replayed uint64
	replayer := s.log.Replay(0)
	for replayer.Next() {
		s.apply(replayer.Value().Entry)
		replayed++
	}
	if err := replayer.Err(); err != nil {
		var corruptionErr *wal.CorruptionError
		if errors.As(err, &corruptionErr) {
			s.logger.Error(err, "Write-ahead log has a malformed tail", "path", s.log.FilePath(), "offset", corruptionErr.Offset)
		}
		return fmt.Errorf("recovering the store from %q: %w", s.log.FilePath(), err)
	}
	s.logger.Info("Recovered store", "path", s.log.FilePath(), "entries", replayed, "keys", s.items.Len())
	return nil
}

// apply changes the in-memory map according to the entry. Get entries do not change anything.
func (s *Store) apply(entry encoding.Entry) {
	switch entry.Kind {
	case encoding.EntryKindSet:
		s.items.ReplaceOrInsert(item{key: entry.Key, value: entry.Value})
	case encoding.EntryKindRemove:
		s.items.Delete(item{key: entry.Key})
	}
}

// Get returns the value stored for key and reports if the key exists. When read auditing is enabled, a get entry is
// appended to the log first and the read fails if that append fails.
func (s *Store) Get(key string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		OperationsTotal.WithLabelValues(operationGet, resultError).Inc()
		return "", false, ErrStoreClosed
	}
	if s.readAudit {
		if _, err := s.log.Append(encoding.NewGetEntry(key)); err != nil {
			OperationsTotal.WithLabelValues(operationGet, resultError).Inc()
			return "", false, fmt.Errorf("recording read of key %q: %w", key, err)
		}
	}

	found, ok := s.items.Get(item{key: key})
	if !ok {
		OperationsTotal.WithLabelValues(operationGet, resultNotFound).Inc()
		s.logger.V(1).Info("Key not found", "key", key)
		return "", false, nil
	}
	OperationsTotal.WithLabelValues(operationGet, resultOK).Inc()
	s.logger.V(1).Info("Read key", "key", key)
	return found.value, true, nil
}

// Set stores value for key. The value is only visible after it was appended to the log.
func (s *Store) Set(key string, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.mutate(encoding.NewSetEntry(key, value)); err != nil {
		OperationsTotal.WithLabelValues(operationSet, resultError).Inc()
		return err
	}
	OperationsTotal.WithLabelValues(operationSet, resultOK).Inc()
	s.logger.V(1).Info("Set key", "key", key)
	return nil
}

// Remove deletes key from the store. It returns ErrKeyNotFound without touching the log if the key does not exist.
func (s *Store) Remove(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.closed && !s.items.Has(item{key: key}) {
		OperationsTotal.WithLabelValues(operationRemove, resultNotFound).Inc()
		return fmt.Errorf("removing key %q: %w", key, ErrKeyNotFound)
	}
	if err := s.mutate(encoding.NewRemoveEntry(key)); err != nil {
		OperationsTotal.WithLabelValues(operationRemove, resultError).Inc()
		return err
	}
	OperationsTotal.WithLabelValues(operationRemove, resultOK).Inc()
	s.logger.V(1).Info("Removed key", "key", key)
	return nil
}

// mutate appends the entry to the log and applies it to memory afterward.
func (s *Store) mutate(entry encoding.Entry) error {
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.log.Append(entry); err != nil {
		return fmt.Errorf("recording %s of key %q: %w", entry.Kind, entry.Key, err)
	}
	s.apply(entry)
	Keys.Set(float64(s.items.Len()))
	return nil
}

// Keys returns all keys in ascending order. Listing keys is not recorded in the log.
func (s *Store) Keys() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	keys := make([]string, 0, s.items.Len())
	s.items.Ascend(func(i item) bool {
		keys = append(keys, i.key)
		return true
	})
	return keys
}

// Len returns the number of keys in the store.
func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.items.Len()
}

// Pointer returns the current end of the underlying log.
func (s *Store) Pointer() wal.Pointer {
	return s.log.Pointer()
}

// Close flushes and closes the underlying log. The store cannot be used afterward.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.log.Close()
}
