package kvs

import intstore "github.com/backbone81/kvs/internal/store"

// Store is a persistent key-value store backed by a write-ahead log.
//
// Store is safe to use from multiple Go routines concurrently.
type Store = intstore.Store

// Open opens the store at the given path, creating the log file if it does not exist.
var Open = intstore.Open

// ErrKeyNotFound is returned when removing a key which does not exist.
var ErrKeyNotFound = intstore.ErrKeyNotFound

// ErrStoreClosed is returned when using a store after it was closed.
var ErrStoreClosed = intstore.ErrStoreClosed

// WithLogger sets the logger for reporting what the store is doing.
var WithLogger = intstore.WithLogger

// WithReadAudit enables or disables recording every read in the log. It is enabled by default.
var WithReadAudit = intstore.WithReadAudit

// WithLogOptions sets the options for opening the write-ahead log.
var WithLogOptions = intstore.WithLogOptions
