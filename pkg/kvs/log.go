package kvs

import (
	intencoding "github.com/backbone81/kvs/internal/encoding"
	intwal "github.com/backbone81/kvs/internal/wal"
)

// Pointer describes the current end of the log as byte offset and number of entries.
type Pointer = intwal.Pointer

// CorruptionError reports the position of a malformed entry in the log.
type CorruptionError = intwal.CorruptionError

// ErrLogCorrupt matches every CorruptionError.
var ErrLogCorrupt = intwal.ErrLogCorrupt

// ErrLogLocked is returned when the log file is already in use by another store.
var ErrLogLocked = intwal.ErrLogLocked

// WithSyncPolicyNone never flushes the log to stable storage.
var WithSyncPolicyNone = intwal.WithSyncPolicyNone

// WithSyncPolicyImmediate flushes the log to stable storage after every entry. This is the default.
var WithSyncPolicyImmediate = intwal.WithSyncPolicyImmediate

// WithSyncPolicyPeriodic flushes the log after some number of entries or after some time interval.
var WithSyncPolicyPeriodic = intwal.WithSyncPolicyPeriodic

// WithSyncPolicyGrouped flushes the entries of concurrent appends together.
var WithSyncPolicyGrouped = intwal.WithSyncPolicyGrouped

// Log is the write-ahead log the store is built on. Use it directly for inspecting a log file without loading it into
// a store.
type Log = intwal.Log

// OpenLog opens the log file at path, creating it if it does not exist.
var OpenLog = intwal.Open

// ReplayValue is a single entry read from the log together with its position.
type ReplayValue = intwal.ReplayValue

// Entry is a single operation recorded in the log.
type Entry = intencoding.Entry

// EntryKind identifies which operation an entry records.
type EntryKind = intencoding.EntryKind

const (
	EntryKindGet    = intencoding.EntryKindGet
	EntryKindSet    = intencoding.EntryKindSet
	EntryKindRemove = intencoding.EntryKindRemove
)
