package wal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/backbone81/kvs/internal/encoding"
)

var (
	ErrLogLocked = errors.New("the log file is locked by another process")
	ErrLogClosed = errors.New("the log is closed")
	ErrLogFailed = errors.New("the log failed and does not accept appends anymore")
)

// Pointer describes the current end of the log.
type Pointer struct {
	// Offset is the number of bytes from the start of the file to the end of the last entry.
	Offset uint64

	// Sequence is the number of entries stored in front of Offset. It is only known after a full replay from the
	// start of the log, and counts the appends of this Log instance until then.
	Sequence uint64
}

// Log provides durable, append-only storage of entries in a single file, with replay from any byte offset.
//
// Log is safe to use from multiple Go routines, but a replay does not see entries appended after the replay was
// started.
type Log struct {
	mutex sync.Mutex

	file       File
	syncPolicy SyncPolicy
	logger     logr.Logger
	unlock     func() error

	// The pointer to the end of the log. Appends are written at the offset of the pointer.
	pointer Pointer

	// This buffer is used to encode entries without allocating memory for every append.
	buffer []byte

	// The error which made the log fail. Once set, all appends fail.
	err    error
	closed bool
}

// Option describes the function signature which all log options need to implement.
type Option func(l *Log)

// WithLogger sets the logger for reporting what the log is doing.
func WithLogger(logger logr.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// WithSyncPolicyNone overwrites the default sync policy with sync policy none.
func WithSyncPolicyNone() Option {
	return func(l *Log) {
		l.syncPolicy = NewSyncPolicyNone()
	}
}

// WithSyncPolicyImmediate overwrites the default sync policy with sync policy immediate.
func WithSyncPolicyImmediate() Option {
	return func(l *Log) {
		l.syncPolicy = NewSyncPolicyImmediate()
	}
}

// WithSyncPolicyPeriodic overwrites the default sync policy with sync policy periodic.
func WithSyncPolicyPeriodic(syncAfterEntryCount int, syncEvery time.Duration) Option {
	return func(l *Log) {
		l.syncPolicy = NewSyncPolicyPeriodic(syncAfterEntryCount, syncEvery)
	}
}

// WithSyncPolicyGrouped overwrites the default sync policy with sync policy grouped.
func WithSyncPolicyGrouped(syncAfter time.Duration) Option {
	return func(l *Log) {
		l.syncPolicy = NewSyncPolicyGrouped(syncAfter)
	}
}

// Open opens the log file at path, creating it if it does not exist. The file is never truncated. Open acquires an
// exclusive advisory lock on the file and fails with ErrLogLocked if another process already holds it.
//
// To avoid resources leaking, the returned Log needs to be closed by calling Close().
func Open(path string, options ...Option) (*Log, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o664) //nolint:gosec // We can not validate paths in a library.
	if err != nil {
		return nil, fmt.Errorf("opening the log file %q: %w", path, err)
	}

	if err := lockFile(file); err != nil {
		return nil, errors.Join(
			fmt.Errorf("locking the log file %q: %w", path, err),
			file.Close(),
		)
	}

	newLog, err := New(file, options...)
	if err != nil {
		return nil, errors.Join(err, unlockFile(file), file.Close())
	}
	newLog.unlock = func() error {
		return unlockFile(file)
	}
	return newLog, nil
}

// New creates a Log from a file which is already open. The write cursor is moved to the end of the file, so that all
// appends are strictly additive.
func New(file File, options ...Option) (*Log, error) {
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seeking to the end of the log file %q: %w", file.Name(), err)
	}

	newLog := Log{
		file:       file,
		syncPolicy: NewSyncPolicyImmediate(),
		logger:     logr.Discard(),
		unlock:     func() error { return nil },
		pointer: Pointer{
			Offset: uint64(end), //nolint:gosec // file offsets are never negative
		},
		buffer: make([]byte, 0, 4*1024),
	}
	for _, option := range options {
		option(&newLog)
	}

	if err := newLog.syncPolicy.Startup(file, newLog.logger); err != nil {
		return nil, fmt.Errorf("starting the sync policy: %w", err)
	}
	newLog.logger.Info("Opened write-ahead log", "path", file.Name(), "offset", end)
	return &newLog, nil
}

// FilePath returns the file path of the file this log is writing to.
func (l *Log) FilePath() string {
	return l.file.Name()
}

// Pointer returns the current end of the log.
func (l *Log) Pointer() Pointer {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.pointer
}

// Append encodes the entry, writes it to the end of the log file and hands it to the sync policy. The entry is only
// acknowledged when Append returns without error. The returned pointer references the end of the appended entry.
//
// When writing fails, the file is truncated back to the end of the last complete entry. If that is not possible, or
// if syncing the file fails, the log does not accept any appends anymore and returns ErrLogFailed.
func (l *Log) Append(entry encoding.Entry) (Pointer, error) {
	pointer, err := l.append(entry)
	if err != nil {
		return Pointer{}, err
	}

	// Note that the call to the sync policy must not happen under the log lock. The sync policy can block to group
	// several Append calls. If this call would happen under the log lock, we would not be able to have any
	// concurrency at all.
	if err := l.syncPolicy.EntryAppended(pointer.Sequence); err != nil {
		l.fail(err)
		return Pointer{}, fmt.Errorf("flushing entry to the log file: %w", err)
	}

	l.logger.V(1).Info("Appended entry", "kind", entry.Kind, "key", entry.Key, "offset", pointer.Offset, "sequence", pointer.Sequence)
	return pointer, nil
}

func (l *Log) append(entry encoding.Entry) (Pointer, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return Pointer{}, ErrLogClosed
	}
	if l.err != nil {
		return Pointer{}, l.err
	}

	var err error
	if l.buffer, err = encoding.AppendEntry(l.buffer[:0], entry); err != nil {
		return Pointer{}, err
	}

	if _, err := l.file.WriteAt(l.buffer, int64(l.pointer.Offset)); err != nil { //nolint:gosec // offsets fit into int64
		writeErr := fmt.Errorf("writing entry to the log file: %w", err)
		if truncateErr := l.file.Truncate(int64(l.pointer.Offset)); truncateErr != nil { //nolint:gosec // offsets fit into int64
			l.err = errors.Join(ErrLogFailed, writeErr, truncateErr)
			l.logger.Error(l.err, "Unable to remove partially written entry", "offset", l.pointer.Offset)
			return Pointer{}, l.err
		}
		return Pointer{}, writeErr
	}

	l.pointer.Offset += uint64(len(l.buffer))
	l.pointer.Sequence++
	AppendTotal.Inc()
	AppendBytes.Add(float64(len(l.buffer)))
	return l.pointer, nil
}

func (l *Log) fail(err error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.err == nil {
		l.err = errors.Join(ErrLogFailed, err)
		l.logger.Error(err, "Write-ahead log failed")
	}
}

// Replay returns a Replayer which reads all entries from startOffset up to the current end of the log. The
// startOffset must be located at an entry boundary. Every call to Replay starts a new, independent replay.
func (l *Log) Replay(startOffset uint64) *Replayer {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return newReplayer(l, startOffset, l.pointer.Offset)
}

// replayed is called by a replayer which reached the clean end of the log.
func (l *Log) replayed(startOffset uint64, endOffset uint64, entryCount uint64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if startOffset != 0 || endOffset != l.pointer.Offset {
		// This replay knows only part of the log and cannot tell the number of entries in the log.
		return
	}
	l.pointer.Sequence = max(l.pointer.Sequence, entryCount)
}

// Close flushes all pending changes to disk, releases the lock and closes the file.
func (l *Log) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	syncErr := l.syncPolicy.Shutdown()
	unlockErr := l.unlock()
	closeErr := l.file.Close()
	return errors.Join(syncErr, unlockErr, closeErr)
}
