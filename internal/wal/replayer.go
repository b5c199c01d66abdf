package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/backbone81/kvs/internal/encoding"
	"github.com/backbone81/kvs/internal/utils"
)

var (
	ErrLogCorrupt       = errors.New("the log contains a malformed entry")
	ErrOffsetOutOfRange = errors.New("the replay offset is beyond the end of the log")
)

// CorruptionError reports a malformed entry found during replay. Everything in front of Offset was replayed
// successfully, everything from Offset to the end of the log is unreadable.
type CorruptionError struct {
	// Offset is the position in bytes of the malformed entry.
	Offset uint64

	// SequenceNumber is the number of the malformed entry, counted from the start of the replay.
	SequenceNumber uint64

	// Err describes why the entry could not be decoded.
	Err error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("malformed log entry %d at offset %d: %s", e.SequenceNumber, e.Offset, e.Err)
}

// Unwrap allows matching both ErrLogCorrupt and the decoding error with errors.Is.
func (e *CorruptionError) Unwrap() []error {
	return []error{ErrLogCorrupt, e.Err}
}

// ReplayValue is the value returned by the Replayer.
type ReplayValue struct {
	// Offset is the position in bytes where the entry starts.
	Offset uint64

	// SequenceNumber is the number of the entry counted from the start of the replay. When replaying from offset
	// zero, this is the position of the entry in the log.
	SequenceNumber uint64

	// Entry is the decoded entry.
	Entry encoding.Entry
}

// Replayer reads the entries of a log one after the other.
//
// Instances of Replayer are NOT safe to use concurrently. You need to provide external synchronization.
type Replayer struct {
	noCopy utils.NoCopy

	log    *Log
	reader *bufio.Reader

	// The offset the replay started at and the end of the log at the time the replay started.
	startOffset uint64
	endOffset   uint64

	// The offset of the next entry to read.
	offset uint64

	// The sequence number the next entry will receive.
	nextSequenceNumber uint64

	// The value the replayer returns. Only contains useful data if err is nil.
	value ReplayValue

	// The error for the last operation. If this is nil, the content of value can be used.
	err  error
	done bool
}

func newReplayer(log *Log, startOffset uint64, endOffset uint64) *Replayer {
	replayer := Replayer{
		log:         log,
		startOffset: startOffset,
		endOffset:   endOffset,
		offset:      startOffset,
	}
	if endOffset < startOffset {
		replayer.err = fmt.Errorf("%w: offset %d, end %d", ErrOffsetOutOfRange, startOffset, endOffset)
		replayer.done = true
		return &replayer
	}
	section := io.NewSectionReader(log.file, int64(startOffset), int64(endOffset-startOffset)) //nolint:gosec // offsets fit into int64
	replayer.reader = bufio.NewReaderSize(section, 64*1024)
	return &replayer
}

// Next reports if an entry has been successfully read. When it returns true, Err() returns nil and Value() contains
// valid data. When it returns false, the replay is over. Err() is nil if the end of the log was reached cleanly.
// Otherwise, Err() reports the problem. A malformed entry is reported as a *CorruptionError.
func (r *Replayer) Next() bool {
	if r.done {
		return false
	}

	if r.offset == r.endOffset {
		r.done = true
		r.log.replayed(r.startOffset, r.endOffset, r.nextSequenceNumber)
		return false
	}

	entry, n, err := encoding.ReadEntry(r.reader, int64(r.endOffset-r.offset)) //nolint:gosec // offsets fit into int64
	if err != nil {
		r.done = true
		if errors.Is(err, encoding.ErrEntryMalformed) {
			ReplayCorruptTotal.Inc()
			r.err = &CorruptionError{
				Offset:         r.offset,
				SequenceNumber: r.nextSequenceNumber,
				Err:            err,
			}
			return false
		}
		if errors.Is(err, io.EOF) {
			// The file is shorter than it was when the replay started.
			err = io.ErrUnexpectedEOF
		}
		r.err = fmt.Errorf("replaying the log file at offset %d: %w", r.offset, err)
		return false
	}

	r.value = ReplayValue{
		Offset:         r.offset,
		SequenceNumber: r.nextSequenceNumber,
		Entry:          entry,
	}
	r.offset += uint64(n) //nolint:gosec // n is never negative
	r.nextSequenceNumber++
	ReplayEntriesTotal.Inc()
	return true
}

// Value returns the last entry read from the log. The values are only valid after a call to Next() which returned
// true.
func (r *Replayer) Value() ReplayValue {
	return r.value
}

// Err returns the error which stopped the replay, or nil if the replay is still in progress or reached the clean end
// of the log.
func (r *Replayer) Err() error {
	return r.err
}

// Offset returns the offset in bytes of the next entry to read. After a failed replay, this is the offset of the
// malformed entry.
func (r *Replayer) Offset() uint64 {
	return r.offset
}
