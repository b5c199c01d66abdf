package wal

import (
	"io"
)

// File is the interface the file backing a Log needs to implement. *os.File implements it. Reads and writes are
// positioned explicitly, so the read cursor of a replay and the write cursor of appends never interfere.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Seeker
	io.Closer
	Syncer
	Truncate(size int64) error
	Name() string
}

// Syncer flushes written data to stable storage.
type Syncer interface {
	Sync() error
}
