package utils

import (
	"errors"
	"io"
	"sync"
)

// MemoryFile provides a stub for a log file which keeps all data in memory. Setting one of the error fields makes the
// corresponding operation fail, which allows tests to simulate disk failures.
type MemoryFile struct {
	mutex sync.Mutex
	data  []byte

	// WriteErr is returned by WriteAt. When ShortWrite is positive, that many bytes are written before failing.
	WriteErr   error
	ShortWrite int

	// SyncErr is returned by Sync.
	SyncErr error

	// TruncateErr is returned by Truncate.
	TruncateErr error

	syncCount int
	closed    bool
}

// NewMemoryFile returns a MemoryFile holding a copy of data.
func NewMemoryFile(data []byte) *MemoryFile {
	return &MemoryFile{
		data: append([]byte(nil), data...),
	}
}

func (m *MemoryFile) ReadAt(p []byte, off int64) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return 0, errors.New("read from closed memory file")
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemoryFile) WriteAt(p []byte, off int64) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return 0, errors.New("write to closed memory file")
	}
	if m.WriteErr != nil {
		n := min(max(m.ShortWrite, 0), len(p))
		m.writeAt(p[:n], off)
		return n, m.WriteErr
	}
	m.writeAt(p, off)
	return len(p), nil
}

func (m *MemoryFile) writeAt(p []byte, off int64) {
	if end := off + int64(len(p)); end > int64(len(m.data)) {
		m.data = append(m.data, make([]byte, end-int64(len(m.data)))...)
	}
	copy(m.data[off:], p)
}

func (m *MemoryFile) Seek(offset int64, whence int) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch whence {
	case io.SeekStart:
		return offset, nil
	case io.SeekEnd:
		return int64(len(m.data)) + offset, nil
	default:
		return 0, errors.New("unsupported whence for memory file")
	}
}

func (m *MemoryFile) Truncate(size int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.TruncateErr != nil {
		return m.TruncateErr
	}
	if size < int64(len(m.data)) {
		m.data = m.data[:size]
	}
	return nil
}

func (m *MemoryFile) Sync() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.syncCount++
	return m.SyncErr
}

// Syncs returns the number of calls to Sync.
func (m *MemoryFile) Syncs() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.syncCount
}

func (m *MemoryFile) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.closed = true
	return nil
}

func (m *MemoryFile) Name() string {
	return "in-memory"
}

// Bytes returns a copy of the data written so far.
func (m *MemoryFile) Bytes() []byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]byte(nil), m.data...)
}
