package utils

import "io"

// FileDiscard provides a stub for a log file which discards all data. It allows us to run large scale benchmarks
// without filling up the disk or memory.
type FileDiscard struct{}

func (s *FileDiscard) ReadAt(p []byte, off int64) (int, error) {
	return 0, io.EOF
}

func (s *FileDiscard) WriteAt(p []byte, off int64) (int, error) {
	return len(p), nil
}

func (s *FileDiscard) Seek(offset int64, whence int) (int64, error) {
	return 0, nil
}

func (s *FileDiscard) Truncate(size int64) error {
	return nil
}

func (s *FileDiscard) Sync() error {
	return nil
}

func (s *FileDiscard) Close() error {
	return nil
}

func (s *FileDiscard) Name() string {
	return "in-memory-discard"
}
