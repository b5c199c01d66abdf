package utils

// ReaderLoop provides a reader which returns the same data over and over again in an endless loop. It allows us to
// run large scale decoding benchmarks without having to provide an actual big file on disk or memory.
type ReaderLoop struct {
	Data   []byte
	Offset int
}

func (s *ReaderLoop) Read(p []byte) (int, error) {
	copyBytes := min(len(p), len(s.Data)-s.Offset)
	copy(p, s.Data[s.Offset:s.Offset+copyBytes])
	s.Offset += copyBytes
	if s.Offset >= len(s.Data) {
		s.Offset = 0
	}
	return copyBytes, nil
}
