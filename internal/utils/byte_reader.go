package utils

import (
	"io"
)

// ByteReader adapts an io.Reader to an io.ByteReader and counts every byte it hands out. Reads never go past what was
// requested, so the underlying reader is positioned exactly behind the last byte consumed.
type ByteReader struct {
	reader  io.Reader
	scratch [1]byte
	counter int
}

func NewByteReader(reader io.Reader) ByteReader {
	return ByteReader{
		reader: reader,
	}
}

func (b *ByteReader) ReadByte() (byte, error) {
	if byteReader, ok := b.reader.(io.ByteReader); ok {
		value, err := byteReader.ReadByte()
		if err != nil {
			return 0, err
		}
		b.counter++
		return value, nil
	}
	if _, err := io.ReadFull(b.reader, b.scratch[:]); err != nil {
		return 0, err
	}
	b.counter++
	return b.scratch[0], nil
}

// Read reads into p from the underlying reader and adds the bytes read to the counter.
func (b *ByteReader) Read(p []byte) (int, error) {
	n, err := b.reader.Read(p)
	b.counter += n
	return n, err
}

func (b *ByteReader) BytesRead() int {
	return b.counter
}
