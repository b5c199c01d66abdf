package encoding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/backbone81/kvs/internal/utils"
)

// maxPreallocatedFieldLength is the largest field which is read into a buffer allocated up front.
const maxPreallocatedFieldLength = 64 * 1024

// FieldSize returns the number of bytes the field occupies when encoded.
func FieldSize(field string) int {
	var buffer [MaxFieldLengthLen]byte
	return binary.PutUvarint(buffer[:], uint64(len(field))) + len(field)
}

// AppendField appends the field encoded as uvarint length followed by the raw bytes.
func AppendField(buffer []byte, field string) []byte {
	buffer = binary.AppendUvarint(buffer, uint64(len(field)))
	return append(buffer, field...)
}

// ReadField reads a field encoded by AppendField. The maxLength is the number of bytes which are at most available
// for the field, including its length.
func ReadField(reader *utils.ByteReader, maxLength int64) (string, error) {
	start := reader.BytesRead()
	length, err := ReadUvarint(reader)
	if err != nil {
		return "", fieldLengthError(err)
	}

	if length > math.MaxInt64 {
		return "", fmt.Errorf("%w: field of %d bytes", ErrEntryLengthOverflow, length)
	}
	remaining := maxLength - int64(reader.BytesRead()-start)
	if length > uint64(max(remaining, 0)) {
		return "", fmt.Errorf("%w: field of %d bytes exceeds the %d bytes available", ErrEntryTruncated, length, max(remaining, 0))
	}
	if length == 0 {
		return "", nil
	}

	if length <= maxPreallocatedFieldLength {
		data := make([]byte, length)
		if _, err := io.ReadFull(reader, data); err != nil {
			return "", fieldDataError(err)
		}
		return string(data), nil
	}

	// The declared length is not trusted for larger fields. The buffer only grows with the bytes actually read.
	data, err := io.ReadAll(io.LimitReader(reader, int64(length)))
	if err != nil {
		return "", fieldDataError(err)
	}
	if uint64(len(data)) < length {
		return "", fieldDataError(io.ErrUnexpectedEOF)
	}
	return string(data), nil
}

func fieldLengthError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading field length: %w", ErrEntryTruncated, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("reading field length: %w", err)
}

func fieldDataError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading field data: %w", ErrEntryTruncated, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("reading field data: %w", err)
}
