package encoding

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/backbone81/kvs/internal/utils"
)

var (
	ErrEntryMalformed       = errors.New("malformed log entry")
	ErrEntryTruncated       = errors.New("log entry is truncated")
	ErrEntryKindUnsupported = errors.New("unsupported log entry kind")
	ErrEntryLengthOverflow  = errors.New("log entry field length overflow")
	ErrEntryValueUnexpected = errors.New("only set entries can carry a value")
)

// EntryKind identifies which operation an entry records.
type EntryKind uint8

const (
	EntryKindGet EntryKind = iota + 1 // We do not start at 0 to detect zeroed bytes.
	EntryKindSet
	EntryKindRemove
)

// String returns a string representation of the entry kind.
func (k EntryKind) String() string {
	switch k {
	case EntryKindGet:
		return "get"
	case EntryKindSet:
		return "set"
	case EntryKindRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Valid reports if the entry kind is one of the supported kinds.
func (k EntryKind) Valid() bool {
	return EntryKindGet <= k && k <= EntryKindRemove
}

// EntryKinds provides a list of supported entry kinds. Helpful for writing tests and benchmarks which iterate over
// all possibilities.
var EntryKinds = []EntryKind{
	EntryKindGet,
	EntryKindSet,
	EntryKindRemove,
}

// Entry is a single operation recorded in the log. Only EntryKindSet carries a value. Encoding any other kind with a
// non-empty Value fails with ErrEntryValueUnexpected, so every entry which encodes decodes to itself.
type Entry struct {
	Kind  EntryKind
	Key   string
	Value string
}

// NewGetEntry returns an entry recording a read of key.
func NewGetEntry(key string) Entry {
	return Entry{Kind: EntryKindGet, Key: key}
}

// NewSetEntry returns an entry associating key with value.
func NewSetEntry(key string, value string) Entry {
	return Entry{Kind: EntryKindSet, Key: key, Value: value}
}

// NewRemoveEntry returns an entry removing key.
func NewRemoveEntry(key string) Entry {
	return Entry{Kind: EntryKindRemove, Key: key}
}

// EncodedSize returns the number of bytes the entry occupies when encoded.
func EncodedSize(entry Entry) int {
	size := 1 + FieldSize(entry.Key)
	if entry.Kind == EntryKindSet {
		size += FieldSize(entry.Value)
	}
	return size
}

// AppendEntry appends the encoded entry to buffer and returns the extended buffer.
// An error is only returned for an entry with an unsupported kind, or for a value on an entry other than set. The
// buffer is returned unchanged in that case.
func AppendEntry(buffer []byte, entry Entry) ([]byte, error) {
	if !entry.Kind.Valid() {
		return buffer, ErrEntryKindUnsupported
	}
	if entry.Kind != EntryKindSet && entry.Value != "" {
		return buffer, fmt.Errorf("%w: %s entry", ErrEntryValueUnexpected, entry.Kind)
	}
	buffer = append(buffer, byte(entry.Kind))
	buffer = AppendField(buffer, entry.Key)
	if entry.Kind == EntryKindSet {
		buffer = AppendField(buffer, entry.Value)
	}
	return buffer, nil
}

// WriteEntry writes the encoded entry to the writer with a single call to Write.
// The buffer is used as scratch space to avoid allocations. Give a slice with enough capacity to hold the encoded
// entry. The returned slice is the buffer which was actually used and can be given to the next call.
func WriteEntry(writer io.Writer, buffer []byte, entry Entry) ([]byte, int, error) {
	buffer, err := AppendEntry(buffer[:0], entry)
	if err != nil {
		return buffer, 0, err
	}
	n, err := writer.Write(buffer)
	if err != nil {
		return buffer, n, fmt.Errorf("writing log entry: %w", err)
	}
	return buffer, n, nil
}

// ReadEntry reads exactly one entry from the reader and returns it together with the number of bytes consumed.
//
// Give maxLength to detect malformed entries early and prevent excessive memory allocations in such situations. Set
// maxLength to the remaining bytes in the log, or to a negative value to disable the check.
//
// The error is io.EOF only if no bytes were available at all, which is the clean end of the log. An entry which
// cannot be decoded results in an error matching ErrEntryMalformed together with ErrEntryTruncated,
// ErrEntryKindUnsupported or ErrEntryLengthOverflow. Errors of the reader itself are returned wrapped.
func ReadEntry(reader io.Reader, maxLength int64) (Entry, int, error) {
	if maxLength < 0 {
		maxLength = math.MaxInt64
	}

	byteReader := utils.NewByteReader(reader)
	entry, err := readEntry(&byteReader, maxLength)
	if err == nil {
		return entry, byteReader.BytesRead(), nil
	}

	switch {
	case byteReader.BytesRead() == 0 && errors.Is(err, io.EOF):
		return Entry{}, 0, io.EOF
	case errors.Is(err, ErrEntryTruncated), errors.Is(err, ErrEntryKindUnsupported), errors.Is(err, ErrEntryLengthOverflow):
		return Entry{}, byteReader.BytesRead(), errors.Join(ErrEntryMalformed, err)
	default:
		return Entry{}, byteReader.BytesRead(), fmt.Errorf("reading log entry: %w", err)
	}
}

func readEntry(reader *utils.ByteReader, maxLength int64) (Entry, error) {
	kind, err := reader.ReadByte()
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Kind: EntryKind(kind)}
	if !entry.Kind.Valid() {
		return Entry{}, fmt.Errorf("%w: %d", ErrEntryKindUnsupported, kind)
	}

	if entry.Key, err = ReadField(reader, maxLength-int64(reader.BytesRead())); err != nil {
		return Entry{}, fmt.Errorf("reading key: %w", err)
	}
	if entry.Kind != EntryKindSet {
		return entry, nil
	}
	if entry.Value, err = ReadField(reader, maxLength-int64(reader.BytesRead())); err != nil {
		return Entry{}, fmt.Errorf("reading value: %w", err)
	}
	return entry, nil
}
