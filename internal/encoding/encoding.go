// Package encoding implements the binary format of a single log entry.
//
// An entry is self-delimiting. It starts with one byte for the entry kind, followed by the key and, for set entries
// only, the value. Key and value are each encoded as a uvarint length followed by the raw bytes. There is no header,
// no magic number and no checksum. Entry boundaries are found by decoding exactly one entry after the other.
package encoding

import "encoding/binary"

// MaxFieldLengthLen is the number of bytes which is big enough to hold the encoded length of any field.
const MaxFieldLengthLen = binary.MaxVarintLen64
