package encoding_test

import (
	"bytes"
	"io"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/kvs/internal/encoding"
	"github.com/backbone81/kvs/internal/utils"
)

var _ = Describe("EntryField", func() {
	DescribeTable("Writing fields",
		func(field string, wantBytes int) {
			output := encoding.AppendField(nil, field)
			Expect(output).To(HaveLen(wantBytes))
			Expect(encoding.FieldSize(field)).To(Equal(wantBytes))
		},
		Entry("When empty", "", 1),
		Entry("When short", "foo", 1+3),
		Entry("When at the single byte length limit", strings.Repeat("x", 127), 1+127),
		Entry("When above the single byte length limit", strings.Repeat("x", 128), 2+128),
		Entry("When at the two byte length limit", strings.Repeat("x", 16383), 2+16383),
		Entry("When above the two byte length limit", strings.Repeat("x", 16384), 3+16384),
	)

	DescribeTable("Reading fields",
		func(field string) {
			input := bytes.NewReader(encoding.AppendField(nil, field))
			reader := utils.NewByteReader(input)
			Expect(encoding.ReadField(&reader, int64(input.Len()))).To(Equal(field))
			Expect(reader.BytesRead()).To(Equal(encoding.FieldSize(field)))
			Expect(input.Len()).To(BeZero())
		},
		Entry("When empty", ""),
		Entry("When short", "foo"),
		Entry("When containing arbitrary bytes", "\x00\xff\n\t"),
		Entry("When above the single byte length limit", strings.Repeat("x", 128)),
		Entry("When above the two byte length limit", strings.Repeat("x", 16384)),
	)

	It("should fail reading a field with a missing length", func() {
		reader := utils.NewByteReader(&bytes.Buffer{})
		Expect(encoding.ReadField(&reader, 1024)).Error().To(MatchError(encoding.ErrEntryTruncated))
	})

	It("should fail reading a field with missing data", func() {
		data := encoding.AppendField(nil, "foobar")
		reader := utils.NewByteReader(bytes.NewReader(data[:len(data)-1]))
		Expect(encoding.ReadField(&reader, 1024)).Error().To(MatchError(encoding.ErrEntryTruncated))
	})

	It("should fail reading a field which exceeds the maximum length", func() {
		data := encoding.AppendField(nil, "foobar")
		reader := utils.NewByteReader(bytes.NewReader(data))
		Expect(encoding.ReadField(&reader, 4)).Error().To(MatchError(encoding.ErrEntryTruncated))
	})

	It("should fail reading a field with an overflowing length", func() {
		data := bytes.Repeat([]byte{0xff}, 11)
		reader := utils.NewByteReader(bytes.NewReader(data))
		Expect(encoding.ReadField(&reader, 1024)).Error().To(MatchError(encoding.ErrEntryLengthOverflow))
	})

	It("should fail reading a large field with missing data", func() {
		data := encoding.AppendField(nil, strings.Repeat("x", 128*1024))
		reader := utils.NewByteReader(bytes.NewReader(data[:len(data)-1]))
		Expect(encoding.ReadField(&reader, math.MaxInt64)).Error().To(MatchError(encoding.ErrEntryTruncated))
		Expect(reader.BytesRead()).To(Equal(len(data) - 1))
	})

	It("should fail reading a field which does not fit into a signed 64 bit integer", func() {
		data := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
		reader := utils.NewByteReader(bytes.NewReader(data))
		Expect(encoding.ReadField(&reader, math.MaxInt64)).Error().To(MatchError(encoding.ErrEntryLengthOverflow))
	})

	It("should report end of file for an empty uvarint", func() {
		reader := utils.NewByteReader(&bytes.Buffer{})
		Expect(encoding.ReadUvarint(&reader)).Error().To(MatchError(io.EOF))
	})
})
