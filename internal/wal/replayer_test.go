package wal_test

import (
	"errors"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/backbone81/kvs/internal/encoding"
	"github.com/backbone81/kvs/internal/utils"
	"github.com/backbone81/kvs/internal/wal"
)

// encodeEntries returns the wire format of all given entries one after the other.
func encodeEntries(entries ...encoding.Entry) []byte {
	var data []byte
	for _, entry := range entries {
		var err error
		data, err = encoding.AppendEntry(data, entry)
		Expect(err).ToNot(HaveOccurred())
	}
	return data
}

var _ = Describe("Replayer", func() {
	It("should report the clean end of an empty log", func() {
		log, err := wal.New(utils.NewMemoryFile(nil), wal.WithSyncPolicyNone())
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(log.Close()).To(Succeed())
		}()

		replayer := log.Replay(0)
		Expect(replayer.Next()).To(BeFalse())
		Expect(replayer.Err()).ToNot(HaveOccurred())
		Expect(replayer.Next()).To(BeFalse())
	})

	It("should report offsets and sequence numbers of all entries", func() {
		log, err := wal.New(utils.NewMemoryFile(encodeEntries(testEntries...)), wal.WithSyncPolicyNone())
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(log.Close()).To(Succeed())
		}()

		replayer := log.Replay(0)
		var offset uint64
		for i, entry := range testEntries {
			Expect(replayer.Offset()).To(Equal(offset))
			Expect(replayer.Next()).To(BeTrue())
			Expect(replayer.Value()).To(Equal(wal.ReplayValue{
				Offset:         offset,
				SequenceNumber: uint64(i),
				Entry:          entry,
			}))
			offset += uint64(encoding.EncodedSize(entry))
		}
		Expect(replayer.Next()).To(BeFalse())
		Expect(replayer.Err()).ToNot(HaveOccurred())
		Expect(replayer.Offset()).To(Equal(offset))
	})

	It("should replay from an entry boundary in the middle of the log", func() {
		log, err := wal.New(utils.NewMemoryFile(encodeEntries(testEntries...)), wal.WithSyncPolicyNone())
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(log.Close()).To(Succeed())
		}()

		offset := uint64(encoding.EncodedSize(testEntries[0]) + encoding.EncodedSize(testEntries[1]))
		Expect(replayAll(log.Replay(offset))).To(Equal(testEntries[2:]))
	})

	It("should replay nothing from the end of the log", func() {
		log, err := wal.New(utils.NewMemoryFile(encodeEntries(testEntries...)), wal.WithSyncPolicyNone())
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(log.Close()).To(Succeed())
		}()

		Expect(replayAll(log.Replay(log.Pointer().Offset))).To(BeEmpty())
	})

	It("should fail for offsets beyond the end of the log", func() {
		log, err := wal.New(utils.NewMemoryFile(encodeEntries(testEntries...)), wal.WithSyncPolicyNone())
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(log.Close()).To(Succeed())
		}()

		replayer := log.Replay(log.Pointer().Offset + 1)
		Expect(replayer.Next()).To(BeFalse())
		Expect(replayer.Err()).To(MatchError(wal.ErrOffsetOutOfRange))
	})

	It("should not see entries appended after the replay started", func() {
		log, err := wal.New(utils.NewMemoryFile(encodeEntries(testEntries...)), wal.WithSyncPolicyNone())
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(log.Close()).To(Succeed())
		}()

		replayer := log.Replay(0)
		Expect(log.Append(encoding.NewSetEntry("late", "entry"))).Error().ToNot(HaveOccurred())
		Expect(replayAll(replayer)).To(Equal(testEntries))
		Expect(replayAll(log.Replay(0))).To(HaveLen(len(testEntries) + 1))
	})

	DescribeTable("should report a malformed tail as corruption",
		func(tail []byte, expectedErr error) {
			data := encodeEntries(testEntries...)
			log, err := wal.New(utils.NewMemoryFile(append(data, tail...)), wal.WithSyncPolicyNone())
			Expect(err).ToNot(HaveOccurred())
			defer func() {
				Expect(log.Close()).To(Succeed())
			}()

			corruptBefore := testutil.ToFloat64(wal.ReplayCorruptTotal)
			entries, err := replayAll(log.Replay(0))
			Expect(entries).To(Equal(testEntries))
			Expect(err).To(MatchError(wal.ErrLogCorrupt))
			Expect(err).To(MatchError(encoding.ErrEntryMalformed))
			Expect(err).To(MatchError(expectedErr))

			var corruptionErr *wal.CorruptionError
			Expect(errors.As(err, &corruptionErr)).To(BeTrue())
			Expect(corruptionErr.Offset).To(Equal(uint64(len(data))))
			Expect(corruptionErr.SequenceNumber).To(Equal(uint64(len(testEntries))))
			Expect(testutil.ToFloat64(wal.ReplayCorruptTotal) - corruptBefore).To(Equal(1.0))

			By("a failed replay does not establish the sequence number")
			Expect(log.Pointer().Sequence).To(BeZero())
		},
		Entry("zeroed bytes", []byte{0, 0, 0, 0}, encoding.ErrEntryKindUnsupported),
		Entry("unknown kind", []byte{42, 1, 'a'}, encoding.ErrEntryKindUnsupported),
		Entry("kind only", []byte{byte(encoding.EntryKindSet)}, encoding.ErrEntryTruncated),
		Entry("truncated key", []byte{byte(encoding.EntryKindGet), 5, 'a', 'b'}, encoding.ErrEntryTruncated),
		Entry("missing value", []byte{byte(encoding.EntryKindSet), 1, 'a'}, encoding.ErrEntryTruncated),
		Entry("truncated value", []byte{byte(encoding.EntryKindSet), 1, 'a', 3, 'b'}, encoding.ErrEntryTruncated),
		Entry("overflowing length", []byte{
			byte(encoding.EntryKindRemove), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01,
		}, encoding.ErrEntryLengthOverflow),
	)

	It("should report a file which shrank during the replay", func() {
		file := utils.NewMemoryFile(encodeEntries(testEntries...))
		log, err := wal.New(file, wal.WithSyncPolicyNone())
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(log.Close()).To(Succeed())
		}()

		replayer := log.Replay(0)
		Expect(file.Truncate(0)).To(Succeed())
		Expect(replayer.Next()).To(BeFalse())
		Expect(replayer.Err()).To(MatchError(io.ErrUnexpectedEOF))
		Expect(replayer.Err()).ToNot(MatchError(wal.ErrLogCorrupt))
	})
})
