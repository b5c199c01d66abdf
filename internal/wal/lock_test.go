//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || windows

package wal_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/kvs/internal/wal"
)

var _ = Describe("Lock", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-wal-lock-*")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("should refuse to open a log which is already open", func() {
		path := filepath.Join(dir, "wal.mp")
		log, err := wal.Open(path)
		Expect(err).ToNot(HaveOccurred())

		Expect(wal.Open(path)).Error().To(MatchError(wal.ErrLogLocked))

		By("releasing the lock on close")
		Expect(log.Close()).To(Succeed())
		log, err = wal.Open(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(log.Close()).To(Succeed())
	})
})
