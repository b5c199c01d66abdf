package cmd

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/kvs/internal/encoding"
)

var _ = Describe("Command", func() {
	var dir string
	var path string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-kvs-*")
		Expect(err).ToNot(HaveOccurred())
		path = filepath.Join(dir, "wal.mp")
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	// run executes the command line with the given arguments against the test log file and returns its output.
	run := func(args ...string) (string, error) {
		var stdout bytes.Buffer
		var stderr bytes.Buffer
		rootCmd.SetOut(&stdout)
		rootCmd.SetErr(&stderr)
		rootCmd.SetArgs(append([]string{"--file", path}, args...))
		err := execute()
		GinkgoWriter.Print(stderr.String())
		return stdout.String(), err
	}

	It("should print the value after setting it", func() {
		Expect(run("set", "foo", "bar")).To(BeEmpty())
		Expect(run("get", "foo")).To(Equal("bar\n"))
	})

	It("should report missing keys on get without failing", func() {
		Expect(run("get", "foo")).To(Equal("Key not found\n"))
	})

	It("should report missing keys on rm and fail", func() {
		output, err := run("rm", "foo")
		Expect(err).To(HaveOccurred())
		Expect(output).To(Equal("Key not found\n"))
	})

	It("should remove keys", func() {
		Expect(run("set", "a", "1")).To(BeEmpty())
		Expect(run("set", "b", "2")).To(BeEmpty())
		Expect(run("rm", "a")).To(BeEmpty())

		Expect(run("get", "a")).To(Equal("Key not found\n"))
		Expect(run("get", "b")).To(Equal("2\n"))
		Expect(run("keys")).To(Equal("b\n"))
	})

	It("should list keys in ascending order", func() {
		for _, key := range []string{"c", "a", "b"} {
			Expect(run("set", key, "value")).To(BeEmpty())
		}
		Expect(run("keys")).To(Equal("a\nb\nc\n"))
	})

	It("should reject the wrong number of arguments", func() {
		Expect(run("get")).Error().To(HaveOccurred())
		Expect(run("set", "foo")).Error().To(HaveOccurred())
		Expect(run("rm", "a", "b")).Error().To(HaveOccurred())
	})

	It("should reject unknown sync policies", func() {
		Expect(run("--sync-policy", "sometimes", "keys")).Error().To(HaveOccurred())
		Expect(run("--sync-policy", "immediate", "keys")).Error().ToNot(HaveOccurred())
	})

	It("should describe all entries of the log", func() {
		Expect(run("set", "foo", "bar")).To(BeEmpty())
		Expect(run("get", "foo")).To(Equal("bar\n"))

		output, err := run("describe")
		Expect(err).ToNot(HaveOccurred())
		Expect(output).To(ContainSubstring("Kind:          set\n"))
		Expect(output).To(ContainSubstring("Value:         \"bar\"\n"))
		Expect(output).To(ContainSubstring("Kind:          get\n"))
		Expect(output).To(ContainSubstring("Entries:       2\n"))
	})

	It("should report a malformed tail when describing the log", func() {
		data, err := encoding.AppendEntry(nil, encoding.NewSetEntry("foo", "bar"))
		Expect(err).ToNot(HaveOccurred())
		Expect(os.WriteFile(path, append(data, 0, 0), 0o600)).To(Succeed())

		output, err := run("describe")
		Expect(err).To(HaveOccurred())
		Expect(output).To(ContainSubstring("Key:           \"foo\"\n"))
		Expect(output).To(ContainSubstring("Malformed entry 1 at offset 9"))

		By("refusing to open the store")
		Expect(run("get", "foo")).Error().To(HaveOccurred())
	})

	It("should fail describing a missing log", func() {
		Expect(run("describe")).Error().To(HaveOccurred())
		Expect(path).ToNot(BeAnExistingFile())
	})

	It("should write metrics to a text file", func() {
		metricsPath := filepath.Join(dir, "kvs.prom")
		Expect(run("--metrics-textfile", metricsPath, "set", "foo", "bar")).To(BeEmpty())

		data, err := os.ReadFile(metricsPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("kvs_wal_append_total"))
		Expect(string(data)).To(ContainSubstring("kvs_store_operations_total"))
		metricsTextfile = ""
	})

	It("should write metrics to a text file when the command fails", func() {
		metricsPath := filepath.Join(dir, "kvs.prom")
		output, err := run("--metrics-textfile", metricsPath, "rm", "missing")
		Expect(err).To(MatchError(errFailureReported))
		Expect(output).To(Equal("Key not found\n"))

		data, err := os.ReadFile(metricsPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`kvs_store_operations_total{operation="remove",result="not_found"}`))
		metricsTextfile = ""
	})
})
