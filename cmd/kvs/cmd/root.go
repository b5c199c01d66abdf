package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/backbone81/kvs/internal/config"
	"github.com/backbone81/kvs/pkg/kvs"
)

// errFailureReported signals a failure which the command already reported to the user.
var errFailureReported = errors.New("failure already reported")

var (
	configPath      string
	filePath        string
	syncPolicy      string
	verbosity       int
	metricsTextfile string
)

// These are set up by the root command before any sub command runs.
var (
	cfg      *config.Config
	logger   logr.Logger
	registry *prometheus.Registry
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "kvs",
	Short:         "A persistent key-value store backed by a write-ahead log.",
	Long:          `A persistent key-value store backed by a write-ahead log.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("file") {
			loaded.Path = filePath
		}
		if flags.Changed("sync-policy") {
			loaded.SyncPolicy = syncPolicy
		}
		if flags.Changed("verbosity") {
			loaded.Verbosity = verbosity
		}
		if flags.Changed("metrics-textfile") {
			loaded.MetricsTextfile = metricsTextfile
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		stdr.SetVerbosity(cfg.Verbosity)
		logger = stdr.New(log.New(cmd.ErrOrStderr(), "", log.LstdFlags))

		registry = prometheus.NewRegistry()
		return kvs.RegisterMetrics(registry)
	},
}

// writeMetrics writes all metrics to the configured text file.
func writeMetrics() error {
	if cfg == nil || cfg.MetricsTextfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(cfg.MetricsTextfile, registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// openStore opens the store as configured.
func openStore() (*kvs.Store, error) {
	options, err := cfg.StoreOptions(logger)
	if err != nil {
		return nil, err
	}
	return kvs.Open(cfg.Path, options...)
}

// closeStore closes the store and reports a failure only if the command itself succeeded.
func closeStore(store *kvs.Store, err *error) {
	if closeErr := store.Close(); closeErr != nil && *err == nil {
		*err = closeErr
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

// execute runs the command line and writes the metrics afterward, also when the command failed.
func execute() error {
	cfg = nil
	err := errors.Join(rootCmd.Execute(), writeMetrics())
	if err != nil && !errors.Is(err, errFailureReported) {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"The YAML config file to load. Environment variables starting with KVS_ override its values.",
	)

	rootCmd.PersistentFlags().StringVarP(
		&filePath,
		"file",
		"f",
		"wal.mp",
		"The log file the store is located in.",
	)

	rootCmd.PersistentFlags().StringVar(
		&syncPolicy,
		"sync-policy",
		"immediate",
		"The sync policy to use. Valid values are none, immediate, periodic, grouped.",
	)

	rootCmd.PersistentFlags().IntVarP(
		&verbosity,
		"verbosity",
		"v",
		0,
		"The verbosity of the log output.",
	)

	rootCmd.PersistentFlags().StringVar(
		&metricsTextfile,
		"metrics-textfile",
		"",
		"The file to write metrics to in the prometheus text format.",
	)
}
