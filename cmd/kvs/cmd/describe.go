package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/backbone81/kvs/pkg/kvs"
)

// describeCmd represents the describe command.
var describeCmd = &cobra.Command{
	Use:          "describe",
	Short:        "Provides detailed information about the write-ahead log.",
	Long:         `Prints every entry of the write-ahead log together with its position, and reports a malformed tail.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if _, err := os.Stat(cfg.Path); err != nil {
			return fmt.Errorf("no log file found: %w", err)
		}

		options, err := cfg.LogOptions(logger)
		if err != nil {
			return err
		}
		log, err := kvs.OpenLog(cfg.Path, options...)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := log.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Log File:      %s\n", log.FilePath())
		fmt.Fprintf(out, "Size:          %d\n", log.Pointer().Offset)
		fmt.Fprintln(out)

		replayer := log.Replay(0)
		for replayer.Next() {
			printReplayValue(out, replayer.Value())
		}
		if err := replayer.Err(); err != nil {
			var corruptionErr *kvs.CorruptionError
			if !errors.As(err, &corruptionErr) {
				return err
			}
			fmt.Fprintf(out, "Malformed entry %d at offset %d: %s\n", corruptionErr.SequenceNumber, corruptionErr.Offset, corruptionErr.Err)
			return fmt.Errorf("%w: %w", errFailureReported, err)
		}
		fmt.Fprintf(out, "Entries:       %d\n", log.Pointer().Sequence)
		return nil
	},
}

func printReplayValue(out io.Writer, value kvs.ReplayValue) {
	fmt.Fprintf(out, "Offset:        %d\n", value.Offset)
	fmt.Fprintf(out, "Sequence:      %d\n", value.SequenceNumber)
	fmt.Fprintf(out, "Kind:          %s\n", value.Entry.Kind)
	fmt.Fprintf(out, "Key:           %q\n", value.Entry.Key)
	if value.Entry.Kind == kvs.EntryKindSet {
		fmt.Fprintf(out, "Value:         %q\n", value.Entry.Value)
	}
	fmt.Fprintln(out)
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
