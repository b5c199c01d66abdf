package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backbone81/kvs/pkg/kvs"
)

// rmCmd represents the rm command.
var rmCmd = &cobra.Command{
	Use:          "rm <key>",
	Short:        "Removes a key.",
	Long:         `Removes a key. Fails with "Key not found" if the key does not exist.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store, &err)

		if err := store.Remove(args[0]); err != nil {
			if errors.Is(err, kvs.ErrKeyNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "Key not found")
				return fmt.Errorf("%w: %w", errFailureReported, err)
			}
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
