package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// keysCmd represents the keys command.
var keysCmd = &cobra.Command{
	Use:          "keys",
	Short:        "Prints all keys in ascending order.",
	Long:         `Prints all keys in ascending order. Listing keys is not recorded in the log.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store, &err)

		for _, key := range store.Keys() {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
