package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// getCmd represents the get command.
var getCmd = &cobra.Command{
	Use:          "get <key>",
	Short:        "Prints the value stored for a key.",
	Long:         `Prints the value stored for a key, or "Key not found" if the key does not exist.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store, &err)

		value, ok, err := store.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Key not found")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
