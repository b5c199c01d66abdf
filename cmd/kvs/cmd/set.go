package cmd

import (
	"github.com/spf13/cobra"
)

// setCmd represents the set command.
var setCmd = &cobra.Command{
	Use:          "set <key> <value>",
	Short:        "Stores a value for a key.",
	Long:         `Stores a value for a key, replacing any value stored before.`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store, &err)

		return store.Set(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
