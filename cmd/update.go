package cmd

import (
	"github.com/spf13/cobra"
)

var assumeYes bool

var updateCmd = &cobra.Command{
	Use:   "update [tool]...",
	Short: "Update installed tools to their latest versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newForge(cmd.Context(), true)
		if err != nil {
			return err
		}
		return f.Update(cmd.Context(), args, assumeYes)
	},
}

func init() {
	updateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(updateCmd)
}
