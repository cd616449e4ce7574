package cmd

import (
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <tool>...",
	Aliases: []string{"remove", "rm"},
	Short:   "Uninstall tools with the installer that installed them",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newForge(cmd.Context(), false)
		if err != nil {
			return err
		}
		for _, name := range args {
			if err := f.Uninstall(cmd.Context(), name); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
