package cmd

import (
	"github.com/spf13/cobra"
)

var installerName string

var installCmd = &cobra.Command{
	Use:   "install <tool>...",
	Short: "Install tools, choosing an installer by platform precedence",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newForge(cmd.Context(), true)
		if err != nil {
			return err
		}
		for _, name := range args {
			if err := f.Install(cmd.Context(), name, installerName); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	installCmd.Flags().StringVarP(&installerName, "installer", "i", "", "Use this installer instead of the platform precedence")
	rootCmd.AddCommand(installCmd)
}
