package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed tools",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newForge(cmd.Context(), false)
		if err != nil {
			return err
		}
		return f.List()
	},
}

var whyCmd = &cobra.Command{
	Use:   "why <tool>",
	Short: "Describe a tool and how it can be installed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newForge(cmd.Context(), false)
		if err != nil {
			return err
		}
		return f.Why(args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(whyCmd)
}
