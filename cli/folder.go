package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFolderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Show, select or reset the notes folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.ws.Directory()
			if dir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No folder selected. Run: paper folder select <dir>")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "select <dir>",
		Short: "Use dir as the notes folder, creating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.ws.Select(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notes folder set to %s\n", dir)
			return nil
		},
	})

	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Forget the notes folder; nothing on disk is removed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.ws.Directory()
			if dir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No folder selected.")
				return nil
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Forget %s?", dir)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := a.ws.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Notes folder reset.")
			return nil
		},
	}
	reset.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(reset)

	return cmd
}
