package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/paper-server/filesystem"
	"github.com/ViniZap4/paper-server/render"
)

func newNotesCmd(a *app) *cobra.Command {
	var match string

	list := func(cmd *cobra.Command, args []string) error {
		store, err := a.ws.Notes()
		if err != nil {
			return err
		}
		notes, err := store.List()
		if err != nil {
			return err
		}
		if notes, err = filesystem.Match(notes, match); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), render.NoteLines(store.Dir(), notes))
		return nil
	}

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List and manage notes",
		Args:  cobra.NoArgs,
		RunE:  list,
	}
	cmd.Flags().StringVarP(&match, "match", "m", "", "only names matching this glob")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the notes in the folder",
		Args:  cobra.NoArgs,
		RunE:  list,
	}
	listCmd.Flags().StringVarP(&match, "match", "m", "", "only names matching this glob")

	cmd.AddCommand(
		listCmd,
		&cobra.Command{
			Use:   "new",
			Short: "Create an empty timestamped note",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.ws.Notes()
				if err != nil {
					return err
				}
				note, err := store.Create()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), note.Path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "open <name>",
			Short: "Print a note",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.ws.Notes()
				if err != nil {
					return err
				}
				note, err := store.Resolve(args[0])
				if err != nil {
					return err
				}
				content, err := store.Read(note)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <name> <new-name>",
			Short: "Rename a note within the folder",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.ws.Notes()
				if err != nil {
					return err
				}
				note, err := store.Resolve(args[0])
				if err != nil {
					return err
				}
				renamed, err := store.Rename(note, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", note.Name, renamed.Name)
				return nil
			},
		},
		newNoteDeleteCmd(a),
	)
	return cmd
}

func newNoteDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.ws.Notes()
			if err != nil {
				return err
			}
			note, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Delete %s? This cannot be undone.", note.Name)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := store.Delete(note); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", note.Name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
