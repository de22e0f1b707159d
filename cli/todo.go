package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/paper-server/render"
	"github.com/ViniZap4/paper-server/todo"
)

func newTodoCmd(a *app) *cobra.Command {
	show := func(cmd *cobra.Command, snap todo.Snapshot) {
		fmt.Fprint(cmd.OutOrStdout(), render.TodoLines(render.PanelFrom(snap)))
	}

	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Show and change the todo list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.ws.Todos()
			if err != nil {
				return err
			}
			show(cmd, store.Load())
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the todo list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.ws.Todos()
				if err != nil {
					return err
				}
				show(cmd, store.Load())
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <text>...",
			Short: "Append a todo",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.ws.Todos()
				if err != nil {
					return err
				}
				snap, added, err := store.Add(strings.Join(args, " "))
				if err != nil {
					return err
				}
				if !added {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to add.")
					return nil
				}
				show(cmd, snap)
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle <index|id>",
			Short: "Flip a todo between open and done",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.ws.Todos()
				if err != nil {
					return err
				}
				var snap todo.Snapshot
				if index, convErr := strconv.Atoi(args[0]); convErr == nil {
					snap, err = store.ToggleAt(index)
				} else {
					snap, err = store.Toggle(resolveID(store.Load(), args[0]))
				}
				if err != nil {
					return err
				}
				show(cmd, snap)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <index|id>",
			Short: "Delete a todo",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.ws.Todos()
				if err != nil {
					return err
				}
				current := store.Load()
				id := resolveID(current, args[0])
				if index, convErr := strconv.Atoi(args[0]); convErr == nil {
					id = ""
					if index >= 0 && index < len(current.Entries) {
						id = todo.IDAt(current.Entries, index)
					}
				}
				snap, err := store.Remove(id)
				if err != nil {
					return err
				}
				show(cmd, snap)
				return nil
			},
		},
	)
	return cmd
}

// resolveID expands the short id prefix printed by the list to the full
// id. Ambiguous or unknown prefixes are passed through unchanged.
func resolveID(snap todo.Snapshot, ref string) string {
	match := ""
	for _, it := range snap.Items() {
		if it.ID == ref {
			return ref
		}
		if strings.HasPrefix(it.ID, ref) {
			if match != "" {
				return ref
			}
			match = it.ID
		}
	}
	if match == "" {
		return ref
	}
	return match
}
