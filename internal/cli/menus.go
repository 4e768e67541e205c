package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/customs/internal/defs"
	"github.com/roach88/customs/internal/menus"
)

var menuEntries = collection[menus.Menu]{
	kind: menus.Kind,
	open: func(s *session) (*defs.Store[menus.Menu], error) {
		return menus.Open(s.ctx, s.storage, s.cfg.MenusPath, s.storeOptions()...)
	},
	rename: menus.Collection{}.WithKey,
	line: func(m menus.Menu) string {
		return fmt.Sprintf("%s\t%s", m.ID, m.Title)
	},
	detail: func(m menus.Menu) string {
		return fmt.Sprintf("id: %s\ntitle: %s\ndata: %s", m.ID, m.Title, m.Data)
	},
}

// NewMenusCommand creates the menus command group.
func NewMenusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menus",
		Short: "Manage custom menus",
	}
	cmd.AddCommand(menuEntries.commands(rootOpts)...)
	cmd.AddCommand(newMenusAddCommand(rootOpts))
	return cmd
}

func newMenusAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "add <id> <title> [data]",
		Short:         "Add a menu",
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := menus.Menu{ID: args[0], Title: args[1]}
			if len(args) == 3 {
				m.Data = args[2]
			}
			if m.ID == "" {
				return NewExitError(ExitCommandError, "menu id must not be empty")
			}
			return withStore(opts, cmd, menuEntries, func(s *session, store *menus.Store) error {
				if err := store.Add(s.ctx, m); err != nil {
					return s.out.Fail(fmt.Sprintf("failed to add %q", m.ID), err)
				}
				if err := store.Save(s.ctx); err != nil {
					return s.out.Fail("failed to save", err)
				}
				return s.out.Success(result{data: m, text: fmt.Sprintf("added %q", m.ID)})
			})
		},
	}
}
