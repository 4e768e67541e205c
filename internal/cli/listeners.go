package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/customs/internal/defs"
	"github.com/roach88/customs/internal/listeners"
)

var listenerGroups = collection[listeners.Group]{
	kind: listeners.Kind,
	open: func(s *session) (*defs.Store[listeners.Group], error) {
		paths := listeners.Paths{Events: s.cfg.EventsPath, Listeners: s.cfg.ListenersPath}
		return listeners.Open(s.ctx, s.storage, paths, s.storeOptions()...)
	},
	rename: listeners.Collection{}.WithKey,
	line:   groupLine,
	detail: groupDetail,
}

// NewListenersCommand creates the listeners command group.
func NewListenersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listeners",
		Short: "Manage custom listener groups",
		Long: `Manage custom listener groups and their events.

The activity group (empty name) holds events not attached to a named
group. It is always listed last; address it with "".`,
	}
	cmd.AddCommand(listenerGroups.commands(rootOpts)...)
	cmd.AddCommand(newListenersAddCommand(rootOpts))
	return cmd
}

func newListenersAddCommand(opts *RootOptions) *cobra.Command {
	var group listeners.Group

	cmd := &cobra.Command{
		Use:           "add <name>",
		Short:         "Add an empty listener group",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			group.Name = args[0]
			if group.Name == "" {
				return NewExitError(ExitCommandError, "group name must not be empty")
			}
			return withStore(opts, cmd, listenerGroups, func(s *session, store *listeners.Store) error {
				if err := store.Add(s.ctx, group); err != nil {
					return s.out.Fail(fmt.Sprintf("failed to add %q", group.Name), err)
				}
				if err := store.Save(s.ctx); err != nil {
					return s.out.Fail("failed to save", err)
				}
				return s.out.Success(result{data: group, text: fmt.Sprintf("added %q", group.Name)})
			})
		},
	}

	cmd.Flags().BoolVar(&group.Independent, "independent", false, "mark the group independent")
	cmd.Flags().StringVar(&group.Imports, "imports", "", "custom imports")
	cmd.Flags().StringVar(&group.Code, "code", "", "group code")
	return cmd
}

func groupName(g listeners.Group) string {
	if g.IsActivity() {
		return "(activity)"
	}
	return g.Name
}

func groupLine(g listeners.Group) string {
	return fmt.Sprintf("%s\tindependent=%t\tevents=%d", groupName(g), g.Independent, len(g.Events))
}

func groupDetail(g listeners.Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", groupName(g))
	fmt.Fprintf(&b, "independent: %t\n", g.Independent)
	if g.Imports != "" {
		fmt.Fprintf(&b, "imports: %s\n", g.Imports)
	}
	if g.Code != "" {
		fmt.Fprintf(&b, "code: %s\n", g.Code)
	}
	fmt.Fprintf(&b, "events: %d", len(g.Events))
	for _, e := range g.Events {
		fmt.Fprintf(&b, "\n  - %s (icon %d) %s", e.Name, e.Icon, listeners.JoinSpec(e.Spec))
	}
	return b.String()
}
