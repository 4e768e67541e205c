package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/customs/internal/defs"
	"github.com/roach88/customs/internal/storage"
)

// collection describes how the CLI drives one definitions collection.
type collection[E any] struct {
	kind string

	open   func(s *session) (*defs.Store[E], error)
	rename func(E, string) E

	// line renders an entity in list output; detail renders it for show.
	line   func(E) string
	detail func(E) string
}

// result pairs a JSON payload with its text rendering.
type result struct {
	data any
	text string
}

func (r result) String() string               { return r.text }
func (r result) MarshalJSON() ([]byte, error) { return json.Marshal(r.data) }

// listing is the JSON payload of list.
type listing[E any] struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
	Items []E    `json:"items"`
}

// withStore opens a session and the collection store, runs fn and closes
// both. Errors from fn are reported through the formatter.
func withStore[E any](opts *RootOptions, cmd *cobra.Command, c collection[E], fn func(s *session, store *defs.Store[E]) error) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	store, err := c.open(s)
	if err != nil {
		return s.out.Fail(fmt.Sprintf("failed to load %s", c.kind), err)
	}
	defer store.Close()

	return fn(s, store)
}

// commands returns the subcommands every collection supports.
func (c collection[E]) commands(opts *RootOptions) []*cobra.Command {
	return []*cobra.Command{
		c.listCommand(opts),
		c.showCommand(opts),
		c.removeCommand(opts),
		c.renameCommand(opts),
		c.importCommand(opts),
		c.exportCommand(opts),
	}
}

func (c collection[E]) listCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         fmt.Sprintf("List %s", c.kind),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, c, func(s *session, store *defs.Store[E]) error {
				items, err := store.List()
				if err != nil {
					return s.out.Fail(fmt.Sprintf("failed to list %s", c.kind), err)
				}
				var text strings.Builder
				for i, e := range items {
					if i > 0 {
						text.WriteByte('\n')
					}
					text.WriteString(c.line(e))
				}
				if len(items) == 0 {
					fmt.Fprintf(&text, "no %s", c.kind)
				}
				return s.out.Success(result{
					data: listing[E]{Kind: c.kind, Count: len(items), Items: items},
					text: text.String(),
				})
			})
		},
	}
}

func (c collection[E]) showCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         fmt.Sprintf("Show one of the %s", c.kind),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, c, func(s *session, store *defs.Store[E]) error {
				e, err := store.Get(args[0])
				if err != nil {
					return s.out.Fail(fmt.Sprintf("failed to show %q", args[0]), err)
				}
				return s.out.Success(result{data: e, text: c.detail(e)})
			})
		},
	}
}

func (c collection[E]) removeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: fmt.Sprintf("Remove one of the %s", c.kind),
		Long: fmt.Sprintf(`Remove every entry of %s with the given name.

Removing a name that does not exist succeeds and changes nothing.`, c.kind),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return withStore(opts, cmd, c, func(s *session, store *defs.Store[E]) error {
				_, err := store.Get(name)
				existed := err == nil

				if err := store.Remove(s.ctx, name); err != nil {
					return s.out.Fail(fmt.Sprintf("failed to remove %q", name), err)
				}
				if err := store.Save(s.ctx); err != nil {
					return s.out.Fail("failed to save", err)
				}

				text := fmt.Sprintf("removed %q", name)
				if !existed {
					text = fmt.Sprintf("%q not present; nothing removed", name)
				}
				return s.out.Success(result{
					data: map[string]any{"kind": c.kind, "name": name, "removed": existed},
					text: text,
				})
			})
		},
	}
}

func (c collection[E]) renameCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rename <old> <new>",
		Short:         fmt.Sprintf("Rename one of the %s", c.kind),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := args[0], args[1]
			if to == "" {
				return NewExitError(ExitCommandError, "new name must not be empty")
			}
			return withStore(opts, cmd, c, func(s *session, store *defs.Store[E]) error {
				err := store.Edit(s.ctx, from, func(e E) E {
					return c.rename(e, to)
				})
				if err != nil {
					return s.out.Fail(fmt.Sprintf("failed to rename %q", from), err)
				}
				if err := store.Save(s.ctx); err != nil {
					return s.out.Fail("failed to save", err)
				}
				return s.out.Success(result{
					data: map[string]any{"kind": c.kind, "from": from, "to": to},
					text: fmt.Sprintf("renamed %q to %q", from, to),
				})
			})
		},
	}
}

func (c collection[E]) importCommand(opts *RootOptions) *cobra.Command {
	var suffix, as string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: fmt.Sprintf("Import %s from a file", c.kind),
		Long: fmt.Sprintf(`Merge %s from an exported file into the collection.

An incoming entry equal to an existing one is added alongside it. One that
differs replaces the existing entry, unless --rename-suffix is given: then
the incoming entry is renamed by appending the suffix. If a renamed entry
would collide with another name the import fails and nothing changes.`, c.kind),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return withStore(opts, cmd, c, func(s *session, store *defs.Store[E]) error {
				format, err := formatFor(path, as)
				if err != nil {
					return s.out.Fail("invalid --as", &configError{err: err})
				}
				f, err := os.Open(path)
				if err != nil {
					return s.out.Fail("failed to open import file", &storage.IOError{Op: "read", Path: path, Err: err})
				}
				defer f.Close()

				var resolve defs.Resolver
				if suffix != "" {
					resolve = defs.SuffixResolver(suffix)
				}
				task := store.ImportAsync(s.ctx, f, format, resolve, nil)
				s.out.VerboseLog("import task %s queued", task.ID())
				if err := task.Wait(s.ctx); err != nil {
					return s.out.Fail(fmt.Sprintf("failed to import %s", path), err)
				}
				if err := store.Save(s.ctx); err != nil {
					return s.out.Fail("failed to save", err)
				}

				items, err := store.List()
				if err != nil {
					return s.out.Fail(fmt.Sprintf("failed to list %s", c.kind), err)
				}
				return s.out.Success(result{
					data: map[string]any{"kind": c.kind, "file": path, "count": len(items)},
					text: fmt.Sprintf("imported %s; %d %s now", path, len(items), c.kind),
				})
			})
		},
	}

	cmd.Flags().StringVar(&suffix, "rename-suffix", "", "rename conflicting incoming entries by appending this suffix")
	cmd.Flags().StringVar(&as, "as", "", "file format: json|yaml (default from extension)")
	return cmd
}

func (c collection[E]) exportCommand(opts *RootOptions) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:           "export <file>",
		Short:         fmt.Sprintf("Export %s to a file", c.kind),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return withStore(opts, cmd, c, func(s *session, store *defs.Store[E]) error {
				format, err := formatFor(path, as)
				if err != nil {
					return s.out.Fail("invalid --as", &configError{err: err})
				}

				var buf bytes.Buffer
				var res defs.ExportResult
				task := store.ExportAsync(s.ctx, &buf, format, &res, nil)
				s.out.VerboseLog("export task %s queued", task.ID())
				if err := task.Wait(s.ctx); err != nil {
					return s.out.Fail(fmt.Sprintf("failed to export %s", c.kind), err)
				}
				if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
					return s.out.Fail("failed to write export file", &storage.IOError{Op: "write", Path: path, Err: err})
				}
				return s.out.Success(result{
					data: res,
					text: fmt.Sprintf("exported %d %s to %s (digest %s)", res.Count, c.kind, path, res.Digest),
				})
			})
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "file format: json|yaml (default from extension)")
	return cmd
}

// formatFor picks the interchange format from the --as flag or, when it
// is empty, from the file extension.
func formatFor(path, as string) (defs.Format, error) {
	if as != "" {
		return defs.ParseFormat(as)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return defs.FormatYAML, nil
	default:
		return defs.FormatJSON, nil
	}
}
