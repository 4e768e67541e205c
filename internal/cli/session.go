package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/customs/internal/config"
	"github.com/roach88/customs/internal/defs"
	"github.com/roach88/customs/internal/record"
	"github.com/roach88/customs/internal/storage"
)

// configError marks failures to build the configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// session is the state shared by one command invocation: its output, its
// configuration and the opened storage.
type session struct {
	ctx     context.Context
	out     *OutputFormatter
	cfg     config.Config
	storage storage.Storage
}

// newSession configures logging, resolves the configuration and opens
// storage. The caller must call close.
func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if out.Format == "" {
		out.Format = "text"
	}
	setupLogging(cmd, opts.Verbose)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, out.Fail("invalid configuration", &configError{err: err})
	}
	out.VerboseLog("backend=%s root=%s", cfg.Backend, cfg.Root)

	st, err := storage.New(ctx, cfg.Storage())
	if err != nil {
		return nil, out.Fail("failed to open storage", err)
	}
	return &session{ctx: ctx, out: out, cfg: cfg, storage: st}, nil
}

func (s *session) close() {
	if c, ok := s.storage.(storage.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Error("error closing storage", "error", err)
		}
	}
}

// storeOptions returns the definitions store options for the session.
func (s *session) storeOptions() []defs.Option {
	opts := []defs.Option{
		defs.WithAutoSave(s.cfg.AutoSave),
		defs.WithWorkers(s.cfg.Workers),
	}
	// Validated by config.Load.
	if codec, err := record.CodecFor(s.cfg.Codec); err == nil {
		opts = append(opts, defs.WithCodec(codec))
	}
	return opts
}

// resolveConfig loads the environment configuration and applies the
// flags that were set.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	return config.Load(func(cfg *config.Config) {
		if opts.Root != "" {
			cfg.Root = opts.Root
		}
		if opts.Backend != "" {
			cfg.Backend = opts.Backend
		}
		if opts.Workers > 0 {
			cfg.Workers = opts.Workers
		}
		if opts.AutoSave {
			cfg.AutoSave = true
		}
	})
}

// setupLogging sends slog output to the command's stderr. Verbose enables
// debug records; otherwise only warnings and errors are shown.
func setupLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
