package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Makepad-fr/tada/internal/app"
	"github.com/Makepad-fr/tada/internal/apperr"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/memstore"
	"github.com/Makepad-fr/tada/internal/store/sqlitestore"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

var log = logging.NewLogger("cli")

// Options tune behaviour from root flags; empty values defer to the config.
type Options struct {
	ConfigFile string
	Store      string
	StorePath  string
	Theme      string
	Verbose    bool
}

// runtime holds what a command invocation loads lazily.
type runtime struct {
	opts  Options
	cfg   *config.Config
	store store.Store
	close func() error
}

func bindFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringVarP(&o.ConfigFile, "config", "c", "", "path to config file (default ~/.tada/config.yml)")
	fs.StringVar(&o.Store, "store", "", "store backend: json, sqlite or memory")
	fs.StringVar(&o.StorePath, "store-path", "", "path of the store file")
	fs.StringVar(&o.Theme, "theme", "", "colour theme: classic, neon or mono")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "enable debug logging")
}

// NewRootCmd builds the command tree. Running it without a subcommand opens
// the interactive view.
func NewRootCmd() (*cobra.Command, *runtime) {
	rt := &runtime{}
	cmd := &cobra.Command{
		Use:           "tada",
		Short:         "A tiny todo list with a login screen",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return apperr.InvalidInput(fmt.Sprintf("unknown subcommand: %s", args[0]))
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.openApp()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), a)
		},
	}
	bindFlags(cmd.PersistentFlags(), &rt.opts)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperr.Wrap(err, apperr.CodeInvalidInput, "bad flag")
	})

	cmd.AddCommand(
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newStatusCmd(rt),
		newAddCmd(rt),
		newListCmd(rt),
		newRemoveCmd(rt),
		newHTMLCmd(rt),
	)
	return cmd, rt
}

// setup loads configuration, applies flag overrides and configures logging
// and the theme.
func (rt *runtime) setup() error {
	cfg, err := config.Load(rt.opts.ConfigFile)
	if err != nil {
		return err
	}
	if rt.opts.Store != "" {
		cfg.Store.Backend = rt.opts.Store
	}
	if rt.opts.StorePath != "" {
		cfg.Store.Path = rt.opts.StorePath
	}
	if rt.opts.Theme != "" {
		cfg.Theme = rt.opts.Theme
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.Configure(cfg.Log); err != nil {
		return apperr.Wrap(err, apperr.CodeConfigInvalid, "logging")
	}
	if rt.opts.Verbose {
		logging.SetLevel(logrus.DebugLevel)
	}
	ui.SetTheme(cfg.Theme)
	rt.cfg = cfg
	log.WithFields(logrus.Fields{
		"backend": cfg.Store.Backend,
		"path":    cfg.StorePath(),
		"config":  cfg.Source,
	}).Debug("configured")
	return nil
}

func (rt *runtime) openStore() (store.Store, error) {
	if rt.store != nil {
		return rt.store, nil
	}
	switch rt.cfg.Store.Backend {
	case store.BackendMemory:
		rt.store = memstore.New()
	case store.BackendSQLite:
		s, err := sqlitestore.Open(rt.cfg.StorePath())
		if err != nil {
			return nil, err
		}
		rt.store, rt.close = s, s.Close
	default:
		rt.store = jsonstore.New(rt.cfg.StorePath())
	}
	return rt.store, nil
}

// openApp hydrates the app. A corrupt todo list aborts the command.
func (rt *runtime) openApp() (*app.App, error) {
	s, err := rt.openStore()
	if err != nil {
		return nil, err
	}
	return app.New(s, app.WithLoginDelay(rt.cfg.LoginDelay))
}

// openAppTolerant is openApp for commands that never write todos: a corrupt
// list is logged and the app carries on with an empty one.
func (rt *runtime) openAppTolerant() (*app.App, bool, error) {
	a, err := rt.openApp()
	if err != nil && a != nil && apperr.Is(err, apperr.CodeStoreCorrupt) {
		log.WithError(err).Warn("stored todos are corrupt")
		return a, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, false, nil
}

func (rt *runtime) shutdown() {
	if rt.close == nil {
		return
	}
	if err := rt.close(); err != nil {
		log.WithError(err).Warn("close store")
	}
	rt.close = nil
}

// Run executes the CLI with args and returns an exit code
// (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	cmd, rt := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	defer rt.shutdown()

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	ui.Fail(errOut, message(err))
	if hint := hintFor(err); hint != "" {
		fmt.Fprintln(errOut, ui.Current().Muted.Render(hint))
	}
	return exitCode(err)
}

// Execute runs the CLI against the process's standard streams.
func Execute(ctx context.Context) int {
	return Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func exitCode(err error) int {
	switch apperr.GetCode(err) {
	case apperr.CodeInvalidInput, apperr.CodeOutOfRange, apperr.CodeRejected:
		return 2
	}
	return 1
}

func message(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		if e.Cause != nil && e.Code != apperr.CodeStoreCorrupt {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

func hintFor(err error) string {
	switch apperr.GetCode(err) {
	case apperr.CodeOutOfRange:
		return "Hint: run `tada ls` to see valid indexes"
	case apperr.CodeStoreCorrupt:
		return "Hint: the store file was not modified; repair or remove it"
	}
	return ""
}
