// Package cli implements the build command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexjbarnes/build-cli/internal/auth"
	"github.com/alexjbarnes/build-cli/internal/config"
	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/alexjbarnes/build-cli/internal/logging"
	"github.com/alexjbarnes/build-cli/internal/machines"
	"github.com/alexjbarnes/build-cli/internal/output"
	"github.com/alexjbarnes/build-cli/internal/retry"
	"github.com/alexjbarnes/build-cli/internal/sshcmd"
	"github.com/alexjbarnes/build-cli/internal/state"
	"github.com/alexjbarnes/build-cli/internal/transport"
	"github.com/alexjbarnes/build-cli/internal/ui"
	"github.com/spf13/cobra"
)

// App holds what a single invocation needs. Collaborators are created on
// first use so commands that never touch the network or the token store
// do not pay for them.
type App struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer

	verbose bool
	quiet   bool
	format  string

	logger  *slog.Logger
	spinner *ui.Spinner
	printer *output.Printer

	// httpClient, when set, is shared by the identity provider and the
	// control plane clients.
	httpClient   *http.Client
	auth0BaseURL string

	store   state.Store
	auth0   *auth.Auth0Client
	tokens  *auth.TokenProvider
	machine *machines.Machine

	exec        func(argv []string) error
	openBrowser func(url string) error
	wait        func(ctx context.Context, d time.Duration) error
}

// NewApp creates an application writing results to stdout and progress,
// logs and errors to stderr.
func NewApp(cfg *config.Config, stdout, stderr io.Writer) *App {
	return &App{
		cfg:         cfg,
		stdout:      stdout,
		stderr:      stderr,
		logger:      logging.Discard(),
		spinner:     ui.NewWithMode(stderr, ui.ModeQuiet),
		printer:     output.NewPrinter(stdout, output.FormatJSON),
		exec:        sshcmd.Exec,
		openBrowser: auth.OpenBrowser,
		wait:        retry.Sleep,
	}
}

// Execute runs the command line args under ctx.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.RootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	return root.ExecuteContext(ctx)
}

// Close releases the token store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}

	return a.store.Close()
}

// setup applies the global flags. It runs before every command.
func (a *App) setup() error {
	format, err := output.ParseFormat(a.format)
	if err != nil {
		return err
	}

	a.logger = logging.NewLogger(a.cfg.Environment, a.verbose, a.stderr)
	a.spinner = ui.New(a.stderr, a.quiet)
	a.printer = output.NewPrinter(a.stdout, format)

	return nil
}

func (a *App) client(timeout time.Duration) *http.Client {
	if a.httpClient != nil {
		return a.httpClient
	}

	return transport.NewHTTPClient(timeout)
}

func (a *App) auth0Client() *auth.Auth0Client {
	if a.auth0 != nil {
		return a.auth0
	}

	a.auth0 = auth.NewAuth0Client(auth.Config{
		ClientID: a.cfg.Auth0ClientID,
		Domain:   a.cfg.Auth0Domain,
		Scope:    a.cfg.Auth0Scope,
		Audience: a.cfg.Auth0Audience,
	}, a.client(a.cfg.HTTPTimeout), a.logger)

	if a.auth0BaseURL != "" {
		a.auth0.SetBaseURL(a.auth0BaseURL)
	}

	return a.auth0
}

func (a *App) tokenProvider() (*auth.TokenProvider, error) {
	if a.tokens != nil {
		return a.tokens, nil
	}

	if a.store == nil {
		s, err := state.Open(a.cfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("opening token store: %w", err)
		}

		a.store = s
	}

	a.tokens = auth.NewTokenProvider(a.store, a.auth0Client(), a.logger)

	return a.tokens, nil
}

func (a *App) machineControl() (*machines.Machine, error) {
	if a.machine != nil {
		return a.machine, nil
	}

	tokens, err := a.tokenProvider()
	if err != nil {
		return nil, err
	}

	// Calls carry their own deadlines, so the transport has none.
	client := machines.NewClient(a.cfg.APIURL, tokens, a.client(0), a.logger)
	client.SetDefaultTimeout(a.cfg.HTTPTimeout)

	a.machine = machines.NewMachine(client, a.cfg.IPCacheTTL)

	return a.machine, nil
}

func (a *App) sshBuilder(m *machines.Machine) *sshcmd.Builder {
	return sshcmd.NewBuilder(a.cfg, m, m.SSHKeys(), a.logger)
}

// startMachine is the recovery continuation used when an operation finds
// the machine stopped.
func (a *App) startMachine(m *machines.Machine) func(ctx context.Context) (bool, error) {
	auto := machines.AutoStart{
		Machine: m,
		Region:  a.cfg.Region,
		Size:    a.cfg.Size,
		Grace:   a.cfg.MachineStartGrace,
		Logger:  a.logger,
		Wait:    a.wait,
	}

	return func(ctx context.Context) (bool, error) {
		return ui.Spin(ctx, a.spinner, startMachineTask, auto.Run)
	}
}

// spin runs a control plane call behind the spinner, discarding the
// response body.
func (a *App) spin(cmd *cobra.Command, task ui.Task, op func(ctx context.Context) (machines.Response, error)) error {
	_, err := ui.Spin(cmd.Context(), a.spinner, task, op)
	return err
}

// handOff replaces the process with the shell command in argv.
func (a *App) handOff(argv []string) error {
	a.logger.Debug("executing", slog.String("shell", "/bin/sh"), slog.String("command", argv[len(argv)-1]))

	return a.exec(argv)
}

// PrintError writes err and, when one applies, its recovery hint.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)

	if hint := builderr.Hint(err); hint != "" {
		fmt.Fprintln(w, hint)
	}
}
