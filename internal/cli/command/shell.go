package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tablesh/internal/cli/connection"
	"github.com/yndnr/tablesh/internal/cli/output"
	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/core/format"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
	"github.com/yndnr/tablesh/internal/telemetry/metric"
)

// Shell runs the commands typed into the interactive shell against one
// session.
type Shell struct {
	session        *connection.Manager
	metrics        *metric.Registry
	format         output.Format
	showTimestamps bool
	out            io.Writer
	errOut         io.Writer
	logger         logger.Logger
}

// ShellOption configures a Shell.
type ShellOption func(*Shell)

// WithOutput sets the streams command output and diagnostics go to.
func WithOutput(out, errOut io.Writer) ShellOption {
	return func(s *Shell) {
		s.out = out
		s.errOut = errOut
	}
}

// WithFormat sets the output format of listing commands.
func WithFormat(f output.Format) ShellOption {
	return func(s *Shell) {
		s.format = f
	}
}

// WithShowTimestamps makes scan show timestamps without -st.
func WithShowTimestamps(show bool) ShellOption {
	return func(s *Shell) {
		s.showTimestamps = show
	}
}

// WithShellMetrics sets the registry reported by the stats command.
func WithShellMetrics(reg *metric.Registry) ShellOption {
	return func(s *Shell) {
		s.metrics = reg
	}
}

// WithShellLogger sets the shell logger.
func WithShellLogger(l logger.Logger) ShellOption {
	return func(s *Shell) {
		s.logger = l
	}
}

// NewShell creates a shell over session.
func NewShell(session *connection.Manager, opts ...ShellOption) *Shell {
	s := &Shell{
		session: session,
		format:  output.FormatTable,
		out:     os.Stdout,
		errOut:  os.Stderr,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs one command given as argv.
func (s *Shell) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	return s.app().RunContext(ctx, append([]string{"tablesh"}, args...))
}

// CommandNames returns the names and aliases of every shell command.
func (s *Shell) CommandNames() []string {
	var names []string
	for _, cmd := range s.commands() {
		names = append(names, cmd.Names()...)
	}
	sort.Strings(names)
	return names
}

// Prompt renders the shell prompt for the current session state.
func (s *Shell) Prompt() string {
	if table := s.session.CurrentTable(); table != "" {
		return fmt.Sprintf("%s@tablesh %s> ", s.session.User(), table)
	}
	return fmt.Sprintf("%s@tablesh> ", s.session.User())
}

// TableNames lists the tables of the session for completion. Errors yield
// no candidates.
func (s *Shell) TableNames() []string {
	tables, err := s.session.Tables()
	if err != nil {
		return nil
	}
	names, err := tables.List(context.Background())
	if err != nil {
		return nil
	}
	return names
}

func (s *Shell) app() *cli.App {
	return &cli.App{
		Name:           "tablesh",
		Usage:          "tablesh shell",
		HideVersion:    true,
		Writer:         s.out,
		ErrWriter:      s.errOut,
		Commands:       s.commands(),
		ExitErrHandler: func(*cli.Context, error) {},
		OnUsageError:   usageError,
		Action: func(c *cli.Context) error {
			return domain.ErrUsage.WithDetailsf("unknown command %q, type help for a list", c.Args().First())
		},
	}
}

func (s *Shell) commands() []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, s.tableCommands()...)
	cmds = append(cmds, s.dataCommands()...)
	cmds = append(cmds, s.teeCommand())
	cmds = append(cmds, s.authCommands()...)
	cmds = append(cmds, s.systemCommands()...)
	cmds = append(cmds, &cli.Command{
		Name:    "exit",
		Aliases: []string{"quit"},
		Usage:   "Leave the shell",
		Action:  func(*cli.Context) error { return nil },
	})
	for _, cmd := range cmds {
		cmd.OnUsageError = usageError
	}
	return cmds
}

func usageError(_ *cli.Context, err error, _ bool) error {
	return domain.ErrUsage.WithCause(err)
}

// requireArgs fails with a usage error unless exactly n positional
// arguments were given.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return domain.ErrUsage.WithDetails(c.Command.Name + " " + c.Command.ArgsUsage)
	}
	return nil
}

// unescapeArgs decodes the positional arguments written in the escaped
// display form.
func unescapeArgs(c *cli.Context) ([][]byte, error) {
	out := make([][]byte, c.NArg())
	for i, a := range c.Args().Slice() {
		b, err := format.Unescape(a)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// tableFlag returns the -t flag or the current table.
func (s *Shell) tableFlag(c *cli.Context) string {
	if t := c.String("table"); t != "" {
		return t
	}
	return s.session.CurrentTable()
}

func (s *Shell) print(data any) error {
	return output.NewFormatter(s.format).Format(s.out, data)
}
