package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/shlex"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/tablesh/internal/cli/config"
	"github.com/yndnr/tablesh/internal/cli/connection"
	"github.com/yndnr/tablesh/internal/cli/output"
	"github.com/yndnr/tablesh/internal/cli/repl"
	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/infra/buildinfo"
	"github.com/yndnr/tablesh/internal/infra/confloader"
	"github.com/yndnr/tablesh/internal/infra/shutdown"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
	"github.com/yndnr/tablesh/internal/telemetry/metric"
	"github.com/yndnr/tablesh/pkg/visibility"
)

const shutdownTimeout = 10 * time.Second

// App creates the tablesh application reading from stdin and writing to
// stdout and stderr.
func App() *cli.App {
	return NewApp(os.Stdin, os.Stdout, os.Stderr)
}

// NewApp creates the tablesh application over the given streams.
func NewApp(in io.Reader, out, errOut io.Writer) *cli.App {
	r := &runner{in: in, out: out, errOut: errOut}
	info := buildinfo.Get()

	return &cli.App{
		Name:      "tablesh",
		Usage:     "Interactive shell for a sorted table store",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildTime),
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Flags:     globalFlags(),
		Action:    r.run,
		Commands: []*cli.Command{
			{
				Name:   "shell",
				Usage:  "Start the interactive shell (default)",
				Action: r.run,
			},
			{
				Name:      "exec",
				Usage:     "Run one shell command and exit",
				ArgsUsage: "<command> [args...]",
				// The shell command parses its own flags.
				SkipFlagParsing: true,
				Action:          r.exec,
			},
			{
				Name:  "config",
				Usage: "Inspect the shell configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: r.configShow,
					},
					{
						Name:  "init",
						Usage: "Write a default configuration file",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
						},
						Action: r.configInit,
					},
				},
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(c *cli.Context) error {
					return output.NewFormatter(output.Format(c.String("output"))).Format(out, buildinfo.Get())
				},
			},
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Configuration file",
			EnvVars: []string{"TABLESH_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory holding the store",
		},
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "Keep the store in memory only",
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "Session user",
		},
		&cli.StringFlag{
			Name:  "auths",
			Usage: "Comma separated authorizations of the session",
		},
		&cli.StringFlag{
			Name:    "table",
			Aliases: []string{"t"},
			Usage:   "Table selected at start",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:    "execute",
			Aliases: []string{"e"},
			Usage:   "Run a command line and exit",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Run the commands in a file and exit",
		},
	}
}

// overrides maps the global flags that were set to configuration keys.
func overrides(c *cli.Context) map[string]any {
	m := map[string]any{}
	set := func(flag, key string, value any) {
		if c.IsSet(flag) {
			m[key] = value
		}
	}
	set("data-dir", "data_dir", c.String("data-dir"))
	set("in-memory", "in_memory", c.Bool("in-memory"))
	set("user", "user", c.String("user"))
	set("auths", "authorizations", visibility.ParseAuthorizations(c.String("auths")).Labels())
	set("table", "default_table", c.String("table"))
	set("log-level", "log.level", c.String("log-level"))
	set("output", "output", c.String("output"))
	return m
}

// runner holds the streams and the state built for one invocation.
type runner struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// session is an open store plus the shell bound to it.
type session struct {
	cfg      *config.CLIConfig
	log      logger.Logger
	shell    *Shell
	shutdown *shutdown.Handler
}

func (r *runner) open(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String("config"), overrides(c))
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: r.errOut})
	logger.SetDefault(log)

	reg := metric.NewRegistry()
	mgr := connection.NewManager(
		connection.WithLogger(log),
		connection.WithMetrics(reg),
		connection.WithTeeWriterConfig(cfg.Tee.WriterConfig()),
	)
	err = mgr.Connect(&connection.Connection{
		User:           cfg.User,
		Storage:        cfg.StoreConfig(),
		Authorizations: visibility.NewAuthorizations(cfg.Authorizations...),
	})
	if err != nil {
		return nil, err
	}

	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(func(context.Context) error {
		return mgr.Disconnect()
	})

	if cfg.DefaultTable != "" {
		if err := mgr.UseTable(c.Context, cfg.DefaultTable); err != nil {
			h.Shutdown()
			return nil, err
		}
	}

	shell := NewShell(mgr,
		WithOutput(r.out, r.errOut),
		WithFormat(output.Format(cfg.Output)),
		WithShowTimestamps(cfg.ShowTimestamps),
		WithShellMetrics(reg),
		WithShellLogger(log),
	)
	return &session{cfg: cfg, log: log, shell: shell, shutdown: h}, nil
}

func (r *runner) run(c *cli.Context) error {
	s, err := r.open(c)
	if err != nil {
		return err
	}
	defer s.shutdown.Shutdown()

	ctx, stop := s.shutdown.Context(c.Context)
	defer stop()

	if line := c.String("execute"); line != "" {
		return s.execLine(ctx, line)
	}
	if path := c.String("file"); path != "" {
		return s.execFile(ctx, path, r.out, r.errOut)
	}

	if path := c.String("config"); fileExists(path) {
		s.watchConfig(path, overrides(c))
	}

	hist := repl.NewHistory(s.cfg.HistoryFile, 0)
	loop := repl.New(s.shell.Execute,
		repl.WithIO(r.in, r.out, r.errOut),
		repl.WithPrompt(s.shell.Prompt),
		repl.WithCompleter(repl.NewCompleter(s.shell.CommandNames(), s.shell.TableNames)),
		repl.WithHistory(hist),
		repl.WithLogger(s.log),
	)
	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *runner) exec(c *cli.Context) error {
	if c.NArg() == 0 {
		return domain.ErrUsage.WithDetails("exec <command> [args...]")
	}
	s, err := r.open(c)
	if err != nil {
		return err
	}
	defer s.shutdown.Shutdown()

	ctx, stop := s.shutdown.Context(c.Context)
	defer stop()
	return s.shell.Execute(ctx, c.Args().Slice())
}

func (s *session) execLine(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return err
	}
	return s.shell.Execute(ctx, args)
}

// execFile runs a script through the plain REPL loop. Errors are printed
// and the script continues.
func (s *session) execFile(ctx context.Context, path string, out, errOut io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return repl.New(s.shell.Execute,
		repl.WithIO(f, out, errOut),
		repl.WithPrompt(func() string { return "" }),
		repl.WithLogger(s.log),
	).Run(ctx)
}

// watchConfig reloads the log level when the configuration file changes.
func (s *session) watchConfig(path string, flags map[string]any) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(s.log))
	if err != nil {
		s.log.Warn("config watcher unavailable", "error", err)
		return
	}
	if err := w.Watch(path); err != nil {
		s.log.Warn("cannot watch config file", "path", path, "error", err)
		w.Stop()
		return
	}
	w.OnChange(func(string) {
		cfg, err := config.Load(path, flags)
		if err != nil {
			s.log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		s.log.Info("log level reloaded", "level", cfg.Log.Level)
	})
	w.StartAsync()
	s.shutdown.OnShutdown(func(context.Context) error {
		return w.Stop()
	})
}

func (r *runner) configShow(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), overrides(c))
	if err != nil {
		return err
	}
	return output.NewFormatter(output.FormatYAML).Format(r.out, cfg)
}

func (r *runner) configInit(c *cli.Context) error {
	path := c.String("config")
	if fileExists(path) && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := config.Save(config.Default(), path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.out, "wrote %s\n", path)
	return err
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
