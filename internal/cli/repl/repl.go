package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"
	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/yndnr/tablesh/internal/telemetry/logger"
)

// Executor runs one shell command given as argv.
type Executor func(ctx context.Context, args []string) error

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	errOutput io.Writer
	prompt    func() string
	exec      Executor
	completer *Completer
	history   *History
	logger    logger.Logger
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
		r.errOutput = errOut
	}
}

// WithPrompt sets the function that renders the prompt before each line.
func WithPrompt(prompt func() string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// WithCompleter enables tab completion on a terminal.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) {
		r.completer = c
	}
}

// WithHistory sets the command history.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *REPL) {
		r.logger = l
	}
}

// New creates a REPL that hands every line to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		errOutput: os.Stderr,
		prompt:    func() string { return "tablesh> " },
		exec:      exec,
		history:   NewHistory("", 0),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads and executes lines until exit, quit, end of input or ctx is
// cancelled. Command errors are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		r.logger.Warn("failed to load history", "error", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			r.logger.Warn("failed to save history", "error", err)
		}
	}()

	if f, ok := r.input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return r.runTerminal(ctx)
	}
	return r.runPlain(ctx)
}

func (r *REPL) runTerminal(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	if r.completer != nil {
		line.SetCompleter(r.completer.Complete)
	}
	for _, h := range r.history.Entries() {
		line.AppendHistory(h)
	}

	for ctx.Err() == nil {
		input, err := line.Prompt(r.prompt())
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input != "" {
			line.AppendHistory(input)
		}
		if done := r.handle(ctx, input); done {
			return nil
		}
	}
	return nil
}

func (r *REPL) runPlain(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for ctx.Err() == nil {
		fmt.Fprint(r.output, r.prompt())

		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if errors.Is(err, io.EOF) && input == "" {
			fmt.Fprintln(r.output)
			return nil
		}

		if done := r.handle(ctx, strings.TrimSpace(input)); done {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
	return nil
}

// handle executes one line and reports whether the loop should stop.
func (r *REPL) handle(ctx context.Context, input string) bool {
	if input == "" || strings.HasPrefix(input, "#") {
		return false
	}
	r.history.Add(input)

	args, err := shlex.Split(input)
	if err != nil {
		fmt.Fprintf(r.errOutput, "ERROR: %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}
	if args[0] == "exit" || args[0] == "quit" {
		return true
	}

	if err := r.exec(ctx, args); err != nil {
		fmt.Fprintf(r.errOutput, "ERROR: %v\n", err)
	}
	return false
}
