package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/tablesh/internal/cli/output"
	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/infra/buildinfo"
	"github.com/yndnr/tablesh/internal/storage"
	"github.com/yndnr/tablesh/internal/telemetry/metric"
)

// StatsReport is the output of the stats command.
type StatsReport struct {
	Store   *storage.Stats  `json:"store" yaml:"store"`
	Metrics []metric.Sample `json:"metrics" yaml:"metrics"`
}

func (s *Shell) systemCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "compact",
			Usage: "Reclaim space held by deleted and overwritten entries",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Usage: "table that must exist before compacting"},
			},
			Action: s.compact,
		},
		{
			Name:   "stats",
			Usage:  "Show store statistics and session counters",
			Action: s.stats,
		},
		{
			Name:   "version",
			Usage:  "Show version information",
			Action: s.version,
		},
	}
}

// compact runs value log GC. GC works on the whole store; -t only checks
// that the named table exists.
func (s *Shell) compact(c *cli.Context) error {
	store, err := s.session.Store()
	if err != nil {
		return err
	}
	if t := c.String("table"); t != "" {
		ok, err := store.TableExists(c.Context, t)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTableNotFound.WithDetails(t)
		}
	}

	var spinner *output.Spinner
	if isTerminal(s.errOut) {
		spinner = output.NewSpinner(s.errOut, "compacting")
		spinner.Start()
	}
	n, err := store.GC(c.Context)
	if spinner != nil {
		if err != nil {
			spinner.Fail("compaction")
		} else {
			spinner.Stop()
		}
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.out, "compacted: %d value log files rewritten\n", n)
	return err
}

func (s *Shell) stats(c *cli.Context) error {
	store, err := s.session.Store()
	if err != nil {
		return err
	}
	st, err := store.Stats(c.Context)
	if err != nil {
		return err
	}

	report := StatsReport{Store: st}
	if s.metrics != nil {
		if report.Metrics, err = s.metrics.Snapshot(); err != nil {
			return err
		}
	}
	if s.format != output.FormatTable {
		return s.print(report)
	}

	if err := s.print(st); err != nil {
		return err
	}
	if len(report.Metrics) == 0 {
		return nil
	}
	fmt.Fprintln(s.out)
	return s.print(report.Metrics)
}

func (s *Shell) version(*cli.Context) error {
	return s.print(buildinfo.Get())
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
