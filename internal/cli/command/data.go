package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/core/format"
	"github.com/yndnr/tablesh/internal/core/service"
	"github.com/yndnr/tablesh/pkg/visibility"
)

func (s *Shell) dataCommands() []*cli.Command {
	cellFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "visibility", Aliases: []string{"l"}, Usage: "visibility `expression` of the cell"},
			&cli.Int64Flag{Name: "timestamp", Aliases: []string{"ts"}, Usage: "cell timestamp in ms (default: now)"},
		}
	}

	return []*cli.Command{
		{
			Name:      "insert",
			Usage:     "Insert a cell into the current table",
			ArgsUsage: "<row> <colfamily> <colqualifier> <value>",
			Flags:     cellFlags(),
			Action:    s.insert,
		},
		{
			Name:      "delete",
			Usage:     "Delete a cell from the current table",
			ArgsUsage: "<row> <colfamily> <colqualifier>",
			Flags:     cellFlags(),
			Action:    s.deleteCell,
		},
		{
			Name:  "scan",
			Usage: "Scan a table through its formatter",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Usage: "table to scan (default: current table)"},
				&cli.BoolFlag{Name: "show-timestamps", Aliases: []string{"st"}, Usage: "display timestamps"},
				&cli.StringFlag{Name: "begin-row", Aliases: []string{"b"}, Usage: "first `row` to scan, inclusive"},
				&cli.StringFlag{Name: "end-row", Aliases: []string{"e"}, Usage: "last `row` to scan, inclusive"},
				&cli.StringFlag{Name: "columns", Aliases: []string{"c"}, Usage: "comma separated column `families`"},
				&cli.StringFlag{Name: "scan-authorizations", Aliases: []string{"s"}, Usage: "comma separated `labels` to scan with"},
				&cli.IntFlag{Name: "limit", Usage: "stop after `n` entries (0 scans everything)"},
			},
			Action: s.scan,
		},
	}
}

func (s *Shell) cellRequest(c *cli.Context, n int) (*service.CellRequest, error) {
	if err := requireArgs(c, n); err != nil {
		return nil, err
	}
	args, err := unescapeArgs(c)
	if err != nil {
		return nil, err
	}
	req := &service.CellRequest{
		Table:      s.session.CurrentTable(),
		Row:        args[0],
		Family:     args[1],
		Qualifier:  args[2],
		Visibility: []byte(c.String("visibility")),
	}
	if c.IsSet("timestamp") {
		ts := c.Int64("timestamp")
		req.Timestamp = &ts
	}
	if n > 3 {
		req.Value = args[3]
	}
	return req, nil
}

func (s *Shell) insert(c *cli.Context) error {
	tables, err := s.session.Tables()
	if err != nil {
		return err
	}
	req, err := s.cellRequest(c, 4)
	if err != nil {
		return err
	}
	return tables.Insert(c.Context, req)
}

func (s *Shell) deleteCell(c *cli.Context) error {
	tables, err := s.session.Tables()
	if err != nil {
		return err
	}
	req, err := s.cellRequest(c, 3)
	if err != nil {
		return err
	}
	return tables.DeleteCell(c.Context, req)
}

func (s *Shell) scanRequest(c *cli.Context) (*service.ScanRequest, error) {
	req := &service.ScanRequest{
		Table:          s.tableFlag(c),
		ShowTimestamps: s.showTimestamps || c.Bool("show-timestamps"),
	}
	if c.NArg() > 0 {
		return nil, domain.ErrUsage.WithDetails("scan takes no arguments")
	}

	var err error
	if b := c.String("begin-row"); b != "" {
		if req.Options.Range.StartRow, err = format.Unescape(b); err != nil {
			return nil, err
		}
	}
	if e := c.String("end-row"); e != "" {
		if req.Options.Range.EndRow, err = format.Unescape(e); err != nil {
			return nil, err
		}
	}
	if cols := c.String("columns"); cols != "" {
		for _, cf := range strings.Split(cols, ",") {
			b, err := format.Unescape(cf)
			if err != nil {
				return nil, err
			}
			req.Options.Families = append(req.Options.Families, b)
		}
	}
	if c.IsSet("scan-authorizations") {
		auths := visibility.ParseAuthorizations(c.String("scan-authorizations"))
		req.Options.Authorizations = &auths
	}
	return req, nil
}

// scan prints every formatted line. A failure while producing a line, such
// as a failed tee copy, stops the scan.
func (s *Shell) scan(c *cli.Context) error {
	scans, err := s.session.Scans()
	if err != nil {
		return err
	}
	req, err := s.scanRequest(c)
	if err != nil {
		return err
	}
	scan, err := scans.Open(c.Context, s.session, req)
	if err != nil {
		return err
	}
	defer scan.Close()

	limit := c.Int("limit")
	for n := 0; limit <= 0 || n < limit; n++ {
		ok, err := scan.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		line, err := scan.Next()
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, line)
	}
	return nil
}
