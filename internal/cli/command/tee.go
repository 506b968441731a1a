package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/tablesh/internal/core/service"
)

func (s *Shell) teeCommand() *cli.Command {
	return &cli.Command{
		Name:      "tee",
		Usage:     "Copy every entry scanned from the current table into another table",
		ArgsUsage: "<tableName> <on|off>",
		Description: "With on, scans of the current table also write each displayed entry\n" +
			"into tableName, which is created when missing. With off, scans of the\n" +
			"current table display only.",
		Action: s.tee,
	}
}

func (s *Shell) tee(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	mode, err := service.ParseTeeMode(c.Args().Get(1))
	if err != nil {
		return err
	}
	svc, err := s.session.Tee()
	if err != nil {
		return err
	}

	req := &service.ToggleRequest{
		Source: s.session.CurrentTable(),
		Target: c.Args().Get(0),
		Mode:   mode,
	}
	if err := svc.Toggle(c.Context, s.session, req); err != nil {
		return err
	}
	s.logger.Info("tee toggled", "source", req.Source, "target", req.Target, "mode", mode.String())
	return nil
}
