package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/pkg/visibility"
)

func (s *Shell) authCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "setauths",
			Usage: "Replace the authorizations of the session",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "scan-authorizations", Aliases: []string{"s"}, Usage: "comma separated `labels`"},
				&cli.BoolFlag{Name: "clear-authorizations", Aliases: []string{"c"}, Usage: "remove every label"},
			},
			Action: s.setAuths,
		},
		{
			Name:   "getauths",
			Usage:  "Show the authorizations of the session",
			Action: s.getAuths,
		},
		{
			Name:   "whoami",
			Usage:  "Show the session user",
			Action: s.whoami,
		},
	}
}

func (s *Shell) setAuths(c *cli.Context) error {
	set, reset := c.IsSet("scan-authorizations"), c.Bool("clear-authorizations")
	if set == reset {
		return domain.ErrUsage.WithDetails("setauths takes one of -s labels or -c")
	}
	auths := visibility.NewAuthorizations()
	if set {
		auths = visibility.ParseAuthorizations(c.String("scan-authorizations"))
	}
	return s.session.SetAuthorizations(auths)
}

func (s *Shell) getAuths(c *cli.Context) error {
	auths, err := s.session.Authorizations()
	if err != nil {
		return err
	}
	labels := auths.Labels()
	for i, l := range labels {
		labels[i] = visibility.Quote(l)
	}
	_, err = fmt.Fprintln(s.out, strings.Join(labels, ","))
	return err
}

func (s *Shell) whoami(*cli.Context) error {
	_, err := fmt.Fprintln(s.out, s.session.User())
	return err
}
