package command

import (
	"slices"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/core/format"
	"github.com/yndnr/tablesh/internal/storage"
)

type tableInfo struct {
	Name      string `json:"name" yaml:"name"`
	Formatter string `json:"formatter" yaml:"formatter"`
	Current   bool   `json:"current" yaml:"current"`
}

func (s *Shell) tableCommands() []*cli.Command {
	tableFlag := &cli.StringFlag{Name: "table", Aliases: []string{"t"}, Usage: "table to operate on (default: current table)"}

	return []*cli.Command{
		{
			Name:      "table",
			Usage:     "Switch to a table",
			ArgsUsage: "<tableName>",
			Action:    s.useTable,
		},
		{
			Name:   "tables",
			Usage:  "List tables",
			Action: s.listTables,
		},
		{
			Name:      "createtable",
			Usage:     "Create a table and switch to it",
			ArgsUsage: "<tableName>",
			Action:    s.createTable,
		},
		{
			Name:      "deletetable",
			Usage:     "Delete a table",
			ArgsUsage: "<tableName>",
			Action:    s.deleteTable,
		},
		{
			Name:  "config",
			Usage: "Show or change table properties",
			Flags: []cli.Flag{
				tableFlag,
				&cli.StringFlag{Name: "set", Aliases: []string{"s"}, Usage: "set property `key=value`"},
				&cli.StringFlag{Name: "delete", Aliases: []string{"d"}, Usage: "remove property `key`"},
			},
			Action: s.tableConfig,
		},
	}
}

func (s *Shell) useTable(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return s.session.UseTable(c.Context, c.Args().First())
}

func (s *Shell) listTables(c *cli.Context) error {
	tables, err := s.session.Tables()
	if err != nil {
		return err
	}
	names, err := tables.List(c.Context)
	if err != nil {
		return err
	}

	current := s.session.CurrentTable()
	rows := make([]tableInfo, 0, len(names))
	for _, name := range names {
		props, err := tables.Properties(c.Context, name)
		if err != nil {
			return err
		}
		f := props[storage.PropFormatter]
		if f == "" {
			f = format.DefaultFormatterName
		}
		rows = append(rows, tableInfo{Name: name, Formatter: f, Current: name == current})
	}
	return s.print(rows)
}

func (s *Shell) createTable(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	tables, err := s.session.Tables()
	if err != nil {
		return err
	}
	name := c.Args().First()
	if err := tables.Create(c.Context, name); err != nil {
		return err
	}
	return s.session.UseTable(c.Context, name)
}

func (s *Shell) deleteTable(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	tables, err := s.session.Tables()
	if err != nil {
		return err
	}
	name := c.Args().First()
	if err := tables.Delete(c.Context, s.session, name); err != nil {
		return err
	}
	s.session.ForgetTable(name)
	return nil
}

func (s *Shell) tableConfig(c *cli.Context) error {
	tables, err := s.session.Tables()
	if err != nil {
		return err
	}
	table := s.tableFlag(c)
	if table == "" {
		return domain.ErrNoCurrentTable
	}

	set, del := c.String("set"), c.String("delete")
	switch {
	case set != "" && del != "":
		return domain.ErrUsage.WithDetails("config takes one of -s or -d")
	case set != "":
		key, value, ok := strings.Cut(set, "=")
		if !ok || key == "" {
			return domain.ErrInvalidArgument.WithDetailsf("%q: expected key=value", set)
		}
		if key == storage.PropFormatter && !slices.Contains(format.Names(), value) {
			return domain.ErrUnknownFormatter.WithDetailsf("%q, one of %s", value, strings.Join(format.Names(), ", "))
		}
		return tables.SetProperty(c.Context, table, key, value)
	case del != "":
		return tables.RemoveProperty(c.Context, table, del)
	}

	props, err := tables.Properties(c.Context, table)
	if err != nil {
		return err
	}
	return s.print(props)
}
