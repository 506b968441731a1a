package repl

import (
	"sort"
	"strings"
)

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
	// tableArgs lists commands whose first argument is a table name.
	tableArgs map[string]bool
	tables    func() []string
}

// NewCompleter creates a Completer for commands. tables lists the table
// names offered as arguments and may be nil.
func NewCompleter(commands []string, tables func() []string) *Completer {
	cmds := append([]string(nil), commands...)
	sort.Strings(cmds)
	return &Completer{
		commands: cmds,
		tableArgs: map[string]bool{
			"table":       true,
			"deletetable": true,
			"tee":         true,
		},
		tables: tables,
	}
}

// Complete returns the full lines that complete line. It satisfies
// liner.Completer.
func (c *Completer) Complete(line string) []string {
	fields := strings.Fields(line)
	trailing := strings.HasSuffix(line, " ")

	if len(fields) == 0 || (len(fields) == 1 && !trailing) {
		prefix := strings.TrimSpace(line)
		return matching(c.commands, prefix, "")
	}

	cmd := fields[0]
	argIndex := len(fields) - 1
	word := fields[len(fields)-1]
	if trailing {
		argIndex++
		word = ""
	}
	head := line[:len(line)-len(word)]

	switch {
	case argIndex == 1 && c.tableArgs[cmd] && c.tables != nil:
		return matching(c.tables(), word, head)
	case argIndex == 2 && cmd == "tee":
		return matching([]string{"off", "on"}, word, head)
	}
	return nil
}

func matching(candidates []string, prefix, head string) []string {
	var out []string
	for _, cand := range candidates {
		if strings.HasPrefix(cand, prefix) {
			out = append(out, head+cand)
		}
	}
	return out
}
