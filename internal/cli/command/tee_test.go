package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/core/format"
)

func TestTeeCommand(t *testing.T) {
	sh := newTestShell(t)
	sh.run(t, "createtable", "src")
	sh.run(t, "insert", "-ts", "1", "a", "cf", "cq", "x")
	sh.run(t, "insert", "-l", "A", "-ts", "2", "b", "cf", "cq", "y")

	sh.run(t, "tee", "mirror", "on")
	if got := sh.session.TeeTarget(); got != "mirror" {
		t.Errorf("tee target = %q, want mirror", got)
	}
	if got := sh.session.CurrentTable(); got != "src" {
		t.Errorf("tee should not change the current table, got %q", got)
	}

	want := "a cf:cq  1\tx\nb cf:cq A 2\ty\n"
	if got := sh.run(t, "scan", "-st"); got != want {
		t.Fatalf("scan src = %q, want %q", got, want)
	}
	if got := sh.run(t, "scan", "-st", "-t", "mirror"); got != want {
		t.Errorf("scan mirror = %q, want %q", got, want)
	}
	if !strings.Contains(sh.run(t, "tables"), format.TeeFormatterName) {
		t.Error("tables should list the tee formatter for src")
	}

	sh.run(t, "tee", "mirror", "off")
	if got := sh.session.TeeTarget(); got != "" {
		t.Errorf("tee target after off = %q", got)
	}
	if strings.Contains(sh.run(t, "tables"), format.TeeFormatterName) {
		t.Error("tee formatter still set after off")
	}
	if got := sh.run(t, "scan", "-st"); got != want {
		t.Errorf("scan after off = %q", got)
	}
}

func TestTeeCommand_Errors(t *testing.T) {
	sh := newTestShell(t)

	if err := sh.fail(t, "tee", "mirror", "on"); !errors.Is(err, domain.ErrNoCurrentTable) {
		t.Errorf("tee without a current table error = %v", err)
	}

	sh.run(t, "createtable", "src")
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no args", []string{"tee"}, domain.ErrUsage},
		{"one arg", []string{"tee", "mirror"}, domain.ErrUsage},
		{"three args", []string{"tee", "mirror", "on", "now"}, domain.ErrUsage},
		{"bad mode", []string{"tee", "mirror", "maybe"}, domain.ErrUsage},
		{"self", []string{"tee", "src", "on"}, domain.ErrSelfTee},
		{"bad name", []string{"tee", "a b", "on"}, domain.ErrInvalidTableName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sh.fail(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if !domain.IsConfigError(err) {
				t.Errorf("error %v should be a config error", err)
			}
		})
	}

	if err := sh.fail(t, "tee", "mirror"); !strings.Contains(err.Error(), "tee <tableName> <on|off>") {
		t.Errorf("usage error %q should show the syntax", err)
	}
	if got := sh.session.TeeTarget(); got != "" {
		t.Errorf("failed toggles changed the tee target to %q", got)
	}
	if names := sh.TableNames(); len(names) != 1 {
		t.Errorf("failed toggles created tables: %v", names)
	}
}

func TestTeeCommand_DeleteTarget(t *testing.T) {
	sh := newTestShell(t)
	sh.run(t, "createtable", "src")
	sh.run(t, "tee", "mirror", "on")

	sh.run(t, "deletetable", "mirror")
	if got := sh.session.TeeTarget(); got != "" {
		t.Errorf("tee target after deleting it = %q", got)
	}
	if got := sh.session.CurrentTable(); got != "src" {
		t.Errorf("current table = %q, want src", got)
	}
	if err := sh.fail(t, "scan"); !errors.Is(err, domain.ErrTeeTargetNotSet) {
		t.Errorf("scan without tee target error = %v, want ErrTeeTargetNotSet", err)
	}
}
