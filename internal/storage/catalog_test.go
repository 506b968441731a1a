package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/internal/telemetry/logger"
	"github.com/yndnr/tablesh/pkg/visibility"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig(), logger.Discard(), opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Config{}, logger.Discard())
	if err == nil {
		t.Fatal("Open() without dir should fail")
	}
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(DefaultConfig(dir), logger.Discard())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.CreateTable(ctx, "persisted"); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	s, err = Open(DefaultConfig(dir), logger.Discard())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	ok, err := s.TableExists(ctx, "persisted")
	if err != nil || !ok {
		t.Errorf("TableExists() = %v, %v; want true", ok, err)
	}
}

func TestCreateTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTable(ctx, "t1"); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	err := s.CreateTable(ctx, "t1")
	if !errors.Is(err, domain.ErrTableExists) {
		t.Errorf("duplicate CreateTable() error = %v, want ErrTableExists", err)
	}
	if !domain.IsConfigError(err) {
		t.Errorf("duplicate table should be a configuration error")
	}
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"t1", false},
		{"my_table.v2-x", false},
		{"", true},
		{"has space", true},
		{"semi;colon", true},
		{"tab\tle", true},
	}
	for _, tt := range tests {
		err := ValidateTableName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTableName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidTableName) {
			t.Errorf("ValidateTableName(%q) error = %v, want ErrInvalidTableName", tt.name, err)
		}
	}
}

func TestListTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.CreateTable(ctx, name); err != nil {
			t.Fatalf("CreateTable(%q) error = %v", name, err)
		}
	}

	got, err := s.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListTables() = %v, want %v", got, want)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Tables != 3 {
		t.Errorf("Stats().Tables = %d, want 3", st.Tables)
	}
}

func TestDeleteTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTable(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetProperty(ctx, "gone", PropFormatter, "tee"); err != nil {
		t.Fatal(err)
	}
	writeCells(t, s, "gone", cell{row: "r", cf: "f", cq: "q", ts: 1, value: "v"})

	if err := s.DeleteTable(ctx, "gone"); err != nil {
		t.Fatalf("DeleteTable() error = %v", err)
	}
	if ok, _ := s.TableExists(ctx, "gone"); ok {
		t.Error("table should no longer exist")
	}
	if err := s.DeleteTable(ctx, "gone"); !errors.Is(err, domain.ErrTableNotFound) {
		t.Errorf("second DeleteTable() error = %v, want ErrTableNotFound", err)
	}

	// A new table with the same name starts empty.
	if err := s.CreateTable(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	if got := scanAll(t, s, "gone", ScanOptions{}); len(got) != 0 {
		t.Errorf("recreated table has %d entries, want 0", len(got))
	}
	if _, found, _ := s.Property(ctx, "gone", PropFormatter); found {
		t.Error("recreated table kept an old property")
	}
}

func TestProperties(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTable(ctx, "t"); err != nil {
		t.Fatal(err)
	}

	if err := s.SetProperty(ctx, "t", PropFormatter, "tee"); err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}
	if err := s.SetProperty(ctx, "t", "table.custom", "x"); err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}

	v, found, err := s.Property(ctx, "t", PropFormatter)
	if err != nil || !found || v != "tee" {
		t.Errorf("Property() = %q, %v, %v; want tee, true, nil", v, found, err)
	}

	props, err := s.Properties(ctx, "t")
	if err != nil {
		t.Fatalf("Properties() error = %v", err)
	}
	want := map[string]string{PropFormatter: "tee", "table.custom": "x"}
	if !reflect.DeepEqual(props, want) {
		t.Errorf("Properties() = %v, want %v", props, want)
	}

	if err := s.RemoveProperty(ctx, "t", PropFormatter); err != nil {
		t.Fatalf("RemoveProperty() error = %v", err)
	}
	if err := s.RemoveProperty(ctx, "t", PropFormatter); err != nil {
		t.Errorf("removing an absent property should succeed, got %v", err)
	}
	if _, found, _ := s.Property(ctx, "t", PropFormatter); found {
		t.Error("property still present after removal")
	}
}

func TestProperties_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetProperty(ctx, "missing", PropFormatter, "tee"); !errors.Is(err, domain.ErrTableNotFound) {
		t.Errorf("SetProperty(missing table) error = %v, want ErrTableNotFound", err)
	}
	if err := s.CreateTable(ctx, "t"); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"formatter", "table.", ""} {
		if err := s.SetProperty(ctx, "t", key, "x"); !errors.Is(err, domain.ErrInvalidProperty) {
			t.Errorf("SetProperty(%q) error = %v, want ErrInvalidProperty", key, err)
		}
	}
}

func TestAuthorizations(t *testing.T) {
	s := newTestStore(t, WithAuthorizations(visibility.NewAuthorizations("A")))

	if !s.Authorizations().Contains([]byte("A")) {
		t.Fatal("initial authorizations not applied")
	}
	s.SetAuthorizations(visibility.NewAuthorizations("B", "C"))
	if got := s.Authorizations().String(); got != "B,C" {
		t.Errorf("Authorizations() = %q, want B,C", got)
	}
}

func TestGC_InMemorySkipped(t *testing.T) {
	s := newTestStore(t)
	n, err := s.GC(context.Background())
	if err != nil || n != 0 {
		t.Errorf("GC() = %d, %v; want 0, nil", n, err)
	}
}
