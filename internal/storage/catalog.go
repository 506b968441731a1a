package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/tablesh/internal/core/domain"
)

// Well-known table properties.
const (
	// PropertyPrefix starts every table property key.
	PropertyPrefix = "table."

	// PropFormatter names the formatter used to display scans of the table.
	PropFormatter = "table.formatter"

	// PropVisibilityConstraint rejects writes whose visibility the writing
	// session cannot satisfy when set to "true".
	PropVisibilityConstraint = "table.constraint.visibility"
)

// ValidateTableName checks that name is usable as a table name.
func ValidateTableName(name string) error {
	if name == "" {
		return domain.ErrInvalidTableName.WithDetails("empty name")
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
			c == '_' || c == '.' || c == '-'
		if !ok {
			return domain.ErrInvalidTableName.WithDetailsf("%q: character %q not allowed", name, c)
		}
	}
	return nil
}

func newTableID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func lookupTableID(txn *badger.Txn, name string) (string, error) {
	item, err := txn.Get(catalogKey(name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", domain.ErrTableNotFound.WithDetails(name)
		}
		return "", domain.ErrStorage.WithCause(err)
	}
	id, err := item.ValueCopy(nil)
	if err != nil {
		return "", domain.ErrStorage.WithCause(err)
	}
	return string(id), nil
}

// TableID returns the internal id of a table.
func (s *Store) TableID(ctx context.Context, name string) (string, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		id, err = lookupTableID(txn, name)
		return err
	})
	return id, err
}

// CreateTable creates an empty table.
func (s *Store) CreateTable(ctx context.Context, name string) error {
	if err := ValidateTableName(name); err != nil {
		return err
	}

	id := newTableID()
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := lookupTableID(txn, name)
		if err == nil {
			return domain.ErrTableExists.WithDetails(name)
		}
		if !errors.Is(err, domain.ErrTableNotFound) {
			return err
		}
		return txn.Set(catalogKey(name), []byte(id))
	})
	if err != nil {
		return err
	}

	s.logger.Info("table created", "table", name, "id", id)
	return nil
}

// DeleteTable removes a table with all its data and properties.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	var id string
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		if id, err = lookupTableID(txn, name); err != nil {
			return err
		}
		return txn.Delete(catalogKey(name))
	})
	if err != nil {
		return err
	}

	if err := s.db.DropPrefix(dataTablePrefix(id), propertyTablePrefix(id)); err != nil {
		return domain.ErrStorage.WithDetails("drop table data").WithCause(err)
	}

	s.logger.Info("table deleted", "table", name, "id", id)
	return nil
}

// TableExists reports whether a table exists.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	_, err := s.TableID(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrTableNotFound) {
		return false, nil
	}
	return false, err
}

// ListTables returns all table names in sorted order.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = catalogPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[len(catalogPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func validatePropertyKey(key string) error {
	if !strings.HasPrefix(key, PropertyPrefix) || len(key) == len(PropertyPrefix) {
		return domain.ErrInvalidProperty.WithDetailsf("%q must start with %q", key, PropertyPrefix)
	}
	return nil
}

// SetProperty sets a table property, replacing any previous value.
func (s *Store) SetProperty(ctx context.Context, table, key, value string) error {
	if err := validatePropertyKey(key); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := lookupTableID(txn, table)
		if err != nil {
			return err
		}
		return txn.Set(propertyKey(id, key), []byte(value))
	})
	if err != nil {
		return err
	}

	s.logger.Debug("table property set", "table", table, "property", key)
	return nil
}

// RemoveProperty removes a table property. Removing an absent property
// is not an error.
func (s *Store) RemoveProperty(ctx context.Context, table, key string) error {
	if err := validatePropertyKey(key); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := lookupTableID(txn, table)
		if err != nil {
			return err
		}
		return txn.Delete(propertyKey(id, key))
	})
	if err != nil {
		return err
	}

	s.logger.Debug("table property removed", "table", table, "property", key)
	return nil
}

// Property returns a single table property.
func (s *Store) Property(ctx context.Context, table, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := lookupTableID(txn, table)
		if err != nil {
			return err
		}
		item, err := txn.Get(propertyKey(id, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value, found = string(v), true
		return nil
	})
	return value, found, err
}

// Properties returns all properties of a table.
func (s *Store) Properties(ctx context.Context, table string) (map[string]string, error) {
	props := make(map[string]string)
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := lookupTableID(txn, table)
		if err != nil {
			return err
		}
		prefix := propertyTablePrefix(id)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			props[string(item.Key()[len(prefix):])] = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return props, nil
}
