// Package storage provides the sorted table store behind tablesh.
//
// Tables live in a single Badger v3 database split into three keyspaces:
//
//   - catalog: table name -> table id (a ULID)
//   - properties: (table id, key) -> value
//   - data: (table id, encoded key) -> value
//
// Encoded keys sort by row, column family, column qualifier and visibility
// ascending, then timestamp descending, so a prefix scan returns the
// newest version of each column first.
//
// Reads go through Cursor, a pull iterator over a consistent snapshot.
// Writes go through BatchWriter, which buffers mutations and commits them
// with a Badger WriteBatch when flushed or closed.
package storage
