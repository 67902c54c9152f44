// Package sqlite is the SQLite backed record store. Its single table keeps
// the DNS_Record layout (id, type, hostname, ip) so existing record
// databases can be served as they are.
package sqlite

import (
	"context"
	"fmt"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/haukened/homedns/internal/dns/domain"
	"github.com/haukened/homedns/internal/dns/repos/records"
)

const schema = `CREATE TABLE IF NOT EXISTS DNS_Record (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	hostname TEXT NOT NULL UNIQUE,
	ip TEXT NOT NULL
)`

// Store implements the record store on one SQLite connection. Access to the
// connection is serialized by mu.
type Store struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// New opens (or creates) the database at path and ensures the table exists.
func New(path string) (*Store, error) {
	conn, err := sqlite.OpenConn(
		path,
		sqlite.OpenCreate,
		sqlite.OpenReadWrite,
		sqlite.OpenWAL,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStore, path, err)
	}
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: create schema: %v", domain.ErrStore, err)
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// withConn runs fn with exclusive use of the connection, interrupting any
// statement still running when ctx is done.
func (s *Store) withConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(prev)
	return fn(s.conn)
}

func scanRecord(stmt *sqlite.Stmt) (domain.Record, error) {
	rrtype := domain.RRTypeFromString(stmt.ColumnText(1))
	if !rrtype.IsStorable() {
		return domain.Record{}, fmt.Errorf("record %d has unsupported type %q", stmt.ColumnInt64(0), stmt.ColumnText(1))
	}
	return domain.Record{
		ID:       uint64(stmt.ColumnInt64(0)),
		Type:     rrtype,
		Hostname: stmt.ColumnText(2),
		Value:    stmt.ColumnText(3),
	}, nil
}

// Lookup returns the record stored under hostname.
func (s *Store) Lookup(ctx context.Context, hostname string) (domain.Record, bool, error) {
	var (
		rec   domain.Record
		found bool
	)
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, type, hostname, ip FROM DNS_Record WHERE hostname = ? LIMIT 1`,
			&sqlitex.ExecOptions{
				Args: []any{records.LookupKey(hostname)},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					r, err := scanRecord(stmt)
					if err != nil {
						return err
					}
					rec, found = r, true
					return nil
				},
			})
	})
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("%w: lookup %q: %w", domain.ErrStore, hostname, err)
	}
	return rec, found, nil
}

// Insert validates and stores a new record. SQLite assigns the ID.
func (s *Store) Insert(ctx context.Context, rrtype domain.RRType, hostname, value string) (domain.Record, error) {
	rec, err := records.Prepare(rrtype, hostname, value)
	if err != nil {
		return domain.Record{}, err
	}

	err = s.withConn(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn,
			`INSERT INTO DNS_Record (type, hostname, ip) VALUES (?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{rec.Type.String(), rec.Hostname, rec.Value}},
		); err != nil {
			return err
		}
		rec.ID = uint64(conn.LastInsertRowID())
		return nil
	})
	switch {
	case err == nil:
		return rec, nil
	case sqlite.ErrCode(err) == sqlite.ResultConstraintUnique:
		return domain.Record{}, fmt.Errorf("%w: %s", domain.ErrConflict, rec.Hostname)
	default:
		return domain.Record{}, fmt.Errorf("%w: insert %q: %w", domain.ErrStore, rec.Hostname, err)
	}
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	var changed int
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn,
			`DELETE FROM DNS_Record WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{int64(id)}},
		); err != nil {
			return err
		}
		changed = conn.Changes()
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: delete %d: %w", domain.ErrStore, id, err)
	}
	if changed == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	return nil
}

// List returns all records in ID order.
func (s *Store) List(ctx context.Context) ([]domain.Record, error) {
	var out []domain.Record
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, type, hostname, ip FROM DNS_Record ORDER BY id`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					rec, err := scanRecord(stmt)
					if err != nil {
						return err
					}
					out = append(out, rec)
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", domain.ErrStore, err)
	}
	return out, nil
}
