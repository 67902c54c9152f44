// Package bolt is the bbolt backed record store.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/homedns/internal/dns/domain"
	"github.com/haukened/homedns/internal/dns/repos/records"
)

var (
	// bucketRecords maps a big-endian record ID to the JSON encoded record.
	bucketRecords = []byte("records")
	// bucketHostnames maps a hostname to its record ID and enforces uniqueness.
	bucketHostnames = []byte("hostnames")
)

// bucketCreator is the part of *bbolt.Tx used to set up buckets.
type bucketCreator interface {
	CreateBucketIfNotExists(name []byte) (*bbolt.Bucket, error)
}

func ensureBuckets(tx bucketCreator) error {
	for _, name := range [][]byte{bucketRecords, bucketHostnames} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("create bucket %q: %w", name, err)
		}
	}
	return nil
}

// ensureBucketsFn is swapped in tests to exercise setup failures.
var ensureBucketsFn = ensureBuckets

// ErrLocked is returned by New when another process holds the database open.
var ErrLocked = errors.New("bolt database is locked by another process; stop the server or use the sqlite backend")

// openTimeout bounds the wait for the bbolt file lock.
var openTimeout = 1 * time.Second

// Store implements the record store on a single bbolt file. bbolt locks the
// file exclusively, so only one process can have it open.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if errors.Is(err, bbolt.ErrTimeout) {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrStore, path, ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStore, path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		return ensureBucketsFn(tx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Lookup returns the record stored under hostname.
func (s *Store) Lookup(ctx context.Context, hostname string) (domain.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, false, err
	}
	var (
		rec   domain.Record
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketHostnames).Get([]byte(records.LookupKey(hostname)))
		if id == nil {
			return nil
		}
		raw := tx.Bucket(bucketRecords).Get(id)
		if raw == nil {
			return fmt.Errorf("dangling hostname index for %q", hostname)
		}
		found = true
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("%w: lookup %q: %v", domain.ErrStore, hostname, err)
	}
	return rec, found, nil
}

// Insert validates and stores a new record under the next sequence ID.
func (s *Store) Insert(ctx context.Context, rrtype domain.RRType, hostname, value string) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}
	rec, err := records.Prepare(rrtype, hostname, value)
	if err != nil {
		return domain.Record{}, err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		names := tx.Bucket(bucketHostnames)
		if names.Get([]byte(rec.Hostname)) != nil {
			return fmt.Errorf("%w: %s", domain.ErrConflict, rec.Hostname)
		}
		recs := tx.Bucket(bucketRecords)
		seq, err := recs.NextSequence()
		if err != nil {
			return err
		}
		rec.ID = seq
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		key := idKey(seq)
		if err := recs.Put(key, raw); err != nil {
			return err
		}
		return names.Put([]byte(rec.Hostname), key)
	})
	if errors.Is(err, domain.ErrConflict) {
		return domain.Record{}, err
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: insert %q: %v", domain.ErrStore, rec.Hostname, err)
	}
	return rec, nil
}

// Delete removes the record with the given ID and its hostname index entry.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		recs := tx.Bucket(bucketRecords)
		key := idKey(id)
		raw := recs.Get(key)
		if raw == nil {
			return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		var rec domain.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if err := recs.Delete(key); err != nil {
			return err
		}
		return tx.Bucket(bucketHostnames).Delete([]byte(rec.Hostname))
	})
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: delete %d: %v", domain.ErrStore, id, err)
	}
	return nil
}

// List returns all records in ID order.
func (s *Store) List(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(_, v []byte) error {
			var rec domain.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", domain.ErrStore, err)
	}
	return out, nil
}

// idKey encodes an ID big-endian so bucket iteration follows ID order.
func idKey(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}
