package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/d2verb/legion/internal/marine"
	bolt "go.etcd.io/bbolt"
)

const bucketMarines = "marines"

// Bolt stores one record per key in a bbolt database, keyed by ID.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketMarines))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Load returns every stored record in ID order.
func (b *Bolt) Load(ctx context.Context) ([]*marine.SpaceMarine, error) {
	records := []*marine.SpaceMarine{}
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketMarines)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var m marine.SpaceMarine
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("decode record %d: %w", unmarshalID(k), err)
			}
			records = append(records, &m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Save replaces the stored records with the given ones in a single transaction.
func (b *Bolt) Save(ctx context.Context, records []*marine.SpaceMarine) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketMarines)); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket([]byte(bucketMarines))
		if err != nil {
			return err
		}
		for _, m := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("encode record %d: %w", m.ID, err)
			}
			if err := bucket.Put(marshalID(m.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func marshalID(id int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return buf[:]
}

func unmarshalID(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key))
}
