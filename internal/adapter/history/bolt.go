// Package history keeps the append-only log of tutoring interactions.
package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

var bucketInteractions = []byte("interacoes")

// Log stores interactions in a bbolt file keyed by insertion sequence.
type Log struct {
	db *bbolt.DB
}

func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("history %s is in use by another process", path)
		}
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketInteractions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketInteractions, err)
	}
	return &Log{db: db}, nil
}

// Append records it, filling ID and CreatedAt when unset.
func (l *Log) Append(it domain.Interaction) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}

	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketInteractions)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(it)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}

// List returns every interaction in insertion order.
func (l *Log) List() ([]domain.Interaction, error) {
	var out []domain.Interaction
	err := l.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketInteractions).ForEach(func(k, v []byte) error {
			var it domain.Interaction
			if err := json.Unmarshal(v, &it); err != nil {
				return fmt.Errorf("corrupt interaction %x: %w", k, err)
			}
			out = append(out, it)
			return nil
		})
	})
	return out, err
}

// Export writes the log as an indented JSON list.
func (l *Log) Export(path string) (int, error) {
	items, err := l.List()
	if err != nil {
		return 0, err
	}
	if items == nil {
		items = []domain.Interaction{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (l *Log) Close() error {
	return l.db.Close()
}
