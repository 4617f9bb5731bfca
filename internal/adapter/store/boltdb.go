package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ricksonbnd/QuimIAca/internal/adapter/ivf"
	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

var (
	bucketMeta      = []byte("meta")
	bucketCentroids = []byte("centroids")
	bucketVectors   = []byte("vectors")
)

// ErrLocked is returned when another process holds the index file.
var ErrLocked = errors.New("index is locked by another process")

type storedVector struct {
	Vector []float32 `json:"v"`
	List   int       `json:"l"`
}

func openBolt(path string, readOnly bool, timeout time.Duration) (*bbolt.DB, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: timeout, ReadOnly: readOnly})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return db, nil
}

func idKey(id int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

// writeIndex replaces the whole persisted index with ix.
func writeIndex(db *bbolt.DB, ix *ivf.Index, info *SchemaInfo) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketCentroids, bucketVectors} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		if err := putSchemaInfo(tx, info); err != nil {
			return err
		}

		centroids := tx.Bucket(bucketCentroids)
		for i, c := range ix.Centroids() {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := centroids.Put(idKey(i), data); err != nil {
				return err
			}
		}

		return putVectors(tx, ix, 0, ix.Len())
	})
}

// appendVectors persists vectors [from, to) of ix.
func appendVectors(db *bbolt.DB, ix *ivf.Index, from, to int) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return putVectors(tx, ix, from, to)
	})
}

// deleteVectors removes vectors with id >= from.
func deleteVectors(db *bbolt.DB, from int) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		c := b.Cursor()
		for k, _ := c.Seek(idKey(from)); k != nil; k, _ = c.Seek(idKey(from)) {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func putVectors(tx *bbolt.Tx, ix *ivf.Index, from, to int) error {
	b := tx.Bucket(bucketVectors)
	if b == nil {
		return fmt.Errorf("vectors bucket not found")
	}
	vectors := ix.Vectors()
	for id := from; id < to; id++ {
		data, err := json.Marshal(storedVector{Vector: vectors[id], List: ix.List(id)})
		if err != nil {
			return err
		}
		if err := b.Put(idKey(id), data); err != nil {
			return err
		}
	}
	return nil
}

// readIndex loads schema info and the IVF index from db.
func readIndex(db *bbolt.DB) (*SchemaInfo, *ivf.Index, error) {
	var (
		info      *SchemaInfo
		centroids [][]float32
		vectors   [][]float32
		assign    []int
	)
	err := db.View(func(tx *bbolt.Tx) error {
		var err error
		if info, err = getSchemaInfo(tx); err != nil {
			return err
		}

		if b := tx.Bucket(bucketCentroids); b != nil {
			err := b.ForEach(func(k, v []byte) error {
				var c []float32
				if err := json.Unmarshal(v, &c); err != nil {
					return fmt.Errorf("corrupt centroid %x: %w", k, err)
				}
				centroids = append(centroids, c)
				return nil
			})
			if err != nil {
				return err
			}
		}

		if b := tx.Bucket(bucketVectors); b != nil {
			return b.ForEach(func(k, v []byte) error {
				if id := int(binary.BigEndian.Uint64(k)); id != len(vectors) {
					return fmt.Errorf("%w: vector id %d found at position %d", domain.ErrStoreOutOfSync, id, len(vectors))
				}
				var sv storedVector
				if err := json.Unmarshal(v, &sv); err != nil {
					return fmt.Errorf("corrupt vector %d: %w", len(vectors), err)
				}
				vectors = append(vectors, sv.Vector)
				assign = append(assign, sv.List)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if info == nil {
		return nil, nil, fmt.Errorf("index has no schema info")
	}

	ix, err := ivf.Restore(info.Dimension, centroids, vectors, assign)
	if err != nil {
		return nil, nil, err
	}
	return info, ix, nil
}
