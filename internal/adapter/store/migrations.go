package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchema = []byte("schema")

// SchemaInfo records what produced the persisted index.
type SchemaInfo struct {
	Version   int    `json:"version"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
	NList     int    `json:"nlist"`
}

func getSchemaInfo(tx *bbolt.Tx) (*SchemaInfo, error) {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return nil, nil
	}
	data := b.Get(keySchema)
	if data == nil {
		return nil, nil
	}
	var info SchemaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("corrupt schema info: %w", err)
	}
	return &info, nil
}

func putSchemaInfo(tx *bbolt.Tx, info *SchemaInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keySchema, data)
}

// checkSchema decides whether a persisted index can be used with the
// configured embedding model and dimension.
func (s *Store) checkSchema(info *SchemaInfo) error {
	if info.Version > CurrentSchemaVersion {
		return fmt.Errorf("index created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
	}
	if info.Dimension != s.opts.Dimension {
		return fmt.Errorf("%w: index holds %d-dimensional vectors, embedder produces %d",
			domain.ErrDimensionMismatch, info.Dimension, s.opts.Dimension)
	}
	if info.Model != "" && s.opts.Model != "" && info.Model != s.opts.Model {
		s.log.Warn("index was built with a different embedding model, run ingest --reset to rebuild",
			"index_model", info.Model, "configured_model", s.opts.Model)
	}
	return nil
}

func (s *Store) schemaInfo() *SchemaInfo {
	return &SchemaInfo{
		Version:   CurrentSchemaVersion,
		Model:     s.opts.Model,
		Dimension: s.opts.Dimension,
		NList:     s.index.NList(),
	}
}
