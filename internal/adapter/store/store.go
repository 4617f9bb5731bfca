// Package store persists chunk metadata alongside the IVF vector index
// and drives the bootstrap to trained lifecycle of the index.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ricksonbnd/QuimIAca/internal/adapter/ivf"
	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/logger"
)

const (
	// RetrainThreshold is the chunk count at which the bootstrap index is
	// rebuilt from the real corpus.
	RetrainThreshold = 1000
	// BootstrapLists is the cluster count of the placeholder index.
	BootstrapLists = 16
	// BootstrapSamples is the number of synthetic training vectors.
	BootstrapSamples = 256

	defaultNProbe = 8
)

// ErrReadOnly is returned by mutating calls on a store opened read-only.
var ErrReadOnly = errors.New("store opened read-only")

// Options configures a Store.
type Options struct {
	IndexPath    string
	MetadataPath string
	StatusPath   string

	Dimension int
	Model     string
	NProbe    int

	// ReadOnly loads a snapshot under a shared lock and releases the file.
	ReadOnly    bool
	LockTimeout time.Duration
	Seed        uint64
	Logger      *slog.Logger
}

// Store implements port.ChunkStore on a bbolt index file, a JSON metadata
// list and a JSON training flag.
type Store struct {
	opts Options
	log  *slog.Logger
	rng  *rand.Rand

	mu        sync.RWMutex
	db        *bbolt.DB
	index     *ivf.Index // nil while absent
	chunks    []domain.Chunk
	sources   map[string]struct{}
	trained   bool
	committed int
}

// Open opens the store. A writer bootstraps an empty index when none is
// persisted; a reader of an absent store stays absent.
func Open(opts Options) (*Store, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("store dimension must be positive, got %d", opts.Dimension)
	}
	if opts.NProbe <= 0 {
		opts.NProbe = defaultNProbe
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	s := &Store{
		opts:    opts,
		log:     opts.Logger,
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		sources: make(map[string]struct{}),
	}

	indexExists := fileExists(opts.IndexPath)
	metaExists := fileExists(opts.MetadataPath)

	if opts.ReadOnly {
		if !indexExists || !metaExists {
			return s, nil
		}
		db, err := openBolt(opts.IndexPath, true, opts.LockTimeout)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		// Metadata is read while the shared lock is held so no writer can
		// commit between the two reads.
		if err := s.load(db); err != nil {
			return nil, err
		}
		return s, nil
	}

	if indexExists && metaExists {
		db, err := openBolt(opts.IndexPath, false, opts.LockTimeout)
		if err != nil {
			return nil, err
		}
		if err := s.load(db); err != nil {
			db.Close()
			return nil, err
		}
		s.db = db
		return s, nil
	}

	if indexExists || metaExists {
		s.log.Warn("incomplete index on disk, starting over",
			"index", opts.IndexPath, "index_exists", indexExists, "metadata_exists", metaExists)
		if err := removeIfExists(opts.IndexPath); err != nil {
			return nil, err
		}
	}
	if err := s.bootstrap(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(db *bbolt.DB) error {
	info, ix, err := readIndex(db)
	if err != nil {
		return err
	}
	if err := s.checkSchema(info); err != nil {
		return err
	}

	chunks, err := readMetadata(s.opts.MetadataPath)
	if err != nil {
		return err
	}
	if len(chunks) > ix.Len() {
		return fmt.Errorf("%w: %d metadata entries but %d vectors", domain.ErrStoreOutOfSync, len(chunks), ix.Len())
	}
	for i, c := range chunks {
		if c.VectorID != i {
			return fmt.Errorf("%w: chunk %s at position %d has vector id %d", domain.ErrStoreOutOfSync, c.ID, i, c.VectorID)
		}
	}

	// Vectors are committed before metadata, so extra trailing vectors are
	// the remains of an interrupted commit. The metadata wins.
	if extra := ix.Len() - len(chunks); extra > 0 {
		s.log.Warn("dropping vectors of an interrupted commit", "vectors", extra, "chunks", len(chunks))
		ix.Truncate(len(chunks))
		if !s.opts.ReadOnly {
			if err := deleteVectors(db, len(chunks)); err != nil {
				return fmt.Errorf("failed to drop orphan vectors: %w", err)
			}
		}
	}

	trained, err := readStatus(s.opts.StatusPath)
	if err != nil {
		s.log.Warn("unreadable training flag, assuming bootstrap index", "path", s.opts.StatusPath, "error", err)
		trained = false
	}

	s.index = ix
	s.chunks = chunks
	s.committed = len(chunks)
	s.trained = trained
	s.rebuildSources()

	s.log.Debug("loaded vector index", "chunks", len(chunks), "lists", ix.NList(), "state", s.state().String())
	return nil
}

// bootstrap creates a placeholder-trained index so additions are valid
// before enough real data exists.
func (s *Store) bootstrap() error {
	if s.db == nil {
		db, err := openBolt(s.opts.IndexPath, false, s.opts.LockTimeout)
		if err != nil {
			return err
		}
		s.db = db
	}

	ix := ivf.New(s.opts.Dimension)
	samples := ivf.RandomSamples(BootstrapSamples, s.opts.Dimension, s.rng)
	if err := ix.Train(context.Background(), samples, BootstrapLists, s.rng); err != nil {
		return fmt.Errorf("failed to train bootstrap index: %w", err)
	}

	s.index = ix
	s.chunks = nil
	s.committed = 0
	s.trained = false
	s.sources = make(map[string]struct{})

	if err := writeIndex(s.db, ix, s.schemaInfo()); err != nil {
		return fmt.Errorf("failed to persist bootstrap index: %w", err)
	}
	if err := writeMetadata(s.opts.MetadataPath, nil); err != nil {
		return err
	}
	if err := writeStatus(s.opts.StatusPath, false); err != nil {
		return err
	}

	s.log.Info("created bootstrap index", "dimension", s.opts.Dimension, "lists", ix.NList())
	return nil
}

func (s *Store) rebuildSources() {
	s.sources = make(map[string]struct{}, len(s.chunks))
	for _, c := range s.chunks {
		s.sources[c.Source] = struct{}{}
	}
}

func (s *Store) Sources() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.sources))
	for k := range s.sources {
		out[k] = struct{}{}
	}
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Store) State() domain.TrainingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state()
}

func (s *Store) state() domain.TrainingState {
	if s.trained {
		return domain.StateTrained
	}
	return domain.StateBootstrap
}

// Chunks returns a copy of the metadata list in vector id order.
func (s *Store) Chunks() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Chunk(nil), s.chunks...)
}

// Append gives each chunk the next vector id and adds its vector. The
// batch is staged in memory until Commit.
func (s *Store) Append(chunks []domain.Chunk, vectors [][]float32) ([]domain.Chunk, error) {
	if s.opts.ReadOnly {
		return nil, ErrReadOnly
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("append: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != s.opts.Dimension {
			return nil, fmt.Errorf("%w: vector %d has %d components, index expects %d",
				domain.ErrDimensionMismatch, i, len(v), s.opts.Dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		if err := s.bootstrap(); err != nil {
			return nil, err
		}
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	first, err := s.index.Add(vectors)
	if err != nil {
		return nil, err
	}
	if first != len(s.chunks) {
		s.index.Truncate(first)
		return nil, fmt.Errorf("%w: next vector id %d but %d chunks", domain.ErrStoreOutOfSync, first, len(s.chunks))
	}

	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.VectorID = first + i
		out[i] = c
		s.sources[c.Source] = struct{}{}
	}
	s.chunks = append(s.chunks, out...)
	return out, nil
}

// Commit persists the staged batch, vectors first and metadata second.
// On failure the batch is dropped from memory and disk.
func (s *Store) Commit() error {
	if s.opts.ReadOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil || len(s.chunks) == s.committed {
		return nil
	}

	if err := appendVectors(s.db, s.index, s.committed, len(s.chunks)); err != nil {
		s.discard()
		return fmt.Errorf("failed to persist vectors: %w", err)
	}
	if err := writeMetadata(s.opts.MetadataPath, s.chunks); err != nil {
		if derr := deleteVectors(s.db, s.committed); derr != nil {
			s.log.Error("failed to roll back vectors", "error", derr)
		}
		s.discard()
		return err
	}

	s.log.Debug("committed chunks", "added", len(s.chunks)-s.committed, "total", len(s.chunks))
	s.committed = len(s.chunks)
	return nil
}

func (s *Store) discard() {
	s.index.Truncate(s.committed)
	s.chunks = s.chunks[:s.committed]
	s.rebuildSources()
}

// MaybeRetrain rebuilds the index on every stored vector once the chunk
// count reaches RetrainThreshold. It runs at most once per corpus.
func (s *Store) MaybeRetrain(ctx context.Context) (bool, error) {
	if s.opts.ReadOnly {
		return false, ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.trained || s.index == nil || len(s.chunks) < RetrainThreshold {
		return false, nil
	}
	if len(s.chunks) != s.committed {
		return false, fmt.Errorf("retrain with %d uncommitted chunks", len(s.chunks)-s.committed)
	}

	vectors := make([][]float32, s.index.Len())
	copy(vectors, s.index.Vectors())

	nlist := ivf.ListsFor(len(vectors))
	s.log.Info("retraining index on full corpus", "vectors", len(vectors), "lists", nlist)

	rebuilt := ivf.New(s.opts.Dimension)
	if err := rebuilt.Train(ctx, vectors, nlist, s.rng); err != nil {
		return false, fmt.Errorf("failed to train index: %w", err)
	}
	if _, err := rebuilt.Add(vectors); err != nil {
		return false, err
	}

	previous := s.index
	s.index = rebuilt
	if err := writeIndex(s.db, rebuilt, s.schemaInfo()); err != nil {
		s.index = previous
		return false, fmt.Errorf("failed to persist retrained index: %w", err)
	}
	if err := writeStatus(s.opts.StatusPath, true); err != nil {
		return false, err
	}
	s.trained = true
	return true, nil
}

// Search returns the k nearest chunks to query, nearest first.
func (s *Store) Search(query []float32, k int) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil || s.index.Len() == 0 {
		return nil, domain.ErrIndexNotReady
	}
	if len(query) != s.opts.Dimension {
		return nil, fmt.Errorf("%w: query has %d components, index expects %d",
			domain.ErrDimensionMismatch, len(query), s.opts.Dimension)
	}

	neighbors, err := s.index.Search(query, k, s.opts.NProbe)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, len(neighbors))
	for i, n := range neighbors {
		c := s.chunks[n.ID]
		hits[i] = domain.SearchHit{
			Text:     c.Text,
			Source:   c.Source,
			Ordinal:  c.Ordinal,
			Distance: n.Distance,
			VectorID: n.ID,
			Rank:     i + 1,
		}
	}
	return hits, nil
}

// Reset deletes the index file, metadata and training flag. The store is
// absent afterwards and bootstraps again on the next Append.
func (s *Store) Reset() error {
	if s.opts.ReadOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}
	for _, p := range []string{s.opts.IndexPath, s.opts.MetadataPath, s.opts.StatusPath} {
		if err := removeIfExists(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}

	s.index = nil
	s.chunks = nil
	s.committed = 0
	s.trained = false
	s.sources = make(map[string]struct{})
	s.log.Info("index reset")
	return nil
}

// Remove deletes the persisted index, metadata and training flag named by
// opts without loading them, so a store that no longer opens (dimension
// change, out of sync) can still be wiped. It fails with ErrLocked while
// another process holds the index.
func Remove(opts Options) error {
	if opts.ReadOnly {
		return ErrReadOnly
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	if fileExists(opts.IndexPath) {
		db, err := openBolt(opts.IndexPath, false, opts.LockTimeout)
		if err != nil {
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
	}
	for _, p := range []string{opts.IndexPath, opts.MetadataPath, opts.StatusPath} {
		if err := removeIfExists(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
