package vector

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Graph implements the interface.
var _ driven.VectorIndex = (*Graph)(nil)

// Graph parameters.
const (
	defaultM        = 16
	defaultEfSearch = 20
	defaultMl       = 0.25
)

// Graph is an HNSW graph over unit-length vectors keyed by string ids.
//
// Replaced and deleted ids are dropped from the id maps only; their nodes
// stay in the graph and are skipped in results.
type Graph struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[uint64]
	dims    int
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
	closed  bool
}

// graphMeta is persisted next to the exported graph.
type graphMeta struct {
	IDMap   map[string]uint64
	NextKey uint64
	Dims    int
}

// NewGraph creates an empty graph for vectors of dims dimensions.
func NewGraph(dims int) *Graph {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = defaultM
	g.EfSearch = defaultEfSearch
	g.Ml = defaultMl

	return &Graph{
		graph:  g,
		dims:   dims,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// Add inserts or replaces the vector for id.
func (g *Graph) Add(_ context.Context, id string, embedding []float32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return fmt.Errorf("%w: vector graph closed", domain.ErrIndexUnavailable)
	}
	if len(embedding) != g.dims {
		return fmt.Errorf("%w: embedding has %d dimensions, want %d", domain.ErrInvalidInput, len(embedding), g.dims)
	}

	if old, ok := g.idMap[id]; ok {
		delete(g.keyMap, old)
	}
	key := g.nextKey
	g.nextKey++

	vec := normalize(embedding)
	g.graph.Add(hnsw.MakeNode(key, vec))
	g.idMap[id] = key
	g.keyMap[key] = id
	return nil
}

// Delete removes a vector. Deleting a missing id is not an error.
func (g *Graph) Delete(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return fmt.Errorf("%w: vector graph closed", domain.ErrIndexUnavailable)
	}
	if key, ok := g.idMap[id]; ok {
		delete(g.keyMap, key)
		delete(g.idMap, id)
	}
	return nil
}

// Search returns up to k live ids nearest to query, most similar first.
func (g *Graph) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, fmt.Errorf("%w: vector graph closed", domain.ErrIndexUnavailable)
	}
	if len(query) != g.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", domain.ErrInvalidInput, len(query), g.dims)
	}
	if k <= 0 || len(g.idMap) == 0 {
		return []driven.VectorHit{}, nil
	}

	vec := normalize(query)
	// Orphaned nodes may crowd out live ones, so ask for enough to cover them.
	want := min(k+g.graph.Len()-len(g.idMap), g.graph.Len())
	nodes := g.graph.Search(vec, want)

	hits := make([]driven.VectorHit, 0, min(k, len(nodes)))
	for _, n := range nodes {
		id, ok := g.keyMap[n.Key]
		if !ok {
			continue
		}
		d := g.graph.Distance(vec, n.Value)
		hits = append(hits, driven.VectorHit{ID: id, Similarity: similarity(d)})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Len returns the number of live vectors.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.idMap)
}

// Close releases the graph.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.graph = nil
	return nil
}

// Save writes the graph to path and its id maps to path+".meta".
func (g *Graph) Save(path string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return fmt.Errorf("%w: vector graph closed", domain.ErrIndexUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if err := writeAtomic(path, func(f *os.File) error { return g.graph.Export(f) }); err != nil {
		return fmt.Errorf("export graph: %w", err)
	}
	meta := graphMeta{IDMap: g.idMap, NextKey: g.nextKey, Dims: g.dims}
	if err := writeAtomic(path+".meta", func(f *os.File) error { return gob.NewEncoder(f).Encode(meta) }); err != nil {
		return fmt.Errorf("save graph metadata: %w", err)
	}
	return nil
}

// LoadGraph reads a graph written by Save.
func LoadGraph(path string) (*Graph, error) {
	mf, err := os.Open(path + ".meta")
	if err != nil {
		return nil, fmt.Errorf("open graph metadata: %w", err)
	}
	defer mf.Close()
	var meta graphMeta
	if err := gob.NewDecoder(mf).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode graph metadata: %w", err)
	}

	g := NewGraph(meta.Dims)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()
	// Import needs an io.ByteReader.
	if err := g.graph.Import(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("import graph: %w", err)
	}

	g.idMap = meta.IDMap
	if g.idMap == nil {
		g.idMap = make(map[string]uint64)
	}
	g.nextKey = meta.NextKey
	for id, key := range g.idMap {
		g.keyMap[key] = id
	}
	return g, nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// normalize returns a unit-length copy of v.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	var sum float64
	for _, x := range out {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// similarity maps cosine distance, 0 to 2, onto 1 to 0.
func similarity(distance float32) float64 {
	s := 1 - float64(distance)/2
	return math.Max(0, math.Min(1, s))
}
