package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"
)

// CachedClient stores embeddings in badger keyed by the text, so re-running
// an ingestion does not recompute vectors for unchanged players.
type CachedClient struct {
	next  Client
	db    *badger.DB
	model string
}

// NewCachedClient opens (or creates) a badger store in dir. An empty dir
// keeps the cache in memory. model names the vectors next produces; entries
// written under one model are never returned for another.
func NewCachedClient(next Client, dir, model string) (*CachedClient, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	return &CachedClient{next: next, db: db, model: model}, nil
}

// Embed returns cached vectors where present and embeds the rest in one call.
func (c *CachedClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	err := c.db.View(func(txn *badger.Txn) error {
		for i, text := range texts {
			item, err := txn.Get(c.key(text))
			if errors.Is(err, badger.ErrKeyNotFound) {
				missing = append(missing, text)
				missingIdx = append(missingIdx, i)
				continue
			}
			if err != nil {
				return err
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[i] = decodeVector(raw)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache read failed: %w", err)
	}

	if len(missing) == 0 {
		return out, nil
	}

	fresh, err := c.next.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		for j, vec := range fresh {
			out[missingIdx[j]] = vec
			if err := txn.Set(c.key(missing[j]), encodeVector(vec)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache write failed: %w", err)
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (c *CachedClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the wrapped client's dimensions.
func (c *CachedClient) Dimensions() int {
	return c.next.Dimensions()
}

// Close closes the cache and the wrapped client.
func (c *CachedClient) Close() error {
	err := c.db.Close()
	if cerr := c.next.Close(); err == nil {
		err = cerr
	}
	return err
}

// Keys are the length-prefixed model name, the dimension count and the text
// digest.
func (c *CachedClient) key(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	key := make([]byte, 0, 8+len(c.model)+len(sum))
	key = binary.BigEndian.AppendUint32(key, uint32(len(c.model)))
	key = append(key, c.model...)
	key = binary.BigEndian.AppendUint32(key, uint32(c.next.Dimensions()))
	return append(key, sum[:]...)
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
