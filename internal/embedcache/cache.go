// Package embedcache maps text to embedding vectors, keyed by the sha256 of
// the normalized text. Vectors are kept in process memory and persisted in
// the store; the provider is only called on a miss in both.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kalambet/jobassist/internal/apperr"
	"github.com/kalambet/jobassist/internal/engine"
	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/storage"
)

// DefaultTimeout bounds a single load: the store lookup, the provider call
// and the write.
const DefaultTimeout = 15 * time.Second

// DefaultMaxEntries caps the in-process map. Evicted vectors are still read
// back from the store.
const DefaultMaxEntries = 4096

// batchLimit bounds concurrent provider calls in EmbedBatch.
const batchLimit = 4

// Store persists cache records. *storage.Store implements it.
type Store interface {
	GetEmbedding(ctx context.Context, hash string) (storage.EmbeddingRecord, error)
	InsertEmbedding(ctx context.Context, rec storage.EmbeddingRecord) (bool, error)
}

// Options configures a Cache. Zero values select defaults.
type Options struct {
	Timeout    time.Duration
	MaxEntries int
	Logger     *zap.Logger
}

type Cache struct {
	store      Store
	embedder   engine.Embedder
	timeout    time.Duration
	maxEntries int
	log        *zap.Logger

	mu  sync.RWMutex
	mem map[string][]float32

	group singleflight.Group
}

func New(store Store, embedder engine.Embedder, opts Options) *Cache {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	return &Cache{
		store:      store,
		embedder:   embedder,
		timeout:    opts.Timeout,
		maxEntries: opts.MaxEntries,
		log:        logger.OrNop(opts.Logger),
		mem:        make(map[string][]float32),
	}
}

// Normalize trims text and collapses internal whitespace runs to one space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Hash returns the hex sha256 of the normalized text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// GetOrCreate returns the vector for text, computing and storing it on a
// miss. Concurrent misses for the same text share one provider call, which
// is not cancelled when one of the waiting callers gives up. sourceID is
// recorded on newly created records only.
func (c *Cache) GetOrCreate(ctx context.Context, text, sourceID string) ([]float32, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return nil, apperr.New(apperr.DataMissing, "embed", "no text to embed")
	}
	hash := Hash(normalized)

	if vec, ok := c.lookup(hash); ok {
		return vec, nil
	}

	ch := c.group.DoChan(hash, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.load(loadCtx, hash, normalized, sourceID)
	})
	select {
	case <-ctx.Done():
		return nil, apperr.Upstream("embed", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]float32), nil
	}
}

func (c *Cache) lookup(hash string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.mem[hash]
	return vec, ok
}

func (c *Cache) remember(hash string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.mem[hash]; !ok && len(c.mem) >= c.maxEntries {
		for k := range c.mem {
			delete(c.mem, k)
			break
		}
	}
	c.mem[hash] = vec
}

func (c *Cache) load(ctx context.Context, hash, text, sourceID string) ([]float32, error) {
	rec, err := c.store.GetEmbedding(ctx, hash)
	switch {
	case err == nil:
		c.remember(hash, rec.Vector)
		return rec.Vector, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("reading embedding cache: %w", err)
	}

	start := time.Now()
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		c.log.Warn("embedding failed",
			zap.Int("text_len", len(text)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, apperr.Upstream("embed", err)
	}
	if len(vec) == 0 {
		return nil, apperr.New(apperr.UpstreamInvalid, "embed", "provider returned an empty vector")
	}
	c.log.Debug("embedding computed",
		zap.Int("text_len", len(text)),
		zap.Int("dims", len(vec)),
		zap.Duration("duration", time.Since(start)),
	)

	created, err := c.store.InsertEmbedding(ctx, storage.EmbeddingRecord{
		ContentHash: hash,
		Vector:      vec,
		SourceID:    sourceID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("writing embedding cache: %w", err)
	}
	if !created {
		// Lost the race to another writer; the stored vector wins.
		if rec, err := c.store.GetEmbedding(ctx, hash); err == nil {
			vec = rec.Vector
		}
	}

	c.remember(hash, vec)
	return vec, nil
}

// Item is one text to embed in a batch.
type Item struct {
	Text     string
	SourceID string
}

// EmbedBatch returns vectors for items in order, running at most four
// provider calls at a time. Returns nil for empty input.
func (c *Cache) EmbedBatch(ctx context.Context, items []Item) ([][]float32, error) {
	if len(items) == 0 {
		return nil, nil
	}
	results := make([][]float32, len(items))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit)

	for i, it := range items {
		g.Go(func() error {
			vec, err := c.GetOrCreate(gCtx, it.Text, it.SourceID)
			if err != nil {
				return fmt.Errorf("embedding item %d: %w", i, err)
			}
			results[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
