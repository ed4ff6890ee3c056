package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/llm"
)

// QueryCache stores query embeddings between requests. Get returns nil, nil
// on a miss.
type QueryCache interface {
	Get(ctx context.Context, text string) ([]float32, error)
	Set(ctx context.Context, text string, vec []float32) error
}

// Config controls how the policy document is indexed
type Config struct {
	DocumentPath string
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	BatchSize    int
}

// Stats describes the state of the index
type Stats struct {
	Ready    bool   `json:"ready"`
	Chunks   int    `json:"chunks"`
	Document string `json:"document"`
}

// Service answers policy questions from one reference document. The index
// is built once, on Warm or on the first Search, and never rebuilt. A build
// that fails leaves an empty index behind.
type Service struct {
	cfg      Config
	embedder llm.Embedder
	cache    QueryCache
	splitter *RecursiveSplitter

	group singleflight.Group
	index atomic.Pointer[Index]
}

// Option configures a Service
type Option func(*Service)

// WithQueryCache caches query embeddings
func WithQueryCache(c QueryCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// NewService creates a retrieval service. embedder may be nil, in which case
// every search comes back empty.
func NewService(cfg Config, embedder llm.Embedder, opts ...Option) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	s := &Service{
		cfg:      cfg,
		embedder: embedder,
		splitter: NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Warm builds the index now instead of on first use
func (s *Service) Warm(ctx context.Context) {
	_, _ = s.ensureIndex(ctx)
}

// Search returns the texts of the chunks closest to query, best first.
// It never fails; every problem degrades to an empty result.
func (s *Service) Search(ctx context.Context, query string) []string {
	ix, err := s.ensureIndex(ctx)
	if err != nil || ix.Len() == 0 {
		return []string{}
	}

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("failed to embed policy query")
		return []string{}
	}

	hits := ix.Search(vec, s.cfg.TopK)
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Chunk.Content)
	}

	log.Debug().
		Str("query", query).
		Int("hits", len(texts)).
		Msg("policy search")
	return texts
}

// Stats reports whether the index is built and how big it is
func (s *Service) Stats() Stats {
	ix := s.index.Load()
	return Stats{Ready: ix != nil, Chunks: ix.Len(), Document: s.cfg.DocumentPath}
}

// ensureIndex returns the index, building it at most once. Callers waiting
// on a build give up when their ctx ends; the build itself carries on.
func (s *Service) ensureIndex(ctx context.Context) (*Index, error) {
	if ix := s.index.Load(); ix != nil {
		return ix, nil
	}

	ch := s.group.DoChan("index", func() (any, error) {
		if ix := s.index.Load(); ix != nil {
			return ix, nil
		}
		ix := s.build(context.WithoutCancel(ctx))
		s.index.Store(ix)
		return ix, nil
	})

	select {
	case res := <-ch:
		return res.Val.(*Index), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) build(ctx context.Context) *Index {
	start := time.Now()

	chunks, err := s.load(ctx)
	if err != nil {
		log.Warn().
			Err(err).
			Str("document", s.cfg.DocumentPath).
			Msg("policy search disabled, serving an empty index")
		return NewIndex(nil)
	}

	log.Info().
		Str("document", s.cfg.DocumentPath).
		Int("chunks", len(chunks)).
		Dur("duration", time.Since(start)).
		Msg("policy index built")
	return NewIndex(chunks)
}

func (s *Service) load(ctx context.Context) ([]domain.Chunk, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", domain.ErrRetrievalUnavailable)
	}

	raw, err := os.ReadFile(s.cfg.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}

	texts := s.splitter.Split(string(raw))
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: document is empty", domain.ErrRetrievalUnavailable)
	}

	chunks := make([]domain.Chunk, len(texts))
	for start := 0; start < len(texts); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(texts))
		vecs, err := s.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrRetrievalUnavailable, len(vecs), end-start)
		}
		for i, v := range vecs {
			chunks[start+i] = domain.Chunk{Index: start + i, Content: texts[start+i], Embedding: v}
		}
	}
	return chunks, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.cache != nil {
		vec, err := s.cache.Get(ctx, query)
		if err != nil {
			log.Warn().Err(err).Msg("embedding cache read failed")
		} else if vec != nil {
			return vec, nil
		}
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errors.New("embedder returned no vector for query")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, query, vecs[0]); err != nil {
			log.Warn().Err(err).Msg("embedding cache write failed")
		}
	}
	return vecs[0], nil
}
