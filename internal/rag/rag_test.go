package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/funnair-assistant/internal/domain"
)

// hashEmbedder is a deterministic bag-of-words embedder
type hashEmbedder struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (e *hashEmbedder) Name() string { return "hash" }

func (e *hashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = bagOfWords(t)
	}
	return out, nil
}

func bagOfWords(text string) []float32 {
	vec := make([]float32, 128)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		w = strings.TrimSuffix(w, "s")
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%128]++
	}
	return vec
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]float32
	hits int
}

func (c *memCache) Get(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[text]
	if ok {
		c.hits++
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, text string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[text] = vec
	return nil
}

const policyDoc = `Funnair Terms of Service

Booking changes. A booking can be changed up to 24 hours before departure. A change fee of 50 USD applies to economy tickets. Business class changes are free of charge.

Cancellations and refunds. A booking can be cancelled up to 48 hours before departure. Refunds are issued to the original form of payment within 7 business days. Cancellation fees depend on the fare class.

Baggage allowance. Every passenger may check two bags of up to 23 kg each. Checked bags above the allowance cost 75 USD per extra bag. Carry-on baggage is limited to one cabin bag and one personal item.

Seat selection. Seats can be chosen free of charge at check-in. Extra legroom seats are sold for a fee and are refunded only if the flight is cancelled by Funnair.

Pets. Small pets travel in the cabin in an approved carrier. Larger animals travel in the hold and must be booked 72 hours in advance.`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terms.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRecursiveSplitter(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := NewRecursiveSplitter(1000, 200).Split("  hello world  ")
		assert.Equal(t, []string{"hello world"}, chunks)
	})

	t.Run("paragraphs are kept whole when they fit", func(t *testing.T) {
		chunks := NewRecursiveSplitter(40, 0).Split("first paragraph here\n\nsecond paragraph here")
		assert.Equal(t, []string{"first paragraph here", "second paragraph here"}, chunks)
	})

	t.Run("size and overlap", func(t *testing.T) {
		words := make([]string, 0, 200)
		for i := 0; i < 200; i++ {
			words = append(words, "word"+string(rune('a'+i%26)))
		}
		s := NewRecursiveSplitter(100, 20)
		chunks := s.Split(strings.Join(words, " "))
		require.Greater(t, len(chunks), 1)

		for i, c := range chunks {
			assert.LessOrEqual(t, len(c), 100, "chunk %d too long", i)
			if i == 0 {
				continue
			}
			prev := strings.Fields(chunks[i-1])
			// 3 words of 5 chars plus separators is the most that fits in 20
			assert.Equal(t, prev[len(prev)-3:], strings.Fields(c)[:3], "chunk %d does not overlap its predecessor", i)
		}
	})

	t.Run("long word is cut", func(t *testing.T) {
		chunks := NewRecursiveSplitter(10, 0).Split(strings.Repeat("x", 25))
		assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
	})

	t.Run("policy document", func(t *testing.T) {
		chunks := NewRecursiveSplitter(300, 60).Split(policyDoc)
		require.Greater(t, len(chunks), 2)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 300)
		}
	})
}

func TestIndex_Search(t *testing.T) {
	ix := NewIndex([]domain.Chunk{
		{Index: 0, Content: "a", Embedding: []float32{1, 0}},
		{Index: 1, Content: "b", Embedding: []float32{0, 1}},
		{Index: 2, Content: "c", Embedding: []float32{1, 1}},
		{Index: 3, Content: "d", Embedding: []float32{1, 1}},
		{Index: 4, Content: "zero", Embedding: []float32{0, 0}},
		{Index: 5, Content: "wrong dims", Embedding: []float32{1, 0, 0}},
	})

	hits := ix.Search([]float32{1, 0.9}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, "c", hits[0].Chunk.Content)
	assert.Equal(t, "d", hits[1].Chunk.Content)
	assert.Equal(t, "a", hits[2].Chunk.Content)
	assert.GreaterOrEqual(t, hits[1].Score, hits[2].Score)

	assert.Len(t, ix.Search([]float32{1, 0}, 10), 4)
	assert.Empty(t, ix.Search([]float32{0, 0}, 3))
	assert.Empty(t, NewIndex(nil).Search([]float32{1, 0}, 4))

	var nilIndex *Index
	assert.Equal(t, 0, nilIndex.Len())
}

func newTestService(t *testing.T, embedder *hashEmbedder, path string, opts ...Option) *Service {
	t.Helper()
	return NewService(Config{
		DocumentPath: path,
		ChunkSize:    300,
		ChunkOverlap: 60,
		TopK:         4,
		BatchSize:    2,
	}, embedder, opts...)
}

func TestService_BaggageQuestion(t *testing.T) {
	svc := newTestService(t, &hashEmbedder{}, writeDoc(t, policyDoc))

	results := svc.Search(context.Background(), "how many bags can I check")
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 4)

	found := false
	for _, r := range results {
		if strings.Contains(r, "Baggage allowance") {
			found = true
		}
	}
	assert.True(t, found, "baggage section missing from %q", results)
	assert.Contains(t, results[0], "bags")

	stats := svc.Stats()
	assert.True(t, stats.Ready)
	assert.Greater(t, stats.Chunks, 2)
}

func TestService_Degrades(t *testing.T) {
	ctx := context.Background()

	t.Run("missing document", func(t *testing.T) {
		svc := newTestService(t, &hashEmbedder{}, filepath.Join(t.TempDir(), "nope.txt"))
		assert.Equal(t, []string{}, svc.Search(ctx, "bags"))
		assert.True(t, svc.Stats().Ready)
		assert.Equal(t, 0, svc.Stats().Chunks)
	})

	t.Run("embedding failure is permanent", func(t *testing.T) {
		embedder := &hashEmbedder{err: errors.New("quota exceeded")}
		svc := newTestService(t, embedder, writeDoc(t, policyDoc))

		assert.Empty(t, svc.Search(ctx, "bags"))
		embedder.err = nil
		assert.Empty(t, svc.Search(ctx, "bags"))
		assert.Equal(t, int32(1), embedder.calls.Load())
	})

	t.Run("no embedder", func(t *testing.T) {
		svc := NewService(Config{DocumentPath: writeDoc(t, policyDoc), ChunkSize: 300, ChunkOverlap: 60}, nil)
		assert.Empty(t, svc.Search(ctx, "bags"))
	})

	t.Run("not built yet", func(t *testing.T) {
		svc := newTestService(t, &hashEmbedder{}, writeDoc(t, policyDoc))
		assert.False(t, svc.Stats().Ready)
	})
}

func TestService_BuildsOnce(t *testing.T) {
	embedder := &hashEmbedder{delay: 20 * time.Millisecond}
	svc := newTestService(t, embedder, writeDoc(t, policyDoc))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Search(ctx, "refund")
		}()
	}
	wg.Wait()

	chunks := svc.Stats().Chunks
	buildCalls := (chunks + 1) / 2 // BatchSize is 2
	assert.Equal(t, int32(buildCalls+10), embedder.calls.Load())
}

func TestService_CallerGivesUpBuildContinues(t *testing.T) {
	embedder := &hashEmbedder{delay: 50 * time.Millisecond}
	svc := newTestService(t, embedder, writeDoc(t, policyDoc))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	assert.Empty(t, svc.Search(ctx, "refund"))

	assert.Eventually(t, func() bool { return svc.Stats().Ready }, 5*time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, svc.Search(context.Background(), "refund"))
}

func TestService_QueryCache(t *testing.T) {
	cache := &memCache{data: map[string][]float32{}}
	embedder := &hashEmbedder{}
	svc := newTestService(t, embedder, writeDoc(t, policyDoc), WithQueryCache(cache))
	ctx := context.Background()

	svc.Warm(ctx)
	before := embedder.calls.Load()

	first := svc.Search(ctx, "pets in the cabin")
	second := svc.Search(ctx, "pets in the cabin")

	assert.Equal(t, first, second)
	assert.Equal(t, before+1, embedder.calls.Load())
	assert.Equal(t, 1, cache.hits)
}
