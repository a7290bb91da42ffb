package vector

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cookassist/backend/internal/metrics"
)

// Entry pairs a document ID with its embedding. The ID is a lookup key into
// the corpus store; the index does not own the document.
type Entry struct {
	DocumentID string
	Embedding  []float32
}

// Hit is one ranked result from TopK.
type Hit struct {
	DocumentID string
	Score      float64
}

// Index is a brute-force in-memory nearest-neighbor structure over corpus
// embeddings, ranked by cosine similarity. Queries take the read lock only;
// Build replaces the contents atomically under the write lock, so an index
// rebuild is mutually exclusive with in-flight queries.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []Entry
	norms     []float64
}

func NewIndex() *Index {
	return &Index{}
}

// Build replaces the current contents with the given entries. All embeddings
// must share one dimensionality. O(n).
func (idx *Index) Build(entries []Entry) error {
	var dimension int
	norms := make([]float64, len(entries))
	for i, e := range entries {
		if len(e.Embedding) == 0 {
			return fmt.Errorf("entry %s has an empty embedding", e.DocumentID)
		}
		if dimension == 0 {
			dimension = len(e.Embedding)
		} else if len(e.Embedding) != dimension {
			return fmt.Errorf("entry %s has dimension %d, index has %d",
				e.DocumentID, len(e.Embedding), dimension)
		}
		norms[i] = norm(e.Embedding)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.dimension = dimension
	idx.entries = entries
	idx.norms = norms
	metrics.IndexSize.Set(float64(len(entries)))
	return nil
}

// TopK returns up to k entries ranked by descending cosine similarity.
// Equal scores keep corpus insertion order so results are reproducible.
// An empty index yields an empty result, never an error.
func (idx *Index) TopK(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be > 0, got %d", k)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(query), idx.dimension)
	}

	queryNorm := norm(query)

	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, len(idx.entries))
	for i, e := range idx.entries {
		scores[i] = scored{pos: i, score: cosine(query, queryNorm, e.Embedding, idx.norms[i])}
	}

	// SliceStable keeps insertion order among equal scores.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if k > len(scores) {
		k = len(scores)
	}
	hits := make([]Hit, k)
	for i := 0; i < k; i++ {
		hits[i] = Hit{
			DocumentID: idx.entries[scores[i].pos].DocumentID,
			Score:      scores[i].score,
		}
	}
	return hits, nil
}

// Len reports the number of indexed entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Cosine computes dot(a,b) / (||a||*||b||). A zero-norm vector on either
// side scores exactly 0 rather than propagating NaN.
func Cosine(a, b []float32) float64 {
	return cosine(a, norm(a), b, norm(b))
}

func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	dot := 0.0
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func norm(v []float32) float64 {
	sum := 0.0
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
