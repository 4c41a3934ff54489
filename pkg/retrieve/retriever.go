/*
Package retrieve implements the cultural metaphor retriever: given an
actionable sensory expression and the user's culture tags, it queries the
corpus index for candidate alternative expressions and ranks them by a
blend of retrieval similarity and cultural salience.

Provider or index failure never fails a request here: candidate starvation
is a recoverable state, the caller falls back to graph traversal alone.
*/
package retrieve

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/senseable-go/pkg/detect"
	"github.com/theapemachine/senseable-go/pkg/stores/qdrant"
	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

/*
Candidate is one retrieved substitution option.
*/
type Candidate struct {
	Text    string  `json:"text"`
	Culture string  `json:"culture"`
	Concept string  `json:"concept"`
	Score   float64 `json:"score"`
}

/*
Index abstracts the corpus vector index (qdrant in production).
*/
type Index interface {
	Search(ctx context.Context, queryVec []float32, cultures []string, limit int) ([]qdrant.Document, error)
}

/*
Embedder is the subset of the provider interface retrieval needs.
*/
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

/*
Reranker reorders candidates by relevance to the query. Optional; a nil
reranker keeps blended-score order.
*/
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate, topN int) ([]Candidate, error)
}

/*
Retriever coordinates query expansion, dense retrieval, cultural salience
blending, and reranking.
*/
type Retriever struct {
	embedder Embedder
	index    Index
	reranker Reranker
	cache    *Cache
	topK     int

	// salience multipliers for the blended score
	matchSalience  float64
	globalSalience float64
	otherSalience  float64
}

type RetrieverOption func(*Retriever)

func NewRetriever(embedder Embedder, index Index, options ...RetrieverOption) *Retriever {
	retriever := &Retriever{
		embedder:       embedder,
		index:          index,
		cache:          NewCache(defaultCacheTTL, defaultCacheSize),
		topK:           8,
		matchSalience:  1.0,
		globalSalience: 0.75,
		otherSalience:  0.5,
	}

	for _, option := range options {
		option(retriever)
	}

	return retriever
}

func WithTopK(topK int) RetrieverOption {
	return func(retriever *Retriever) { retriever.topK = topK }
}

func WithReranker(reranker Reranker) RetrieverOption {
	return func(retriever *Retriever) { retriever.reranker = reranker }
}

func WithCache(cache *Cache) RetrieverOption {
	return func(retriever *Retriever) { retriever.cache = cache }
}

/*
Retrieve returns up to topK candidates ordered descending by blended score.
Failures downstream degrade to an empty result, never an error.
*/
func (retriever *Retriever) Retrieve(
	ctx context.Context, expr detect.Expression, cultureTags []string,
) []Candidate {
	key := cacheKey(expr, cultureTags)
	if cached, ok := retriever.cache.get(key); ok {
		return cached
	}

	queries := expandQuery(expr)

	vectors, err := retriever.embedder.EmbedBatch(ctx, queries)
	if err != nil {
		log.Warn("retrieval embedding unavailable", "span", expr.Surface, "error", err)
		return nil
	}

	// Aggregate across expansions, keeping the best blended score per text.
	best := map[string]Candidate{}
	failures := 0

	for _, vector := range vectors {
		docs, err := retriever.index.Search(ctx, vector, cultureTags, retriever.topK*2)
		if err != nil {
			log.Warn("corpus index unavailable", "span", expr.Surface, "error", err)
			failures++
			continue
		}

		for _, doc := range docs {
			candidate := Candidate{
				Text:    doc.Text,
				Culture: doc.Culture,
				Concept: doc.Concept,
				Score:   doc.Score * retriever.salience(doc.Culture, cultureTags),
			}

			if existing, ok := best[candidate.Text]; !ok || candidate.Score > existing.Score {
				best[candidate.Text] = candidate
			}
		}
	}

	// a full outage is transient: never pin the empty result for the TTL
	if failures == len(vectors) {
		return nil
	}

	candidates := make([]Candidate, 0, len(best))
	for _, candidate := range best {
		candidates = append(candidates, candidate)
	}

	// Descending by score; lexicographic text on ties for reproducibility.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Text < candidates[j].Text
	})

	if retriever.reranker != nil && len(candidates) > 1 {
		reranked, err := retriever.reranker.Rerank(ctx, expr.Surface, candidates, retriever.topK)
		if err != nil {
			log.Warn("reranker unavailable, keeping blended order", "error", err)
		} else {
			candidates = reranked
		}
	}

	if len(candidates) > retriever.topK {
		candidates = candidates[:retriever.topK]
	}

	retriever.cache.put(key, candidates)

	return candidates
}

// salience scores how well a candidate's cultural provenance matches the
// user's tags.
func (retriever *Retriever) salience(culture string, tags []string) float64 {
	for _, tag := range tags {
		if strings.EqualFold(tag, culture) {
			return retriever.matchSalience
		}
	}

	if culture == "global" || culture == "" {
		return retriever.globalSalience
	}

	return retriever.otherSalience
}

// expandQuery produces the query variants submitted to the index: the
// surface form plus a few modality keywords to improve recall.
func expandQuery(expr detect.Expression) []string {
	queries := []string{expr.Surface}

	if entry, ok := taxonomy.Lexicon(expr.Modality); ok {
		limit := min(3, len(entry.BaseKeywords))
		for _, kw := range entry.BaseKeywords[:limit] {
			queries = append(queries, expr.Surface+" "+kw)
		}
	}

	return queries
}

func cacheKey(expr detect.Expression, tags []string) string {
	return strings.ToLower(expr.Surface) + "|" + string(expr.Modality) + "|" + strings.Join(tags, ",")
}
