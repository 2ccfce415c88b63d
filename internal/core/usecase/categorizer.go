package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kirillkom/book-library/internal/core/domain"
	"github.com/kirillkom/book-library/internal/core/ports"
)

const DefaultMinConfidence = 0.4

type CategorizerOptions struct {
	// MinConfidence is the similarity below which the result becomes Uncategorized.
	MinConfidence float64
	// Separator joins title and author into the embedded text.
	Separator string
}

func DefaultCategorizerOptions() CategorizerOptions {
	return CategorizerOptions{
		MinConfidence: DefaultMinConfidence,
		Separator:     " ",
	}
}

// SemanticCategorizer picks the configured category whose description embedding
// is closest to the embedding of a book's title and author.
//
// Category vectors are computed on first use and never change afterwards.
type SemanticCategorizer struct {
	embedder   ports.Embedder
	categories []domain.CategoryDefinition
	opts       CategorizerOptions

	initMu sync.Mutex
	index  atomic.Pointer[categoryIndex]
}

type categoryIndex struct {
	names   []string
	vectors [][]float32
	norms   []float64
}

func NewSemanticCategorizer(
	embedder ports.Embedder,
	categories []domain.CategoryDefinition,
	opts CategorizerOptions,
) *SemanticCategorizer {
	defined := make([]domain.CategoryDefinition, len(categories))
	copy(defined, categories)
	return &SemanticCategorizer{
		embedder:   embedder,
		categories: defined,
		opts:       opts,
	}
}

func (c *SemanticCategorizer) Categories() []domain.CategoryDefinition {
	out := make([]domain.CategoryDefinition, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *SemanticCategorizer) MinConfidence() float64 {
	return c.opts.MinConfidence
}

// Warmup builds the category vectors eagerly so that configuration errors
// surface at startup instead of on the first book.
func (c *SemanticCategorizer) Warmup(ctx context.Context) error {
	_, err := c.ensureIndex(ctx)
	return err
}

// Categorize embeds title and author joined by the separator and picks the
// most similar category whose score is strictly above the threshold. When the
// joined text is blank after trimming, no book embedding is requested and the
// result is Uncategorized with confidence 0. The category index is still built
// first, so a misconfigured embedder fails here either way.
func (c *SemanticCategorizer) Categorize(ctx context.Context, title, author string) (domain.CategoryAssignment, error) {
	index, err := c.ensureIndex(ctx)
	if err != nil {
		return domain.CategoryAssignment{}, err
	}

	text := strings.TrimSpace(title + c.opts.Separator + author)
	if text == "" {
		return domain.CategoryAssignment{Category: domain.CategoryUncategorized}, nil
	}

	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return domain.CategoryAssignment{}, fmt.Errorf("embed book text: %w", err)
	}
	if len(vector) != len(index.vectors[0]) {
		return domain.CategoryAssignment{}, domain.WrapError(
			domain.ErrMisconfigured,
			"categorize",
			fmt.Errorf("book vector has %d dimensions, categories have %d", len(vector), len(index.vectors[0])),
		)
	}

	bookNorm := vectorNorm(vector)
	bestIdx := 0
	bestScore := cosineSimilarity(vector, bookNorm, index.vectors[0], index.norms[0])
	for i := 1; i < len(index.vectors); i++ {
		score := cosineSimilarity(vector, bookNorm, index.vectors[i], index.norms[i])
		if score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	category := index.names[bestIdx]
	if bestScore < c.opts.MinConfidence {
		category = domain.CategoryUncategorized
	}
	return domain.CategoryAssignment{
		Category:   category,
		Confidence: bestScore,
	}, nil
}

func (c *SemanticCategorizer) ensureIndex(ctx context.Context) (*categoryIndex, error) {
	if index := c.index.Load(); index != nil {
		return index, nil
	}

	c.initMu.Lock()
	defer c.initMu.Unlock()

	if index := c.index.Load(); index != nil {
		return index, nil
	}
	index, err := c.buildIndex(ctx)
	if err != nil {
		return nil, err
	}
	c.index.Store(index)
	return index, nil
}

func (c *SemanticCategorizer) buildIndex(ctx context.Context) (*categoryIndex, error) {
	if err := validateCategories(c.categories); err != nil {
		return nil, domain.WrapError(domain.ErrMisconfigured, "build category index", err)
	}

	descriptions := make([]string, len(c.categories))
	names := make([]string, len(c.categories))
	for i, category := range c.categories {
		names[i] = category.Name
		descriptions[i] = category.Description
	}

	vectors, err := c.embedder.Embed(ctx, descriptions)
	if err != nil {
		return nil, fmt.Errorf("embed category descriptions: %w", err)
	}
	if len(vectors) != len(descriptions) {
		return nil, domain.WrapError(
			domain.ErrMisconfigured,
			"build category index",
			fmt.Errorf("vectors/categories mismatch: %d/%d", len(vectors), len(descriptions)),
		)
	}

	dims := len(vectors[0])
	norms := make([]float64, len(vectors))
	for i, vector := range vectors {
		if len(vector) == 0 || len(vector) != dims {
			return nil, domain.WrapError(
				domain.ErrMisconfigured,
				"build category index",
				fmt.Errorf("category %q has %d dimensions, expected %d", names[i], len(vector), dims),
			)
		}
		norms[i] = vectorNorm(vector)
		if norms[i] == 0 {
			return nil, domain.WrapError(
				domain.ErrMisconfigured,
				"build category index",
				fmt.Errorf("category %q has a zero embedding", names[i]),
			)
		}
	}

	return &categoryIndex{
		names:   names,
		vectors: vectors,
		norms:   norms,
	}, nil
}

func validateCategories(categories []domain.CategoryDefinition) error {
	if len(categories) == 0 {
		return errors.New("category set is empty")
	}
	seen := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		name := strings.TrimSpace(category.Name)
		switch {
		case name == "":
			return errors.New("category name is empty")
		case name == domain.CategoryUncategorized:
			return fmt.Errorf("%q is reserved", domain.CategoryUncategorized)
		case strings.TrimSpace(category.Description) == "":
			return fmt.Errorf("category %q has no description", name)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("category %q is declared twice", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// cosineSimilarity returns a·b / (|a||b|), or 0 when either vector has no length.
func cosineSimilarity(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
