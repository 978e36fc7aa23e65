package db

import (
	"context"
	"strings"
	"unicode"

	"github.com/savr-app/savr/pkg/domain"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SearchLimit caps ingredient search results.
const SearchLimit = 20

// MatchThreshold is the largest cosine distance at which an
// ingredient name is considered the same ingredient.
const MatchThreshold = 0.3

// Normalize is the canonical form ingredient names are stored and
// matched in: lowercase, accents folded away, spaces squashed, and a
// naive trailing plural stripped ("Oignons" and "oignon" meet at
// "oignon").
func Normalize(name string) string {
	lowered := foldAccents(strings.ToLower(name))
	squashed := strings.Join(strings.Fields(lowered), " ")

	if strings.HasSuffix(squashed, "es") && 2 < len(squashed) {
		return strings.TrimSuffix(squashed, "es")
	}
	if strings.HasSuffix(squashed, "s") && 1 < len(squashed) {
		return strings.TrimSuffix(squashed, "s")
	}
	return squashed
}

func foldAccents(s string) string {
	folded, _, err := transform.String(transform.Chain(
		norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC,
	), s)
	if err != nil {
		return s
	}
	return folded
}

type IngredientInterface interface {
	// Get retrieves ingredients identified by ingredientIds.
	//
	// Missing ids are just absent from the returned map.
	Get(ctx context.Context, ingredientIds []int64) (map[int64]domain.Ingredient, error)

	// List lists the whole catalog, ordered by name.
	List(ctx context.Context) ([]domain.Ingredient, error)

	// ByName retrieves the ingredient whose stored name equals name,
	// case-insensitively.
	//
	// Returns domain/errors.ErrMissing when there is none.
	ByName(ctx context.Context, name string) (domain.Ingredient, error)

	// Search finds ingredients by partial name match,
	// at most SearchLimit of them.
	Search(ctx context.Context, query string) ([]domain.Ingredient, error)

	// Ensure retrieves the ingredient named name, creating it when
	// it does not exist. Lookup is exact after normalization.
	Ensure(ctx context.Context, name string, category string) (domain.Ingredient, error)

	// Nearest finds the catalog ingredient whose embedding is
	// closest to vec, with its cosine distance.
	//
	// Returns domain/errors.ErrMissing when no ingredient has an
	// embedding yet.
	Nearest(ctx context.Context, vec []float32) (domain.Ingredient, float64, error)

	// MissingEmbeddings lists ingredients without an embedding,
	// oldest first, at most limit of them.
	MissingEmbeddings(ctx context.Context, limit int) ([]domain.Ingredient, error)

	// SetEmbedding stores the embedding of an ingredient.
	SetEmbedding(ctx context.Context, ingredientId int64, vec []float32) error
}
