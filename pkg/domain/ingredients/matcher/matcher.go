// Package matcher resolves raw ingredient names against the catalog.
//
// A raw name is looked up by its exact stored name first, then by its
// normalized form. Names the catalog does not know yet are embedded
// and matched to the nearest catalog ingredient by cosine distance.
// Close enough means the same ingredient; otherwise a new catalog
// entry is created with the embedding, so the next occurrence of the
// name matches it.
package matcher

import (
	"context"
	"errors"

	"github.com/savr-app/savr/pkg/domain"
	domerr "github.com/savr-app/savr/pkg/domain/errors"
	kdb "github.com/savr-app/savr/pkg/domain/ingredients/db"
	"github.com/savr-app/savr/pkg/embedding"
	"github.com/savr-app/savr/pkg/utils/slices"
)

type Matcher struct {
	embedder    embedding.Embedder
	ingredients kdb.IngredientInterface
}

func New(embedder embedding.Embedder, ingredients kdb.IngredientInterface) *Matcher {
	return &Matcher{embedder: embedder, ingredients: ingredients}
}

// Match resolves one raw ingredient name.
func (m *Matcher) Match(ctx context.Context, rawName string) (domain.Ingredient, error) {
	matched, err := m.MatchAll(ctx, []string{rawName})
	if err != nil {
		return domain.Ingredient{}, err
	}
	return matched[0], nil
}

// MatchAll resolves raw names, embedding the ones the catalog does
// not know by name in one round trip.
// The result is index-aligned with rawNames.
func (m *Matcher) MatchAll(ctx context.Context, rawNames []string) ([]domain.Ingredient, error) {
	if len(rawNames) == 0 {
		return nil, nil
	}

	matched := make([]domain.Ingredient, len(rawNames))
	unknown := []int{}
	for nth, rawName := range rawNames {
		ing, err := m.byName(ctx, rawName)
		switch {
		case err == nil:
			matched[nth] = ing
		case errors.Is(err, domerr.ErrMissing):
			unknown = append(unknown, nth)
		default:
			return nil, err
		}
	}
	if len(unknown) == 0 {
		return matched, nil
	}

	vecs, err := m.embedder.EmbedBatch(
		ctx,
		slices.Map(unknown, func(nth int) string { return rawNames[nth] }),
	)
	if err != nil {
		return nil, err
	}

	for i, nth := range unknown {
		ing, err := m.match(ctx, rawNames[nth], vecs[i])
		if err != nil {
			return nil, err
		}
		matched[nth] = ing
	}
	return matched, nil
}

// byName tries the raw name as written, then its normalized form.
func (m *Matcher) byName(ctx context.Context, rawName string) (domain.Ingredient, error) {
	ing, err := m.ingredients.ByName(ctx, rawName)
	if err == nil || !errors.Is(err, domerr.ErrMissing) {
		return ing, err
	}
	return m.ingredients.ByName(ctx, kdb.Normalize(rawName))
}

func (m *Matcher) match(ctx context.Context, rawName string, vec []float32) (domain.Ingredient, error) {
	nearest, distance, err := m.ingredients.Nearest(ctx, vec)
	switch {
	case err == nil:
		if distance <= kdb.MatchThreshold {
			return nearest, nil
		}
	case errors.Is(err, domerr.ErrMissing):
		// empty catalog; fall through to create.
	default:
		return domain.Ingredient{}, err
	}

	created, err := m.ingredients.Ensure(ctx, rawName, "")
	if err != nil {
		return domain.Ingredient{}, err
	}
	if err := m.ingredients.SetEmbedding(ctx, created.IngredientId, vec); err != nil {
		return domain.Ingredient{}, err
	}
	created.Embedding = vec
	return created, nil
}
