// Package embedding backfills embeddings for ingredients and recipes
// that miss one, either because they predate the embedding sidecar or
// because embedding failed at write time.
package embedding

import (
	"context"
	"log"

	"github.com/savr-app/savr/cmd/worker/recurring"
	"github.com/savr-app/savr/pkg/domain"
	kingdb "github.com/savr-app/savr/pkg/domain/ingredients/db"
	"github.com/savr-app/savr/pkg/domain/imports/pipeline"
	krecdb "github.com/savr-app/savr/pkg/domain/recipes/db"
	"github.com/savr-app/savr/pkg/embedding"
	"github.com/savr-app/savr/pkg/utils/slices"
)

// BatchSize is how many texts go to the sidecar in one cycle.
const BatchSize = 16

// initial value for task
func Seed() struct{} {
	return struct{}{}
}

// Task embeds one batch per cycle, ingredients before recipes.
func Task(
	logger *log.Logger,
	ingredients kingdb.IngredientInterface,
	recipes krecdb.RecipeInterface,
	embedder embedding.Embedder,
) recurring.Task[struct{}] {
	return func(ctx context.Context, value struct{}) (struct{}, bool, error) {
		ings, err := ingredients.MissingEmbeddings(ctx, BatchSize)
		if err != nil {
			return value, false, err
		}
		if 0 < len(ings) {
			vecs, err := embedder.EmbedBatch(
				ctx, slices.Map(ings, func(i domain.Ingredient) string { return i.Name }),
			)
			if err != nil {
				return value, false, err
			}
			for nth, ing := range ings {
				if err := ingredients.SetEmbedding(ctx, ing.IngredientId, vecs[nth]); err != nil {
					return value, false, err
				}
			}
			logger.Printf("embedded %d ingredients", len(ings))
			return value, true, nil
		}

		summaries, err := recipes.MissingEmbeddings(ctx, BatchSize)
		if err != nil {
			return value, false, err
		}
		if len(summaries) == 0 {
			return value, false, nil
		}

		// the embedding text covers ingredients and steps, so the
		// summaries are not enough.
		recIds := slices.Map(summaries, func(r domain.RecipeSummary) int64 { return r.RecipeId })
		recs, err := recipes.Get(ctx, recIds)
		if err != nil {
			return value, false, err
		}

		vecs, err := embedder.EmbedBatch(
			ctx, slices.Map(recIds, func(recipeId int64) string {
				return pipeline.EmbeddingText(recs[recipeId])
			}),
		)
		if err != nil {
			return value, false, err
		}
		for nth, recipeId := range recIds {
			if err := recipes.SetEmbedding(ctx, recipeId, vecs[nth]); err != nil {
				return value, false, err
			}
		}
		logger.Printf("embedded %d recipes", len(recs))
		return value, true, nil
	}
}
