package domain

import (
	"time"

	"github.com/savr-app/savr/pkg/utils/cmp"
)

// EmbeddingDim is the dimensionality of ingredient and recipe
// embeddings. It matches the vector(384) columns in the schema and the
// sentence-transformers model served by the embedding sidecar.
const EmbeddingDim = 384

type Ingredient struct {
	IngredientId int64
	Name         string
	Category     string

	// Embedding of Name. Nil until the embedding task has visited
	// this row.
	Embedding []float32

	CreatedAt time.Time
}

func (i *Ingredient) Equal(o *Ingredient) bool {
	if (i == nil) || (o == nil) {
		return (i == nil) && (o == nil)
	}
	return i.IngredientId == o.IngredientId &&
		i.Name == o.Name &&
		i.Category == o.Category &&
		cmp.SliceEq(i.Embedding, o.Embedding)
}
