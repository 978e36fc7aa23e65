package db

import (
	"context"

	"github.com/savr-app/savr/pkg/domain"
)

// SearchLimit caps recipe search results.
const SearchLimit = 20

// Spec is the write form of a recipe. Ingredient lines reference
// catalog ingredients which have been matched already.
type Spec struct {
	AuthorId    int64
	Title       string
	Description string
	MealType    domain.MealType
	Difficulty  domain.Difficulty
	PrepTime    int
	CookTime    int
	RestTime    int
	Servings    int
	IsPublic    bool
	SourceType  domain.SourceType
	SourceUrl   string
	Ingredients []IngredientLine
	Steps       []Step
}

type IngredientLine struct {
	IngredientId int64
	RawName      string
	Quantity     float64
	Unit         domain.Unit
	Note         string
}

type Step struct {
	Title         string
	Instruction   string
	Tip           string
	HasTimer      bool
	TimerDuration int
	Ingredients   []StepIngredient
}

// StepIngredient references an entry of Spec.Ingredients by index.
type StepIngredient struct {
	Index         int
	QuantityRatio float64
}

// Query filters recipe listings. Zero values mean "no filter".
type Query struct {
	// Text matches title and description by full text search and
	// title by trigram similarity.
	Text string

	// Vec orders results by embedding distance. Used when Text is
	// empty.
	Vec []float32

	MealTypes     []domain.MealType
	Difficulties  []domain.Difficulty
	MaxTotalTime  int
	IngredientIds []int64
	AuthorId      int64

	Offset int
	Limit  int
}

type RecipeInterface interface {
	// Register creates a recipe with its ingredient lines and steps.
	Register(ctx context.Context, spec Spec) (domain.Recipe, error)

	// Update replaces the recipe's fields, ingredient lines and
	// steps. Just the author may update.
	//
	// Returns domain/errors.ErrMissing for unknown recipes and
	// domain/errors.ErrForbidden for someone else's recipe.
	Update(ctx context.Context, recipeId int64, authorId int64, spec Spec) (domain.Recipe, error)

	// Delete removes a recipe and returns its image path so the
	// stored image can be cleaned up.
	Delete(ctx context.Context, recipeId int64, authorId int64) (string, error)

	// Get retrieves recipes with their ingredient lines and steps.
	//
	// Missing ids are just absent from the returned map.
	Get(ctx context.Context, recipeIds []int64) (map[int64]domain.Recipe, error)

	// Find lists recipe summaries matching the query, with the
	// total match count for pagination.
	Find(ctx context.Context, query Query) ([]domain.RecipeSummary, int, error)

	// SetImage updates the image path and returns the replaced one.
	// Just the author may set the image.
	SetImage(ctx context.Context, recipeId int64, authorId int64, path string) (string, error)

	// SetEmbedding stores the embedding of a recipe.
	SetEmbedding(ctx context.Context, recipeId int64, vec []float32) error

	// MissingEmbeddings lists recipes without an embedding,
	// oldest first, at most limit of them.
	MissingEmbeddings(ctx context.Context, limit int) ([]domain.RecipeSummary, error)
}
