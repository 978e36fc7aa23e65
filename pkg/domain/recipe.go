package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/savr-app/savr/pkg/utils/cmp"
)

var (
	ErrUnknownMealType   = errors.New("unknown meal type")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownUnit       = errors.New("unknown unit")
	ErrUnknownSourceType = errors.New("unknown source type")
)

// MealType classifies a recipe by the meal it is intended for.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

func (m MealType) String() string {
	return string(m)
}

func AsMealType(s string) (MealType, error) {
	switch MealType(s) {
	case MealBreakfast:
		return MealBreakfast, nil
	case MealLunch:
		return MealLunch, nil
	case MealDinner:
		return MealDinner, nil
	case MealSnack:
		return MealSnack, nil
	default:
		return MealType(s), fmt.Errorf("%w: %s", ErrUnknownMealType, s)
	}
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) String() string {
	return string(d)
}

func AsDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return Difficulty(s), fmt.Errorf("%w: %s", ErrUnknownDifficulty, s)
	}
}

// Unit is a measuring unit for recipe ingredients.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitTeaspoon   Unit = "tsp"
	UnitTablespoon Unit = "tbsp"
	UnitCup        Unit = "cup"
	UnitPiece      Unit = "piece"
	UnitPinch      Unit = "pinch"
	UnitClove      Unit = "clove"
)

func (u Unit) String() string {
	return string(u)
}

func AsUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitGram, UnitKilogram, UnitMilliliter, UnitLiter,
		UnitTeaspoon, UnitTablespoon, UnitCup, UnitPiece,
		UnitPinch, UnitClove:
		return Unit(s), nil
	default:
		return Unit(s), fmt.Errorf("%w: %s", ErrUnknownUnit, s)
	}
}

// SourceType records how a recipe entered the system.
type SourceType string

const (
	SourceUserCreated SourceType = "user_created"
	SourceImported    SourceType = "imported"
	SourceImportedUrl SourceType = "imported_url"
)

func (s SourceType) String() string {
	return string(s)
}

func AsSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceUserCreated:
		return SourceUserCreated, nil
	case SourceImported:
		return SourceImported, nil
	case SourceImportedUrl:
		return SourceImportedUrl, nil
	default:
		return SourceType(s), fmt.Errorf("%w: %s", ErrUnknownSourceType, s)
	}
}

type Recipe struct {
	RecipeId    int64
	AuthorId    int64
	Title       string
	Description string

	MealType   MealType
	Difficulty Difficulty

	// Durations in minutes.
	PrepTime int
	CookTime int
	RestTime int

	Servings  int
	ImagePath string

	// IsPublic makes the recipe visible outside its author's account.
	IsPublic bool

	SourceType SourceType
	SourceUrl  string

	// Embedding for semantic search. Nil until computed.
	Embedding []float32

	Ingredients []RecipeIngredient
	Steps       []Step

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalTime is prep + cook + rest, in minutes.
func (r *Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime + r.RestTime
}

func (r *Recipe) Equal(o *Recipe) bool {
	if (r == nil) || (o == nil) {
		return (r == nil) && (o == nil)
	}
	return r.RecipeId == o.RecipeId &&
		r.AuthorId == o.AuthorId &&
		r.Title == o.Title &&
		r.Description == o.Description &&
		r.MealType == o.MealType &&
		r.Difficulty == o.Difficulty &&
		r.PrepTime == o.PrepTime &&
		r.CookTime == o.CookTime &&
		r.RestTime == o.RestTime &&
		r.Servings == o.Servings &&
		r.ImagePath == o.ImagePath &&
		r.IsPublic == o.IsPublic &&
		r.SourceType == o.SourceType &&
		r.SourceUrl == o.SourceUrl &&
		cmp.SliceEqWith(
			r.Ingredients, o.Ingredients,
			func(a, b RecipeIngredient) bool { return a.Equal(&b) },
		) &&
		cmp.SliceEqWith(
			r.Steps, o.Steps,
			func(a, b Step) bool { return a.Equal(&b) },
		)
}

// RecipeIngredient is an ingredient line of a recipe.
//
// Ingredient carries the catalog row it is matched to.
// RawName keeps the name as the author (or the import source) wrote it.
type RecipeIngredient struct {
	RecipeIngredientId int64
	Ingredient         Ingredient
	RawName            string
	Quantity           float64
	Unit               Unit
	Note               string
	Position           int
}

func (ri *RecipeIngredient) Equal(o *RecipeIngredient) bool {
	if (ri == nil) || (o == nil) {
		return (ri == nil) && (o == nil)
	}
	return ri.RecipeIngredientId == o.RecipeIngredientId &&
		ri.Ingredient.Equal(&o.Ingredient) &&
		ri.RawName == o.RawName &&
		ri.Quantity == o.Quantity &&
		ri.Unit == o.Unit &&
		ri.Note == o.Note &&
		ri.Position == o.Position
}

type Step struct {
	StepId      int64
	Position    int
	Title       string
	Instruction string

	// Tip is an optional hint for the cook.
	Tip string

	// HasTimer marks the step as timed, with TimerDuration in
	// minutes. TimerDuration is zero when the step has no timing.
	HasTimer      bool
	TimerDuration int

	Ingredients []StepIngredient
}

func (s *Step) Equal(o *Step) bool {
	if (s == nil) || (o == nil) {
		return (s == nil) && (o == nil)
	}
	return s.StepId == o.StepId &&
		s.Position == o.Position &&
		s.Title == o.Title &&
		s.Instruction == o.Instruction &&
		s.Tip == o.Tip &&
		s.HasTimer == o.HasTimer &&
		s.TimerDuration == o.TimerDuration &&
		cmp.SliceEq(s.Ingredients, o.Ingredients)
}

// StepIngredient references a recipe ingredient line used by a step,
// with the fraction of the line's quantity the step consumes.
type StepIngredient struct {
	RecipeIngredientId int64
	QuantityRatio      float64
}

// RecipeSummary is the listing form of a recipe, without its
// ingredients and steps.
type RecipeSummary struct {
	RecipeId    int64
	AuthorId    int64
	Title       string
	Description string
	MealType    MealType
	Difficulty  Difficulty
	TotalTime   int
	Servings    int
	ImagePath   string
	CreatedAt   time.Time
}
