package recipes

import (
	"errors"
	"fmt"

	"github.com/savr-app/savr/pkg/api/types/ingredients"
	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	"github.com/savr-app/savr/pkg/api/types/users"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/utils/cmp"
)

type Summary struct {
	Id          int64           `json:"id"`
	Author      users.Summary   `json:"author"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	MealType    string          `json:"mealType"`
	Difficulty  string          `json:"difficulty"`
	TotalTime   int             `json:"totalTime"`
	Servings    int             `json:"servings"`
	ImageUrl    string          `json:"imageUrl,omitempty"`
	CreatedAt   rfctime.RFC3339 `json:"createdAt"`
}

func (s Summary) Equal(o Summary) bool {
	return s.Id == o.Id &&
		s.Author.Equal(o.Author) &&
		s.Title == o.Title &&
		s.Description == o.Description &&
		s.MealType == o.MealType &&
		s.Difficulty == o.Difficulty &&
		s.TotalTime == o.TotalTime &&
		s.Servings == o.Servings &&
		s.ImageUrl == o.ImageUrl
}

type Detail struct {
	Summary
	PrepTime    int              `json:"prepTime"`
	CookTime    int              `json:"cookTime"`
	RestTime    int              `json:"restTime"`
	IsPublic    bool             `json:"isPublic"`
	SourceType  string           `json:"sourceType"`
	SourceUrl   string           `json:"sourceUrl,omitempty"`
	Ingredients []IngredientLine `json:"ingredients"`
	Steps       []Step           `json:"steps"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Summary.Equal(o.Summary) &&
		d.PrepTime == o.PrepTime &&
		d.CookTime == o.CookTime &&
		d.RestTime == o.RestTime &&
		d.IsPublic == o.IsPublic &&
		d.SourceType == o.SourceType &&
		d.SourceUrl == o.SourceUrl &&
		cmp.SliceEqWith(
			d.Ingredients, o.Ingredients,
			func(a, b IngredientLine) bool { return a.Equal(b) },
		) &&
		cmp.SliceEqWith(
			d.Steps, o.Steps,
			func(a, b Step) bool { return a.Equal(b) },
		)
}

type IngredientLine struct {
	Id         int64                  `json:"id"`
	Ingredient ingredients.Ingredient `json:"ingredient"`
	RawName    string                 `json:"rawName,omitempty"`
	Quantity   float64                `json:"quantity"`
	Unit       string                 `json:"unit"`
	Note       string                 `json:"note,omitempty"`
}

func (l IngredientLine) Equal(o IngredientLine) bool {
	return l.Id == o.Id &&
		l.Ingredient.Equal(o.Ingredient) &&
		l.RawName == o.RawName &&
		l.Quantity == o.Quantity &&
		l.Unit == o.Unit &&
		l.Note == o.Note
}

type Step struct {
	Id            int64            `json:"id"`
	Position      int              `json:"position"`
	Title         string           `json:"title,omitempty"`
	Instruction   string           `json:"instruction"`
	Tip           string           `json:"tip,omitempty"`
	HasTimer      bool             `json:"hasTimer"`
	TimerDuration int              `json:"timerDuration,omitempty"`
	Ingredients   []StepIngredient `json:"ingredients,omitempty"`
}

func (s Step) Equal(o Step) bool {
	return s.Id == o.Id &&
		s.Position == o.Position &&
		s.Title == o.Title &&
		s.Instruction == o.Instruction &&
		s.Tip == o.Tip &&
		s.HasTimer == o.HasTimer &&
		s.TimerDuration == o.TimerDuration &&
		cmp.SliceEq(s.Ingredients, o.Ingredients)
}

type StepIngredient struct {
	IngredientLineId int64   `json:"ingredientLineId"`
	QuantityRatio    float64 `json:"quantityRatio"`
}

// Spec is the write form of a recipe (create and full update).
type Spec struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	MealType    string           `json:"mealType"`
	Difficulty  string           `json:"difficulty"`
	PrepTime    int              `json:"prepTime"`
	CookTime    int              `json:"cookTime"`
	RestTime    int              `json:"restTime"`
	Servings    int              `json:"servings"`
	IsPublic    *bool            `json:"isPublic,omitempty"`
	Ingredients []IngredientSpec `json:"ingredients"`
	Steps       []StepSpec       `json:"steps"`
}

// Public is IsPublic with its default. An omitted flag means public.
func (s *Spec) Public() bool {
	return s.IsPublic == nil || *s.IsPublic
}

type IngredientSpec struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Note     string  `json:"note,omitempty"`
}

type StepSpec struct {
	Title         string               `json:"title,omitempty"`
	Instruction   string               `json:"instruction"`
	Tip           string               `json:"tip,omitempty"`
	HasTimer      bool                 `json:"hasTimer,omitempty"`
	TimerDuration int                  `json:"timerDuration,omitempty"`
	Ingredients   []StepIngredientSpec `json:"ingredients,omitempty"`
}

// StepIngredientSpec references an entry of Spec.Ingredients by index.
type StepIngredientSpec struct {
	Index         int     `json:"index"`
	QuantityRatio float64 `json:"quantityRatio"`
}

func (s *Spec) Validate() error {
	if s.Title == "" {
		return errors.New("title is required")
	}
	if _, err := domain.AsMealType(s.MealType); err != nil {
		return err
	}
	if _, err := domain.AsDifficulty(s.Difficulty); err != nil {
		return err
	}
	if s.PrepTime < 0 || s.CookTime < 0 || s.RestTime < 0 {
		return errors.New("durations should not be negative")
	}
	if s.Servings < 1 {
		return errors.New("servings should be 1 or more")
	}
	if len(s.Ingredients) == 0 {
		return errors.New("at least one ingredient is required")
	}
	for nth, ing := range s.Ingredients {
		if ing.Name == "" {
			return fmt.Errorf("ingredient #%d: name is required", nth+1)
		}
		if ing.Quantity < 0 {
			return fmt.Errorf("ingredient #%d: quantity should not be negative", nth+1)
		}
		if _, err := domain.AsUnit(ing.Unit); err != nil {
			return fmt.Errorf("ingredient #%d: %w", nth+1, err)
		}
	}
	if len(s.Steps) == 0 {
		return errors.New("at least one step is required")
	}
	for nth, step := range s.Steps {
		if step.Instruction == "" {
			return fmt.Errorf("step #%d: instruction is required", nth+1)
		}
		if step.TimerDuration < 0 {
			return fmt.Errorf("step #%d: timer duration should not be negative", nth+1)
		}
		for _, ref := range step.Ingredients {
			if ref.Index < 0 || len(s.Ingredients) <= ref.Index {
				return fmt.Errorf("step #%d: ingredient reference out of range", nth+1)
			}
			if ref.QuantityRatio <= 0 || 1 < ref.QuantityRatio {
				return fmt.Errorf("step #%d: quantity ratio should be in (0, 1]", nth+1)
			}
		}
	}
	return nil
}

// ImagePresignRequest asks for a presigned upload slot for a recipe
// image.
type ImagePresignRequest struct {
	ContentType string `json:"contentType"`
}

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

func (r *ImagePresignRequest) Validate() error {
	if _, ok := allowedImageTypes[r.ContentType]; !ok {
		return fmt.Errorf("unsupported image content type: %s", r.ContentType)
	}
	return nil
}

type ImagePresignResponse struct {
	UploadUrl string `json:"uploadUrl"`
	Path      string `json:"path"`
}

// ImageConfirmRequest commits a previously presigned image upload.
type ImageConfirmRequest struct {
	Path string `json:"path"`
}

func (r *ImageConfirmRequest) Validate() error {
	if r.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

type ImageUploadResponse struct {
	ImageUrl string `json:"imageUrl"`
}
