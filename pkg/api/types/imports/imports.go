package imports

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
)

// MaxRawTextLength caps the free-form text accepted for an import.
const MaxRawTextLength = 50_000

// TextRequest submits recipe text for asynchronous import. Title,
// ingredients and instructions are the pieces a user typically pastes
// separately; they are flattened to one text for the formalizer.
type TextRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	IngredientsText  string `json:"ingredientsText"`
	InstructionsText string `json:"instructionsText"`
	Servings         int    `json:"servings,omitempty"`
	PrepTime         int    `json:"prepTime,omitempty"`
	CookTime         int    `json:"cookTime,omitempty"`
}

func (r *TextRequest) Validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.IngredientsText == "" {
		return errors.New("ingredientsText is required")
	}
	if r.InstructionsText == "" {
		return errors.New("instructionsText is required")
	}
	if MaxRawTextLength < len(r.Title)+len(r.Description)+len(r.IngredientsText)+len(r.InstructionsText) {
		return fmt.Errorf("text should be %d bytes at most", MaxRawTextLength)
	}
	return nil
}

// Flatten renders the request as the free-form text the import
// pipeline consumes.
func (r *TextRequest) Flatten() string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteString("\n")
	if r.Description != "" {
		b.WriteString("\n" + r.Description + "\n")
	}
	if r.Servings != 0 {
		fmt.Fprintf(&b, "\nServings: %d\n", r.Servings)
	}
	if r.PrepTime != 0 {
		fmt.Fprintf(&b, "Preparation time: %d minutes\n", r.PrepTime)
	}
	if r.CookTime != 0 {
		fmt.Fprintf(&b, "Cooking time: %d minutes\n", r.CookTime)
	}
	b.WriteString("\nIngredients:\n" + r.IngredientsText + "\n")
	b.WriteString("\nInstructions:\n" + r.InstructionsText + "\n")
	return b.String()
}

// UrlRequest submits a web page URL for asynchronous import.
type UrlRequest struct {
	Url string `json:"url"`
}

func (r *UrlRequest) Validate() error {
	u, err := url.Parse(r.Url)
	if err != nil {
		return fmt.Errorf("malformed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url should be http or https")
	}
	if u.Host == "" {
		return errors.New("url should have a host")
	}
	return nil
}

type Detail struct {
	Id           string          `json:"id"`
	Source       string          `json:"source"`
	Status       string          `json:"status"`
	RecipeId     *int64          `json:"recipeId,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	CreatedAt    rfctime.RFC3339 `json:"createdAt"`
	UpdatedAt    rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	sameRecipe := (d.RecipeId == nil) == (o.RecipeId == nil)
	if sameRecipe && d.RecipeId != nil {
		sameRecipe = *d.RecipeId == *o.RecipeId
	}
	return d.Id == o.Id &&
		d.Source == o.Source &&
		d.Status == o.Status &&
		sameRecipe &&
		d.ErrorMessage == o.ErrorMessage
}
