// Package pipeline runs one import request end to end: claim it,
// obtain recipe text, structure it, match ingredients against the
// catalog and register the recipe.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/savr-app/savr/pkg/domain"
	kimpdb "github.com/savr-app/savr/pkg/domain/imports/db"
	"github.com/savr-app/savr/pkg/domain/ingredients/matcher"
	krecdb "github.com/savr-app/savr/pkg/domain/recipes/db"
	"github.com/savr-app/savr/pkg/embedding"
	"github.com/savr-app/savr/pkg/extract"
	"github.com/savr-app/savr/pkg/formalize"
	"github.com/savr-app/savr/pkg/utils/slices"
)

type Pipeline struct {
	imports    kimpdb.ImportInterface
	recipes    krecdb.RecipeInterface
	extractor  extract.Extractor
	formalizer formalize.Formalizer
	matcher    *matcher.Matcher
	embedder   embedding.Embedder
	logger     *log.Logger
}

func New(
	imports kimpdb.ImportInterface,
	recipes krecdb.RecipeInterface,
	extractor extract.Extractor,
	formalizer formalize.Formalizer,
	matcher *matcher.Matcher,
	embedder embedding.Embedder,
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		imports:    imports,
		recipes:    recipes,
		extractor:  extractor,
		formalizer: formalizer,
		matcher:    matcher,
		embedder:   embedder,
		logger:     logger,
	}
}

// Process runs one import request to a terminal or retryable state.
//
// The bool is true when the request was claimed and something was done
// with it. Errors of the request itself (not a recipe, scrape failed
// for good) end the request via MarkError and are not returned;
// transient failures put the request back to pending and are returned
// so the caller can observe them.
func (p *Pipeline) Process(ctx context.Context, importId uuid.UUID) (bool, error) {
	req, claimed, err := p.imports.Claim(ctx, importId)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	p.logger.Printf("import %s: attempt %d (source: %s)", req.ImportId, req.Attempts, req.Source)

	text, err := p.textOf(ctx, req)
	if err != nil {
		return true, p.retryOrFail(ctx, req, err)
	}

	formal, err := p.formalizer.Formalize(ctx, text)
	if err != nil {
		if errors.Is(err, formalize.ErrNotARecipe) {
			p.logger.Printf("import %s: not a recipe", req.ImportId)
			return true, p.imports.MarkError(ctx, req.ImportId, "the text does not describe a recipe")
		}
		return true, p.retryOrFail(ctx, req, err)
	}

	recipe, err := p.register(ctx, req, formal)
	if err != nil {
		return true, p.retryOrFail(ctx, req, err)
	}

	if vec, err := p.embedder.Embed(ctx, EmbeddingText(recipe)); err != nil {
		// the embedding backfill loop catches up later.
		p.logger.Printf("import %s: embedding postponed: %s", req.ImportId, err)
	} else if err := p.recipes.SetEmbedding(ctx, recipe.RecipeId, vec); err != nil {
		p.logger.Printf("import %s: embedding postponed: %s", req.ImportId, err)
	}

	p.logger.Printf("import %s: recipe %d created", req.ImportId, recipe.RecipeId)
	return true, p.imports.MarkSuccess(ctx, req.ImportId, recipe.RecipeId)
}

func (p *Pipeline) textOf(ctx context.Context, req domain.ImportRequest) (string, error) {
	switch req.Source {
	case domain.ImportFromUrl:
		return p.extractor.Extract(ctx, req.SourceUrl)
	default:
		return req.RawText, nil
	}
}

// retryOrFail puts the request back to pending, or ends it when this
// was the last attempt.
func (p *Pipeline) retryOrFail(ctx context.Context, req domain.ImportRequest, cause error) error {
	p.logger.Printf("import %s: attempt %d failed: %s", req.ImportId, req.Attempts, cause)

	if req.Attempts >= domain.MaxImportAttempts {
		return p.imports.MarkError(ctx, req.ImportId, cause.Error())
	}
	return p.imports.Requeue(ctx, req.ImportId)
}

func (p *Pipeline) register(
	ctx context.Context, req domain.ImportRequest, formal *formalize.FormalRecipe,
) (domain.Recipe, error) {
	matched, err := p.matcher.MatchAll(
		ctx,
		slices.Map(formal.Ingredients, func(i formalize.FormalIngredient) string { return i.Name }),
	)
	if err != nil {
		return domain.Recipe{}, err
	}

	lines := make([]krecdb.IngredientLine, len(formal.Ingredients))
	for nth, fi := range formal.Ingredients {
		unit, err := domain.AsUnit(fi.Unit)
		if err != nil {
			unit = domain.UnitPiece
		}
		lines[nth] = krecdb.IngredientLine{
			IngredientId: matched[nth].IngredientId,
			RawName:      fi.Name,
			Quantity:     fi.Quantity,
			Unit:         unit,
			Note:         fi.Note,
		}
	}

	steps := make([]krecdb.Step, len(formal.Steps))
	for nth, fs := range formal.Steps {
		ingredients := []krecdb.StepIngredient{}
		for _, index := range fs.Ingredients {
			if index < 0 || len(lines) <= index {
				continue
			}
			ingredients = append(ingredients, krecdb.StepIngredient{
				Index: index, QuantityRatio: 1,
			})
		}
		steps[nth] = krecdb.Step{
			Title:         fs.Title,
			Instruction:   fs.Instruction,
			Tip:           fs.Tip,
			HasTimer:      fs.HasTimer,
			TimerDuration: fs.TimerDuration,
			Ingredients:   ingredients,
		}
	}

	mealType, err := domain.AsMealType(formal.MealType)
	if err != nil {
		mealType = domain.MealDinner
	}
	difficulty, err := domain.AsDifficulty(formal.Difficulty)
	if err != nil {
		difficulty = domain.DifficultyMedium
	}

	sourceType := domain.SourceImported
	if req.Source == domain.ImportFromUrl {
		sourceType = domain.SourceImportedUrl
	}

	servings := formal.Servings
	if servings <= 0 {
		servings = 1
	}

	return p.recipes.Register(ctx, krecdb.Spec{
		AuthorId:    req.UserId,
		Title:       formal.Title,
		Description: formal.Description,
		MealType:    mealType,
		Difficulty:  difficulty,
		PrepTime:    formal.PrepTime,
		CookTime:    formal.CookTime,
		RestTime:    formal.RestTime,
		Servings:    servings,
		IsPublic:    true,
		SourceType:  sourceType,
		SourceUrl:   req.SourceUrl,
		Ingredients: lines,
		Steps:       steps,
	})
}

// EmbeddingText is what gets embedded for recipe semantic search:
// the title, the description, then the ingredient lines and the step
// instructions under their headings, one part per line. Empty parts
// are left out.
func EmbeddingText(r domain.Recipe) string {
	parts := []string{}
	if r.Title != "" {
		parts = append(parts, r.Title)
	}
	if r.Description != "" {
		parts = append(parts, r.Description)
	}

	if len(r.Ingredients) != 0 {
		parts = append(parts, "Ingredients:")
		for _, ri := range r.Ingredients {
			name := ri.Ingredient.Name
			if name == "" {
				name = ri.RawName
			}
			parts = append(parts, fmt.Sprintf(
				"%s %s %s",
				strconv.FormatFloat(ri.Quantity, 'f', -1, 64), ri.Unit, name,
			))
		}
	}

	if len(r.Steps) != 0 {
		parts = append(parts, "Steps:")
		for nth, step := range r.Steps {
			title := step.Title
			if title == "" {
				title = fmt.Sprintf("Step %d", nth+1)
			}
			parts = append(parts, title+": "+step.Instruction)
		}
	}

	return strings.Join(parts, "\n")
}
