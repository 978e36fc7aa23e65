package recipes

import (
	"github.com/savr-app/savr/pkg/api/types/ingredients"
	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	"github.com/savr-app/savr/pkg/api/types/recipes"
	bindusers "github.com/savr-app/savr/pkg/api-types-binding/users"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/utils/slices"
)

func ComposeSummary(r domain.RecipeSummary, author domain.User, urlOf bindusers.UrlResolver) recipes.Summary {
	return recipes.Summary{
		Id:          r.RecipeId,
		Author:      bindusers.ComposeSummary(author, urlOf),
		Title:       r.Title,
		Description: r.Description,
		MealType:    r.MealType.String(),
		Difficulty:  r.Difficulty.String(),
		TotalTime:   r.TotalTime,
		Servings:    r.Servings,
		ImageUrl:    urlOf(r.ImagePath),
		CreatedAt:   rfctime.RFC3339(r.CreatedAt),
	}
}

func composeIngredientLine(ri domain.RecipeIngredient) recipes.IngredientLine {
	return recipes.IngredientLine{
		Id: ri.RecipeIngredientId,
		Ingredient: ingredients.Ingredient{
			Id:       ri.Ingredient.IngredientId,
			Name:     ri.Ingredient.Name,
			Category: ri.Ingredient.Category,
		},
		RawName:  ri.RawName,
		Quantity: ri.Quantity,
		Unit:     ri.Unit.String(),
		Note:     ri.Note,
	}
}

func composeStep(s domain.Step) recipes.Step {
	return recipes.Step{
		Id:            s.StepId,
		Position:      s.Position,
		Title:         s.Title,
		Instruction:   s.Instruction,
		Tip:           s.Tip,
		HasTimer:      s.HasTimer,
		TimerDuration: s.TimerDuration,
		Ingredients: slices.Map(s.Ingredients, func(si domain.StepIngredient) recipes.StepIngredient {
			return recipes.StepIngredient{
				IngredientLineId: si.RecipeIngredientId,
				QuantityRatio:    si.QuantityRatio,
			}
		}),
	}
}

func ComposeDetail(r domain.Recipe, author domain.User, urlOf bindusers.UrlResolver) recipes.Detail {
	return recipes.Detail{
		Summary: ComposeSummary(
			domain.RecipeSummary{
				RecipeId:    r.RecipeId,
				AuthorId:    r.AuthorId,
				Title:       r.Title,
				Description: r.Description,
				MealType:    r.MealType,
				Difficulty:  r.Difficulty,
				TotalTime:   r.TotalTime(),
				Servings:    r.Servings,
				ImagePath:   r.ImagePath,
				CreatedAt:   r.CreatedAt,
			},
			author, urlOf,
		),
		PrepTime:    r.PrepTime,
		CookTime:    r.CookTime,
		RestTime:    r.RestTime,
		IsPublic:    r.IsPublic,
		SourceType:  r.SourceType.String(),
		SourceUrl:   r.SourceUrl,
		Ingredients: slices.Map(r.Ingredients, composeIngredientLine),
		Steps:       slices.Map(r.Steps, composeStep),
	}
}
