package db

import (
	kimports "github.com/savr-app/savr/pkg/domain/imports/db"
	kingredients "github.com/savr-app/savr/pkg/domain/ingredients/db"
	kmealplans "github.com/savr-app/savr/pkg/domain/mealplans/db"
	krecipes "github.com/savr-app/savr/pkg/domain/recipes/db"
	kschema "github.com/savr-app/savr/pkg/domain/schema/db"
	kusers "github.com/savr-app/savr/pkg/domain/users/db"
)

type SavrDatabase interface {
	Users() kusers.UserInterface
	Recipes() krecipes.RecipeInterface
	Ingredients() kingredients.IngredientInterface
	MealPlans() kmealplans.MealPlanInterface
	Imports() kimports.ImportInterface
	Schema() kschema.SchemaInterface
	Close() error
}
