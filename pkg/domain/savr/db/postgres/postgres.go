package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/savr-app/savr/pkg/conn/db/postgres/pool"
	kpgschema "github.com/savr-app/savr/pkg/conn/db/postgres/schema"
	kimports "github.com/savr-app/savr/pkg/domain/imports/db"
	kpgimports "github.com/savr-app/savr/pkg/domain/imports/db/postgres"
	kingredients "github.com/savr-app/savr/pkg/domain/ingredients/db"
	kpgingredients "github.com/savr-app/savr/pkg/domain/ingredients/db/postgres"
	kmealplans "github.com/savr-app/savr/pkg/domain/mealplans/db"
	kpgmealplans "github.com/savr-app/savr/pkg/domain/mealplans/db/postgres"
	krecipes "github.com/savr-app/savr/pkg/domain/recipes/db"
	kpgrecipes "github.com/savr-app/savr/pkg/domain/recipes/db/postgres"
	dbInterface "github.com/savr-app/savr/pkg/domain/savr/db"
	kschema "github.com/savr-app/savr/pkg/domain/schema/db"
	kusers "github.com/savr-app/savr/pkg/domain/users/db"
	kpgusers "github.com/savr-app/savr/pkg/domain/users/db/postgres"
)

type savrDBPostgres struct {
	pool        *pgxpool.Pool
	users       kusers.UserInterface
	recipes     krecipes.RecipeInterface
	ingredients kingredients.IngredientInterface
	mealPlans   kmealplans.MealPlanInterface
	imports     kimports.ImportInterface
	schema      kschema.SchemaInterface
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.SavrDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	c := Config{}
	for _, option := range options {
		c = *option(&c)
	}

	p := kpool.Wrap(pool)
	var schema kschema.SchemaInterface = kpgschema.Null()
	if c.SchemaRepository != "" {
		schema = kpgschema.New(p, c.SchemaRepository)
	}

	return &savrDBPostgres{
		pool:        pool,
		users:       kpgusers.New(p),
		recipes:     kpgrecipes.New(p),
		ingredients: kpgingredients.New(p),
		mealPlans:   kpgmealplans.New(p),
		imports:     kpgimports.New(p),
		schema:      schema,
	}, nil
}

func (s *savrDBPostgres) Users() kusers.UserInterface {
	return s.users
}

func (s *savrDBPostgres) Recipes() krecipes.RecipeInterface {
	return s.recipes
}

func (s *savrDBPostgres) Ingredients() kingredients.IngredientInterface {
	return s.ingredients
}

func (s *savrDBPostgres) MealPlans() kmealplans.MealPlanInterface {
	return s.mealPlans
}

func (s *savrDBPostgres) Imports() kimports.ImportInterface {
	return s.imports
}

func (s *savrDBPostgres) Schema() kschema.SchemaInterface {
	return s.schema
}

func (s *savrDBPostgres) Close() error {
	s.pool.Close()
	return nil
}
