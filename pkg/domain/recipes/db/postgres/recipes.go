package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pgvector/pgvector-go"
	kpool "github.com/savr-app/savr/pkg/conn/db/postgres/pool"
	"github.com/savr-app/savr/pkg/conn/db/postgres/scanner"
	"github.com/savr-app/savr/pkg/domain"
	domerr "github.com/savr-app/savr/pkg/domain/errors"
	kpgerr "github.com/savr-app/savr/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/savr-app/savr/pkg/domain/recipes/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

type recipePG struct { // implements kdb.RecipeInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *recipePG {
	return &recipePG{pool: pool}
}

var _ kdb.RecipeInterface = &recipePG{}

type recipeRow struct {
	Id          int64
	AuthorId    int64
	Title       string
	Description string
	MealType    string
	Difficulty  string
	PrepTime    int
	CookTime    int
	RestTime    int
	Servings    int
	ImagePath   string
	IsPublic    bool
	SourceType  string
	SourceUrl   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r recipeRow) body() domain.Recipe {
	mealType, _ := domain.AsMealType(r.MealType)
	difficulty, _ := domain.AsDifficulty(r.Difficulty)
	sourceType, _ := domain.AsSourceType(r.SourceType)
	return domain.Recipe{
		RecipeId:    r.Id,
		AuthorId:    r.AuthorId,
		Title:       r.Title,
		Description: r.Description,
		MealType:    mealType,
		Difficulty:  difficulty,
		PrepTime:    r.PrepTime,
		CookTime:    r.CookTime,
		RestTime:    r.RestTime,
		Servings:    r.Servings,
		ImagePath:   r.ImagePath,
		IsPublic:    r.IsPublic,
		SourceType:  sourceType,
		SourceUrl:   r.SourceUrl,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const recipeColumns = `"id", "author_id", "title", "description", "meal_type", "difficulty", "prep_time", "cook_time", "rest_time", "servings", "image_path", "is_public", "source_type", "source_url", "created_at", "updated_at"`

func (r *recipePG) Register(ctx context.Context, spec kdb.Spec) (domain.Recipe, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Recipe{}, err
	}
	defer tx.Rollback(ctx)

	recipe, err := r.register(ctx, tx, spec)
	if err != nil {
		return domain.Recipe{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Recipe{}, err
	}
	return recipe, nil
}

func (r *recipePG) register(ctx context.Context, tx kpool.Tx, spec kdb.Spec) (domain.Recipe, error) {
	rows, err := scanner.New[recipeRow]().QueryAll(
		ctx, tx,
		`
		insert into "recipes" (
			"author_id", "title", "description", "meal_type", "difficulty",
			"prep_time", "cook_time", "rest_time", "servings", "is_public",
			"source_type", "source_url"
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		returning `+recipeColumns,
		spec.AuthorId, spec.Title, spec.Description,
		spec.MealType.String(), spec.Difficulty.String(),
		spec.PrepTime, spec.CookTime, spec.RestTime, spec.Servings, spec.IsPublic,
		spec.SourceType.String(), spec.SourceUrl,
	)
	if err != nil {
		return domain.Recipe{}, err
	}
	if len(rows) != 1 {
		return domain.Recipe{}, errors.New("insert into recipes returned no row")
	}
	recipe := rows[0].body()

	if err := r.insertContents(ctx, tx, recipe.RecipeId, spec); err != nil {
		return domain.Recipe{}, err
	}

	got, err := r.get(ctx, tx, []int64{recipe.RecipeId})
	if err != nil {
		return domain.Recipe{}, err
	}
	return got[recipe.RecipeId], nil
}

// insertContents writes the ingredient lines and steps of a recipe.
// The recipe's rows in recipe_ingredients and steps should not exist.
func (r *recipePG) insertContents(ctx context.Context, tx kpool.Tx, recipeId int64, spec kdb.Spec) error {
	lineIds := make([]int64, len(spec.Ingredients))
	for nth, line := range spec.Ingredients {
		if err := tx.QueryRow(
			ctx,
			`
			insert into "recipe_ingredients" (
				"recipe_id", "ingredient_id", "raw_name",
				"quantity", "unit", "note", "position"
			)
			values ($1, $2, $3, $4, $5, $6, $7)
			returning "id"
			`,
			recipeId, line.IngredientId, line.RawName,
			line.Quantity, line.Unit.String(), line.Note, nth,
		).Scan(&lineIds[nth]); err != nil {
			return err
		}
	}

	for nth, step := range spec.Steps {
		var stepId int64
		if err := tx.QueryRow(
			ctx,
			`
			insert into "steps" (
				"recipe_id", "position", "title", "instruction",
				"tip", "has_timer", "timer_duration"
			)
			values ($1, $2, $3, $4, $5, $6, nullif($7, 0))
			returning "id"
			`,
			recipeId, nth+1, step.Title, step.Instruction,
			step.Tip, step.HasTimer, step.TimerDuration,
		).Scan(&stepId); err != nil {
			return err
		}

		for _, si := range step.Ingredients {
			if si.Index < 0 || len(lineIds) <= si.Index {
				return fmt.Errorf(
					"step #%d references ingredient #%d out of %d",
					nth+1, si.Index, len(lineIds),
				)
			}
			if _, err := tx.Exec(
				ctx,
				`
				insert into "step_ingredients" ("step_id", "recipe_ingredient_id", "quantity_ratio")
				values ($1, $2, $3)
				`,
				stepId, lineIds[si.Index], si.QuantityRatio,
			); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *recipePG) Update(ctx context.Context, recipeId int64, authorId int64, spec kdb.Spec) (domain.Recipe, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Recipe{}, err
	}
	defer tx.Rollback(ctx)

	if err := r.checkAuthor(ctx, tx, recipeId, authorId); err != nil {
		return domain.Recipe{}, err
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "recipes"
		set
			"title" = $2, "description" = $3, "meal_type" = $4, "difficulty" = $5,
			"prep_time" = $6, "cook_time" = $7, "rest_time" = $8, "servings" = $9,
			"is_public" = $10,
			"embedding" = null,
			"updated_at" = now()
		where "id" = $1
		`,
		recipeId,
		spec.Title, spec.Description, spec.MealType.String(), spec.Difficulty.String(),
		spec.PrepTime, spec.CookTime, spec.RestTime, spec.Servings, spec.IsPublic,
	); err != nil {
		return domain.Recipe{}, err
	}

	// step_ingredients go by cascade.
	if _, err := tx.Exec(
		ctx, `delete from "steps" where "recipe_id" = $1`, recipeId,
	); err != nil {
		return domain.Recipe{}, err
	}
	if _, err := tx.Exec(
		ctx, `delete from "recipe_ingredients" where "recipe_id" = $1`, recipeId,
	); err != nil {
		return domain.Recipe{}, err
	}

	if err := r.insertContents(ctx, tx, recipeId, spec); err != nil {
		return domain.Recipe{}, err
	}

	got, err := r.get(ctx, tx, []int64{recipeId})
	if err != nil {
		return domain.Recipe{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Recipe{}, err
	}
	return got[recipeId], nil
}

func (r *recipePG) checkAuthor(ctx context.Context, conn kpool.Queryer, recipeId int64, authorId int64) error {
	var owner int64
	if err := conn.QueryRow(
		ctx, `select "author_id" from "recipes" where "id" = $1`, recipeId,
	).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{
				Table: "recipes", Identity: fmt.Sprintf("id=%d", recipeId),
			}
		}
		return err
	}
	if owner != authorId {
		return fmt.Errorf(
			"%w: recipe %d belongs to user %d", domerr.ErrForbidden, recipeId, owner,
		)
	}
	return nil
}

func (r *recipePG) Delete(ctx context.Context, recipeId int64, authorId int64) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if err := r.checkAuthor(ctx, tx, recipeId, authorId); err != nil {
		return "", err
	}

	var imagePath string
	if err := tx.QueryRow(
		ctx,
		`delete from "recipes" where "id" = $1 returning "image_path"`,
		recipeId,
	).Scan(&imagePath); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return imagePath, nil
}

func (r *recipePG) Get(ctx context.Context, recipeIds []int64) (map[int64]domain.Recipe, error) {
	if len(recipeIds) == 0 {
		return map[int64]domain.Recipe{}, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return r.get(ctx, conn, recipeIds)
}

type ingredientLineRow struct {
	Id             int64
	RecipeId       int64
	IngredientId   int64
	IngredientName string `sql:"ingredient_name"`
	Category       string
	RawName        string
	Quantity       float64
	Unit           string
	Note           string
	Position       int
}

type stepRow struct {
	Id            int64
	RecipeId      int64
	Position      int
	Title         string
	Instruction   string
	Tip           string
	HasTimer      bool
	TimerDuration int
}

type stepIngredientRow struct {
	StepId             int64
	RecipeIngredientId int64
	QuantityRatio      float64
}

func (r *recipePG) get(ctx context.Context, conn kpool.Queryer, recipeIds []int64) (map[int64]domain.Recipe, error) {
	recipeRows, err := scanner.New[recipeRow]().QueryAll(
		ctx, conn,
		`select `+recipeColumns+` from "recipes" where "id" = any($1::bigint[])`,
		recipeIds,
	)
	if err != nil {
		return nil, err
	}
	if len(recipeRows) == 0 {
		return map[int64]domain.Recipe{}, nil
	}

	found := slices.Map(recipeRows, func(rr recipeRow) int64 { return rr.Id })

	lineRows, err := scanner.New[ingredientLineRow]().QueryAll(
		ctx, conn,
		`
		select
			"ri"."id", "ri"."recipe_id", "ri"."ingredient_id",
			"i"."name" as "ingredient_name", "i"."category",
			"ri"."raw_name", "ri"."quantity", "ri"."unit", "ri"."note", "ri"."position"
		from "recipe_ingredients" as "ri"
		inner join "ingredients" as "i" on "ri"."ingredient_id" = "i"."id"
		where "ri"."recipe_id" = any($1::bigint[])
		order by "ri"."recipe_id", "ri"."position"
		`,
		found,
	)
	if err != nil {
		return nil, err
	}

	stepRows, err := scanner.New[stepRow]().QueryAll(
		ctx, conn,
		`
		select
			"id", "recipe_id", "position", "title", "instruction",
			"tip", "has_timer", coalesce("timer_duration", 0) as "timer_duration"
		from "steps"
		where "recipe_id" = any($1::bigint[])
		order by "recipe_id", "position"
		`,
		found,
	)
	if err != nil {
		return nil, err
	}

	stepIngredientRows, err := scanner.New[stepIngredientRow]().QueryAll(
		ctx, conn,
		`
		select "si"."step_id", "si"."recipe_ingredient_id", "si"."quantity_ratio"
		from "step_ingredients" as "si"
		inner join "steps" as "s" on "si"."step_id" = "s"."id"
		where "s"."recipe_id" = any($1::bigint[])
		`,
		found,
	)
	if err != nil {
		return nil, err
	}

	stepIngredients := map[int64][]domain.StepIngredient{}
	for _, sir := range stepIngredientRows {
		stepIngredients[sir.StepId] = append(
			stepIngredients[sir.StepId],
			domain.StepIngredient{
				RecipeIngredientId: sir.RecipeIngredientId,
				QuantityRatio:      sir.QuantityRatio,
			},
		)
	}

	recipes := map[int64]domain.Recipe{}
	for _, rr := range recipeRows {
		recipes[rr.Id] = rr.body()
	}
	for _, lr := range lineRows {
		recipe := recipes[lr.RecipeId]
		unit, _ := domain.AsUnit(lr.Unit)
		recipe.Ingredients = append(recipe.Ingredients, domain.RecipeIngredient{
			RecipeIngredientId: lr.Id,
			Ingredient: domain.Ingredient{
				IngredientId: lr.IngredientId,
				Name:         lr.IngredientName,
				Category:     lr.Category,
			},
			RawName:  lr.RawName,
			Quantity: lr.Quantity,
			Unit:     unit,
			Note:     lr.Note,
			Position: lr.Position,
		})
		recipes[lr.RecipeId] = recipe
	}
	for _, sr := range stepRows {
		recipe := recipes[sr.RecipeId]
		recipe.Steps = append(recipe.Steps, domain.Step{
			StepId:        sr.Id,
			Position:      sr.Position,
			Title:         sr.Title,
			Instruction:   sr.Instruction,
			Tip:           sr.Tip,
			HasTimer:      sr.HasTimer,
			TimerDuration: sr.TimerDuration,
			Ingredients:   stepIngredients[sr.Id],
		})
		recipes[sr.RecipeId] = recipe
	}

	return recipes, nil
}

type summaryRow struct {
	Id          int64
	AuthorId    int64
	Title       string
	Description string
	MealType    string
	Difficulty  string
	TotalTime   int
	Servings    int
	ImagePath   string
	CreatedAt   time.Time
	FullCount   int
}

func (s summaryRow) body() domain.RecipeSummary {
	mealType, _ := domain.AsMealType(s.MealType)
	difficulty, _ := domain.AsDifficulty(s.Difficulty)
	return domain.RecipeSummary{
		RecipeId:    s.Id,
		AuthorId:    s.AuthorId,
		Title:       s.Title,
		Description: s.Description,
		MealType:    mealType,
		Difficulty:  difficulty,
		TotalTime:   s.TotalTime,
		Servings:    s.Servings,
		ImagePath:   s.ImagePath,
		CreatedAt:   s.CreatedAt,
	}
}

func (r *recipePG) Find(ctx context.Context, query kdb.Query) ([]domain.RecipeSummary, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer conn.Release()

	conds := []string{"true"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	orderBy := `"created_at" desc, "id" desc`

	if query.Text != "" {
		text := arg(query.Text)
		conds = append(conds, fmt.Sprintf(
			`(
				"search_vector" @@ websearch_to_tsquery('french', %[1]s)
				or similarity("title", %[1]s) > 0.1
			)`,
			text,
		))
		orderBy = fmt.Sprintf(
			`ts_rank("search_vector", websearch_to_tsquery('french', %[1]s)) desc,
			similarity("title", %[1]s) desc`,
			text,
		)
	} else if query.Vec != nil {
		vec := arg(pgvector.NewVector(query.Vec))
		conds = append(conds, `"embedding" is not null`)
		orderBy = fmt.Sprintf(`"embedding" <=> %s`, vec)
	}

	if 0 < len(query.MealTypes) {
		conds = append(conds, fmt.Sprintf(
			`"meal_type" = any(%s::varchar[])`,
			arg(slices.Map(query.MealTypes, domain.MealType.String)),
		))
	}
	if 0 < len(query.Difficulties) {
		conds = append(conds, fmt.Sprintf(
			`"difficulty" = any(%s::varchar[])`,
			arg(slices.Map(query.Difficulties, domain.Difficulty.String)),
		))
	}
	if 0 < query.MaxTotalTime {
		conds = append(conds, fmt.Sprintf(
			`("prep_time" + "cook_time" + "rest_time") <= %s`,
			arg(query.MaxTotalTime),
		))
	}
	if 0 < len(query.IngredientIds) {
		conds = append(conds, fmt.Sprintf(
			`"id" in (
				select "recipe_id" from "recipe_ingredients"
				where "ingredient_id" = any(%[1]s::bigint[])
				group by "recipe_id"
				having count(distinct "ingredient_id") = cardinality(%[1]s::bigint[])
			)`,
			arg(query.IngredientIds),
		))
	}
	if query.AuthorId != 0 {
		conds = append(conds, fmt.Sprintf(`"author_id" = %s`, arg(query.AuthorId)))
	}

	limit := query.Limit
	if limit <= 0 || kdb.SearchLimit < limit {
		limit = kdb.SearchLimit
	}

	sql := fmt.Sprintf(
		`
		select
			"id", "author_id", "title", "description", "meal_type", "difficulty",
			("prep_time" + "cook_time" + "rest_time") as "total_time",
			"servings", "image_path", "created_at",
			count(*) over () as "full_count"
		from "recipes"
		where %s
		order by %s
		limit %s offset %s
		`,
		strings.Join(conds, " and "), orderBy,
		arg(limit), arg(query.Offset),
	)

	rows, err := scanner.New[summaryRow]().QueryAll(ctx, conn, sql, args...)
	if err != nil {
		return nil, 0, err
	}

	total := 0
	if 0 < len(rows) {
		total = rows[0].FullCount
	}
	return slices.Map(rows, summaryRow.body), total, nil
}

func (r *recipePG) SetImage(ctx context.Context, recipeId int64, authorId int64, path string) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if err := r.checkAuthor(ctx, tx, recipeId, authorId); err != nil {
		return "", err
	}

	var replaced string
	if err := tx.QueryRow(
		ctx,
		`
		update "recipes" set "image_path" = $2, "updated_at" = now()
		from (select "image_path" as "old_path" from "recipes" where "id" = $1) as "prev"
		where "id" = $1
		returning "prev"."old_path"
		`,
		recipeId, path,
	).Scan(&replaced); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return replaced, nil
}

func (r *recipePG) SetEmbedding(ctx context.Context, recipeId int64, vec []float32) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`update "recipes" set "embedding" = $2 where "id" = $1`,
		recipeId, pgvector.NewVector(vec),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "recipes", Identity: fmt.Sprintf("id=%d", recipeId),
		}
	}
	return nil
}

func (r *recipePG) MissingEmbeddings(ctx context.Context, limit int) ([]domain.RecipeSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[summaryRow]().QueryAll(
		ctx, conn,
		`
		select
			"id", "author_id", "title", "description", "meal_type", "difficulty",
			("prep_time" + "cook_time" + "rest_time") as "total_time",
			"servings", "image_path", "created_at",
			0 as "full_count"
		from "recipes"
		where "embedding" is null
		order by "created_at"
		limit $1
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return slices.Map(rows, summaryRow.body), nil
}
