package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pgvector/pgvector-go"
	kpool "github.com/savr-app/savr/pkg/conn/db/postgres/pool"
	"github.com/savr-app/savr/pkg/conn/db/postgres/scanner"
	"github.com/savr-app/savr/pkg/domain"
	kpgerr "github.com/savr-app/savr/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/savr-app/savr/pkg/domain/ingredients/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

type ingredientPG struct { // implements kdb.IngredientInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *ingredientPG {
	return &ingredientPG{pool: pool}
}

var _ kdb.IngredientInterface = &ingredientPG{}

// embeddings are loaded just where vector search needs them;
// readers get rows without the vector column.
type ingredientRow struct {
	Id        int64
	Name      string
	Category  string
	CreatedAt time.Time
}

func (r ingredientRow) body() domain.Ingredient {
	return domain.Ingredient{
		IngredientId: r.Id,
		Name:         r.Name,
		Category:     r.Category,
		CreatedAt:    r.CreatedAt,
	}
}

const ingredientColumns = `"id", "name", "category", "created_at"`

func (i *ingredientPG) Get(ctx context.Context, ingredientIds []int64) (map[int64]domain.Ingredient, error) {
	if len(ingredientIds) == 0 {
		return map[int64]domain.Ingredient{}, nil
	}

	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[ingredientRow]().QueryAll(
		ctx, conn,
		`select `+ingredientColumns+` from "ingredients" where "id" = any($1::bigint[])`,
		ingredientIds,
	)
	if err != nil {
		return nil, err
	}

	return slices.ToMap(
		slices.Map(rows, ingredientRow.body),
		func(ing domain.Ingredient) int64 { return ing.IngredientId },
	), nil
}

func (i *ingredientPG) List(ctx context.Context) ([]domain.Ingredient, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[ingredientRow]().QueryAll(
		ctx, conn,
		`select `+ingredientColumns+` from "ingredients" order by "name"`,
	)
	if err != nil {
		return nil, err
	}
	return slices.Map(rows, ingredientRow.body), nil
}

func (i *ingredientPG) ByName(ctx context.Context, name string) (domain.Ingredient, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return domain.Ingredient{}, err
	}
	defer conn.Release()

	rows, err := scanner.New[ingredientRow]().QueryAll(
		ctx, conn,
		`select `+ingredientColumns+` from "ingredients" where lower("name") = lower($1) limit 1`,
		name,
	)
	if err != nil {
		return domain.Ingredient{}, err
	}
	if len(rows) == 0 {
		return domain.Ingredient{}, kpgerr.Missing{
			Table: "ingredients", Identity: fmt.Sprintf("name=%s", name),
		}
	}
	return rows[0].body(), nil
}

func (i *ingredientPG) Search(ctx context.Context, query string) ([]domain.Ingredient, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[ingredientRow]().QueryAll(
		ctx, conn,
		`
		select `+ingredientColumns+` from "ingredients"
		where "name" ilike '%' || $1 || '%'
			or similarity("name", $1) > 0.1
		order by similarity("name", $1) desc
		limit $2
		`,
		kdb.Normalize(query), kdb.SearchLimit,
	)
	if err != nil {
		return nil, err
	}
	return slices.Map(rows, ingredientRow.body), nil
}

func (i *ingredientPG) Ensure(ctx context.Context, name string, category string) (domain.Ingredient, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return domain.Ingredient{}, err
	}
	defer conn.Release()

	// "on conflict do update" makes the returning clause yield the
	// existing row, too.
	rows, err := scanner.New[ingredientRow]().QueryAll(
		ctx, conn,
		`
		insert into "ingredients" ("name", "category")
		values ($1, $2)
		on conflict ("name") do update set "name" = excluded."name"
		returning `+ingredientColumns,
		kdb.Normalize(name), category,
	)
	if err != nil {
		return domain.Ingredient{}, err
	}
	if len(rows) != 1 {
		return domain.Ingredient{}, errors.New("upsert into ingredients returned no row")
	}
	return rows[0].body(), nil
}

func (i *ingredientPG) Nearest(ctx context.Context, vec []float32) (domain.Ingredient, float64, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return domain.Ingredient{}, 0, err
	}
	defer conn.Release()

	row := conn.QueryRow(
		ctx,
		`
		select `+ingredientColumns+`, "embedding" <=> $1 as "distance"
		from "ingredients"
		where "embedding" is not null
		order by "embedding" <=> $1
		limit 1
		`,
		pgvector.NewVector(vec),
	)

	ir := ingredientRow{}
	var distance float64
	if err := row.Scan(
		&ir.Id, &ir.Name, &ir.Category, &ir.CreatedAt, &distance,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Ingredient{}, 0, kpgerr.Missing{
				Table: "ingredients", Identity: "any with embedding",
			}
		}
		return domain.Ingredient{}, 0, err
	}
	return ir.body(), distance, nil
}

func (i *ingredientPG) MissingEmbeddings(ctx context.Context, limit int) ([]domain.Ingredient, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[ingredientRow]().QueryAll(
		ctx, conn,
		`
		select `+ingredientColumns+` from "ingredients"
		where "embedding" is null
		order by "created_at"
		limit $1
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return slices.Map(rows, ingredientRow.body), nil
}

func (i *ingredientPG) SetEmbedding(ctx context.Context, ingredientId int64, vec []float32) error {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`update "ingredients" set "embedding" = $2 where "id" = $1`,
		ingredientId, pgvector.NewVector(vec),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "ingredients", Identity: fmt.Sprintf("id=%d", ingredientId),
		}
	}
	return nil
}
