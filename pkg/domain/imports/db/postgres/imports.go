package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	kpool "github.com/savr-app/savr/pkg/conn/db/postgres/pool"
	"github.com/savr-app/savr/pkg/conn/db/postgres/scanner"
	"github.com/savr-app/savr/pkg/domain"
	kpgerr "github.com/savr-app/savr/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/savr-app/savr/pkg/domain/imports/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

type importPG struct { // implements kdb.ImportInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *importPG {
	return &importPG{pool: pool}
}

var _ kdb.ImportInterface = &importPG{}

type importRow struct {
	Id           uuid.UUID
	UserId       int64
	Source       string
	RawText      string
	SourceUrl    string
	Status       string
	Attempts     int
	RecipeId     *int64
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const importColumns = `"id", "user_id", "source", "raw_text", "source_url", "status", "attempts", "recipe_id", "error_message", "created_at", "updated_at"`

func (r importRow) body() domain.ImportRequest {
	source, _ := domain.AsImportSource(r.Source)
	status, _ := domain.AsImportStatus(r.Status)
	return domain.ImportRequest{
		ImportId:     r.Id,
		UserId:       r.UserId,
		Source:       source,
		RawText:      r.RawText,
		SourceUrl:    r.SourceUrl,
		Status:       status,
		Attempts:     r.Attempts,
		RecipeId:     r.RecipeId,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (i *importPG) Register(ctx context.Context, userId int64, source domain.ImportSource, payload string) (domain.ImportRequest, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return domain.ImportRequest{}, err
	}
	defer conn.Release()

	rawText, sourceUrl := "", ""
	switch source {
	case domain.ImportFromText:
		rawText = payload
	case domain.ImportFromUrl:
		sourceUrl = payload
	}

	rows, err := scanner.New[importRow]().QueryAll(
		ctx, conn,
		`
		insert into "recipe_import_requests" ("id", "user_id", "source", "raw_text", "source_url")
		values ($1, $2, $3, $4, $5)
		returning `+importColumns,
		uuid.New(), userId, source.String(), rawText, sourceUrl,
	)
	if err != nil {
		return domain.ImportRequest{}, err
	}
	if len(rows) != 1 {
		return domain.ImportRequest{}, errors.New("insert into recipe_import_requests returned no row")
	}
	return rows[0].body(), nil
}

func (i *importPG) Get(ctx context.Context, importId uuid.UUID) (domain.ImportRequest, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return domain.ImportRequest{}, err
	}
	defer conn.Release()

	rows, err := scanner.New[importRow]().QueryAll(
		ctx, conn,
		`select `+importColumns+` from "recipe_import_requests" where "id" = $1`,
		importId,
	)
	if err != nil {
		return domain.ImportRequest{}, err
	}
	if len(rows) == 0 {
		return domain.ImportRequest{}, kpgerr.Missing{
			Table: "recipe_import_requests", Identity: importId.String(),
		}
	}
	return rows[0].body(), nil
}

func (i *importPG) ListByUser(ctx context.Context, userId int64) ([]domain.ImportRequest, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[importRow]().QueryAll(
		ctx, conn,
		`
		select `+importColumns+` from "recipe_import_requests"
		where "user_id" = $1
		order by "created_at" desc
		`,
		userId,
	)
	if err != nil {
		return nil, err
	}
	return slices.Map(rows, importRow.body), nil
}

func (i *importPG) Claim(ctx context.Context, importId uuid.UUID) (domain.ImportRequest, bool, error) {
	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return domain.ImportRequest{}, false, err
	}
	defer tx.Rollback(ctx)

	rows, err := scanner.New[importRow]().QueryAll(
		ctx, tx,
		`
		update "recipe_import_requests"
		set "status" = 'processing', "attempts" = "attempts" + 1, "updated_at" = now()
		where "id" = $1 and "status" = 'pending' and "attempts" < $2
		returning `+importColumns,
		importId, domain.MaxImportAttempts,
	)
	if err != nil {
		return domain.ImportRequest{}, false, err
	}

	if len(rows) == 0 {
		// exhausted pending rows become terminal here so they stop
		// being picked up.
		if _, err := tx.Exec(
			ctx,
			`
			update "recipe_import_requests"
			set "status" = 'error', "error_message" = 'import failed after retries', "updated_at" = now()
			where "id" = $1 and "status" = 'pending' and "attempts" >= $2
			`,
			importId, domain.MaxImportAttempts,
		); err != nil {
			return domain.ImportRequest{}, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return domain.ImportRequest{}, false, err
		}
		return domain.ImportRequest{}, false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ImportRequest{}, false, err
	}
	return rows[0].body(), true, nil
}

func (i *importPG) PickStalled(ctx context.Context, limit int) ([]uuid.UUID, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	// flip stalled processing rows back to pending first, then list
	// whatever is pending.
	if _, err := conn.Exec(
		ctx,
		`
		update "recipe_import_requests"
		set "status" = 'pending', "updated_at" = now()
		where "status" = 'processing' and "updated_at" < now() - $1::interval
		`,
		kdb.StaleProcessingAge.String(),
	); err != nil {
		return nil, err
	}

	rows, err := conn.Query(
		ctx,
		`
		select "id" from "recipe_import_requests"
		where "status" = 'pending'
		order by "updated_at"
		limit $1
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (i *importPG) MarkSuccess(ctx context.Context, importId uuid.UUID, recipeId int64) error {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "recipe_import_requests"
		set "status" = 'success', "recipe_id" = $2, "error_message" = '', "updated_at" = now()
		where "id" = $1 and "status" = 'processing'
		`,
		importId, recipeId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "recipe_import_requests", Identity: importId.String() + " (processing)",
		}
	}
	return nil
}

func (i *importPG) MarkError(ctx context.Context, importId uuid.UUID, message string) error {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "recipe_import_requests"
		set "status" = 'error', "error_message" = $2, "updated_at" = now()
		where "id" = $1 and "status" = 'processing'
		`,
		importId, message,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "recipe_import_requests", Identity: importId.String() + " (processing)",
		}
	}
	return nil
}

func (i *importPG) Requeue(ctx context.Context, importId uuid.UUID) error {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "recipe_import_requests"
		set "status" = 'pending', "updated_at" = now()
		where "id" = $1 and "status" = 'processing'
		`,
		importId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "recipe_import_requests", Identity: importId.String() + " (processing)",
		}
	}
	return nil
}
