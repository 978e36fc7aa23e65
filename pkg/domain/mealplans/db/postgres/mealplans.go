package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	kpool "github.com/savr-app/savr/pkg/conn/db/postgres/pool"
	"github.com/savr-app/savr/pkg/conn/db/postgres/scanner"
	"github.com/savr-app/savr/pkg/domain"
	domerr "github.com/savr-app/savr/pkg/domain/errors"
	kpgerr "github.com/savr-app/savr/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/savr-app/savr/pkg/domain/mealplans/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

type mealPlanPG struct { // implements kdb.MealPlanInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *mealPlanPG {
	return &mealPlanPG{pool: pool}
}

var _ kdb.MealPlanInterface = &mealPlanPG{}

type mealPlanRow struct {
	Id        int64
	OwnerId   int64
	Date      time.Time
	MealTime  string
	PlanType  string
	RecipeId  *int64
	Note      string
	Confirmed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const mealPlanColumns = `"id", "owner_id", "date", "meal_time", "plan_type", "recipe_id", "note", "confirmed", "created_at", "updated_at"`

func (r mealPlanRow) body() domain.MealPlan {
	mealTime, _ := domain.AsMealTime(r.MealTime)
	planType, _ := domain.AsPlanType(r.PlanType)
	return domain.MealPlan{
		MealPlanId: r.Id,
		OwnerId:    r.OwnerId,
		Date:       rfctime.DateOf(r.Date),
		MealTime:   mealTime,
		PlanType:   planType,
		Note:       r.Note,
		Confirmed:  r.Confirmed,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (m *mealPlanPG) Register(ctx context.Context, newPlan domain.NewMealPlan) (domain.MealPlan, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.MealPlan{}, err
	}
	defer conn.Release()

	rows, err := scanner.New[mealPlanRow]().QueryAll(
		ctx, conn,
		`
		insert into "meal_plans" ("owner_id", "date", "meal_time", "plan_type", "recipe_id", "note")
		values ($1, $2, $3, $4, $5, $6)
		returning `+mealPlanColumns,
		newPlan.OwnerId, newPlan.Date.Time(), newPlan.MealTime.String(),
		newPlan.PlanType.String(), newPlan.RecipeId, newPlan.Note,
	)
	if err != nil {
		return domain.MealPlan{}, kpgerr.AsConflict(err, "meal_plans")
	}
	if len(rows) != 1 {
		return domain.MealPlan{}, errors.New("insert into meal_plans returned no row")
	}

	got, err := m.get(ctx, conn, []int64{rows[0].Id})
	if err != nil {
		return domain.MealPlan{}, err
	}
	return got[rows[0].Id], nil
}

func (m *mealPlanPG) Get(ctx context.Context, mealPlanIds []int64) (map[int64]domain.MealPlan, error) {
	if len(mealPlanIds) == 0 {
		return map[int64]domain.MealPlan{}, nil
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return m.get(ctx, conn, mealPlanIds)
}

type shareRow struct {
	MealPlanId       int64
	UserId           int64
	Email            string
	Username         string
	AvatarPath       string
	Level            int
	ExperiencePoints int
}

type planRecipeRow struct {
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
}

func (m *mealPlanPG) get(ctx context.Context, conn kpool.Queryer, mealPlanIds []int64) (map[int64]domain.MealPlan, error) {
	planRows, err := scanner.New[mealPlanRow]().QueryAll(
		ctx, conn,
		`select `+mealPlanColumns+` from "meal_plans" where "id" = any($1::bigint[])`,
		mealPlanIds,
	)
	if err != nil {
		return nil, err
	}
	if len(planRows) == 0 {
		return map[int64]domain.MealPlan{}, nil
	}

	found := slices.Map(planRows, func(pr mealPlanRow) int64 { return pr.Id })

	shareRows, err := scanner.New[shareRow]().QueryAll(
		ctx, conn,
		`
		select
			"s"."meal_plan_id", "u"."id" as "user_id", "u"."email", "u"."username",
			"u"."avatar_path", "u"."level", "u"."experience_points"
		from "meal_plan_shares" as "s"
		inner join "users" as "u" on "s"."user_id" = "u"."id"
		where "s"."meal_plan_id" = any($1::bigint[])
		order by "u"."username"
		`,
		found,
	)
	if err != nil {
		return nil, err
	}

	recipeIds := []int64{}
	for _, pr := range planRows {
		if pr.RecipeId != nil {
			recipeIds = append(recipeIds, *pr.RecipeId)
		}
	}
	recipeSummaries := map[int64]domain.RecipeSummary{}
	if 0 < len(recipeIds) {
		recipeRows, err := scanner.New[planRecipeRow]().QueryAll(
			ctx, conn,
			`
			select
				"id", "author_id", "title", "description", "meal_type", "difficulty",
				("prep_time" + "cook_time" + "rest_time") as "total_time",
				"servings", "image_path", "created_at"
			from "recipes"
			where "id" = any($1::bigint[])
			`,
			recipeIds,
		)
		if err != nil {
			return nil, err
		}
		for _, rr := range recipeRows {
			mealType, _ := domain.AsMealType(rr.MealType)
			difficulty, _ := domain.AsDifficulty(rr.Difficulty)
			recipeSummaries[rr.Id] = domain.RecipeSummary{
				RecipeId:    rr.Id,
				AuthorId:    rr.AuthorId,
				Title:       rr.Title,
				Description: rr.Description,
				MealType:    mealType,
				Difficulty:  difficulty,
				TotalTime:   rr.TotalTime,
				Servings:    rr.Servings,
				ImagePath:   rr.ImagePath,
				CreatedAt:   rr.CreatedAt,
			}
		}
	}

	plans := map[int64]domain.MealPlan{}
	for _, pr := range planRows {
		plan := pr.body()
		if pr.RecipeId != nil {
			if summary, ok := recipeSummaries[*pr.RecipeId]; ok {
				plan.Recipe = &summary
			}
		}
		plans[pr.Id] = plan
	}
	for _, sr := range shareRows {
		plan := plans[sr.MealPlanId]
		plan.SharedWith = append(plan.SharedWith, domain.User{
			UserId:           sr.UserId,
			Email:            sr.Email,
			Username:         sr.Username,
			AvatarPath:       sr.AvatarPath,
			Level:            sr.Level,
			ExperiencePoints: sr.ExperiencePoints,
		})
		plans[sr.MealPlanId] = plan
	}

	return plans, nil
}

func (m *mealPlanPG) ByDateRange(ctx context.Context, userId int64, since rfctime.Date, until rfctime.Date) ([]domain.MealPlan, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "id" from "meal_plans"
		where "date" between $2 and $3
			and (
				"owner_id" = $1
				or "id" in (select "meal_plan_id" from "meal_plan_shares" where "user_id" = $1)
			)
		order by "date", "meal_time", "id"
		`,
		userId, since.Time(), until.Time(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ordered := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ordered = append(ordered, id)
	}

	plans, err := m.get(ctx, conn, ordered)
	if err != nil {
		return nil, err
	}
	return slices.Map(ordered, func(id int64) domain.MealPlan { return plans[id] }), nil
}

func (m *mealPlanPG) checkOwner(ctx context.Context, conn kpool.Queryer, mealPlanId int64, ownerId int64) error {
	var owner int64
	if err := conn.QueryRow(
		ctx, `select "owner_id" from "meal_plans" where "id" = $1`, mealPlanId,
	).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{
				Table: "meal_plans", Identity: fmt.Sprintf("id=%d", mealPlanId),
			}
		}
		return err
	}
	if owner != ownerId {
		return fmt.Errorf(
			"%w: meal plan %d belongs to user %d", domerr.ErrForbidden, mealPlanId, owner,
		)
	}
	return nil
}

func (m *mealPlanPG) Update(ctx context.Context, mealPlanId int64, ownerId int64, update kdb.Update) (domain.MealPlan, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.MealPlan{}, err
	}
	defer tx.Rollback(ctx)

	if err := m.checkOwner(ctx, tx, mealPlanId, ownerId); err != nil {
		return domain.MealPlan{}, err
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "meal_plans"
		set "plan_type" = $2, "recipe_id" = $3, "note" = $4, "updated_at" = now()
		where "id" = $1
		`,
		mealPlanId, update.PlanType.String(), update.RecipeId, update.Note,
	); err != nil {
		return domain.MealPlan{}, err
	}

	got, err := m.get(ctx, tx, []int64{mealPlanId})
	if err != nil {
		return domain.MealPlan{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.MealPlan{}, err
	}
	return got[mealPlanId], nil
}

func (m *mealPlanPG) Delete(ctx context.Context, mealPlanId int64, ownerId int64) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := m.checkOwner(ctx, tx, mealPlanId, ownerId); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx, `delete from "meal_plans" where "id" = $1`, mealPlanId,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (m *mealPlanPG) Confirm(ctx context.Context, mealPlanId int64, ownerId int64, confirmed bool) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := m.checkOwner(ctx, tx, mealPlanId, ownerId); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`update "meal_plans" set "confirmed" = $2, "updated_at" = now() where "id" = $1`,
		mealPlanId, confirmed,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (m *mealPlanPG) SharedWithMe(ctx context.Context, userId int64) ([]domain.MealPlan, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "mp"."id"
		from "meal_plans" as "mp"
		inner join "meal_plan_shares" as "s" on "mp"."id" = "s"."meal_plan_id"
		where "s"."user_id" = $1
		order by "mp"."date" desc, "mp"."meal_time"
		`,
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ordered := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ordered = append(ordered, id)
	}

	plans, err := m.get(ctx, conn, ordered)
	if err != nil {
		return nil, err
	}
	return slices.Map(ordered, func(id int64) domain.MealPlan { return plans[id] }), nil
}

type invitationRow struct {
	Id          int64
	MealPlanId  int64
	InviterId   int64
	InviteeId   int64
	Status      string
	CreatedAt   time.Time
	RespondedAt *time.Time
}

const invitationColumns = `"id", "meal_plan_id", "inviter_id", "invitee_id", "status", "created_at", "responded_at"`

func (m *mealPlanPG) composeInvitations(ctx context.Context, conn kpool.Queryer, rows []invitationRow) ([]domain.MealInvitation, error) {
	userIds := []int64{}
	for _, r := range rows {
		userIds = append(userIds, r.InviterId, r.InviteeId)
	}

	userRows, err := scanner.New[shareRow]().QueryAll(
		ctx, conn,
		`
		select
			0 as "meal_plan_id", "id" as "user_id", "email", "username",
			"avatar_path", "level", "experience_points"
		from "users" where "id" = any($1::bigint[])
		`,
		userIds,
	)
	if err != nil {
		return nil, err
	}
	users := map[int64]domain.User{}
	for _, ur := range userRows {
		users[ur.UserId] = domain.User{
			UserId:           ur.UserId,
			Email:            ur.Email,
			Username:         ur.Username,
			AvatarPath:       ur.AvatarPath,
			Level:            ur.Level,
			ExperiencePoints: ur.ExperiencePoints,
		}
	}

	return slices.Map(rows, func(r invitationRow) domain.MealInvitation {
		status, _ := domain.AsInvitationStatus(r.Status)
		return domain.MealInvitation{
			InvitationId: r.Id,
			MealPlanId:   r.MealPlanId,
			Inviter:      users[r.InviterId],
			Invitee:      users[r.InviteeId],
			Status:       status,
			CreatedAt:    r.CreatedAt,
			RespondedAt:  r.RespondedAt,
		}
	}), nil
}

func (m *mealPlanPG) Invite(ctx context.Context, mealPlanId int64, inviterId int64, inviteeId int64) (domain.MealInvitation, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.MealInvitation{}, err
	}
	defer tx.Rollback(ctx)

	if err := m.checkOwner(ctx, tx, mealPlanId, inviterId); err != nil {
		return domain.MealInvitation{}, err
	}
	if inviterId == inviteeId {
		return domain.MealInvitation{}, kpgerr.Conflict{
			Table: "meal_invitations", Cause: "self invitation",
		}
	}

	rows, err := scanner.New[invitationRow]().QueryAll(
		ctx, tx,
		`
		insert into "meal_invitations" ("meal_plan_id", "inviter_id", "invitee_id")
		select $1, $2, "id" from "users" where "id" = $3
		returning `+invitationColumns,
		mealPlanId, inviterId, inviteeId,
	)
	if err != nil {
		return domain.MealInvitation{}, kpgerr.AsConflict(err, "meal_invitations")
	}
	if len(rows) == 0 {
		return domain.MealInvitation{}, kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("id=%d", inviteeId),
		}
	}

	composed, err := m.composeInvitations(ctx, tx, rows)
	if err != nil {
		return domain.MealInvitation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.MealInvitation{}, err
	}
	return composed[0], nil
}

func (m *mealPlanPG) Invitations(ctx context.Context, userId int64, pendingOnly bool) ([]domain.MealInvitation, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[invitationRow]().QueryAll(
		ctx, conn,
		`
		select `+invitationColumns+` from "meal_invitations"
		where (
			("invitee_id" = $1 and "status" = 'pending')
			or (not $2::boolean and ("invitee_id" = $1 or "inviter_id" = $1))
		)
		order by "created_at" desc
		`,
		userId, pendingOnly,
	)
	if err != nil {
		return nil, err
	}
	return m.composeInvitations(ctx, conn, rows)
}

func (m *mealPlanPG) Respond(ctx context.Context, invitationId int64, inviteeId int64, accept bool) (domain.MealInvitation, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.MealInvitation{}, err
	}
	defer tx.Rollback(ctx)

	status := domain.InvitationDeclined
	if accept {
		status = domain.InvitationAccepted
	}

	rows, err := scanner.New[invitationRow]().QueryAll(
		ctx, tx,
		`
		update "meal_invitations"
		set "status" = $3, "responded_at" = now()
		where "id" = $1 and "invitee_id" = $2 and "status" = 'pending'
		returning `+invitationColumns,
		invitationId, inviteeId, status.String(),
	)
	if err != nil {
		return domain.MealInvitation{}, err
	}
	if len(rows) == 0 {
		// missing, someone else's, or responded already.
		var current string
		if err := tx.QueryRow(
			ctx,
			`select "status" from "meal_invitations" where "id" = $1 and "invitee_id" = $2`,
			invitationId, inviteeId,
		).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.MealInvitation{}, kpgerr.Missing{
					Table: "meal_invitations", Identity: fmt.Sprintf("id=%d", invitationId),
				}
			}
			return domain.MealInvitation{}, err
		}
		return domain.MealInvitation{}, kpgerr.Conflict{
			Table: "meal_invitations", Cause: "responded already: " + current,
		}
	}

	if accept {
		if err := m.crossShare(ctx, tx, rows[0]); err != nil {
			return domain.MealInvitation{}, err
		}
	}

	composed, err := m.composeInvitations(ctx, tx, rows)
	if err != nil {
		return domain.MealInvitation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.MealInvitation{}, err
	}
	return composed[0], nil
}

// crossShare links both calendars on acceptance: the invitee joins
// the inviter's entry, and gets an own entry at the same date and
// meal time, created from the inviter's one when the slot is free.
// The inviter joins that entry just when it is created here.
func (m *mealPlanPG) crossShare(ctx context.Context, tx kpool.Tx, inv invitationRow) error {
	var date time.Time
	var mealTime, planType string
	var recipeId *int64
	if err := tx.QueryRow(
		ctx,
		`select "date", "meal_time", "plan_type", "recipe_id" from "meal_plans" where "id" = $1`,
		inv.MealPlanId,
	).Scan(&date, &mealTime, &planType, &recipeId); err != nil {
		return err
	}

	mirrored, err := scanner.New[mealPlanRow]().QueryAll(
		ctx, tx,
		`
		insert into "meal_plans" ("owner_id", "date", "meal_time", "plan_type", "recipe_id")
		values ($1, $2, $3, $4, $5)
		on conflict ("owner_id", "date", "meal_time") do nothing
		returning `+mealPlanColumns,
		inv.InviteeId, date, mealTime, planType, recipeId,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "meal_plan_shares" ("meal_plan_id", "user_id")
		values ($1, $2)
		on conflict do nothing
		`,
		inv.MealPlanId, inv.InviteeId,
	); err != nil {
		return err
	}

	if len(mirrored) == 1 {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "meal_plan_shares" ("meal_plan_id", "user_id")
			values ($1, $2)
			on conflict do nothing
			`,
			mirrored[0].Id, inv.InviterId,
		); err != nil {
			return err
		}
	}
	return nil
}
