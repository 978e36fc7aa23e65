package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	kpool "github.com/savr-app/savr/pkg/conn/db/postgres/pool"
	"github.com/savr-app/savr/pkg/conn/db/postgres/scanner"
	"github.com/savr-app/savr/pkg/domain"
	kpgerr "github.com/savr-app/savr/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/savr-app/savr/pkg/domain/users/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

type userPG struct { // implements kdb.UserInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *userPG {
	return &userPG{pool: pool}
}

var _ kdb.UserInterface = &userPG{}

type userRow struct {
	Id               int64
	Email            string
	Username         string
	AvatarPath       string
	Level            int
	ExperiencePoints int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r userRow) body() domain.User {
	return domain.User{
		UserId:           r.Id,
		Email:            r.Email,
		Username:         r.Username,
		AvatarPath:       r.AvatarPath,
		Level:            r.Level,
		ExperiencePoints: r.ExperiencePoints,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

const userColumns = `"id", "email", "username", "avatar_path", "level", "experience_points", "created_at", "updated_at"`

func (u *userPG) Register(ctx context.Context, newUser domain.NewUser) (domain.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return domain.User{}, err
	}
	defer conn.Release()

	rows, err := scanner.New[userRow]().QueryAll(
		ctx, conn,
		`
		insert into "users" ("email", "username", "password_hash")
		values ($1, $2, $3)
		returning `+userColumns,
		newUser.Email, newUser.Username, newUser.PasswordHash,
	)
	if err != nil {
		return domain.User{}, kpgerr.AsConflict(err, "users")
	}
	if len(rows) != 1 {
		return domain.User{}, errors.New("insert into users returned no row")
	}
	return rows[0].body(), nil
}

func (u *userPG) GetByEmail(ctx context.Context, email string) (domain.User, string, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return domain.User{}, "", err
	}
	defer conn.Release()

	row := conn.QueryRow(
		ctx,
		`
		select `+userColumns+`, "password_hash"
		from "users" where "email" = $1
		`,
		email,
	)

	ur := userRow{}
	var passwordHash string
	if err := row.Scan(
		&ur.Id, &ur.Email, &ur.Username, &ur.AvatarPath,
		&ur.Level, &ur.ExperiencePoints, &ur.CreatedAt, &ur.UpdatedAt,
		&passwordHash,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, "", kpgerr.Missing{Table: "users", Identity: email}
		}
		return domain.User{}, "", err
	}
	return ur.body(), passwordHash, nil
}

func (u *userPG) Get(ctx context.Context, userIds []int64) (map[int64]domain.User, error) {
	if len(userIds) == 0 {
		return map[int64]domain.User{}, nil
	}

	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return u.get(ctx, conn, userIds)
}

func (u *userPG) get(ctx context.Context, conn kpool.Queryer, userIds []int64) (map[int64]domain.User, error) {
	rows, err := scanner.New[userRow]().QueryAll(
		ctx, conn,
		`select `+userColumns+` from "users" where "id" = any($1::bigint[])`,
		userIds,
	)
	if err != nil {
		return nil, err
	}

	return slices.ToMap(
		slices.Map(rows, userRow.body),
		func(user domain.User) int64 { return user.UserId },
	), nil
}

func (u *userPG) Profile(ctx context.Context, userId int64, viewerId int64) (domain.Profile, bool, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return domain.Profile{}, false, err
	}
	defer conn.Release()

	row := conn.QueryRow(
		ctx,
		`
		select
			`+userColumns+`,
			(select count(*) from "follows" where "following_id" = "users"."id") as "followers_count",
			(select count(*) from "follows" where "follower_id" = "users"."id") as "following_count",
			exists (
				select 1 from "follows"
				where "follower_id" = $2 and "following_id" = "users"."id"
			) as "is_following"
		from "users" where "id" = $1
		`,
		userId, viewerId,
	)

	ur := userRow{}
	var followers, following int
	var isFollowing bool
	if err := row.Scan(
		&ur.Id, &ur.Email, &ur.Username, &ur.AvatarPath,
		&ur.Level, &ur.ExperiencePoints, &ur.CreatedAt, &ur.UpdatedAt,
		&followers, &following, &isFollowing,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, false, kpgerr.Missing{
				Table: "users", Identity: fmt.Sprintf("id=%d", userId),
			}
		}
		return domain.Profile{}, false, err
	}

	return domain.Profile{
		User:           ur.body(),
		FollowersCount: followers,
		FollowingCount: following,
	}, isFollowing, nil
}

func (u *userPG) UpdateProfile(ctx context.Context, userId int64, username *string, email *string) (domain.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return domain.User{}, err
	}
	defer conn.Release()

	rows, err := scanner.New[userRow]().QueryAll(
		ctx, conn,
		`
		update "users"
		set
			"username" = coalesce($2, "username"),
			"email" = coalesce($3, "email"),
			"updated_at" = now()
		where "id" = $1
		returning `+userColumns,
		userId, username, email,
	)
	if err != nil {
		return domain.User{}, kpgerr.AsConflict(err, "users")
	}
	if len(rows) == 0 {
		return domain.User{}, kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("id=%d", userId),
		}
	}
	return rows[0].body(), nil
}

func (u *userPG) SetAvatar(ctx context.Context, userId int64, path string) (string, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Release()

	var replaced string
	if err := conn.QueryRow(
		ctx,
		`
		update "users" set "avatar_path" = $2, "updated_at" = now()
		from (select "avatar_path" as "old_path" from "users" where "id" = $1) as "prev"
		where "id" = $1
		returning "prev"."old_path"
		`,
		userId, path,
	).Scan(&replaced); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", kpgerr.Missing{
				Table: "users", Identity: fmt.Sprintf("id=%d", userId),
			}
		}
		return "", err
	}
	return replaced, nil
}

func (u *userPG) Search(ctx context.Context, query string) ([]domain.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[userRow]().QueryAll(
		ctx, conn,
		`
		select `+userColumns+` from "users"
		where lower("username") = lower($1) or lower("email") = lower($1)
		order by "username"
		limit $2
		`,
		query, kdb.SearchLimit,
	)
	if err != nil {
		return nil, err
	}
	return slices.Map(rows, userRow.body), nil
}

func (u *userPG) Newest(ctx context.Context, limit int) ([]domain.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[userRow]().QueryAll(
		ctx, conn,
		`select `+userColumns+` from "users" order by "created_at" desc, "id" desc limit $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return slices.Map(rows, userRow.body), nil
}

func (u *userPG) Follow(ctx context.Context, followerId int64, followingId int64) error {
	if followerId == followingId {
		return kpgerr.Conflict{Table: "follows", Cause: "self follow"}
	}

	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		insert into "follows" ("follower_id", "following_id")
		select $1, "id" from "users" where "id" = $2
		`,
		followerId, followingId,
	)
	if err != nil {
		return kpgerr.AsConflict(err, "follows")
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("id=%d", followingId),
		}
	}
	return nil
}

func (u *userPG) Unfollow(ctx context.Context, followerId int64, followingId int64) error {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`delete from "follows" where "follower_id" = $1 and "following_id" = $2`,
		followerId, followingId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "follows", Identity: fmt.Sprintf("%d->%d", followerId, followingId),
		}
	}
	return nil
}

func (u *userPG) Complices(ctx context.Context, userId int64) ([]domain.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[userRow]().QueryAll(
		ctx, conn,
		`
		select `+userColumns+` from "users"
		where "id" in (
			select "following_id" from "follows" where "follower_id" = $1
			union
			select "follower_id" from "follows" where "following_id" = $1
		)
		order by "username"
		`,
		userId,
	)
	if err != nil {
		return nil, err
	}
	return slices.Map(rows, userRow.body), nil
}

type notificationRow struct {
	Id            int64
	UserId        int64
	Type          string
	Title         string
	Message       string
	RelatedUserId *int64
	IsRead        bool
	CreatedAt     time.Time
}

func (u *userPG) Notifications(ctx context.Context, userId int64, unreadOnly bool) ([]domain.Notification, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[notificationRow]().QueryAll(
		ctx, conn,
		`
		select
			"id", "user_id", "type", "title", "message",
			"related_user_id", "is_read", "created_at"
		from "notifications"
		where "user_id" = $1 and (not $2::boolean or not "is_read")
		order by "created_at" desc
		`,
		userId, unreadOnly,
	)
	if err != nil {
		return nil, err
	}

	relatedIds := []int64{}
	for _, r := range rows {
		if r.RelatedUserId != nil {
			relatedIds = append(relatedIds, *r.RelatedUserId)
		}
	}
	related, err := u.get(ctx, conn, relatedIds)
	if err != nil {
		return nil, err
	}

	return slices.Map(rows, func(r notificationRow) domain.Notification {
		notificationType, _ := domain.AsNotificationType(r.Type)
		n := domain.Notification{
			NotificationId: r.Id,
			UserId:         r.UserId,
			Type:           notificationType,
			Title:          r.Title,
			Message:        r.Message,
			IsRead:         r.IsRead,
			CreatedAt:      r.CreatedAt,
		}
		if r.RelatedUserId != nil {
			if user, ok := related[*r.RelatedUserId]; ok {
				n.RelatedUser = &user
			}
		}
		return n
	}), nil
}

func (u *userPG) MarkNotificationsRead(ctx context.Context, userId int64, notificationIds []int64) error {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		update "notifications" set "is_read" = true
		where "user_id" = $1
			and (
				$2::bigint[] is null
				or cardinality($2::bigint[]) = 0
				or "id" = any($2::bigint[])
			)
		`,
		userId, notificationIds,
	)
	return err
}

func (u *userPG) Notify(ctx context.Context, n domain.NewNotification) error {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "notifications" ("user_id", "type", "title", "message", "related_user_id")
		values ($1, $2, $3, $4, $5)
		`,
		n.UserId, n.Type.String(), n.Title, n.Message, n.RelatedUserId,
	)
	return err
}
