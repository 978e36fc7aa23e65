package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apierr "github.com/savr-app/savr/pkg/api/types/errors"
	apirecipes "github.com/savr-app/savr/pkg/api/types/recipes"
	apisearch "github.com/savr-app/savr/pkg/api/types/search"
	apiusers "github.com/savr-app/savr/pkg/api/types/users"
	bindrecipes "github.com/savr-app/savr/pkg/api-types-binding/recipes"
	bindusers "github.com/savr-app/savr/pkg/api-types-binding/users"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	krecdb "github.com/savr-app/savr/pkg/domain/recipes/db"
	kudb "github.com/savr-app/savr/pkg/domain/users/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

func paramInt64(c echo.Context, name string) (int64, error) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, apierr.BadRequest(fmt.Sprintf("%s should be an integer", name), err)
	}
	return value, nil
}

func GetProfileHandler(dbuser kudb.UserInterface, urlOf bindusers.UrlResolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		viewerId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		userId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		profile, isFollowing, err := dbuser.Profile(ctx, userId, viewerId)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		return c.JSON(
			http.StatusOK,
			bindusers.ComposeProfile(profile, urlOf, userId == viewerId, isFollowing),
		)
	}
}

func FollowHandler(dbuser kudb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		followerId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		followingId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		if err := dbuser.Follow(ctx, followerId, followingId); err != nil {
			switch {
			case errors.Is(err, kerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, kerr.ErrConflict):
				// following already, or following oneself.
				if followerId == followingId {
					return apierr.BadRequest("you can not follow yourself", err)
				}
				return c.NoContent(http.StatusNoContent)
			default:
				return apierr.InternalServerError(err)
			}
		}

		follower, err := dbuser.Get(ctx, []int64{followerId})
		if err == nil {
			if f, ok := follower[followerId]; ok {
				// notification is best effort.
				_ = dbuser.Notify(ctx, domain.NewNotification{
					UserId:        followingId,
					Type:          domain.NotificationFollow,
					Title:         "New follower",
					Message:       fmt.Sprintf("%s started following you", f.Username),
					RelatedUserId: &followerId,
				})
			}
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func UnfollowHandler(dbuser kudb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		followerId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		followingId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		if err := dbuser.Unfollow(ctx, followerId, followingId); err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				// not following; unfollow is idempotent.
				return c.NoContent(http.StatusNoContent)
			}
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func ComplicesHandler(dbuser kudb.UserInterface, urlOf bindusers.UrlResolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		complices, err := dbuser.Complices(ctx, userId)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, slices.Map(complices, func(u domain.User) apiusers.Summary {
			return bindusers.ComposeSummary(u, urlOf)
		}))
	}
}

// SuggestionSize is how many users and recipes an empty search query
// suggests.
const SuggestionSize = 10

func SearchHandler(
	dbuser kudb.UserInterface,
	dbrecipe krecdb.RecipeInterface,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, ok := auth.UserId(c); !ok {
			return apierr.Unauthorized("login required", nil)
		}

		query := c.QueryParam("q")

		var users []domain.User
		var err error
		recipeLimit := krecdb.SearchLimit
		if query == "" {
			users, err = dbuser.Newest(ctx, SuggestionSize)
			recipeLimit = SuggestionSize
		} else {
			users, err = dbuser.Search(ctx, query)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		found, _, err := dbrecipe.Find(ctx, krecdb.Query{
			Text: query, Limit: recipeLimit,
		})
		if err != nil {
			return apierr.InternalServerError(err)
		}

		recipeResults, err := composeSummaries(ctx, dbuser, found, urlOf)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apisearch.Response{
			Users: slices.Map(users, func(u domain.User) apiusers.Summary {
				return bindusers.ComposeSummary(u, urlOf)
			}),
			Recipes: recipeResults,
		})
	}
}

// composeSummaries binds recipe summaries, resolving their authors in
// one batch.
func composeSummaries(
	ctx context.Context,
	dbuser kudb.UserInterface,
	found []domain.RecipeSummary,
	urlOf bindusers.UrlResolver,
) ([]apirecipes.Summary, error) {
	authors, err := dbuser.Get(ctx, slices.Map(
		found, func(r domain.RecipeSummary) int64 { return r.AuthorId },
	))
	if err != nil {
		return nil, err
	}
	return slices.Map(found, func(r domain.RecipeSummary) apirecipes.Summary {
		return bindrecipes.ComposeSummary(r, authors[r.AuthorId], urlOf)
	}), nil
}

func NotificationsHandler(dbuser kudb.UserInterface, urlOf bindusers.UrlResolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		notifications, err := dbuser.Notifications(ctx, userId, false)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, slices.Map(
			notifications,
			func(n domain.Notification) apiusers.Notification {
				return bindusers.ComposeNotification(n, urlOf)
			},
		))
	}
}

func UnreadCountHandler(dbuser kudb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		unread, err := dbuser.Notifications(ctx, userId, true)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, apiusers.UnreadCountResponse{Count: len(unread)})
	}
}

func MarkNotificationReadHandler(dbuser kudb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		notificationId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		if err := dbuser.MarkNotificationsRead(ctx, userId, []int64{notificationId}); err != nil {
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func MarkAllNotificationsReadHandler(dbuser kudb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		if err := dbuser.MarkNotificationsRead(ctx, userId, []int64{}); err != nil {
			return apierr.InternalServerError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
