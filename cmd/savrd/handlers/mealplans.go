package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	apierr "github.com/savr-app/savr/pkg/api/types/errors"
	apimealplans "github.com/savr-app/savr/pkg/api/types/mealplans"
	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	bindmealplans "github.com/savr-app/savr/pkg/api-types-binding/mealplans"
	bindusers "github.com/savr-app/savr/pkg/api-types-binding/users"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	kmpdb "github.com/savr-app/savr/pkg/domain/mealplans/db"
	kudb "github.com/savr-app/savr/pkg/domain/users/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

// mealPlanMembers resolves, in one batch, every user a set of entries
// refers to: owners, recipe authors and share targets.
func mealPlanMembers(
	ctx context.Context, dbuser kudb.UserInterface, plans []domain.MealPlan,
) (map[int64]domain.User, error) {
	ids := []int64{}
	for _, p := range plans {
		ids = append(ids, p.OwnerId)
		if p.Recipe != nil {
			ids = append(ids, p.Recipe.AuthorId)
		}
	}
	members, err := dbuser.Get(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		for _, u := range p.SharedWith {
			members[u.UserId] = u
		}
	}
	return members, nil
}

func MealPlanRegisterHandler(
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		spec := apimealplans.Spec{}
		if err := decodeJson(c, &spec); err != nil {
			return err
		}

		mealTime, _ := domain.AsMealTime(spec.MealTime)   // validated already
		planType, _ := domain.AsPlanType(spec.PlanType)   // validated already

		plan, err := dbmealplan.Register(ctx, domain.NewMealPlan{
			OwnerId:  userId,
			Date:     spec.Date,
			MealTime: mealTime,
			PlanType: planType,
			RecipeId: spec.RecipeId,
			Note:     spec.Note,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerr.ErrConflict):
				return apierr.Conflict("an entry already exists at the date and meal time", apierr.WithError(err))
			case errors.Is(err, kerr.ErrMissing):
				return apierr.BadRequest("no such recipe", err)
			default:
				return apierr.InternalServerError(err)
			}
		}

		members, err := mealPlanMembers(ctx, dbuser, []domain.MealPlan{plan})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusCreated, bindmealplans.ComposeDetail(plan, members, urlOf))
	}
}

func GetMealPlanHandler(
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		mealPlanId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		plans, err := dbmealplan.Get(ctx, []int64{mealPlanId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		plan, ok := plans[mealPlanId]
		if !ok {
			return apierr.NotFound()
		}

		// entries are visible to the owner and to share targets only.
		visible := plan.OwnerId == userId
		for _, u := range plan.SharedWith {
			visible = visible || u.UserId == userId
		}
		if !visible {
			return apierr.NotFound()
		}

		members, err := mealPlanMembers(ctx, dbuser, []domain.MealPlan{plan})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, bindmealplans.ComposeDetail(plan, members, urlOf))
	}
}

func composeMealPlans(
	ctx context.Context,
	dbuser kudb.UserInterface,
	plans []domain.MealPlan,
	urlOf bindusers.UrlResolver,
) ([]apimealplans.Detail, error) {
	members, err := mealPlanMembers(ctx, dbuser, plans)
	if err != nil {
		return nil, err
	}
	return slices.Map(plans, func(p domain.MealPlan) apimealplans.Detail {
		return bindmealplans.ComposeDetail(p, members, urlOf)
	}), nil
}

func MealPlansByDateHandler(
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		raw := c.QueryParam("date")
		if raw == "" {
			return apierr.BadRequest("date is required", nil)
		}
		date, err := rfctime.ParseDate(raw)
		if err != nil {
			return apierr.BadRequest("malformed date", err)
		}

		plans, err := dbmealplan.ByDateRange(ctx, userId, date, date)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		details, err := composeMealPlans(ctx, dbuser, plans, urlOf)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, details)
	}
}

func MealPlansByWeekHandler(
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		date := rfctime.DateOf(time.Now())
		if raw := c.QueryParam("date"); raw != "" {
			var err error
			if date, err = rfctime.ParseDate(raw); err != nil {
				return apierr.BadRequest("malformed date", err)
			}
		}
		plans, err := dbmealplan.ByDateRange(ctx, userId, date, date.AddDays(6))
		if err != nil {
			return apierr.InternalServerError(err)
		}
		details, err := composeMealPlans(ctx, dbuser, plans, urlOf)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, details)
	}
}

func MealPlanUpdateHandler(
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		mealPlanId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		update := apimealplans.Update{}
		if err := decodeJson(c, &update); err != nil {
			return err
		}
		planType, _ := domain.AsPlanType(update.PlanType) // validated already

		plan, err := dbmealplan.Update(ctx, mealPlanId, userId, kmpdb.Update{
			PlanType: planType,
			RecipeId: update.RecipeId,
			Note:     update.Note,
		})
		if err != nil {
			switch {
			case errors.Is(err, kerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, kerr.ErrForbidden):
				return apierr.Forbidden("just the owner may update an entry")
			default:
				return apierr.InternalServerError(err)
			}
		}

		members, err := mealPlanMembers(ctx, dbuser, []domain.MealPlan{plan})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, bindmealplans.ComposeDetail(plan, members, urlOf))
	}
}

func MealPlanDeleteHandler(dbmealplan kmpdb.MealPlanInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		mealPlanId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		if err := dbmealplan.Delete(ctx, mealPlanId, userId); err != nil {
			switch {
			case errors.Is(err, kerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, kerr.ErrForbidden):
				return apierr.Forbidden("just the owner may delete an entry")
			default:
				return apierr.InternalServerError(err)
			}
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func MealPlanConfirmHandler(
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		mealPlanId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		if err := dbmealplan.Confirm(ctx, mealPlanId, userId, true); err != nil {
			switch {
			case errors.Is(err, kerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, kerr.ErrForbidden):
				return apierr.Forbidden("just the owner may confirm an entry")
			default:
				return apierr.InternalServerError(err)
			}
		}

		plans, err := dbmealplan.Get(ctx, []int64{mealPlanId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		plan, ok := plans[mealPlanId]
		if !ok {
			return apierr.NotFound()
		}
		members, err := mealPlanMembers(ctx, dbuser, []domain.MealPlan{plan})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, bindmealplans.ComposeDetail(plan, members, urlOf))
	}
}

func SharedWithMeHandler(
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		plans, err := dbmealplan.SharedWithMe(ctx, userId)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		details, err := composeMealPlans(ctx, dbuser, plans, urlOf)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, details)
	}
}
