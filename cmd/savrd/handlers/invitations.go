package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/savr-app/savr/pkg/api/types/errors"
	apimealplans "github.com/savr-app/savr/pkg/api/types/mealplans"
	bindmealplans "github.com/savr-app/savr/pkg/api-types-binding/mealplans"
	bindusers "github.com/savr-app/savr/pkg/api-types-binding/users"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	kmpdb "github.com/savr-app/savr/pkg/domain/mealplans/db"
	kudb "github.com/savr-app/savr/pkg/domain/users/db"
)

// composeInvitations binds invitations along with the entries they
// point at.
func composeInvitations(
	ctx context.Context,
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	invitations []domain.MealInvitation,
	urlOf bindusers.UrlResolver,
) ([]apimealplans.Invitation, error) {
	planIds := []int64{}
	for _, inv := range invitations {
		planIds = append(planIds, inv.MealPlanId)
	}
	plans, err := dbmealplan.Get(ctx, planIds)
	if err != nil {
		return nil, err
	}
	planList := []domain.MealPlan{}
	for _, p := range plans {
		planList = append(planList, p)
	}
	members, err := mealPlanMembers(ctx, dbuser, planList)
	if err != nil {
		return nil, err
	}

	bound := []apimealplans.Invitation{}
	for _, inv := range invitations {
		plan, ok := plans[inv.MealPlanId]
		if !ok {
			// the entry has been deleted since; skip its invitation.
			continue
		}
		bound = append(bound, bindmealplans.ComposeInvitation(inv, plan, members, urlOf))
	}
	return bound, nil
}

func InviteHandler(
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

		req := apimealplans.InviteRequest{}
		if err := decodeJson(c, &req); err != nil {
			return err
		}

		// just complices (followers or followings) can be invited.
		complices, err := dbuser.Complices(ctx, userId)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		isComplice := map[int64]bool{}
		for _, u := range complices {
			isComplice[u.UserId] = true
		}

		inviter, err := dbuser.Get(ctx, []int64{userId})
		if err != nil {
			return apierr.InternalServerError(err)
		}

		invited := []domain.MealInvitation{}
		for _, inviteeId := range req.InviteeIds {
			if !isComplice[inviteeId] {
				continue
			}
			inv, err := dbmealplan.Invite(ctx, mealPlanId, userId, inviteeId)
			if err != nil {
				switch {
				case errors.Is(err, kerr.ErrConflict):
					// invited already; not an error for the batch.
					continue
				case errors.Is(err, kerr.ErrMissing):
					return apierr.NotFound()
				case errors.Is(err, kerr.ErrForbidden):
					return apierr.Forbidden("just the owner may invite to an entry")
				default:
					return apierr.InternalServerError(err)
				}
			}
			invited = append(invited, inv)

			if me, ok := inviter[userId]; ok {
				// notification is best effort.
				_ = dbuser.Notify(ctx, domain.NewNotification{
					UserId:        inviteeId,
					Type:          domain.NotificationMealInvitation,
					Title:         "Meal invitation",
					Message:       fmt.Sprintf("%s invited you to a meal", me.Username),
					RelatedUserId: &userId,
				})
			}
		}

		if len(invited) == 0 {
			return apierr.BadRequest("no user could be invited", nil)
		}

		bound, err := composeInvitations(ctx, dbmealplan, dbuser, invited, urlOf)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusCreated, bound)
	}
}

func InvitationsHandler(
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
	pendingOnly bool,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		invitations, err := dbmealplan.Invitations(ctx, userId, pendingOnly)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		bound, err := composeInvitations(ctx, dbmealplan, dbuser, invitations, urlOf)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, bound)
	}
}

func RespondInvitationHandler(
	dbmealplan kmpdb.MealPlanInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
	accept bool,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		invitationId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		inv, err := dbmealplan.Respond(ctx, invitationId, userId, accept)
		if err != nil {
			switch {
			case errors.Is(err, kerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, kerr.ErrConflict):
				return apierr.Conflict("the invitation is responded already", apierr.WithError(err))
			default:
				return apierr.InternalServerError(err)
			}
		}

		if accept {
			// notification is best effort.
			_ = dbuser.Notify(ctx, domain.NewNotification{
				UserId:        inv.Inviter.UserId,
				Type:          domain.NotificationMealInvitation,
				Title:         "Invitation accepted",
				Message:       fmt.Sprintf("%s accepted your meal invitation", inv.Invitee.Username),
				RelatedUserId: &userId,
			})
		}

		bound, err := composeInvitations(ctx, dbmealplan, dbuser, []domain.MealInvitation{inv}, urlOf)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if len(bound) == 0 {
			// the entry vanished between responding and reading it back.
			return c.NoContent(http.StatusNoContent)
		}
		return c.JSON(http.StatusOK, bound[0])
	}
}
