package db

import (
	"context"

	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	"github.com/savr-app/savr/pkg/domain"
)

// Update is the editable part of a meal plan entry.
type Update struct {
	PlanType domain.PlanType
	RecipeId *int64
	Note     string
}

type MealPlanInterface interface {
	// Register creates a meal plan entry.
	//
	// Returns domain/errors.ErrConflict when the owner already has
	// an entry at the same date and meal time.
	Register(ctx context.Context, newPlan domain.NewMealPlan) (domain.MealPlan, error)

	// Get retrieves entries with their shares.
	//
	// Missing ids are just absent from the returned map.
	Get(ctx context.Context, mealPlanIds []int64) (map[int64]domain.MealPlan, error)

	// ByDateRange lists the user's entries, owned or shared with
	// them, within [since, until], ordered by date and meal time.
	ByDateRange(ctx context.Context, userId int64, since rfctime.Date, until rfctime.Date) ([]domain.MealPlan, error)

	// Update edits an entry. Just the owner may update.
	Update(ctx context.Context, mealPlanId int64, ownerId int64, update Update) (domain.MealPlan, error)

	// Delete removes an entry. Just the owner may delete.
	Delete(ctx context.Context, mealPlanId int64, ownerId int64) error

	// Confirm flips the confirmed flag.
	Confirm(ctx context.Context, mealPlanId int64, ownerId int64, confirmed bool) error

	// SharedWithMe lists entries shared with the user, newest date
	// first.
	SharedWithMe(ctx context.Context, userId int64) ([]domain.MealPlan, error)

	// Invite invites a user to an entry. Just the owner may invite.
	//
	// Returns domain/errors.ErrConflict when the invitee is already
	// invited.
	Invite(ctx context.Context, mealPlanId int64, inviterId int64, inviteeId int64) (domain.MealInvitation, error)

	// Invitations lists invitations the user sent or received,
	// newest first. With pendingOnly, just the pending ones they
	// received.
	Invitations(ctx context.Context, userId int64, pendingOnly bool) ([]domain.MealInvitation, error)

	// Respond accepts or declines a pending invitation.
	//
	// Accepting shares the entry with the invitee and mirrors it into
	// the invitee's own calendar: their entry at the same date and
	// meal time is reused, or created from the inviter's one and
	// shared back with the inviter.
	//
	// Returns domain/errors.ErrConflict when the invitation has
	// been responded already.
	Respond(ctx context.Context, invitationId int64, inviteeId int64, accept bool) (domain.MealInvitation, error)
}
