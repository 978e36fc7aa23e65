package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	"github.com/savr-app/savr/pkg/utils/cmp"
)

var (
	ErrUnknownMealTime         = errors.New("unknown meal time")
	ErrUnknownPlanType         = errors.New("unknown plan type")
	ErrUnknownInvitationStatus = errors.New("unknown invitation status")
)

// MealTime is the slot of the day a meal plan entry occupies.
type MealTime string

const (
	MealTimeLunch  MealTime = "lunch"
	MealTimeDinner MealTime = "dinner"
)

func (m MealTime) String() string {
	return string(m)
}

func AsMealTime(s string) (MealTime, error) {
	switch MealTime(s) {
	case MealTimeLunch:
		return MealTimeLunch, nil
	case MealTimeDinner:
		return MealTimeDinner, nil
	default:
		return MealTime(s), fmt.Errorf("%w: %s", ErrUnknownMealTime, s)
	}
}

// PlanType tells what kind of meal a plan entry is.
// Only PlanRecipe entries reference a recipe.
type PlanType string

const (
	PlanCantine  PlanType = "cantine"
	PlanTakeaway PlanType = "takeaway"
	PlanRecipe   PlanType = "recipe"
	PlanUnknown  PlanType = "unknown"
)

func (p PlanType) String() string {
	return string(p)
}

func AsPlanType(s string) (PlanType, error) {
	switch PlanType(s) {
	case PlanCantine, PlanTakeaway, PlanRecipe, PlanUnknown:
		return PlanType(s), nil
	default:
		return PlanType(s), fmt.Errorf("%w: %s", ErrUnknownPlanType, s)
	}
}

type MealPlan struct {
	MealPlanId int64
	OwnerId    int64
	Date       rfctime.Date
	MealTime   MealTime
	PlanType   PlanType

	// Recipe is set when PlanType is PlanRecipe.
	Recipe *RecipeSummary

	Note      string
	Confirmed bool

	// SharedWith lists users the entry is shared with.
	SharedWith []User

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *MealPlan) Equal(o *MealPlan) bool {
	if (m == nil) || (o == nil) {
		return (m == nil) && (o == nil)
	}
	sameRecipe := (m.Recipe == nil) == (o.Recipe == nil)
	if sameRecipe && m.Recipe != nil {
		sameRecipe = m.Recipe.RecipeId == o.Recipe.RecipeId
	}
	return m.MealPlanId == o.MealPlanId &&
		m.OwnerId == o.OwnerId &&
		m.Date.Equal(o.Date) &&
		m.MealTime == o.MealTime &&
		m.PlanType == o.PlanType &&
		sameRecipe &&
		m.Note == o.Note &&
		m.Confirmed == o.Confirmed &&
		cmp.SliceContentEqWith(
			m.SharedWith, o.SharedWith,
			func(a, b User) bool { return a.UserId == b.UserId },
		)
}

// NewMealPlan is the payload for creating a meal plan entry.
type NewMealPlan struct {
	OwnerId  int64
	Date     rfctime.Date
	MealTime MealTime
	PlanType PlanType
	RecipeId *int64
	Note     string
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

func (i InvitationStatus) String() string {
	return string(i)
}

func AsInvitationStatus(s string) (InvitationStatus, error) {
	switch InvitationStatus(s) {
	case InvitationPending, InvitationAccepted, InvitationDeclined:
		return InvitationStatus(s), nil
	default:
		return InvitationStatus(s), fmt.Errorf("%w: %s", ErrUnknownInvitationStatus, s)
	}
}

// MealInvitation invites another user to join a meal plan entry.
// Accepting shares the entry with the invitee.
type MealInvitation struct {
	InvitationId int64
	MealPlanId   int64
	Inviter      User
	Invitee      User
	Status       InvitationStatus
	CreatedAt    time.Time
	RespondedAt  *time.Time
}
