package mealplans

import (
	"errors"

	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	"github.com/savr-app/savr/pkg/api/types/recipes"
	"github.com/savr-app/savr/pkg/api/types/users"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/utils/cmp"
)

type Detail struct {
	Id         int64            `json:"id"`
	Owner      users.Summary    `json:"owner"`
	Date       rfctime.Date     `json:"date"`
	MealTime   string           `json:"mealTime"`
	PlanType   string           `json:"planType"`
	Recipe     *recipes.Summary `json:"recipe,omitempty"`
	Note       string           `json:"note,omitempty"`
	Confirmed  bool             `json:"confirmed"`
	SharedWith []users.Summary  `json:"sharedWith"`
	CreatedAt  rfctime.RFC3339  `json:"createdAt"`
}

func (d Detail) Equal(o Detail) bool {
	sameRecipe := (d.Recipe == nil) == (o.Recipe == nil)
	if sameRecipe && d.Recipe != nil {
		sameRecipe = d.Recipe.Equal(*o.Recipe)
	}
	return d.Id == o.Id &&
		d.Owner.Equal(o.Owner) &&
		d.Date.Equal(o.Date) &&
		d.MealTime == o.MealTime &&
		d.PlanType == o.PlanType &&
		sameRecipe &&
		d.Note == o.Note &&
		d.Confirmed == o.Confirmed &&
		cmp.SliceContentEqWith(
			d.SharedWith, o.SharedWith,
			func(a, b users.Summary) bool { return a.Equal(b) },
		)
}

// Spec is the write form of a meal plan entry.
type Spec struct {
	Date     rfctime.Date `json:"date"`
	MealTime string       `json:"mealTime"`
	PlanType string       `json:"planType"`
	RecipeId *int64       `json:"recipeId,omitempty"`
	Note     string       `json:"note,omitempty"`
}

func (s *Spec) Validate() error {
	if (s.Date == rfctime.Date{}) {
		return errors.New("date is required")
	}
	if _, err := domain.AsMealTime(s.MealTime); err != nil {
		return err
	}
	planType, err := domain.AsPlanType(s.PlanType)
	if err != nil {
		return err
	}
	if (planType == domain.PlanRecipe) != (s.RecipeId != nil) {
		return errors.New("recipeId is required just for recipe plans")
	}
	return nil
}

// Update is the editable part of an entry. The date and the meal
// time identify the slot and stay fixed.
type Update struct {
	PlanType string `json:"planType"`
	RecipeId *int64 `json:"recipeId,omitempty"`
	Note     string `json:"note,omitempty"`
}

func (u *Update) Validate() error {
	planType, err := domain.AsPlanType(u.PlanType)
	if err != nil {
		return err
	}
	if (planType == domain.PlanRecipe) != (u.RecipeId != nil) {
		return errors.New("recipeId is required just for recipe plans")
	}
	return nil
}

type Invitation struct {
	Id          int64            `json:"id"`
	MealPlan    Detail           `json:"mealPlan"`
	Inviter     users.Summary    `json:"inviter"`
	Invitee     users.Summary    `json:"invitee"`
	Status      string           `json:"status"`
	CreatedAt   rfctime.RFC3339  `json:"createdAt"`
	RespondedAt *rfctime.RFC3339 `json:"respondedAt,omitempty"`
}

// InviteRequest invites users to a meal plan entry.
type InviteRequest struct {
	InviteeIds []int64 `json:"inviteeIds"`
}

func (r *InviteRequest) Validate() error {
	if len(r.InviteeIds) == 0 {
		return errors.New("inviteeIds is required")
	}
	for _, id := range r.InviteeIds {
		if id <= 0 {
			return errors.New("inviteeIds should be positive")
		}
	}
	return nil
}
