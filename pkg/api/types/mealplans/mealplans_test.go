package mealplans_test

import (
	"testing"
	"time"

	"github.com/savr-app/savr/pkg/api/types/mealplans"
	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
)

func TestSpecValidate(t *testing.T) {
	date := rfctime.Date{Year: 2024, Month: time.May, Day: 13}
	recipeId := int64(11)

	for name, testcase := range map[string]struct {
		spec mealplans.Spec
		ok   bool
	}{
		"a recipe plan with a recipe id is fine": {
			spec: mealplans.Spec{Date: date, MealTime: "dinner", PlanType: "recipe", RecipeId: &recipeId},
			ok:   true,
		},
		"a cantine plan needs no recipe": {
			spec: mealplans.Spec{Date: date, MealTime: "lunch", PlanType: "cantine"},
			ok:   true,
		},
		"the date is required": {
			spec: mealplans.Spec{MealTime: "dinner", PlanType: "cantine"},
		},
		"the meal time should be known": {
			spec: mealplans.Spec{Date: date, MealTime: "brunch", PlanType: "cantine"},
		},
		"the plan type should be known": {
			spec: mealplans.Spec{Date: date, MealTime: "dinner", PlanType: "delivery"},
		},
		"a recipe plan without a recipe id is refused": {
			spec: mealplans.Spec{Date: date, MealTime: "dinner", PlanType: "recipe"},
		},
		"a takeaway plan with a recipe id is refused": {
			spec: mealplans.Spec{Date: date, MealTime: "dinner", PlanType: "takeaway", RecipeId: &recipeId},
		},
	} {
		t.Run(name, func(t *testing.T) {
			err := testcase.spec.Validate()
			if testcase.ok != (err == nil) {
				t.Errorf("unexpected validation result: %+v", err)
			}
		})
	}
}

func TestUpdateValidate(t *testing.T) {
	recipeId := int64(11)

	for name, testcase := range map[string]struct {
		update mealplans.Update
		ok     bool
	}{
		"switching to a recipe plan carries the recipe id": {
			update: mealplans.Update{PlanType: "recipe", RecipeId: &recipeId},
			ok:     true,
		},
		"switching to takeaway drops the recipe": {
			update: mealplans.Update{PlanType: "takeaway"},
			ok:     true,
		},
		"the plan type should be known": {
			update: mealplans.Update{PlanType: "delivery"},
		},
		"a recipe plan without a recipe id is refused": {
			update: mealplans.Update{PlanType: "recipe"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			err := testcase.update.Validate()
			if testcase.ok != (err == nil) {
				t.Errorf("unexpected validation result: %+v", err)
			}
		})
	}
}

func TestInviteRequestValidate(t *testing.T) {
	for name, testcase := range map[string]struct {
		req mealplans.InviteRequest
		ok  bool
	}{
		"some invitees are fine":       {req: mealplans.InviteRequest{InviteeIds: []int64{2, 3}}, ok: true},
		"no invitees is refused":       {req: mealplans.InviteRequest{}},
		"non-positive ids are refused": {req: mealplans.InviteRequest{InviteeIds: []int64{2, 0}}},
	} {
		t.Run(name, func(t *testing.T) {
			err := testcase.req.Validate()
			if testcase.ok != (err == nil) {
				t.Errorf("unexpected validation result: %+v", err)
			}
		})
	}
}
