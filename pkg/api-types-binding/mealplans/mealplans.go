package mealplans

import (
	"github.com/savr-app/savr/pkg/api/types/mealplans"
	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	"github.com/savr-app/savr/pkg/api/types/recipes"
	"github.com/savr-app/savr/pkg/api/types/users"
	bindrecipes "github.com/savr-app/savr/pkg/api-types-binding/recipes"
	bindusers "github.com/savr-app/savr/pkg/api-types-binding/users"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/utils/slices"
)

// ComposeDetail binds a meal plan entry.
//
// members maps user ids to users, covering the owner, the recipe
// author and everyone the entry is shared with.
func ComposeDetail(m domain.MealPlan, members map[int64]domain.User, urlOf bindusers.UrlResolver) mealplans.Detail {
	var recipe *recipes.Summary
	if m.Recipe != nil {
		s := bindrecipes.ComposeSummary(*m.Recipe, members[m.Recipe.AuthorId], urlOf)
		recipe = &s
	}
	return mealplans.Detail{
		Id:        m.MealPlanId,
		Owner:     bindusers.ComposeSummary(members[m.OwnerId], urlOf),
		Date:      m.Date,
		MealTime:  m.MealTime.String(),
		PlanType:  m.PlanType.String(),
		Recipe:    recipe,
		Note:      m.Note,
		Confirmed: m.Confirmed,
		SharedWith: slices.Map(m.SharedWith, func(u domain.User) users.Summary {
			return bindusers.ComposeSummary(u, urlOf)
		}),
		CreatedAt: rfctime.RFC3339(m.CreatedAt),
	}
}

func ComposeInvitation(inv domain.MealInvitation, plan domain.MealPlan, members map[int64]domain.User, urlOf bindusers.UrlResolver) mealplans.Invitation {
	var responded *rfctime.RFC3339
	if inv.RespondedAt != nil {
		t := rfctime.RFC3339(*inv.RespondedAt)
		responded = &t
	}
	return mealplans.Invitation{
		Id:          inv.InvitationId,
		MealPlan:    ComposeDetail(plan, members, urlOf),
		Inviter:     bindusers.ComposeSummary(inv.Inviter, urlOf),
		Invitee:     bindusers.ComposeSummary(inv.Invitee, urlOf),
		Status:      inv.Status.String(),
		CreatedAt:   rfctime.RFC3339(inv.CreatedAt),
		RespondedAt: responded,
	}
}
