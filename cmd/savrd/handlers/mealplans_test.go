package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	handlers "github.com/savr-app/savr/cmd/savrd/handlers"
	httptestutil "github.com/savr-app/savr/internal/testutils/http"
	apimealplans "github.com/savr-app/savr/pkg/api/types/mealplans"
	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	kmpdb "github.com/savr-app/savr/pkg/domain/mealplans/db"
	mmocks "github.com/savr-app/savr/pkg/domain/mealplans/db/mock"
	umocks "github.com/savr-app/savr/pkg/domain/users/db/mock"
	"github.com/savr-app/savr/pkg/utils/try"
)

func usersById(users ...domain.User) func(context.Context, []int64) (map[int64]domain.User, error) {
	byId := map[int64]domain.User{}
	for _, u := range users {
		byId[u.UserId] = u
	}
	return func(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
		return byId, nil
	}
}

func TestMealPlanRegisterHandler(t *testing.T) {
	owner := domain.User{UserId: 42, Username: "anna"}
	date := try.To(rfctime.ParseDate("2024-05-13")).OrFatal(t)

	type when struct {
		body        string
		registerErr error
	}
	type then struct {
		err     func(error) bool
		newPlan *domain.NewMealPlan
	}

	recipeId := int64(11)
	for name, testcase := range map[string]struct {
		when
		then
	}{
		"when registering a recipe plan, it should pass the recipe id": {
			when{body: `{"date": "2024-05-13", "mealTime": "dinner", "planType": "recipe", "recipeId": 11}`},
			then{newPlan: &domain.NewMealPlan{
				OwnerId: 42, Date: date, MealTime: domain.MealTimeDinner,
				PlanType: domain.PlanRecipe, RecipeId: &recipeId,
			}},
		},
		"when registering a cantine plan, it should need no recipe": {
			when{body: `{"date": "2024-05-13", "mealTime": "lunch", "planType": "cantine"}`},
			then{newPlan: &domain.NewMealPlan{
				OwnerId: 42, Date: date, MealTime: domain.MealTimeLunch,
				PlanType: domain.PlanCantine,
			}},
		},
		"when the slot is taken, it should response 409": {
			when{
				body:        `{"date": "2024-05-13", "mealTime": "lunch", "planType": "cantine"}`,
				registerErr: kerr.ErrConflict,
			},
			then{err: statusIs(http.StatusConflict)},
		},
		"when a recipe plan has no recipe id, it should response 400": {
			when{body: `{"date": "2024-05-13", "mealTime": "lunch", "planType": "recipe"}`},
			then{err: statusIs(http.StatusBadRequest)},
		},
		"when a cantine plan has a recipe id, it should response 400": {
			when{body: `{"date": "2024-05-13", "mealTime": "lunch", "planType": "cantine", "recipeId": 11}`},
			then{err: statusIs(http.StatusBadRequest)},
		},
		"when the meal time is unknown, it should response 400": {
			when{body: `{"date": "2024-05-13", "mealTime": "brunch", "planType": "cantine"}`},
			then{err: statusIs(http.StatusBadRequest)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.when, testcase.then

			mockMealPlan := mmocks.NewMealPlanInterface()
			mockMealPlan.Impl.Register = func(ctx context.Context, newPlan domain.NewMealPlan) (domain.MealPlan, error) {
				if when.registerErr != nil {
					return domain.MealPlan{}, when.registerErr
				}
				return domain.MealPlan{
					MealPlanId: 1, OwnerId: newPlan.OwnerId, Date: newPlan.Date,
					MealTime: newPlan.MealTime, PlanType: newPlan.PlanType,
					Note: newPlan.Note,
				}, nil
			}
			mockUser := umocks.NewUserInterface()
			mockUser.Impl.Get = usersById(owner)

			testee := handlers.MealPlanRegisterHandler(mockMealPlan, mockUser, noUrl)

			e := echo.New()
			c, respRec := httptestutil.Post(
				e, "/api/meal-plans", bytes.NewBufferString(when.body),
				httptestutil.ContentType("application/json"),
			)
			auth.SetUserId(c, 42)

			err := testee(c)
			if then.err != nil {
				if !then.err(err) {
					t.Errorf("unexpected error: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if respRec.Result().StatusCode != http.StatusCreated {
				t.Errorf("unexpected status code: %d", respRec.Result().StatusCode)
			}

			if len(mockMealPlan.Calls.Register) != 1 {
				t.Fatalf("unexpected Register calls: %+v", mockMealPlan.Calls.Register)
			}
			actual := mockMealPlan.Calls.Register[0]
			expected := *then.newPlan
			sameRecipe := (actual.RecipeId == nil) == (expected.RecipeId == nil)
			if sameRecipe && actual.RecipeId != nil {
				sameRecipe = *actual.RecipeId == *expected.RecipeId
			}
			if actual.OwnerId != expected.OwnerId ||
				!actual.Date.Equal(expected.Date) ||
				actual.MealTime != expected.MealTime ||
				actual.PlanType != expected.PlanType ||
				!sameRecipe {
				t.Errorf(
					"unmatch:\n- actual   : %+v\n- expected : %+v",
					actual, expected,
				)
			}
		})
	}
}

func TestGetMealPlanHandler(t *testing.T) {
	owner := domain.User{UserId: 1, Username: "anna"}
	friend := domain.User{UserId: 2, Username: "bob"}
	plan := domain.MealPlan{
		MealPlanId: 5, OwnerId: owner.UserId,
		Date:     try.To(rfctime.ParseDate("2024-05-13")).OrFatal(t),
		MealTime: domain.MealTimeLunch, PlanType: domain.PlanCantine,
		SharedWith: []domain.User{friend},
	}

	for name, testcase := range map[string]struct {
		viewerId int64
		then     func(error) bool
	}{
		"when the owner views the entry, it should respond it":        {viewerId: 1, then: nil},
		"when a share target views the entry, it should respond it":   {viewerId: 2, then: nil},
		"when an unrelated user views the entry, it should hide it":   {viewerId: 3, then: statusIs(http.StatusNotFound)},
	} {
		t.Run(name, func(t *testing.T) {
			mockMealPlan := mmocks.NewMealPlanInterface()
			mockMealPlan.Impl.Get = func(ctx context.Context, ids []int64) (map[int64]domain.MealPlan, error) {
				return map[int64]domain.MealPlan{plan.MealPlanId: plan}, nil
			}
			mockUser := umocks.NewUserInterface()
			mockUser.Impl.Get = usersById(owner, friend)

			testee := handlers.GetMealPlanHandler(mockMealPlan, mockUser, noUrl)

			e := echo.New()
			c, respRec := httptestutil.Get(e, "/api/meal-plans/5")
			c.SetParamNames("id")
			c.SetParamValues("5")
			auth.SetUserId(c, testcase.viewerId)

			err := testee(c)
			if testcase.then != nil {
				if !testcase.then(err) {
					t.Errorf("unexpected error: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}

			actual := apimealplans.Detail{}
			if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
				t.Fatalf("parse error: %+v", err)
			}
			if actual.Id != plan.MealPlanId || actual.Owner.Username != "anna" {
				t.Errorf("unexpected body: %+v", actual)
			}
			if len(actual.SharedWith) != 1 || actual.SharedWith[0].Username != "bob" {
				t.Errorf("unexpected share targets: %+v", actual.SharedWith)
			}
		})
	}
}

func TestMealPlansByWeekHandler(t *testing.T) {
	mockMealPlan := mmocks.NewMealPlanInterface()
	mockMealPlan.Impl.ByDateRange = func(ctx context.Context, userId int64, since, until rfctime.Date) ([]domain.MealPlan, error) {
		return nil, nil
	}
	mockUser := umocks.NewUserInterface()
	mockUser.Impl.Get = usersById()

	testee := handlers.MealPlansByWeekHandler(mockMealPlan, mockUser, noUrl)

	e := echo.New()
	c, respRec := httptestutil.Get(e, "/api/meal-plans/by-week?date=2024-05-15")
	auth.SetUserId(c, 42)

	if err := testee(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	if len(mockMealPlan.Calls.ByDateRange) != 1 {
		t.Fatalf("unexpected calls: %+v", mockMealPlan.Calls.ByDateRange)
	}
	actual := mockMealPlan.Calls.ByDateRange[0]
	since := try.To(rfctime.ParseDate("2024-05-15")).OrFatal(t)
	until := try.To(rfctime.ParseDate("2024-05-21")).OrFatal(t)
	if !actual.Since.Equal(since) || !actual.Until.Equal(until) {
		t.Errorf("unexpected range: %+v", actual)
	}

	body := []apimealplans.Detail{}
	if err := json.NewDecoder(respRec.Body).Decode(&body); err != nil {
		t.Fatalf("parse error: %+v", err)
	}
	if len(body) != 0 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestMealPlansByDateHandler(t *testing.T) {
	t.Run("when the date is missing, it should response 400", func(t *testing.T) {
		testee := handlers.MealPlansByDateHandler(
			mmocks.NewMealPlanInterface(), umocks.NewUserInterface(), noUrl,
		)

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/meal-plans/by-date")
		auth.SetUserId(c, 42)

		if err := testee(c); !statusIs(http.StatusBadRequest)(err) {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("when a date is given, it should query that single day", func(t *testing.T) {
		mockMealPlan := mmocks.NewMealPlanInterface()
		mockMealPlan.Impl.ByDateRange = func(ctx context.Context, userId int64, since, until rfctime.Date) ([]domain.MealPlan, error) {
			return nil, nil
		}
		mockUser := umocks.NewUserInterface()
		mockUser.Impl.Get = usersById()

		testee := handlers.MealPlansByDateHandler(mockMealPlan, mockUser, noUrl)

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/meal-plans/by-date?date=2024-05-13")
		auth.SetUserId(c, 42)

		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		actual := mockMealPlan.Calls.ByDateRange[0]
		if !actual.Since.Equal(actual.Until) {
			t.Errorf("by-date should query one day: %+v", actual)
		}
	})
}

func TestMealPlanUpdateHandler(t *testing.T) {
	for name, testcase := range map[string]struct {
		updateErr error
		then      func(error) bool
	}{
		"when the entry is missing, it should response 404": {
			updateErr: kerr.ErrMissing, then: statusIs(http.StatusNotFound),
		},
		"when another user updates, it should response 403": {
			updateErr: kerr.ErrForbidden, then: statusIs(http.StatusForbidden),
		},
	} {
		t.Run(name, func(t *testing.T) {
			mockMealPlan := mmocks.NewMealPlanInterface()
			mockMealPlan.Impl.Update = func(ctx context.Context, mealPlanId, ownerId int64, update kmpdb.Update) (domain.MealPlan, error) {
				return domain.MealPlan{}, testcase.updateErr
			}

			testee := handlers.MealPlanUpdateHandler(
				mockMealPlan, umocks.NewUserInterface(), noUrl,
			)

			e := echo.New()
			c, _ := httptestutil.Put(
				e, "/api/meal-plans/5",
				bytes.NewBufferString(`{"planType": "takeaway", "note": "pizza"}`),
				httptestutil.ContentType("application/json"),
			)
			c.SetParamNames("id")
			c.SetParamValues("5")
			auth.SetUserId(c, 42)

			if err := testee(c); !testcase.then(err) {
				t.Errorf("unexpected error: %+v", err)
			}
		})
	}
}

func TestInviteHandler(t *testing.T) {
	owner := domain.User{UserId: 1, Username: "anna"}
	friend := domain.User{UserId: 2, Username: "bob"}
	plan := domain.MealPlan{
		MealPlanId: 5, OwnerId: owner.UserId,
		Date:     try.To(rfctime.ParseDate("2024-05-13")).OrFatal(t),
		MealTime: domain.MealTimeDinner, PlanType: domain.PlanRecipe,
	}

	type when struct {
		inviteeIds string
	}
	type then struct {
		err      func(error) bool
		invited  []int64
		notified int
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"when inviting a complice, it should invite and notify them": {
			when{inviteeIds: `[2]`},
			then{invited: []int64{2}, notified: 1},
		},
		"when inviting a stranger, it should response 400": {
			when{inviteeIds: `[9]`},
			then{err: statusIs(http.StatusBadRequest)},
		},
		"when inviting both, it should invite just the complice": {
			when{inviteeIds: `[2, 9]`},
			then{invited: []int64{2}, notified: 1},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.when, testcase.then

			mockMealPlan := mmocks.NewMealPlanInterface()
			mockMealPlan.Impl.Invite = func(ctx context.Context, mealPlanId, inviterId, inviteeId int64) (domain.MealInvitation, error) {
				return domain.MealInvitation{
					InvitationId: 100, MealPlanId: mealPlanId,
					Inviter: owner, Invitee: friend,
					Status: domain.InvitationPending,
				}, nil
			}
			mockMealPlan.Impl.Get = func(ctx context.Context, ids []int64) (map[int64]domain.MealPlan, error) {
				return map[int64]domain.MealPlan{plan.MealPlanId: plan}, nil
			}

			mockUser := umocks.NewUserInterface()
			mockUser.Impl.Complices = func(ctx context.Context, userId int64) ([]domain.User, error) {
				return []domain.User{friend}, nil
			}
			mockUser.Impl.Get = usersById(owner, friend)
			mockUser.Impl.Notify = func(ctx context.Context, n domain.NewNotification) error {
				if n.Type != domain.NotificationMealInvitation {
					t.Errorf("unexpected notification type: %s", n.Type)
				}
				return nil
			}

			testee := handlers.InviteHandler(mockMealPlan, mockUser, noUrl)

			e := echo.New()
			c, respRec := httptestutil.Post(
				e, "/api/meal-plans/5/invite",
				bytes.NewBufferString(`{"inviteeIds": `+when.inviteeIds+`}`),
				httptestutil.ContentType("application/json"),
			)
			c.SetParamNames("id")
			c.SetParamValues("5")
			auth.SetUserId(c, owner.UserId)

			err := testee(c)
			if then.err != nil {
				if !then.err(err) {
					t.Errorf("unexpected error: %+v", err)
				}
				if len(mockMealPlan.Calls.Invite) != 0 {
					t.Errorf("Invite should not be called: %+v", mockMealPlan.Calls.Invite)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if respRec.Result().StatusCode != http.StatusCreated {
				t.Errorf("unexpected status code: %d", respRec.Result().StatusCode)
			}

			actualInvited := []int64{}
			for _, call := range mockMealPlan.Calls.Invite {
				actualInvited = append(actualInvited, call.InviteeId)
			}
			if len(actualInvited) != len(then.invited) {
				t.Errorf("unexpected invitees: %+v", actualInvited)
			}
			if len(mockUser.Calls.Notify) != then.notified {
				t.Errorf("unexpected notifications: %+v", mockUser.Calls.Notify)
			}
		})
	}
}

func TestRespondInvitationHandler(t *testing.T) {
	owner := domain.User{UserId: 1, Username: "anna"}
	friend := domain.User{UserId: 2, Username: "bob"}
	plan := domain.MealPlan{
		MealPlanId: 5, OwnerId: owner.UserId,
		Date:     try.To(rfctime.ParseDate("2024-05-13")).OrFatal(t),
		MealTime: domain.MealTimeDinner, PlanType: domain.PlanCantine,
	}

	type when struct {
		accept     bool
		respondErr error
	}
	type then struct {
		err      func(error) bool
		notified bool
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"when accepting, it should notify the inviter": {
			when{accept: true},
			then{notified: true},
		},
		"when declining, it should stay quiet": {
			when{accept: false},
			then{notified: false},
		},
		"when responding twice, it should response 409": {
			when{accept: true, respondErr: kerr.ErrConflict},
			then{err: statusIs(http.StatusConflict)},
		},
		"when the invitation is missing, it should response 404": {
			when{accept: true, respondErr: kerr.ErrMissing},
			then{err: statusIs(http.StatusNotFound)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.when, testcase.then

			mockMealPlan := mmocks.NewMealPlanInterface()
			mockMealPlan.Impl.Respond = func(ctx context.Context, invitationId, inviteeId int64, accept bool) (domain.MealInvitation, error) {
				if when.respondErr != nil {
					return domain.MealInvitation{}, when.respondErr
				}
				status := domain.InvitationDeclined
				if accept {
					status = domain.InvitationAccepted
				}
				return domain.MealInvitation{
					InvitationId: 100, MealPlanId: plan.MealPlanId,
					Inviter: owner, Invitee: friend, Status: status,
				}, nil
			}
			mockMealPlan.Impl.Get = func(ctx context.Context, ids []int64) (map[int64]domain.MealPlan, error) {
				return map[int64]domain.MealPlan{plan.MealPlanId: plan}, nil
			}

			mockUser := umocks.NewUserInterface()
			mockUser.Impl.Get = usersById(owner, friend)
			mockUser.Impl.Notify = func(ctx context.Context, n domain.NewNotification) error {
				if n.UserId != owner.UserId {
					t.Errorf("the inviter should be notified, not %d", n.UserId)
				}
				return nil
			}

			testee := handlers.RespondInvitationHandler(mockMealPlan, mockUser, noUrl, when.accept)

			e := echo.New()
			c, respRec := httptestutil.Post(e, "/api/meal-invitations/100/accept", nil)
			c.SetParamNames("id")
			c.SetParamValues("100")
			auth.SetUserId(c, friend.UserId)

			err := testee(c)
			if then.err != nil {
				if !then.err(err) {
					t.Errorf("unexpected error: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}

			if then.notified != (len(mockUser.Calls.Notify) == 1) {
				t.Errorf("unexpected notifications: %+v", mockUser.Calls.Notify)
			}

			actual := apimealplans.Invitation{}
			if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
				t.Fatalf("parse error: %+v", err)
			}
			if actual.Id != 100 || actual.MealPlan.Id != plan.MealPlanId {
				t.Errorf("unexpected body: %+v", actual)
			}
		})
	}
}
