package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	handlers "github.com/savr-app/savr/cmd/savrd/handlers"
	httptestutil "github.com/savr-app/savr/internal/testutils/http"
	apisearch "github.com/savr-app/savr/pkg/api/types/search"
	apiusers "github.com/savr-app/savr/pkg/api/types/users"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	krecdb "github.com/savr-app/savr/pkg/domain/recipes/db"
	rmocks "github.com/savr-app/savr/pkg/domain/recipes/db/mock"
	umocks "github.com/savr-app/savr/pkg/domain/users/db/mock"
)

func TestGetProfileHandler(t *testing.T) {

	profile := domain.Profile{
		User:           domain.User{UserId: 5, Email: "c@example.com", Username: "carol", Level: 2},
		FollowersCount: 3, FollowingCount: 1,
	}

	type when struct {
		viewerId   int64
		profileErr error
	}
	type then struct {
		err       func(error) bool
		withEmail bool
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"when a user views their own profile, it should carry the email": {
			when{viewerId: 5},
			then{withEmail: true},
		},
		"when a user views someone else's profile, it should hide the email": {
			when{viewerId: 9},
			then{withEmail: false},
		},
		"when the user does not exist, it should response 404": {
			when{viewerId: 9, profileErr: kerr.ErrMissing},
			then{err: statusIs(http.StatusNotFound)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.when, testcase.then

			mockUser := umocks.NewUserInterface()
			mockUser.Impl.Profile = func(ctx context.Context, userId, viewerId int64) (domain.Profile, bool, error) {
				return profile, false, when.profileErr
			}

			testee := handlers.GetProfileHandler(mockUser, noUrl)

			e := echo.New()
			c, respRec := httptestutil.Get(e, "/api/users/5")
			c.SetParamNames("id")
			c.SetParamValues("5")
			auth.SetUserId(c, when.viewerId)

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

			actual := apiusers.Profile{}
			if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
				t.Fatalf("parse error: %+v", err)
			}
			if (actual.Email != "") != then.withEmail {
				t.Errorf("email exposure is wrong: %+v", actual)
			}
			if actual.Id != profile.UserId || actual.FollowersCount != 3 {
				t.Errorf("unexpected profile: %+v", actual)
			}
		})
	}
}

func TestFollowHandler(t *testing.T) {

	type when struct {
		followerId  int64
		followingId string
		followErr   error
	}
	type then struct {
		err      func(error) bool
		notified bool
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"when following succeeds, it should notify the followed user": {
			when{followerId: 1, followingId: "2"},
			then{notified: true},
		},
		"when following oneself, it should response 400": {
			when{followerId: 1, followingId: "1", followErr: kerr.ErrConflict},
			then{err: statusIs(http.StatusBadRequest)},
		},
		"when following twice, it should succeed silently": {
			when{followerId: 1, followingId: "2", followErr: kerr.ErrConflict},
			then{},
		},
		"when the followed user does not exist, it should response 404": {
			when{followerId: 1, followingId: "999", followErr: kerr.ErrMissing},
			then{err: statusIs(http.StatusNotFound)},
		},
		"when the id is not a number, it should response 400": {
			when{followerId: 1, followingId: "two"},
			then{err: statusIs(http.StatusBadRequest)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.when, testcase.then

			mockUser := umocks.NewUserInterface()
			mockUser.Impl.Follow = func(ctx context.Context, followerId, followingId int64) error {
				return when.followErr
			}
			mockUser.Impl.Get = func(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
				return map[int64]domain.User{
					when.followerId: {UserId: when.followerId, Username: "follower"},
				}, nil
			}
			mockUser.Impl.Notify = func(ctx context.Context, n domain.NewNotification) error {
				if n.Type != domain.NotificationFollow {
					t.Errorf("unexpected notification type: %s", n.Type)
				}
				return nil
			}

			testee := handlers.FollowHandler(mockUser)

			e := echo.New()
			c, respRec := httptestutil.Post(e, "/api/users/x/follow", nil)
			c.SetParamNames("id")
			c.SetParamValues(when.followingId)
			auth.SetUserId(c, when.followerId)

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
			if respRec.Result().StatusCode != http.StatusNoContent {
				t.Errorf("unexpected status code: %d", respRec.Result().StatusCode)
			}
			if then.notified != (len(mockUser.Calls.Notify) == 1) {
				t.Errorf("unexpected notifications: %+v", mockUser.Calls.Notify)
			}
		})
	}
}

func TestSearchHandler(t *testing.T) {

	users := []domain.User{{UserId: 1, Username: "anna"}}
	recipes := []domain.RecipeSummary{
		{RecipeId: 10, AuthorId: 1, Title: "gratin"},
	}

	type when struct {
		query string
	}
	type then struct {
		newest      bool
		recipeLimit int
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"when the query is empty, it should suggest the newest users": {
			when{query: ""},
			then{newest: true, recipeLimit: handlers.SuggestionSize},
		},
		"when a query is given, it should search": {
			when{query: "gratin"},
			then{newest: false, recipeLimit: krecdb.SearchLimit},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.when, testcase.then

			mockUser := umocks.NewUserInterface()
			mockUser.Impl.Newest = func(ctx context.Context, limit int) ([]domain.User, error) {
				if limit != handlers.SuggestionSize {
					t.Errorf("unexpected limit: %d", limit)
				}
				return users, nil
			}
			mockUser.Impl.Search = func(ctx context.Context, q string) ([]domain.User, error) {
				if q != when.query {
					t.Errorf("unexpected query: %s", q)
				}
				return users, nil
			}
			mockUser.Impl.Get = func(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
				return map[int64]domain.User{1: users[0]}, nil
			}

			mockRecipe := rmocks.NewRecipeInterface()
			mockRecipe.Impl.Find = func(ctx context.Context, q krecdb.Query) ([]domain.RecipeSummary, int, error) {
				if q.Text != when.query || q.Limit != then.recipeLimit {
					t.Errorf("unexpected query: %+v", q)
				}
				return recipes, len(recipes), nil
			}

			testee := handlers.SearchHandler(mockUser, mockRecipe, noUrl)

			e := echo.New()
			c, respRec := httptestutil.Get(e, "/api/auth/search?q="+when.query)
			auth.SetUserId(c, 42)

			if err := testee(c); err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}

			if then.newest != (len(mockUser.Calls.Newest) == 1) {
				t.Errorf("unexpected Newest calls: %+v", mockUser.Calls.Newest)
			}
			if then.newest == (len(mockUser.Calls.Search) == 1) {
				t.Errorf("unexpected Search calls: %+v", mockUser.Calls.Search)
			}

			actual := apisearch.Response{}
			if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
				t.Fatalf("parse error: %+v", err)
			}
			if len(actual.Users) != 1 || actual.Users[0].Id != 1 {
				t.Errorf("unexpected users: %+v", actual.Users)
			}
			if len(actual.Recipes) != 1 || actual.Recipes[0].Id != 10 {
				t.Errorf("unexpected recipes: %+v", actual.Recipes)
			}
			if actual.Recipes[0].Author.Username != "anna" {
				t.Errorf("author is not resolved: %+v", actual.Recipes[0])
			}
		})
	}
}

func TestUnreadCountHandler(t *testing.T) {
	mockUser := umocks.NewUserInterface()
	mockUser.Impl.Notifications = func(ctx context.Context, userId int64, unreadOnly bool) ([]domain.Notification, error) {
		if !unreadOnly {
			t.Error("unread count should query unread notifications only")
		}
		return []domain.Notification{{NotificationId: 1}, {NotificationId: 2}}, nil
	}

	testee := handlers.UnreadCountHandler(mockUser)

	e := echo.New()
	c, respRec := httptestutil.Get(e, "/api/auth/notifications/unread-count")
	auth.SetUserId(c, 42)

	if err := testee(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	actual := apiusers.UnreadCountResponse{}
	if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
		t.Fatalf("parse error: %+v", err)
	}
	if actual.Count != 2 {
		t.Errorf("unexpected count: %d", actual.Count)
	}
}

func TestMarkNotificationReadHandler(t *testing.T) {
	mockUser := umocks.NewUserInterface()
	mockUser.Impl.MarkNotificationsRead = func(ctx context.Context, userId int64, ids []int64) error {
		return nil
	}

	testee := handlers.MarkNotificationReadHandler(mockUser)

	e := echo.New()
	c, respRec := httptestutil.Post(e, "/api/auth/notifications/7/read", nil)
	c.SetParamNames("id")
	c.SetParamValues("7")
	auth.SetUserId(c, 42)

	if err := testee(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if respRec.Result().StatusCode != http.StatusNoContent {
		t.Errorf("unexpected status code: %d", respRec.Result().StatusCode)
	}

	expected := []umocks.MarkNotificationsReadArgs{{UserId: 42, NotificationIds: []int64{7}}}
	if len(mockUser.Calls.MarkNotificationsRead) != 1 ||
		mockUser.Calls.MarkNotificationsRead[0].UserId != expected[0].UserId {
		t.Errorf("unexpected calls: %+v", mockUser.Calls.MarkNotificationsRead)
	}
}

func TestMarkAllNotificationsReadHandler(t *testing.T) {
	mockUser := umocks.NewUserInterface()
	mockUser.Impl.MarkNotificationsRead = func(ctx context.Context, userId int64, ids []int64) error {
		return nil
	}

	testee := handlers.MarkAllNotificationsReadHandler(mockUser)

	e := echo.New()
	c, respRec := httptestutil.Post(e, "/api/auth/notifications/read-all", nil)
	auth.SetUserId(c, 42)

	if err := testee(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if respRec.Result().StatusCode != http.StatusNoContent {
		t.Errorf("unexpected status code: %d", respRec.Result().StatusCode)
	}

	if len(mockUser.Calls.MarkNotificationsRead) != 1 {
		t.Fatalf("unexpected calls: %+v", mockUser.Calls.MarkNotificationsRead)
	}
	args := mockUser.Calls.MarkNotificationsRead[0]
	if args.UserId != 42 {
		t.Errorf("unexpected user: %+v", args)
	}

	// a nil slice reaches postgres as a null array, which reads all
	// notifications as none. empty means "every notification" here.
	if args.NotificationIds == nil || len(args.NotificationIds) != 0 {
		t.Errorf("the id list should be empty but not nil: %+v", args.NotificationIds)
	}
}

func TestUnauthorizedAccess(t *testing.T) {
	// handlers behind the login middleware still guard themselves.
	testee := handlers.ComplicesHandler(umocks.NewUserInterface(), noUrl)

	e := echo.New()
	c, _ := httptestutil.Get(e, "/api/auth/complices")

	if err := testee(c); !statusIs(http.StatusUnauthorized)(err) {
		t.Errorf("unexpected error: %+v", err)
	}
}
