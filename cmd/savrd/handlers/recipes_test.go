package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	handlers "github.com/savr-app/savr/cmd/savrd/handlers"
	httptestutil "github.com/savr-app/savr/internal/testutils/http"
	"github.com/savr-app/savr/pkg/api/types/misc/page"
	apirecipes "github.com/savr-app/savr/pkg/api/types/recipes"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	imocks "github.com/savr-app/savr/pkg/domain/ingredients/db/mock"
	"github.com/savr-app/savr/pkg/domain/ingredients/matcher"
	krecdb "github.com/savr-app/savr/pkg/domain/recipes/db"
	rmocks "github.com/savr-app/savr/pkg/domain/recipes/db/mock"
	umocks "github.com/savr-app/savr/pkg/domain/users/db/mock"
)

// fixedEmbedder returns the same vector for every text.
type fixedEmbedder struct {
	vec []float32
}

func (f fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

func (f fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for nth := range texts {
		vecs[nth] = f.vec
	}
	return vecs, nil
}

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	objects map[string]bool
	removed []string
}

func newFakeStore(objects ...string) *fakeStore {
	s := &fakeStore{objects: map[string]bool{}}
	for _, o := range objects {
		s.objects[o] = true
	}
	return s
}

func (s *fakeStore) PresignPut(ctx context.Context, objectPath string) (string, error) {
	return "https://storage.invalid/presigned/" + objectPath, nil
}

func (s *fakeStore) Exists(ctx context.Context, objectPath string) (bool, error) {
	return s.objects[objectPath], nil
}

func (s *fakeStore) Remove(ctx context.Context, objectPath string) error {
	delete(s.objects, objectPath)
	s.removed = append(s.removed, objectPath)
	return nil
}

func (s *fakeStore) PublicUrl(objectPath string) string {
	if objectPath == "" {
		return ""
	}
	return "https://storage.invalid/public/" + objectPath
}

var _ handlers.ObjectStore = &fakeStore{}

// catalogMatcher builds a matcher whose nearest catalog entry is
// always the given ingredient, at distance 0.
func catalogMatcher(ingredient domain.Ingredient) *matcher.Matcher {
	mockIngredient := imocks.NewIngredientInterface()
	mockIngredient.Impl.ByName = func(ctx context.Context, name string) (domain.Ingredient, error) {
		return domain.Ingredient{}, kerr.ErrMissing
	}
	mockIngredient.Impl.Nearest = func(ctx context.Context, vec []float32) (domain.Ingredient, float64, error) {
		return ingredient, 0, nil
	}
	return matcher.New(fixedEmbedder{vec: []float32{1, 0, 0}}, mockIngredient)
}

func TestRecipeRegisterHandler(t *testing.T) {
	tomato := domain.Ingredient{IngredientId: 3, Name: "tomate"}

	body := `{
	"title": "tomates farcies",
	"description": "plat familial",
	"mealType": "dinner",
	"difficulty": "easy",
	"prepTime": 20,
	"cookTime": 40,
	"servings": 4,
	"isPublic": false,
	"ingredients": [
		{"name": "tomates", "quantity": 8, "unit": "piece"}
	],
	"steps": [
		{
			"instruction": "creuser les tomates",
			"tip": "garder les chapeaux",
			"hasTimer": true,
			"timerDuration": 10,
			"ingredients": [{"index": 0, "quantityRatio": 1}]
		}
	]
}`

	registered := domain.Recipe{
		RecipeId: 11, AuthorId: 42, Title: "tomates farcies",
		MealType: domain.MealDinner, Difficulty: domain.DifficultyEasy,
		PrepTime: 20, CookTime: 40, Servings: 4,
		SourceType: domain.SourceUserCreated,
		Ingredients: []domain.RecipeIngredient{
			{RecipeIngredientId: 21, Ingredient: tomato, RawName: "tomates", Quantity: 8, Unit: domain.UnitPiece, Position: 1},
		},
		Steps: []domain.Step{
			{StepId: 31, Position: 1, Instruction: "creuser les tomates",
				Ingredients: []domain.StepIngredient{{RecipeIngredientId: 21, QuantityRatio: 1}}},
		},
	}

	mockRecipe := rmocks.NewRecipeInterface()
	mockRecipe.Impl.Register = func(ctx context.Context, spec krecdb.Spec) (domain.Recipe, error) {
		return registered, nil
	}
	mockUser := umocks.NewUserInterface()
	mockUser.Impl.Get = func(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
		return map[int64]domain.User{42: {UserId: 42, Username: "anna"}}, nil
	}

	testee := handlers.RecipeRegisterHandler(
		mockRecipe, mockUser, catalogMatcher(tomato), noUrl,
	)

	e := echo.New()
	c, respRec := httptestutil.Post(
		e, "/api/recipes", bytes.NewBufferString(body),
		httptestutil.ContentType("application/json"),
	)
	auth.SetUserId(c, 42)

	if err := testee(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if respRec.Result().StatusCode != http.StatusCreated {
		t.Errorf("unexpected status code: %d", respRec.Result().StatusCode)
	}

	if len(mockRecipe.Calls.Register) != 1 {
		t.Fatalf("unexpected Register calls: %+v", mockRecipe.Calls.Register)
	}
	spec := mockRecipe.Calls.Register[0]
	if spec.AuthorId != 42 || spec.SourceType != domain.SourceUserCreated {
		t.Errorf("unexpected spec: %+v", spec)
	}
	if len(spec.Ingredients) != 1 || spec.Ingredients[0].IngredientId != tomato.IngredientId {
		t.Errorf("raw name is not matched against the catalog: %+v", spec.Ingredients)
	}
	if len(spec.Steps) != 1 || len(spec.Steps[0].Ingredients) != 1 {
		t.Errorf("unexpected steps: %+v", spec.Steps)
	}
	if spec.IsPublic {
		t.Errorf("the visibility flag should be passed down: %+v", spec)
	}
	if step := spec.Steps[0]; step.Tip != "garder les chapeaux" ||
		!step.HasTimer || step.TimerDuration != 10 {
		t.Errorf("unexpected step: %+v", step)
	}

	actual := apirecipes.Detail{}
	if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
		t.Fatalf("parse error: %+v", err)
	}
	if actual.Id != registered.RecipeId || actual.Author.Username != "anna" {
		t.Errorf("unexpected body: %+v", actual)
	}
	if actual.TotalTime != 60 {
		t.Errorf("total time should be prep+cook+rest: %+v", actual)
	}
}

func TestRecipeUpdateHandler(t *testing.T) {
	tomato := domain.Ingredient{IngredientId: 3, Name: "tomate"}
	body := `{
	"title": "salade",
	"mealType": "lunch",
	"difficulty": "easy",
	"servings": 2,
	"ingredients": [{"name": "tomates", "quantity": 2, "unit": "piece"}],
	"steps": [{"instruction": "couper"}]
}`

	for name, testcase := range map[string]struct {
		updateErr error
		then      func(error) bool
	}{
		"when the recipe is missing, it should response 404": {
			updateErr: kerr.ErrMissing, then: statusIs(http.StatusNotFound),
		},
		"when another user updates, it should response 403": {
			updateErr: kerr.ErrForbidden, then: statusIs(http.StatusForbidden),
		},
	} {
		t.Run(name, func(t *testing.T) {
			mockRecipe := rmocks.NewRecipeInterface()
			mockRecipe.Impl.Update = func(ctx context.Context, recipeId, authorId int64, spec krecdb.Spec) (domain.Recipe, error) {
				return domain.Recipe{}, testcase.updateErr
			}
			mockUser := umocks.NewUserInterface()

			testee := handlers.RecipeUpdateHandler(
				mockRecipe, mockUser, catalogMatcher(tomato), noUrl,
			)

			e := echo.New()
			c, _ := httptestutil.Put(
				e, "/api/recipes/11", bytes.NewBufferString(body),
				httptestutil.ContentType("application/json"),
			)
			c.SetParamNames("id")
			c.SetParamValues("11")
			auth.SetUserId(c, 42)

			if err := testee(c); !testcase.then(err) {
				t.Errorf("unexpected error: %+v", err)
			}
		})
	}
}

func TestRecipeDeleteHandler(t *testing.T) {
	store := newFakeStore("recipes/42/11/img.jpg")

	mockRecipe := rmocks.NewRecipeInterface()
	mockRecipe.Impl.Delete = func(ctx context.Context, recipeId, authorId int64) (string, error) {
		return "recipes/42/11/img.jpg", nil
	}

	testee := handlers.RecipeDeleteHandler(mockRecipe, store)

	e := echo.New()
	c, respRec := httptestutil.Delete(e, "/api/recipes/11")
	c.SetParamNames("id")
	c.SetParamValues("11")
	auth.SetUserId(c, 42)

	if err := testee(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if respRec.Result().StatusCode != http.StatusNoContent {
		t.Errorf("unexpected status code: %d", respRec.Result().StatusCode)
	}
	if len(store.removed) != 1 || store.removed[0] != "recipes/42/11/img.jpg" {
		t.Errorf("the image should be removed with the recipe: %+v", store.removed)
	}
}

func TestFindRecipeHandler(t *testing.T) {

	type when struct {
		target string
		mine   bool
		total  int
	}
	type then struct {
		query    krecdb.Query
		err      func(error) bool
		nextPage bool
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"when no filter is given, it should query the first page": {
			when{target: "/api/recipes", total: 3},
			then{query: krecdb.Query{Limit: page.DefaultSize}},
		},
		"when filters are given, it should pass them down": {
			when{target: "/api/recipes?search=gratin&mealType=dinner,lunch&difficulty=easy&maxTotalTime=45&ingredients=3,5&page=2", total: 60},
			then{
				query: krecdb.Query{
					Text:          "gratin",
					MealTypes:     []domain.MealType{domain.MealDinner, domain.MealLunch},
					Difficulties:  []domain.Difficulty{domain.DifficultyEasy},
					MaxTotalTime:  45,
					IngredientIds: []int64{3, 5},
					Offset:        page.DefaultSize,
					Limit:         page.DefaultSize,
				},
				nextPage: true,
			},
		},
		"when listing own recipes, it should filter by the author": {
			when{target: "/api/recipes/mine", mine: true, total: 1},
			then{query: krecdb.Query{AuthorId: 42, Limit: page.DefaultSize}},
		},
		"when the meal type is unknown, it should response 400": {
			when{target: "/api/recipes?mealType=brunch"},
			then{err: statusIs(http.StatusBadRequest)},
		},
		"when the page is not a number, it should response 400": {
			when{target: "/api/recipes?page=abc"},
			then{err: statusIs(http.StatusBadRequest)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.when, testcase.then

			found := []domain.RecipeSummary{{RecipeId: 10, AuthorId: 1, Title: "gratin"}}

			mockRecipe := rmocks.NewRecipeInterface()
			mockRecipe.Impl.Find = func(ctx context.Context, q krecdb.Query) ([]domain.RecipeSummary, int, error) {
				return found, when.total, nil
			}
			mockUser := umocks.NewUserInterface()
			mockUser.Impl.Get = func(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
				return map[int64]domain.User{1: {UserId: 1, Username: "anna"}}, nil
			}

			testee := handlers.FindRecipeHandler(mockRecipe, mockUser, noUrl, when.mine)

			e := echo.New()
			c, respRec := httptestutil.Get(e, when.target)
			auth.SetUserId(c, 42)

			err := testee(c)
			if then.err != nil {
				if !then.err(err) {
					t.Errorf("unexpected error: %+v", err)
				}
				if len(mockRecipe.Calls.Find) != 0 {
					t.Errorf("Find should not be called: %+v", mockRecipe.Calls.Find)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}

			if len(mockRecipe.Calls.Find) != 1 {
				t.Fatalf("unexpected Find calls: %+v", mockRecipe.Calls.Find)
			}
			actualQuery := mockRecipe.Calls.Find[0]
			expectedQuery := then.query
			if actualQuery.Text != expectedQuery.Text ||
				actualQuery.MaxTotalTime != expectedQuery.MaxTotalTime ||
				actualQuery.AuthorId != expectedQuery.AuthorId ||
				actualQuery.Offset != expectedQuery.Offset ||
				actualQuery.Limit != expectedQuery.Limit ||
				len(actualQuery.MealTypes) != len(expectedQuery.MealTypes) ||
				len(actualQuery.Difficulties) != len(expectedQuery.Difficulties) ||
				len(actualQuery.IngredientIds) != len(expectedQuery.IngredientIds) {
				t.Errorf(
					"unmatch:\n- actual   : %+v\n- expected : %+v",
					actualQuery, expectedQuery,
				)
			}

			actual := page.Page[apirecipes.Summary]{}
			if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
				t.Fatalf("parse error: %+v", err)
			}
			if actual.Count != when.total {
				t.Errorf("unexpected count: %d", actual.Count)
			}
			if (actual.Next != nil) != then.nextPage {
				t.Errorf("unexpected next link: %v", actual.Next)
			}
		})
	}
}

func TestRecipeImageConfirmHandler(t *testing.T) {

	type when struct {
		path     string
		uploaded bool
		replaced string
	}
	type then struct {
		err     func(error) bool
		removed []string
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"when the upload is confirmed, it should replace the old image": {
			when{path: "recipes/42/11/new.jpg", uploaded: true, replaced: "recipes/42/11/old.jpg"},
			then{removed: []string{"recipes/42/11/old.jpg"}},
		},
		"when the path belongs to another recipe, it should response 403": {
			when{path: "recipes/42/99/new.jpg", uploaded: true},
			then{err: statusIs(http.StatusForbidden)},
		},
		"when nothing is uploaded, it should response 400": {
			when{path: "recipes/42/11/new.jpg", uploaded: false},
			then{err: statusIs(http.StatusBadRequest)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.when, testcase.then

			store := newFakeStore()
			if when.uploaded {
				store.objects[when.path] = true
			}

			mockRecipe := rmocks.NewRecipeInterface()
			mockRecipe.Impl.SetImage = func(ctx context.Context, recipeId, authorId int64, path string) (string, error) {
				return when.replaced, nil
			}

			testee := handlers.RecipeImageConfirmHandler(mockRecipe, store)

			e := echo.New()
			c, respRec := httptestutil.Post(
				e, "/api/recipes/11/image/confirm",
				bytes.NewBufferString(`{"path": "`+when.path+`"}`),
				httptestutil.ContentType("application/json"),
			)
			c.SetParamNames("id")
			c.SetParamValues("11")
			auth.SetUserId(c, 42)

			err := testee(c)
			if then.err != nil {
				if !then.err(err) {
					t.Errorf("unexpected error: %+v", err)
				}
				if len(mockRecipe.Calls.SetImage) != 0 {
					t.Errorf("SetImage should not be called: %+v", mockRecipe.Calls.SetImage)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}

			actual := apirecipes.ImageUploadResponse{}
			if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
				t.Fatalf("parse error: %+v", err)
			}
			if !strings.HasSuffix(actual.ImageUrl, when.path) {
				t.Errorf("unexpected image url: %s", actual.ImageUrl)
			}
			if len(store.removed) != len(then.removed) {
				t.Errorf("unexpected removals: %+v", store.removed)
			}
		})
	}
}
