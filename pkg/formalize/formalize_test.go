package formalize_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/savr-app/savr/pkg/formalize"
	"github.com/savr-app/savr/pkg/utils/try"
)

// geminiStub answers generateContent with a canned recipe json.
func geminiStub(t *testing.T, status int, recipeJson string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("unexpected api key: %s", r.URL.Query().Get("key"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			fmt.Fprint(w, `{"error": {"code": `, status, `, "message": "nope"}}`)
			return
		}

		body := map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{{"text": recipeJson}},
					},
					"finishReason": "STOP",
				},
			},
		}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Error(err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseUrl string) formalize.Config {
	return formalize.Config{
		ApiKey:  "test-key",
		BaseUrl: baseUrl,
		Model:   "gemini-2.0-flash",
		Timeout: 5 * time.Second,
	}
}

func TestFormalize(t *testing.T) {
	server := geminiStub(t, http.StatusOK, `{
	"isRecipe": true,
	"title": "Tarte aux pommes",
	"description": "La tarte du dimanche.",
	"mealType": "dessert",
	"difficulty": "easy",
	"prepTime": 30,
	"cookTime": 45,
	"servings": 6,
	"ingredients": [
		{"name": "pommes", "quantity": 4, "unit": "piece", "note": ""},
		{"name": "pate brisee", "quantity": 1, "unit": "piece", "note": ""}
	],
	"steps": [
		{"instruction": "Etaler la pate.", "tip": "Sortir la pate 10 min avant.", "ingredients": [1]},
		{"instruction": "Cuire 45 min.", "hasTimer": true, "timerDuration": 45, "ingredients": [0]}
	]
}`)

	testee := formalize.New(testConfig(server.URL))
	actual := try.To(testee.Formalize(context.Background(), "une tarte aux pommes...")).OrFatal(t)

	if actual.Title != "Tarte aux pommes" || actual.Servings != 6 {
		t.Errorf("unexpected recipe: %+v", actual)
	}
	if len(actual.Ingredients) != 2 || actual.Ingredients[0].Name != "pommes" {
		t.Errorf("unexpected ingredients: %+v", actual.Ingredients)
	}
	if len(actual.Steps) != 2 || actual.Steps[1].Ingredients[0] != 0 {
		t.Errorf("unexpected steps: %+v", actual.Steps)
	}
	if actual.Steps[0].Tip != "Sortir la pate 10 min avant." {
		t.Errorf("unexpected tip: %+v", actual.Steps[0])
	}
	if !actual.Steps[1].HasTimer || actual.Steps[1].TimerDuration != 45 {
		t.Errorf("unexpected timer: %+v", actual.Steps[1])
	}
}

func TestFormalizeNotARecipe(t *testing.T) {
	server := geminiStub(t, http.StatusOK, `{"isRecipe": false}`)

	testee := formalize.New(testConfig(server.URL))
	if _, err := testee.Formalize(context.Background(), "lorem ipsum"); !errors.Is(err, formalize.ErrNotARecipe) {
		t.Errorf("unexpected error: %+v", err)
	}
}

func TestFormalizeRateLimited(t *testing.T) {
	server := geminiStub(t, http.StatusTooManyRequests, "")

	testee := formalize.New(testConfig(server.URL))
	if _, err := testee.Formalize(context.Background(), "une tarte"); !errors.Is(err, formalize.ErrRateLimited) {
		t.Errorf("unexpected error: %+v", err)
	}
}

func TestFormalizeServerError(t *testing.T) {
	server := geminiStub(t, http.StatusInternalServerError, "")

	testee := formalize.New(testConfig(server.URL))
	_, err := testee.Formalize(context.Background(), "une tarte")
	if err == nil || errors.Is(err, formalize.ErrRateLimited) || errors.Is(err, formalize.ErrNotARecipe) {
		t.Errorf("unexpected error: %+v", err)
	}
}

func TestFormalizeMalformedPayload(t *testing.T) {
	server := geminiStub(t, http.StatusOK, `not json at all`)

	testee := formalize.New(testConfig(server.URL))
	if _, err := testee.Formalize(context.Background(), "une tarte"); err == nil {
		t.Error("no error unexpectedly")
	}
}
