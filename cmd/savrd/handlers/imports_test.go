package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	handlers "github.com/savr-app/savr/cmd/savrd/handlers"
	httptestutil "github.com/savr-app/savr/internal/testutils/http"
	apiimports "github.com/savr-app/savr/pkg/api/types/imports"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	ipmocks "github.com/savr-app/savr/pkg/domain/imports/db/mock"
)

// fakeQueue records enqueued import ids.
type fakeQueue struct {
	enqueued []uuid.UUID
	err      error
}

func (q *fakeQueue) Enqueue(ctx context.Context, importId uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, importId)
	return nil
}

func TestImportTextHandler(t *testing.T) {
	importId := uuid.New()

	mockImport := ipmocks.NewImportInterface()
	mockImport.Impl.Register = func(ctx context.Context, userId int64, source domain.ImportSource, payload string) (domain.ImportRequest, error) {
		return domain.ImportRequest{
			ImportId: importId, UserId: userId, Source: source,
			RawText: payload, Status: domain.ImportPending,
		}, nil
	}
	queue := &fakeQueue{}

	testee := handlers.ImportTextHandler(mockImport, queue)

	e := echo.New()
	c, respRec := httptestutil.Post(
		e, "/api/recipes/import",
		bytes.NewBufferString(`{
	"title": "tarte aux pommes",
	"ingredientsText": "4 pommes\n1 pate brisee",
	"instructionsText": "etaler la pate.\ndisposer les pommes.",
	"servings": 6
}`),
		httptestutil.ContentType("application/json"),
	)
	auth.SetUserId(c, 42)

	if err := testee(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if respRec.Result().StatusCode != http.StatusAccepted {
		t.Errorf("unexpected status code: %d", respRec.Result().StatusCode)
	}

	if len(mockImport.Calls.Register) != 1 {
		t.Fatalf("unexpected Register calls: %+v", mockImport.Calls.Register)
	}
	registered := mockImport.Calls.Register[0]
	if registered.UserId != 42 || registered.Source != domain.ImportFromText {
		t.Errorf("unexpected registration: %+v", registered)
	}
	for _, piece := range []string{
		"tarte aux pommes", "Servings: 6", "4 pommes", "etaler la pate.",
	} {
		if !strings.Contains(registered.Payload, piece) {
			t.Errorf("flattened payload misses %q:\n%s", piece, registered.Payload)
		}
	}

	if len(queue.enqueued) != 1 || queue.enqueued[0] != importId {
		t.Errorf("the worker should be woken up: %+v", queue.enqueued)
	}

	actual := apiimports.Detail{}
	if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
		t.Fatalf("parse error: %+v", err)
	}
	if actual.Id != importId.String() || actual.Status != "pending" {
		t.Errorf("unexpected body: %+v", actual)
	}
}

func TestImportTextHandlerWithDeadQueue(t *testing.T) {
	// losing the wake-up is fine; the polling backstop picks it up.
	mockImport := ipmocks.NewImportInterface()
	mockImport.Impl.Register = func(ctx context.Context, userId int64, source domain.ImportSource, payload string) (domain.ImportRequest, error) {
		return domain.ImportRequest{ImportId: uuid.New(), UserId: userId, Status: domain.ImportPending}, nil
	}
	queue := &fakeQueue{err: kerr.ErrMissing}

	testee := handlers.ImportTextHandler(mockImport, queue)

	e := echo.New()
	c, respRec := httptestutil.Post(
		e, "/api/recipes/import",
		bytes.NewBufferString(`{"title": "t", "ingredientsText": "i", "instructionsText": "s"}`),
		httptestutil.ContentType("application/json"),
	)
	auth.SetUserId(c, 42)

	if err := testee(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if respRec.Result().StatusCode != http.StatusAccepted {
		t.Errorf("unexpected status code: %d", respRec.Result().StatusCode)
	}
}

func TestImportUrlHandler(t *testing.T) {

	for name, testcase := range map[string]struct {
		body string
		then func(error) bool
	}{
		"when the url is not http(s), it should response 400": {
			body: `{"url": "ftp://example.com/recipe"}`,
			then: statusIs(http.StatusBadRequest),
		},
		"when the url has no host, it should response 400": {
			body: `{"url": "https:///recipe"}`,
			then: statusIs(http.StatusBadRequest),
		},
	} {
		t.Run(name, func(t *testing.T) {
			testee := handlers.ImportUrlHandler(ipmocks.NewImportInterface(), &fakeQueue{})

			e := echo.New()
			c, _ := httptestutil.Post(
				e, "/api/recipes/import-url", bytes.NewBufferString(testcase.body),
				httptestutil.ContentType("application/json"),
			)
			auth.SetUserId(c, 42)

			if err := testee(c); !testcase.then(err) {
				t.Errorf("unexpected error: %+v", err)
			}
		})
	}

	t.Run("when the url is valid, it should register an url import", func(t *testing.T) {
		mockImport := ipmocks.NewImportInterface()
		mockImport.Impl.Register = func(ctx context.Context, userId int64, source domain.ImportSource, payload string) (domain.ImportRequest, error) {
			return domain.ImportRequest{
				ImportId: uuid.New(), UserId: userId, Source: source,
				SourceUrl: payload, Status: domain.ImportPending,
			}, nil
		}
		queue := &fakeQueue{}

		testee := handlers.ImportUrlHandler(mockImport, queue)

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/recipes/import-url",
			bytes.NewBufferString(`{"url": "https://example.com/recettes/42"}`),
			httptestutil.ContentType("application/json"),
		)
		auth.SetUserId(c, 42)

		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		registered := mockImport.Calls.Register[0]
		if registered.Source != domain.ImportFromUrl || registered.Payload != "https://example.com/recettes/42" {
			t.Errorf("unexpected registration: %+v", registered)
		}
	})
}

func TestGetImportHandler(t *testing.T) {
	importId := uuid.New()

	type when struct {
		viewerId int64
		getErr   error
	}

	for name, testcase := range map[string]struct {
		when
		then func(error) bool
	}{
		"when another user peeks, it should response 404": {
			when{viewerId: 9}, statusIs(http.StatusNotFound),
		},
		"when the request is missing, it should response 404": {
			when{viewerId: 42, getErr: kerr.ErrMissing}, statusIs(http.StatusNotFound),
		},
	} {
		t.Run(name, func(t *testing.T) {
			mockImport := ipmocks.NewImportInterface()
			mockImport.Impl.Get = func(ctx context.Context, id uuid.UUID) (domain.ImportRequest, error) {
				if testcase.getErr != nil {
					return domain.ImportRequest{}, testcase.getErr
				}
				return domain.ImportRequest{ImportId: importId, UserId: 42}, nil
			}

			testee := handlers.GetImportHandler(mockImport)

			e := echo.New()
			c, _ := httptestutil.Get(e, "/api/recipe-imports/"+importId.String())
			c.SetParamNames("id")
			c.SetParamValues(importId.String())
			auth.SetUserId(c, testcase.viewerId)

			if err := testee(c); !testcase.then(err) {
				t.Errorf("unexpected error: %+v", err)
			}
		})
	}

	t.Run("when the owner views it, it should respond the request", func(t *testing.T) {
		recipeId := int64(11)
		mockImport := ipmocks.NewImportInterface()
		mockImport.Impl.Get = func(ctx context.Context, id uuid.UUID) (domain.ImportRequest, error) {
			return domain.ImportRequest{
				ImportId: importId, UserId: 42, Source: domain.ImportFromText,
				Status: domain.ImportSuccess, RecipeId: &recipeId,
			}, nil
		}

		testee := handlers.GetImportHandler(mockImport)

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/recipe-imports/"+importId.String())
		c.SetParamNames("id")
		c.SetParamValues(importId.String())
		auth.SetUserId(c, 42)

		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		actual := apiimports.Detail{}
		if err := json.NewDecoder(respRec.Body).Decode(&actual); err != nil {
			t.Fatalf("parse error: %+v", err)
		}
		if actual.Status != "success" || actual.RecipeId == nil || *actual.RecipeId != recipeId {
			t.Errorf("unexpected body: %+v", actual)
		}
	})
}
