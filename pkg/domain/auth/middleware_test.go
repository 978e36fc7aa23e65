package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/savr-app/savr/pkg/domain/auth"
	"github.com/savr-app/savr/pkg/utils/try"
)

func TestMiddleware(t *testing.T) {
	issuer := auth.NewIssuer([]byte("test-secret"), time.Hour, 24*time.Hour)

	invoke := func(t *testing.T, authorization string) (int64, bool, error) {
		t.Helper()

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		if authorization != "" {
			req.Header.Set(echo.HeaderAuthorization, authorization)
		}
		c := e.NewContext(req, httptest.NewRecorder())

		var seenId int64
		var seen bool
		handler := auth.Middleware(issuer)(func(c echo.Context) error {
			seenId, seen = auth.UserId(c)
			return nil
		})
		return seenId, seen, handler(c)
	}

	t.Run("a valid bearer token passes and sets the user id", func(t *testing.T) {
		pair := try.To(issuer.IssuePair(42)).OrFatal(t)

		userId, ok, err := invoke(t, "Bearer "+pair.Access)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if !ok || userId != 42 {
			t.Errorf("unexpected user id: (%d, %v)", userId, ok)
		}
	})

	for name, authorization := range map[string]string{
		"no Authorization header is refused": "",
		"a non-bearer header is refused":     "Basic dXNlcjpwYXNz",
		"a garbage token is refused":         "Bearer not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, seen, err := invoke(t, authorization)
			if seen {
				t.Error("the handler should not run")
			}
			herr, ok := err.(*echo.HTTPError)
			if !ok || herr.Code != http.StatusUnauthorized {
				t.Errorf("unexpected error: %+v", err)
			}
		})
	}

	t.Run("a refresh token is not an access token", func(t *testing.T) {
		pair := try.To(issuer.IssuePair(42)).OrFatal(t)

		_, seen, err := invoke(t, "Bearer "+pair.Refresh)
		if seen {
			t.Error("the handler should not run")
		}
		herr, ok := err.(*echo.HTTPError)
		if !ok || herr.Code != http.StatusUnauthorized {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}
