package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/savr-app/savr/pkg/domain/auth"
	"github.com/savr-app/savr/pkg/utils/try"
)

func TestPassword(t *testing.T) {
	hash := try.To(auth.HashPassword("correct horse battery staple")).OrFatal(t)

	if hash == "correct horse battery staple" {
		t.Error("the hash should not be the raw password")
	}
	if !auth.VerifyPassword(hash, "correct horse battery staple") {
		t.Error("the right password should verify")
	}
	if auth.VerifyPassword(hash, "wrong password") {
		t.Error("a wrong password should not verify")
	}
	if auth.VerifyPassword("not a bcrypt hash", "correct horse battery staple") {
		t.Error("garbage hashes should not verify")
	}
}

func TestIssuer(t *testing.T) {
	testee := auth.NewIssuer([]byte("test-secret"), time.Hour, 24*time.Hour)

	t.Run("an issued pair verifies as its own kind", func(t *testing.T) {
		pair := try.To(testee.IssuePair(42)).OrFatal(t)

		if userId := try.To(testee.VerifyAccess(pair.Access)).OrFatal(t); userId != 42 {
			t.Errorf("unexpected user id: %d", userId)
		}
		if userId := try.To(testee.VerifyRefresh(pair.Refresh)).OrFatal(t); userId != 42 {
			t.Errorf("unexpected user id: %d", userId)
		}
	})

	t.Run("an access token is not a refresh token, and vice versa", func(t *testing.T) {
		pair := try.To(testee.IssuePair(42)).OrFatal(t)

		if _, err := testee.VerifyRefresh(pair.Access); !errors.Is(err, auth.ErrWrongTokenType) {
			t.Errorf("unexpected error: %+v", err)
		}
		if _, err := testee.VerifyAccess(pair.Refresh); !errors.Is(err, auth.ErrWrongTokenType) {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("a token signed with another secret is refused", func(t *testing.T) {
		other := auth.NewIssuer([]byte("other-secret"), time.Hour, 24*time.Hour)
		pair := try.To(other.IssuePair(42)).OrFatal(t)

		if _, err := testee.VerifyAccess(pair.Access); !errors.Is(err, auth.ErrTokenInvalid) {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("an expired token is refused", func(t *testing.T) {
		shortLived := auth.NewIssuer([]byte("test-secret"), time.Nanosecond, time.Nanosecond)
		pair := try.To(shortLived.IssuePair(42)).OrFatal(t)

		time.Sleep(10 * time.Millisecond)
		if _, err := testee.VerifyAccess(pair.Access); !errors.Is(err, auth.ErrTokenInvalid) {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("garbage is refused", func(t *testing.T) {
		if _, err := testee.VerifyAccess("not.a.token"); !errors.Is(err, auth.ErrTokenInvalid) {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}
