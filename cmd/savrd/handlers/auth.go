package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/savr-app/savr/pkg/api/types/errors"
	apiusers "github.com/savr-app/savr/pkg/api/types/users"
	bindusers "github.com/savr-app/savr/pkg/api-types-binding/users"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	kudb "github.com/savr-app/savr/pkg/domain/users/db"
)

// decodeJson reads a JSON request body into a validated payload.
func decodeJson[T interface{ Validate() error }](c echo.Context, payload T) error {
	req := c.Request()
	if ctyp := req.Header.Get("content-type"); !strings.HasPrefix(strings.ToLower(ctyp), "application/json") {
		return apierr.BadRequest("unexpected content type. it should be application/json", nil)
	}
	if err := json.NewDecoder(req.Body).Decode(payload); err != nil {
		return apierr.BadRequest("can not understand the requested json", err)
	}
	if err := payload.Validate(); err != nil {
		return apierr.BadRequest(err.Error(), err)
	}
	return nil
}

func RegisterHandler(dbuser kudb.UserInterface, issuer *auth.Issuer, urlOf bindusers.UrlResolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := new(apiusers.RegisterRequest)
		if err := decodeJson(c, req); err != nil {
			return err
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		user, err := dbuser.Register(ctx, domain.NewUser{
			Email:        strings.ToLower(req.Email),
			Username:     req.Username,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, kerr.ErrConflict) {
				return apierr.Conflict(
					"email or username is already taken", apierr.WithError(err),
				)
			}
			return apierr.InternalServerError(err)
		}

		tokens, err := issuer.IssuePair(user.UserId)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apiusers.RegisterResponse{
			Profile: bindusers.ComposeProfile(
				domain.Profile{User: user}, urlOf, true, false,
			),
			Tokens: apiusers.TokenPair{Access: tokens.Access, Refresh: tokens.Refresh},
		})
	}
}

func LoginHandler(dbuser kudb.UserInterface, issuer *auth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := new(apiusers.LoginRequest)
		if err := decodeJson(c, req); err != nil {
			return err
		}

		user, hash, err := dbuser.GetByEmail(ctx, strings.ToLower(req.Email))
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.Unauthorized("email or password is wrong", nil)
			}
			return apierr.InternalServerError(err)
		}
		if !auth.VerifyPassword(hash, req.Password) {
			return apierr.Unauthorized("email or password is wrong", nil)
		}

		tokens, err := issuer.IssuePair(user.UserId)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, apiusers.TokenPair{
			Access: tokens.Access, Refresh: tokens.Refresh,
		})
	}
}

func RefreshHandler(issuer *auth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(apiusers.RefreshRequest)
		if err := decodeJson(c, req); err != nil {
			return err
		}

		userId, err := issuer.VerifyRefresh(req.Refresh)
		if err != nil {
			return apierr.Unauthorized("refresh token is expired or invalid", err)
		}

		tokens, err := issuer.IssuePair(userId)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, apiusers.TokenPair{
			Access: tokens.Access, Refresh: tokens.Refresh,
		})
	}
}
