package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/savr-app/savr/pkg/api/types/errors"
	apiusers "github.com/savr-app/savr/pkg/api/types/users"
	bindusers "github.com/savr-app/savr/pkg/api-types-binding/users"
	"github.com/savr-app/savr/pkg/conn/storage"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	kudb "github.com/savr-app/savr/pkg/domain/users/db"
)

// ObjectStore is the slice of the object storage the handlers need.
type ObjectStore interface {
	PresignPut(ctx context.Context, objectPath string) (string, error)
	Exists(ctx context.Context, objectPath string) (bool, error)
	Remove(ctx context.Context, objectPath string) error
	PublicUrl(objectPath string) string
}

var _ ObjectStore = (*storage.Store)(nil)

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func GetMyProfileHandler(dbuser kudb.UserInterface, urlOf bindusers.UrlResolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		profile, _, err := dbuser.Profile(ctx, userId, userId)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		return c.JSON(
			http.StatusOK,
			bindusers.ComposeProfile(profile, urlOf, true, false),
		)
	}
}

func UpdateProfileHandler(dbuser kudb.UserInterface, urlOf bindusers.UrlResolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		req := new(apiusers.ProfileUpdate)
		if err := decodeJson(c, req); err != nil {
			return err
		}

		email := req.Email
		if email != nil {
			lowered := strings.ToLower(*email)
			email = &lowered
		}

		if _, err := dbuser.UpdateProfile(ctx, userId, req.Username, email); err != nil {
			if errors.Is(err, kerr.ErrConflict) {
				return apierr.Conflict(
					"email or username is already taken", apierr.WithError(err),
				)
			}
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		profile, _, err := dbuser.Profile(ctx, userId, userId)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(
			http.StatusOK,
			bindusers.ComposeProfile(profile, urlOf, true, false),
		)
	}
}

func AvatarPresignHandler(store ObjectStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		req := new(apiusers.AvatarPresignRequest)
		if err := decodeJson(c, req); err != nil {
			return err
		}

		objectPath := storage.AvatarPath(userId, extByContentType[req.ContentType])
		uploadUrl, err := store.PresignPut(ctx, objectPath)
		if err != nil {
			return apierr.ServiceUnavailable("object storage is not reachable", err)
		}
		return c.JSON(http.StatusOK, apiusers.AvatarPresignResponse{
			UploadUrl: uploadUrl, Path: objectPath,
		})
	}
}

func AvatarConfirmHandler(dbuser kudb.UserInterface, store ObjectStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		req := new(apiusers.AvatarConfirmRequest)
		if err := decodeJson(c, req); err != nil {
			return err
		}
		if !strings.HasPrefix(req.Path, storage.AvatarPrefix(userId)) {
			return apierr.Forbidden("path does not belong to you")
		}

		uploaded, err := store.Exists(ctx, req.Path)
		if err != nil {
			return apierr.ServiceUnavailable("object storage is not reachable", err)
		}
		if !uploaded {
			return apierr.BadRequest("nothing is uploaded at the path", nil)
		}

		replaced, err := dbuser.SetAvatar(ctx, userId, req.Path)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		if replaced != "" && replaced != req.Path {
			// best effort. an orphan object hurts nobody.
			_ = store.Remove(ctx, replaced)
		}

		return c.JSON(http.StatusOK, apiusers.AvatarConfirmResponse{
			AvatarUrl: store.PublicUrl(req.Path),
		})
	}
}
