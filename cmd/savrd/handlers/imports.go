package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apierr "github.com/savr-app/savr/pkg/api/types/errors"
	apiimports "github.com/savr-app/savr/pkg/api/types/imports"
	bindimports "github.com/savr-app/savr/pkg/api-types-binding/imports"
	kredis "github.com/savr-app/savr/pkg/conn/redis"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	kimpdb "github.com/savr-app/savr/pkg/domain/imports/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

// ImportQueue wakes workers up when a request is registered.
type ImportQueue interface {
	Enqueue(ctx context.Context, importId uuid.UUID) error
}

var _ ImportQueue = (*kredis.Queue)(nil)

func registerImport(
	c echo.Context,
	dbimport kimpdb.ImportInterface,
	queue ImportQueue,
	source domain.ImportSource,
	payload string,
) error {
	ctx := c.Request().Context()
	userId, ok := auth.UserId(c)
	if !ok {
		return apierr.Unauthorized("login required", nil)
	}

	req, err := dbimport.Register(ctx, userId, source, payload)
	if err != nil {
		return apierr.InternalServerError(err)
	}

	// workers poll for stalled requests, so losing the wake-up just
	// delays the import.
	_ = queue.Enqueue(ctx, req.ImportId)

	return c.JSON(http.StatusAccepted, bindimports.ComposeDetail(req))
}

func ImportTextHandler(dbimport kimpdb.ImportInterface, queue ImportQueue) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apiimports.TextRequest{}
		if err := decodeJson(c, &req); err != nil {
			return err
		}
		return registerImport(c, dbimport, queue, domain.ImportFromText, req.Flatten())
	}
}

func ImportUrlHandler(dbimport kimpdb.ImportInterface, queue ImportQueue) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apiimports.UrlRequest{}
		if err := decodeJson(c, &req); err != nil {
			return err
		}
		return registerImport(c, dbimport, queue, domain.ImportFromUrl, req.Url)
	}
}

func ListImportsHandler(dbimport kimpdb.ImportInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		requests, err := dbimport.ListByUser(ctx, userId)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, slices.Map(requests, bindimports.ComposeDetail))
	}
}

func GetImportHandler(dbimport kimpdb.ImportInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		importId, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return apierr.BadRequest("id should be a UUID", err)
		}

		req, err := dbimport.Get(ctx, importId)
		if err != nil {
			if errors.Is(err, kerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}
		if req.UserId != userId {
			// requests are private; not even their existence leaks.
			return apierr.NotFound()
		}
		return c.JSON(http.StatusOK, bindimports.ComposeDetail(req))
	}
}
