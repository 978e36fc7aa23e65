package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/savr-app/savr/pkg/api/types/errors"
	apiingredients "github.com/savr-app/savr/pkg/api/types/ingredients"
	"github.com/savr-app/savr/pkg/api/types/misc/page"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kidb "github.com/savr-app/savr/pkg/domain/ingredients/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

func composeIngredient(i domain.Ingredient) apiingredients.Ingredient {
	return apiingredients.Ingredient{
		Id: i.IngredientId, Name: i.Name, Category: i.Category,
	}
}

func ListIngredientsHandler(dbingredient kidb.IngredientInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, ok := auth.UserId(c); !ok {
			return apierr.Unauthorized("login required", nil)
		}

		pageNum, ok := page.ParseNum(c.QueryParam("page"))
		if !ok {
			return apierr.BadRequest("page should be a positive integer", nil)
		}

		catalog, err := dbingredient.List(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		// the catalog is small; page it in memory.
		offset := (pageNum - 1) * page.DefaultSize
		if len(catalog) < offset {
			offset = len(catalog)
		}
		end := offset + page.DefaultSize
		if len(catalog) < end {
			end = len(catalog)
		}

		return c.JSON(http.StatusOK, page.Compose(
			c.Request().URL, len(catalog), pageNum,
			slices.Map(catalog[offset:end], composeIngredient),
		))
	}
}

func SearchIngredientsHandler(dbingredient kidb.IngredientInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, ok := auth.UserId(c); !ok {
			return apierr.Unauthorized("login required", nil)
		}

		query := c.QueryParam("q")
		if query == "" {
			return apierr.BadRequest("q is required", nil)
		}

		found, err := dbingredient.Search(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, slices.Map(found, composeIngredient))
	}
}
