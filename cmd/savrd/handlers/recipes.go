package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/savr-app/savr/pkg/api/types/errors"
	"github.com/savr-app/savr/pkg/api/types/misc/page"
	apirecipes "github.com/savr-app/savr/pkg/api/types/recipes"
	bindrecipes "github.com/savr-app/savr/pkg/api-types-binding/recipes"
	bindusers "github.com/savr-app/savr/pkg/api-types-binding/users"
	"github.com/savr-app/savr/pkg/conn/storage"
	"github.com/savr-app/savr/pkg/domain"
	"github.com/savr-app/savr/pkg/domain/auth"
	kerr "github.com/savr-app/savr/pkg/domain/errors"
	"github.com/savr-app/savr/pkg/domain/ingredients/matcher"
	krecdb "github.com/savr-app/savr/pkg/domain/recipes/db"
	kudb "github.com/savr-app/savr/pkg/domain/users/db"
	"github.com/savr-app/savr/pkg/utils/slices"
)

// specToWrite resolves the ingredient names of a write payload
// against the catalog and builds the repository spec.
func specToWrite(
	ctx context.Context,
	match *matcher.Matcher,
	authorId int64,
	spec *apirecipes.Spec,
) (krecdb.Spec, error) {
	matched, err := match.MatchAll(
		ctx,
		slices.Map(spec.Ingredients, func(i apirecipes.IngredientSpec) string { return i.Name }),
	)
	if err != nil {
		return krecdb.Spec{}, err
	}

	lines := make([]krecdb.IngredientLine, len(spec.Ingredients))
	for nth, ing := range spec.Ingredients {
		unit, _ := domain.AsUnit(ing.Unit) // validated already
		lines[nth] = krecdb.IngredientLine{
			IngredientId: matched[nth].IngredientId,
			RawName:      ing.Name,
			Quantity:     ing.Quantity,
			Unit:         unit,
			Note:         ing.Note,
		}
	}

	mealType, _ := domain.AsMealType(spec.MealType)
	difficulty, _ := domain.AsDifficulty(spec.Difficulty)

	return krecdb.Spec{
		AuthorId:    authorId,
		Title:       spec.Title,
		Description: spec.Description,
		MealType:    mealType,
		Difficulty:  difficulty,
		PrepTime:    spec.PrepTime,
		CookTime:    spec.CookTime,
		RestTime:    spec.RestTime,
		Servings:    spec.Servings,
		IsPublic:    spec.Public(),
		SourceType:  domain.SourceUserCreated,
		Ingredients: lines,
		Steps: slices.Map(spec.Steps, func(s apirecipes.StepSpec) krecdb.Step {
			return krecdb.Step{
				Title:         s.Title,
				Instruction:   s.Instruction,
				Tip:           s.Tip,
				HasTimer:      s.HasTimer,
				TimerDuration: s.TimerDuration,
				Ingredients: slices.Map(
					s.Ingredients,
					func(si apirecipes.StepIngredientSpec) krecdb.StepIngredient {
						return krecdb.StepIngredient{
							Index: si.Index, QuantityRatio: si.QuantityRatio,
						}
					},
				),
			}
		}),
	}, nil
}

func RecipeRegisterHandler(
	dbrecipe krecdb.RecipeInterface,
	dbuser kudb.UserInterface,
	match *matcher.Matcher,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		spec := new(apirecipes.Spec)
		if err := decodeJson(c, spec); err != nil {
			return err
		}

		write, err := specToWrite(ctx, match, userId, spec)
		if err != nil {
			return apierr.ServiceUnavailable("ingredient matching is not available", err)
		}

		recipe, err := dbrecipe.Register(ctx, write)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		author, err := dbuser.Get(ctx, []int64{userId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(
			http.StatusCreated,
			bindrecipes.ComposeDetail(recipe, author[userId], urlOf),
		)
	}
}

func RecipeUpdateHandler(
	dbrecipe krecdb.RecipeInterface,
	dbuser kudb.UserInterface,
	match *matcher.Matcher,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		recipeId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		spec := new(apirecipes.Spec)
		if err := decodeJson(c, spec); err != nil {
			return err
		}

		write, err := specToWrite(ctx, match, userId, spec)
		if err != nil {
			return apierr.ServiceUnavailable("ingredient matching is not available", err)
		}

		recipe, err := dbrecipe.Update(ctx, recipeId, userId, write)
		if err != nil {
			switch {
			case errors.Is(err, kerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, kerr.ErrForbidden):
				return apierr.Forbidden("just the author may update a recipe")
			default:
				return apierr.InternalServerError(err)
			}
		}

		author, err := dbuser.Get(ctx, []int64{userId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(
			http.StatusOK,
			bindrecipes.ComposeDetail(recipe, author[userId], urlOf),
		)
	}
}

func RecipeDeleteHandler(dbrecipe krecdb.RecipeInterface, store ObjectStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		recipeId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		imagePath, err := dbrecipe.Delete(ctx, recipeId, userId)
		if err != nil {
			switch {
			case errors.Is(err, kerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, kerr.ErrForbidden):
				return apierr.Forbidden("just the author may delete a recipe")
			default:
				return apierr.InternalServerError(err)
			}
		}

		if imagePath != "" {
			// best effort. an orphan object hurts nobody.
			_ = store.Remove(ctx, imagePath)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func GetRecipeHandler(
	dbrecipe krecdb.RecipeInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, ok := auth.UserId(c); !ok {
			return apierr.Unauthorized("login required", nil)
		}

		recipeId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		recipes, err := dbrecipe.Get(ctx, []int64{recipeId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		recipe, ok := recipes[recipeId]
		if !ok {
			return apierr.NotFound()
		}

		author, err := dbuser.Get(ctx, []int64{recipe.AuthorId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(
			http.StatusOK,
			bindrecipes.ComposeDetail(recipe, author[recipe.AuthorId], urlOf),
		)
	}
}

// recipeQuery reads listing filters from the request.
func recipeQuery(c echo.Context) (krecdb.Query, int, error) {
	pageNum, ok := page.ParseNum(c.QueryParam("page"))
	if !ok {
		return krecdb.Query{}, 0, apierr.BadRequest("page should be a positive integer", nil)
	}

	query := krecdb.Query{
		Text:   c.QueryParam("search"),
		Offset: (pageNum - 1) * page.DefaultSize,
		Limit:  page.DefaultSize,
	}

	for _, raw := range strings.Split(c.QueryParam("mealType"), ",") {
		if raw == "" {
			continue
		}
		mealType, err := domain.AsMealType(raw)
		if err != nil {
			return krecdb.Query{}, 0, apierr.BadRequest(err.Error(), err)
		}
		query.MealTypes = append(query.MealTypes, mealType)
	}
	for _, raw := range strings.Split(c.QueryParam("difficulty"), ",") {
		if raw == "" {
			continue
		}
		difficulty, err := domain.AsDifficulty(raw)
		if err != nil {
			return krecdb.Query{}, 0, apierr.BadRequest(err.Error(), err)
		}
		query.Difficulties = append(query.Difficulties, difficulty)
	}
	if raw := c.QueryParam("maxTotalTime"); raw != "" {
		maxTotalTime, err := strconv.Atoi(raw)
		if err != nil || maxTotalTime < 0 {
			return krecdb.Query{}, 0, apierr.BadRequest("maxTotalTime should be a non-negative integer", err)
		}
		query.MaxTotalTime = maxTotalTime
	}
	for _, raw := range strings.Split(c.QueryParam("ingredients"), ",") {
		if raw == "" {
			continue
		}
		ingredientId, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return krecdb.Query{}, 0, apierr.BadRequest("ingredients should be a list of ids", err)
		}
		query.IngredientIds = append(query.IngredientIds, ingredientId)
	}

	return query, pageNum, nil
}

func FindRecipeHandler(
	dbrecipe krecdb.RecipeInterface,
	dbuser kudb.UserInterface,
	urlOf bindusers.UrlResolver,
	mine bool,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		query, pageNum, err := recipeQuery(c)
		if err != nil {
			return err
		}
		if mine {
			query.AuthorId = userId
		}

		found, total, err := dbrecipe.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		results, err := composeSummaries(ctx, dbuser, found, urlOf)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(
			http.StatusOK,
			page.Compose(c.Request().URL, total, pageNum, results),
		)
	}
}

func RecipeImagePresignHandler(dbrecipe krecdb.RecipeInterface, store ObjectStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		recipeId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		req := new(apirecipes.ImagePresignRequest)
		if err := decodeJson(c, req); err != nil {
			return err
		}

		recipes, err := dbrecipe.Get(ctx, []int64{recipeId})
		if err != nil {
			return apierr.InternalServerError(err)
		}
		recipe, ok := recipes[recipeId]
		if !ok {
			return apierr.NotFound()
		}
		if recipe.AuthorId != userId {
			return apierr.Forbidden("just the author may set the image")
		}

		objectPath := storage.RecipeImagePath(userId, recipeId, extByContentType[req.ContentType])
		uploadUrl, err := store.PresignPut(ctx, objectPath)
		if err != nil {
			return apierr.ServiceUnavailable("object storage is not reachable", err)
		}
		return c.JSON(http.StatusOK, apirecipes.ImagePresignResponse{
			UploadUrl: uploadUrl, Path: objectPath,
		})
	}
}

func RecipeImageConfirmHandler(dbrecipe krecdb.RecipeInterface, store ObjectStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userId, ok := auth.UserId(c)
		if !ok {
			return apierr.Unauthorized("login required", nil)
		}

		recipeId, err := paramInt64(c, "id")
		if err != nil {
			return err
		}

		req := new(apirecipes.ImageConfirmRequest)
		if err := decodeJson(c, req); err != nil {
			return err
		}
		if !strings.HasPrefix(req.Path, storage.RecipeImagePrefix(userId, recipeId)) {
			return apierr.Forbidden("path does not belong to the recipe")
		}

		uploaded, err := store.Exists(ctx, req.Path)
		if err != nil {
			return apierr.ServiceUnavailable("object storage is not reachable", err)
		}
		if !uploaded {
			return apierr.BadRequest("nothing is uploaded at the path", nil)
		}

		replaced, err := dbrecipe.SetImage(ctx, recipeId, userId, req.Path)
		if err != nil {
			switch {
			case errors.Is(err, kerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, kerr.ErrForbidden):
				return apierr.Forbidden("just the author may set the image")
			default:
				return apierr.InternalServerError(err)
			}
		}
		if replaced != "" && replaced != req.Path {
			// best effort. an orphan object hurts nobody.
			_ = store.Remove(ctx, replaced)
		}

		return c.JSON(http.StatusOK, apirecipes.ImageUploadResponse{
			ImageUrl: store.PublicUrl(req.Path),
		})
	}
}
