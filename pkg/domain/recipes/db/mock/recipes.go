package mocks

import (
	"context"
	"errors"

	types "github.com/savr-app/savr/pkg/domain"
	kdbmock "github.com/savr-app/savr/pkg/domain/internal/db/mock"
	kdb "github.com/savr-app/savr/pkg/domain/recipes/db"
)

type UpdateArgs struct {
	RecipeId int64
	AuthorId int64
	Spec     kdb.Spec
}

type DeleteArgs struct {
	RecipeId int64
	AuthorId int64
}

type SetImageArgs struct {
	RecipeId int64
	AuthorId int64
	Path     string
}

type SetEmbeddingArgs struct {
	RecipeId int64
	Vec      []float32
}

type RecipeInterface struct {
	Impl struct {
		Register          func(context.Context, kdb.Spec) (types.Recipe, error)
		Update            func(context.Context, int64, int64, kdb.Spec) (types.Recipe, error)
		Delete            func(context.Context, int64, int64) (string, error)
		Get               func(context.Context, []int64) (map[int64]types.Recipe, error)
		Find              func(context.Context, kdb.Query) ([]types.RecipeSummary, int, error)
		SetImage          func(context.Context, int64, int64, string) (string, error)
		SetEmbedding      func(context.Context, int64, []float32) error
		MissingEmbeddings func(context.Context, int) ([]types.RecipeSummary, error)
	}
	Calls struct {
		Register          kdbmock.CallLog[kdb.Spec]
		Update            kdbmock.CallLog[UpdateArgs]
		Delete            kdbmock.CallLog[DeleteArgs]
		Get               kdbmock.CallLog[[]int64]
		Find              kdbmock.CallLog[kdb.Query]
		SetImage          kdbmock.CallLog[SetImageArgs]
		SetEmbedding      kdbmock.CallLog[SetEmbeddingArgs]
		MissingEmbeddings kdbmock.CallLog[int]
	}
}

var _ kdb.RecipeInterface = &RecipeInterface{}

func NewRecipeInterface() *RecipeInterface {
	return &RecipeInterface{}
}

func (m *RecipeInterface) Register(ctx context.Context, spec kdb.Spec) (types.Recipe, error) {
	m.Calls.Register = append(m.Calls.Register, spec)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, spec)
	}

	panic(errors.New("should not be called"))
}

func (m *RecipeInterface) Update(ctx context.Context, recipeId int64, authorId int64, spec kdb.Spec) (types.Recipe, error) {
	m.Calls.Update = append(m.Calls.Update, UpdateArgs{RecipeId: recipeId, AuthorId: authorId, Spec: spec})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, recipeId, authorId, spec)
	}

	panic(errors.New("should not be called"))
}

func (m *RecipeInterface) Delete(ctx context.Context, recipeId int64, authorId int64) (string, error) {
	m.Calls.Delete = append(m.Calls.Delete, DeleteArgs{RecipeId: recipeId, AuthorId: authorId})
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, recipeId, authorId)
	}

	panic(errors.New("should not be called"))
}

func (m *RecipeInterface) Get(ctx context.Context, recipeIds []int64) (map[int64]types.Recipe, error) {
	m.Calls.Get = append(m.Calls.Get, recipeIds)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, recipeIds)
	}

	panic(errors.New("should not be called"))
}

func (m *RecipeInterface) Find(ctx context.Context, query kdb.Query) ([]types.RecipeSummary, int, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}

	panic(errors.New("should not be called"))
}

func (m *RecipeInterface) SetImage(ctx context.Context, recipeId int64, authorId int64, path string) (string, error) {
	m.Calls.SetImage = append(m.Calls.SetImage, SetImageArgs{RecipeId: recipeId, AuthorId: authorId, Path: path})
	if m.Impl.SetImage != nil {
		return m.Impl.SetImage(ctx, recipeId, authorId, path)
	}

	panic(errors.New("should not be called"))
}

func (m *RecipeInterface) SetEmbedding(ctx context.Context, recipeId int64, vec []float32) error {
	m.Calls.SetEmbedding = append(m.Calls.SetEmbedding, SetEmbeddingArgs{RecipeId: recipeId, Vec: vec})
	if m.Impl.SetEmbedding != nil {
		return m.Impl.SetEmbedding(ctx, recipeId, vec)
	}

	panic(errors.New("should not be called"))
}

func (m *RecipeInterface) MissingEmbeddings(ctx context.Context, limit int) ([]types.RecipeSummary, error) {
	m.Calls.MissingEmbeddings = append(m.Calls.MissingEmbeddings, limit)
	if m.Impl.MissingEmbeddings != nil {
		return m.Impl.MissingEmbeddings(ctx, limit)
	}

	panic(errors.New("should not be called"))
}
