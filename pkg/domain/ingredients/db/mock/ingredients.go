package mocks

import (
	"context"
	"errors"

	types "github.com/savr-app/savr/pkg/domain"
	kdb "github.com/savr-app/savr/pkg/domain/ingredients/db"
	kdbmock "github.com/savr-app/savr/pkg/domain/internal/db/mock"
)

type EnsureArgs struct {
	Name     string
	Category string
}

type SetEmbeddingArgs struct {
	IngredientId int64
	Vec          []float32
}

type IngredientInterface struct {
	Impl struct {
		Get               func(context.Context, []int64) (map[int64]types.Ingredient, error)
		List              func(context.Context) ([]types.Ingredient, error)
		ByName            func(context.Context, string) (types.Ingredient, error)
		Search            func(context.Context, string) ([]types.Ingredient, error)
		Ensure            func(context.Context, string, string) (types.Ingredient, error)
		Nearest           func(context.Context, []float32) (types.Ingredient, float64, error)
		MissingEmbeddings func(context.Context, int) ([]types.Ingredient, error)
		SetEmbedding      func(context.Context, int64, []float32) error
	}
	Calls struct {
		Get               kdbmock.CallLog[[]int64]
		List              kdbmock.CallLog[struct{}]
		ByName            kdbmock.CallLog[string]
		Search            kdbmock.CallLog[string]
		Ensure            kdbmock.CallLog[EnsureArgs]
		Nearest           kdbmock.CallLog[[]float32]
		MissingEmbeddings kdbmock.CallLog[int]
		SetEmbedding      kdbmock.CallLog[SetEmbeddingArgs]
	}
}

var _ kdb.IngredientInterface = &IngredientInterface{}

func NewIngredientInterface() *IngredientInterface {
	return &IngredientInterface{}
}

func (m *IngredientInterface) Get(ctx context.Context, ingredientIds []int64) (map[int64]types.Ingredient, error) {
	m.Calls.Get = append(m.Calls.Get, ingredientIds)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, ingredientIds)
	}

	panic(errors.New("should not be called"))
}

func (m *IngredientInterface) List(ctx context.Context) ([]types.Ingredient, error) {
	m.Calls.List = append(m.Calls.List, struct{}{})
	if m.Impl.List != nil {
		return m.Impl.List(ctx)
	}

	panic(errors.New("should not be called"))
}

func (m *IngredientInterface) ByName(ctx context.Context, name string) (types.Ingredient, error) {
	m.Calls.ByName = append(m.Calls.ByName, name)
	if m.Impl.ByName != nil {
		return m.Impl.ByName(ctx, name)
	}

	panic(errors.New("should not be called"))
}

func (m *IngredientInterface) Search(ctx context.Context, query string) ([]types.Ingredient, error) {
	m.Calls.Search = append(m.Calls.Search, query)
	if m.Impl.Search != nil {
		return m.Impl.Search(ctx, query)
	}

	panic(errors.New("should not be called"))
}

func (m *IngredientInterface) Ensure(ctx context.Context, name string, category string) (types.Ingredient, error) {
	m.Calls.Ensure = append(m.Calls.Ensure, EnsureArgs{Name: name, Category: category})
	if m.Impl.Ensure != nil {
		return m.Impl.Ensure(ctx, name, category)
	}

	panic(errors.New("should not be called"))
}

func (m *IngredientInterface) Nearest(ctx context.Context, vec []float32) (types.Ingredient, float64, error) {
	m.Calls.Nearest = append(m.Calls.Nearest, vec)
	if m.Impl.Nearest != nil {
		return m.Impl.Nearest(ctx, vec)
	}

	panic(errors.New("should not be called"))
}

func (m *IngredientInterface) MissingEmbeddings(ctx context.Context, limit int) ([]types.Ingredient, error) {
	m.Calls.MissingEmbeddings = append(m.Calls.MissingEmbeddings, limit)
	if m.Impl.MissingEmbeddings != nil {
		return m.Impl.MissingEmbeddings(ctx, limit)
	}

	panic(errors.New("should not be called"))
}

func (m *IngredientInterface) SetEmbedding(ctx context.Context, ingredientId int64, vec []float32) error {
	m.Calls.SetEmbedding = append(m.Calls.SetEmbedding, SetEmbeddingArgs{IngredientId: ingredientId, Vec: vec})
	if m.Impl.SetEmbedding != nil {
		return m.Impl.SetEmbedding(ctx, ingredientId, vec)
	}

	panic(errors.New("should not be called"))
}
