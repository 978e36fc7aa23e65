package mocks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/savr-app/savr/pkg/domain"
	kdb "github.com/savr-app/savr/pkg/domain/imports/db"
	kdbmock "github.com/savr-app/savr/pkg/domain/internal/db/mock"
)

type RegisterArgs struct {
	UserId  int64
	Source  types.ImportSource
	Payload string
}

type MarkSuccessArgs struct {
	ImportId uuid.UUID
	RecipeId int64
}

type MarkErrorArgs struct {
	ImportId uuid.UUID
	Message  string
}

type ImportInterface struct {
	Impl struct {
		Register    func(context.Context, int64, types.ImportSource, string) (types.ImportRequest, error)
		Get         func(context.Context, uuid.UUID) (types.ImportRequest, error)
		ListByUser  func(context.Context, int64) ([]types.ImportRequest, error)
		Claim       func(context.Context, uuid.UUID) (types.ImportRequest, bool, error)
		PickStalled func(context.Context, int) ([]uuid.UUID, error)
		MarkSuccess func(context.Context, uuid.UUID, int64) error
		MarkError   func(context.Context, uuid.UUID, string) error
		Requeue     func(context.Context, uuid.UUID) error
	}
	Calls struct {
		Register    kdbmock.CallLog[RegisterArgs]
		Get         kdbmock.CallLog[uuid.UUID]
		ListByUser  kdbmock.CallLog[int64]
		Claim       kdbmock.CallLog[uuid.UUID]
		PickStalled kdbmock.CallLog[int]
		MarkSuccess kdbmock.CallLog[MarkSuccessArgs]
		MarkError   kdbmock.CallLog[MarkErrorArgs]
		Requeue     kdbmock.CallLog[uuid.UUID]
	}
}

var _ kdb.ImportInterface = &ImportInterface{}

func NewImportInterface() *ImportInterface {
	return &ImportInterface{}
}

func (m *ImportInterface) Register(ctx context.Context, userId int64, source types.ImportSource, payload string) (types.ImportRequest, error) {
	m.Calls.Register = append(m.Calls.Register, RegisterArgs{UserId: userId, Source: source, Payload: payload})
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, userId, source, payload)
	}

	panic(errors.New("should not be called"))
}

func (m *ImportInterface) Get(ctx context.Context, importId uuid.UUID) (types.ImportRequest, error) {
	m.Calls.Get = append(m.Calls.Get, importId)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, importId)
	}

	panic(errors.New("should not be called"))
}

func (m *ImportInterface) ListByUser(ctx context.Context, userId int64) ([]types.ImportRequest, error) {
	m.Calls.ListByUser = append(m.Calls.ListByUser, userId)
	if m.Impl.ListByUser != nil {
		return m.Impl.ListByUser(ctx, userId)
	}

	panic(errors.New("should not be called"))
}

func (m *ImportInterface) Claim(ctx context.Context, importId uuid.UUID) (types.ImportRequest, bool, error) {
	m.Calls.Claim = append(m.Calls.Claim, importId)
	if m.Impl.Claim != nil {
		return m.Impl.Claim(ctx, importId)
	}

	panic(errors.New("should not be called"))
}

func (m *ImportInterface) PickStalled(ctx context.Context, limit int) ([]uuid.UUID, error) {
	m.Calls.PickStalled = append(m.Calls.PickStalled, limit)
	if m.Impl.PickStalled != nil {
		return m.Impl.PickStalled(ctx, limit)
	}

	panic(errors.New("should not be called"))
}

func (m *ImportInterface) MarkSuccess(ctx context.Context, importId uuid.UUID, recipeId int64) error {
	m.Calls.MarkSuccess = append(m.Calls.MarkSuccess, MarkSuccessArgs{ImportId: importId, RecipeId: recipeId})
	if m.Impl.MarkSuccess != nil {
		return m.Impl.MarkSuccess(ctx, importId, recipeId)
	}

	panic(errors.New("should not be called"))
}

func (m *ImportInterface) MarkError(ctx context.Context, importId uuid.UUID, message string) error {
	m.Calls.MarkError = append(m.Calls.MarkError, MarkErrorArgs{ImportId: importId, Message: message})
	if m.Impl.MarkError != nil {
		return m.Impl.MarkError(ctx, importId, message)
	}

	panic(errors.New("should not be called"))
}

func (m *ImportInterface) Requeue(ctx context.Context, importId uuid.UUID) error {
	m.Calls.Requeue = append(m.Calls.Requeue, importId)
	if m.Impl.Requeue != nil {
		return m.Impl.Requeue(ctx, importId)
	}

	panic(errors.New("should not be called"))
}
