package mocks

import (
	"context"
	"errors"

	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	types "github.com/savr-app/savr/pkg/domain"
	kdbmock "github.com/savr-app/savr/pkg/domain/internal/db/mock"
	kdb "github.com/savr-app/savr/pkg/domain/mealplans/db"
)

type ByDateRangeArgs struct {
	UserId int64
	Since  rfctime.Date
	Until  rfctime.Date
}

type UpdateArgs struct {
	MealPlanId int64
	OwnerId    int64
	Update     kdb.Update
}

type DeleteArgs struct {
	MealPlanId int64
	OwnerId    int64
}

type ConfirmArgs struct {
	MealPlanId int64
	OwnerId    int64
	Confirmed  bool
}

type InviteArgs struct {
	MealPlanId int64
	InviterId  int64
	InviteeId  int64
}

type InvitationsArgs struct {
	InviteeId   int64
	PendingOnly bool
}

type RespondArgs struct {
	InvitationId int64
	InviteeId    int64
	Accept       bool
}

type MealPlanInterface struct {
	Impl struct {
		Register     func(context.Context, types.NewMealPlan) (types.MealPlan, error)
		Get          func(context.Context, []int64) (map[int64]types.MealPlan, error)
		ByDateRange  func(context.Context, int64, rfctime.Date, rfctime.Date) ([]types.MealPlan, error)
		Update       func(context.Context, int64, int64, kdb.Update) (types.MealPlan, error)
		Delete       func(context.Context, int64, int64) error
		Confirm      func(context.Context, int64, int64, bool) error
		SharedWithMe func(context.Context, int64) ([]types.MealPlan, error)
		Invite       func(context.Context, int64, int64, int64) (types.MealInvitation, error)
		Invitations  func(context.Context, int64, bool) ([]types.MealInvitation, error)
		Respond      func(context.Context, int64, int64, bool) (types.MealInvitation, error)
	}
	Calls struct {
		Register     kdbmock.CallLog[types.NewMealPlan]
		Get          kdbmock.CallLog[[]int64]
		ByDateRange  kdbmock.CallLog[ByDateRangeArgs]
		Update       kdbmock.CallLog[UpdateArgs]
		Delete       kdbmock.CallLog[DeleteArgs]
		Confirm      kdbmock.CallLog[ConfirmArgs]
		SharedWithMe kdbmock.CallLog[int64]
		Invite       kdbmock.CallLog[InviteArgs]
		Invitations  kdbmock.CallLog[InvitationsArgs]
		Respond      kdbmock.CallLog[RespondArgs]
	}
}

var _ kdb.MealPlanInterface = &MealPlanInterface{}

func NewMealPlanInterface() *MealPlanInterface {
	return &MealPlanInterface{}
}

func (m *MealPlanInterface) Register(ctx context.Context, newPlan types.NewMealPlan) (types.MealPlan, error) {
	m.Calls.Register = append(m.Calls.Register, newPlan)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, newPlan)
	}

	panic(errors.New("should not be called"))
}

func (m *MealPlanInterface) Get(ctx context.Context, mealPlanIds []int64) (map[int64]types.MealPlan, error) {
	m.Calls.Get = append(m.Calls.Get, mealPlanIds)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, mealPlanIds)
	}

	panic(errors.New("should not be called"))
}

func (m *MealPlanInterface) ByDateRange(ctx context.Context, userId int64, since rfctime.Date, until rfctime.Date) ([]types.MealPlan, error) {
	m.Calls.ByDateRange = append(m.Calls.ByDateRange, ByDateRangeArgs{UserId: userId, Since: since, Until: until})
	if m.Impl.ByDateRange != nil {
		return m.Impl.ByDateRange(ctx, userId, since, until)
	}

	panic(errors.New("should not be called"))
}

func (m *MealPlanInterface) Update(ctx context.Context, mealPlanId int64, ownerId int64, update kdb.Update) (types.MealPlan, error) {
	m.Calls.Update = append(m.Calls.Update, UpdateArgs{MealPlanId: mealPlanId, OwnerId: ownerId, Update: update})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, mealPlanId, ownerId, update)
	}

	panic(errors.New("should not be called"))
}

func (m *MealPlanInterface) Delete(ctx context.Context, mealPlanId int64, ownerId int64) error {
	m.Calls.Delete = append(m.Calls.Delete, DeleteArgs{MealPlanId: mealPlanId, OwnerId: ownerId})
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, mealPlanId, ownerId)
	}

	panic(errors.New("should not be called"))
}

func (m *MealPlanInterface) Confirm(ctx context.Context, mealPlanId int64, ownerId int64, confirmed bool) error {
	m.Calls.Confirm = append(m.Calls.Confirm, ConfirmArgs{MealPlanId: mealPlanId, OwnerId: ownerId, Confirmed: confirmed})
	if m.Impl.Confirm != nil {
		return m.Impl.Confirm(ctx, mealPlanId, ownerId, confirmed)
	}

	panic(errors.New("should not be called"))
}

func (m *MealPlanInterface) SharedWithMe(ctx context.Context, userId int64) ([]types.MealPlan, error) {
	m.Calls.SharedWithMe = append(m.Calls.SharedWithMe, userId)
	if m.Impl.SharedWithMe != nil {
		return m.Impl.SharedWithMe(ctx, userId)
	}

	panic(errors.New("should not be called"))
}

func (m *MealPlanInterface) Invite(ctx context.Context, mealPlanId int64, inviterId int64, inviteeId int64) (types.MealInvitation, error) {
	m.Calls.Invite = append(m.Calls.Invite, InviteArgs{MealPlanId: mealPlanId, InviterId: inviterId, InviteeId: inviteeId})
	if m.Impl.Invite != nil {
		return m.Impl.Invite(ctx, mealPlanId, inviterId, inviteeId)
	}

	panic(errors.New("should not be called"))
}

func (m *MealPlanInterface) Invitations(ctx context.Context, inviteeId int64, pendingOnly bool) ([]types.MealInvitation, error) {
	m.Calls.Invitations = append(m.Calls.Invitations, InvitationsArgs{InviteeId: inviteeId, PendingOnly: pendingOnly})
	if m.Impl.Invitations != nil {
		return m.Impl.Invitations(ctx, inviteeId, pendingOnly)
	}

	panic(errors.New("should not be called"))
}

func (m *MealPlanInterface) Respond(ctx context.Context, invitationId int64, inviteeId int64, accept bool) (types.MealInvitation, error) {
	m.Calls.Respond = append(m.Calls.Respond, RespondArgs{InvitationId: invitationId, InviteeId: inviteeId, Accept: accept})
	if m.Impl.Respond != nil {
		return m.Impl.Respond(ctx, invitationId, inviteeId, accept)
	}

	panic(errors.New("should not be called"))
}
