package mocks

import (
	"context"
	"errors"

	types "github.com/savr-app/savr/pkg/domain"
	kdbmock "github.com/savr-app/savr/pkg/domain/internal/db/mock"
	kdb "github.com/savr-app/savr/pkg/domain/users/db"
)

type ProfileArgs struct {
	UserId   int64
	ViewerId int64
}

type UpdateProfileArgs struct {
	UserId   int64
	Username *string
	Email    *string
}

type SetAvatarArgs struct {
	UserId int64
	Path   string
}

type FollowArgs struct {
	FollowerId  int64
	FollowingId int64
}

type NotificationsArgs struct {
	UserId     int64
	UnreadOnly bool
}

type MarkNotificationsReadArgs struct {
	UserId          int64
	NotificationIds []int64
}

type UserInterface struct {
	Impl struct {
		Register              func(context.Context, types.NewUser) (types.User, error)
		GetByEmail            func(context.Context, string) (types.User, string, error)
		Get                   func(context.Context, []int64) (map[int64]types.User, error)
		Profile               func(context.Context, int64, int64) (types.Profile, bool, error)
		UpdateProfile         func(context.Context, int64, *string, *string) (types.User, error)
		SetAvatar             func(context.Context, int64, string) (string, error)
		Search                func(context.Context, string) ([]types.User, error)
		Newest                func(context.Context, int) ([]types.User, error)
		Follow                func(context.Context, int64, int64) error
		Unfollow              func(context.Context, int64, int64) error
		Complices             func(context.Context, int64) ([]types.User, error)
		Notifications         func(context.Context, int64, bool) ([]types.Notification, error)
		MarkNotificationsRead func(context.Context, int64, []int64) error
		Notify                func(context.Context, types.NewNotification) error
	}
	Calls struct {
		Register              kdbmock.CallLog[types.NewUser]
		GetByEmail            kdbmock.CallLog[string]
		Get                   kdbmock.CallLog[[]int64]
		Profile               kdbmock.CallLog[ProfileArgs]
		UpdateProfile         kdbmock.CallLog[UpdateProfileArgs]
		SetAvatar             kdbmock.CallLog[SetAvatarArgs]
		Search                kdbmock.CallLog[string]
		Newest                kdbmock.CallLog[int]
		Follow                kdbmock.CallLog[FollowArgs]
		Unfollow              kdbmock.CallLog[FollowArgs]
		Complices             kdbmock.CallLog[int64]
		Notifications         kdbmock.CallLog[NotificationsArgs]
		MarkNotificationsRead kdbmock.CallLog[MarkNotificationsReadArgs]
		Notify                kdbmock.CallLog[types.NewNotification]
	}
}

var _ kdb.UserInterface = &UserInterface{}

func NewUserInterface() *UserInterface {
	return &UserInterface{}
}

func (m *UserInterface) Register(ctx context.Context, newUser types.NewUser) (types.User, error) {
	m.Calls.Register = append(m.Calls.Register, newUser)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, newUser)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) GetByEmail(ctx context.Context, email string) (types.User, string, error) {
	m.Calls.GetByEmail = append(m.Calls.GetByEmail, email)
	if m.Impl.GetByEmail != nil {
		return m.Impl.GetByEmail(ctx, email)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) Get(ctx context.Context, userIds []int64) (map[int64]types.User, error) {
	m.Calls.Get = append(m.Calls.Get, userIds)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, userIds)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) Profile(ctx context.Context, userId int64, viewerId int64) (types.Profile, bool, error) {
	m.Calls.Profile = append(m.Calls.Profile, ProfileArgs{UserId: userId, ViewerId: viewerId})
	if m.Impl.Profile != nil {
		return m.Impl.Profile(ctx, userId, viewerId)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) UpdateProfile(ctx context.Context, userId int64, username *string, email *string) (types.User, error) {
	m.Calls.UpdateProfile = append(m.Calls.UpdateProfile, UpdateProfileArgs{
		UserId: userId, Username: username, Email: email,
	})
	if m.Impl.UpdateProfile != nil {
		return m.Impl.UpdateProfile(ctx, userId, username, email)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) SetAvatar(ctx context.Context, userId int64, path string) (string, error) {
	m.Calls.SetAvatar = append(m.Calls.SetAvatar, SetAvatarArgs{UserId: userId, Path: path})
	if m.Impl.SetAvatar != nil {
		return m.Impl.SetAvatar(ctx, userId, path)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) Search(ctx context.Context, query string) ([]types.User, error) {
	m.Calls.Search = append(m.Calls.Search, query)
	if m.Impl.Search != nil {
		return m.Impl.Search(ctx, query)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) Newest(ctx context.Context, limit int) ([]types.User, error) {
	m.Calls.Newest = append(m.Calls.Newest, limit)
	if m.Impl.Newest != nil {
		return m.Impl.Newest(ctx, limit)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) Follow(ctx context.Context, followerId int64, followingId int64) error {
	m.Calls.Follow = append(m.Calls.Follow, FollowArgs{FollowerId: followerId, FollowingId: followingId})
	if m.Impl.Follow != nil {
		return m.Impl.Follow(ctx, followerId, followingId)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) Unfollow(ctx context.Context, followerId int64, followingId int64) error {
	m.Calls.Unfollow = append(m.Calls.Unfollow, FollowArgs{FollowerId: followerId, FollowingId: followingId})
	if m.Impl.Unfollow != nil {
		return m.Impl.Unfollow(ctx, followerId, followingId)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) Complices(ctx context.Context, userId int64) ([]types.User, error) {
	m.Calls.Complices = append(m.Calls.Complices, userId)
	if m.Impl.Complices != nil {
		return m.Impl.Complices(ctx, userId)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) Notifications(ctx context.Context, userId int64, unreadOnly bool) ([]types.Notification, error) {
	m.Calls.Notifications = append(m.Calls.Notifications, NotificationsArgs{UserId: userId, UnreadOnly: unreadOnly})
	if m.Impl.Notifications != nil {
		return m.Impl.Notifications(ctx, userId, unreadOnly)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) MarkNotificationsRead(ctx context.Context, userId int64, notificationIds []int64) error {
	m.Calls.MarkNotificationsRead = append(m.Calls.MarkNotificationsRead, MarkNotificationsReadArgs{
		UserId: userId, NotificationIds: notificationIds,
	})
	if m.Impl.MarkNotificationsRead != nil {
		return m.Impl.MarkNotificationsRead(ctx, userId, notificationIds)
	}

	panic(errors.New("should not be called"))
}

func (m *UserInterface) Notify(ctx context.Context, n types.NewNotification) error {
	m.Calls.Notify = append(m.Calls.Notify, n)
	if m.Impl.Notify != nil {
		return m.Impl.Notify(ctx, n)
	}

	panic(errors.New("should not be called"))
}
