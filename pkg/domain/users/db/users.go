package db

import (
	"context"

	"github.com/savr-app/savr/pkg/domain"
)

// SearchLimit caps user search results.
const SearchLimit = 10

type UserInterface interface {
	// Register creates a user.
	//
	// Returns domain/errors.ErrConflict when the email or username
	// is taken.
	Register(ctx context.Context, newUser domain.NewUser) (domain.User, error)

	// GetByEmail retrieves a user and its password hash by email.
	GetByEmail(ctx context.Context, email string) (domain.User, string, error)

	// Get retrieves users identified by userIds.
	//
	// Missing ids are just absent from the returned map.
	Get(ctx context.Context, userIds []int64) (map[int64]domain.User, error)

	// Profile retrieves a user's profile as seen by the viewer.
	//
	// The bool tells whether the viewer follows the user.
	Profile(ctx context.Context, userId int64, viewerId int64) (domain.Profile, bool, error)

	// UpdateProfile updates the fields which are non-nil.
	UpdateProfile(ctx context.Context, userId int64, username *string, email *string) (domain.User, error)

	// SetAvatar updates the avatar path and returns the replaced one.
	SetAvatar(ctx context.Context, userId int64, path string) (string, error)

	// Search finds users whose username or email equals the query,
	// case-insensitively, at most SearchLimit of them.
	Search(ctx context.Context, query string) ([]domain.User, error)

	// Newest lists the most recently registered users.
	Newest(ctx context.Context, limit int) ([]domain.User, error)

	// Follow makes follower follow following.
	Follow(ctx context.Context, followerId int64, followingId int64) error

	// Unfollow removes a follow edge.
	Unfollow(ctx context.Context, followerId int64, followingId int64) error

	// Complices lists the user's followers and followings as one
	// deduplicated set, ordered by username.
	Complices(ctx context.Context, userId int64) ([]domain.User, error)

	// Notifications lists the user's notifications, newest first.
	Notifications(ctx context.Context, userId int64, unreadOnly bool) ([]domain.Notification, error)

	// MarkNotificationsRead marks the user's notifications as read.
	// Nil or empty notificationIds means all of them.
	MarkNotificationsRead(ctx context.Context, userId int64, notificationIds []int64) error

	// Notify records a notification.
	Notify(ctx context.Context, n domain.NewNotification) error
}
