package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownNotificationType = errors.New("unknown notification type")

type NotificationType string

const (
	NotificationFollow         NotificationType = "follow"
	NotificationRecipeShared   NotificationType = "recipe_shared"
	NotificationMealInvitation NotificationType = "meal_invitation"
)

func (n NotificationType) String() string {
	return string(n)
}

func AsNotificationType(s string) (NotificationType, error) {
	switch NotificationType(s) {
	case NotificationFollow:
		return NotificationFollow, nil
	case NotificationRecipeShared:
		return NotificationRecipeShared, nil
	case NotificationMealInvitation:
		return NotificationMealInvitation, nil
	default:
		return NotificationType(s), fmt.Errorf("%w: %s", ErrUnknownNotificationType, s)
	}
}

type Notification struct {
	NotificationId int64
	UserId         int64
	Type           NotificationType
	Title          string
	Message        string

	// RelatedUser is the user this notification is about, if any.
	RelatedUser *User

	IsRead    bool
	CreatedAt time.Time
}

// NewNotification is the payload for recording a notification.
type NewNotification struct {
	UserId        int64
	Type          NotificationType
	Title         string
	Message       string
	RelatedUserId *int64
}
