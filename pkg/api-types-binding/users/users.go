package users

import (
	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	"github.com/savr-app/savr/pkg/api/types/users"
	"github.com/savr-app/savr/pkg/domain"
)

// UrlResolver turns an object storage path into a public URL.
// Empty paths resolve to "".
type UrlResolver func(path string) string

func ComposeSummary(u domain.User, urlOf UrlResolver) users.Summary {
	return users.Summary{
		Id:        u.UserId,
		Username:  u.Username,
		AvatarUrl: urlOf(u.AvatarPath),
		Level:     u.Level,
	}
}

// ComposeProfile binds a profile. Email is exposed just for the
// profile owner; pass withEmail accordingly.
func ComposeProfile(p domain.Profile, urlOf UrlResolver, withEmail bool, isFollowing bool) users.Profile {
	email := ""
	if withEmail {
		email = p.Email
	}
	return users.Profile{
		Summary:          ComposeSummary(p.User, urlOf),
		Email:            email,
		ExperiencePoints: p.ExperiencePoints,
		FollowersCount:   p.FollowersCount,
		FollowingCount:   p.FollowingCount,
		IsFollowing:      isFollowing,
		CreatedAt:        rfctime.RFC3339(p.CreatedAt),
	}
}

func ComposeNotification(n domain.Notification, urlOf UrlResolver) users.Notification {
	var related *users.Summary
	if n.RelatedUser != nil {
		s := ComposeSummary(*n.RelatedUser, urlOf)
		related = &s
	}
	return users.Notification{
		Id:          n.NotificationId,
		Type:        n.Type.String(),
		Title:       n.Title,
		Message:     n.Message,
		RelatedUser: related,
		IsRead:      n.IsRead,
		CreatedAt:   rfctime.RFC3339(n.CreatedAt),
	}
}
