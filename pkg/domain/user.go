package domain

import "time"

type User struct {
	UserId           int64
	Email            string
	Username         string
	AvatarPath       string
	Level            int
	ExperiencePoints int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u *User) Equal(o *User) bool {
	if (u == nil) || (o == nil) {
		return (u == nil) && (o == nil)
	}
	return u.UserId == o.UserId &&
		u.Email == o.Email &&
		u.Username == o.Username &&
		u.AvatarPath == o.AvatarPath &&
		u.Level == o.Level &&
		u.ExperiencePoints == o.ExperiencePoints
}

// Profile is a User together with its social counters.
type Profile struct {
	User
	FollowersCount int
	FollowingCount int
}

// NewUser is the payload for registering a user.
// PasswordHash is a bcrypt hash, never a raw password.
type NewUser struct {
	Email        string
	Username     string
	PasswordHash string
}

type Follow struct {
	FollowerId  int64
	FollowingId int64
	CreatedAt   time.Time
}
