package users

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("malformed email: %w", err)
	}
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username should not be empty")
	}
	if len(r.Password) < MinPasswordLength {
		return fmt.Errorf("password should be %d+ characters", MinPasswordLength)
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

// TokenPair is issued at registration, login and token refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterResponse carries the fresh profile along with its first
// token pair.
type RegisterResponse struct {
	Profile Profile   `json:"profile"`
	Tokens  TokenPair `json:"tokens"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

func (r *RefreshRequest) Validate() error {
	if r.Refresh == "" {
		return errors.New("refresh token is required")
	}
	return nil
}

type Summary struct {
	Id        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarUrl string `json:"avatarUrl,omitempty"`
	Level     int    `json:"level"`
}

func (s Summary) Equal(o Summary) bool {
	return s.Id == o.Id &&
		s.Username == o.Username &&
		s.AvatarUrl == o.AvatarUrl &&
		s.Level == o.Level
}

type Profile struct {
	Summary
	Email            string          `json:"email,omitempty"`
	ExperiencePoints int             `json:"experiencePoints"`
	FollowersCount   int             `json:"followersCount"`
	FollowingCount   int             `json:"followingCount"`
	IsFollowing      bool            `json:"isFollowing"`
	CreatedAt        rfctime.RFC3339 `json:"createdAt"`
}

func (p Profile) Equal(o Profile) bool {
	return p.Summary.Equal(o.Summary) &&
		p.Email == o.Email &&
		p.ExperiencePoints == o.ExperiencePoints &&
		p.FollowersCount == o.FollowersCount &&
		p.FollowingCount == o.FollowingCount &&
		p.IsFollowing == o.IsFollowing
}

type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

func (p *ProfileUpdate) Validate() error {
	if p.Username == nil && p.Email == nil {
		return errors.New("nothing to update")
	}
	if p.Username != nil && strings.TrimSpace(*p.Username) == "" {
		return errors.New("username should not be empty")
	}
	if p.Email != nil {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			return fmt.Errorf("malformed email: %w", err)
		}
	}
	return nil
}

// AvatarPresignRequest asks for a presigned upload slot for an avatar.
type AvatarPresignRequest struct {
	ContentType string `json:"contentType"`
}

var allowedAvatarTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

func (r *AvatarPresignRequest) Validate() error {
	if _, ok := allowedAvatarTypes[r.ContentType]; !ok {
		return fmt.Errorf("unsupported avatar content type: %s", r.ContentType)
	}
	return nil
}

type AvatarPresignResponse struct {
	UploadUrl string `json:"uploadUrl"`
	Path      string `json:"path"`
}

type AvatarConfirmResponse struct {
	AvatarUrl string `json:"avatarUrl"`
}

// AvatarConfirmRequest commits a previously presigned avatar upload.
type AvatarConfirmRequest struct {
	Path string `json:"path"`
}

func (r *AvatarConfirmRequest) Validate() error {
	if r.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type Notification struct {
	Id          int64           `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	RelatedUser *Summary        `json:"relatedUser,omitempty"`
	IsRead      bool            `json:"isRead"`
	CreatedAt   rfctime.RFC3339 `json:"createdAt"`
}
