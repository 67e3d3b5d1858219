package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

// AvatarStore is where uploaded avatars go.
type AvatarStore interface {
	Upload(ctx context.Context, namespace, filename, contentType string, r io.Reader) (string, error)
	PublicURL(key string) (string, error)
}

// ProfileUpdater persists profile metadata.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, userID string, p core.Profile) (core.User, error)
}

// ErrAvatarURL means the avatar was stored but no public URL came back.
var ErrAvatarURL = errors.New("avatar public url unavailable")

// Avatar is an uploaded image waiting to be stored.
type Avatar struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type ProfileService struct {
	avatars   AvatarStore
	profiles  ProfileUpdater
	publisher events.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func NewProfileService(avatars AvatarStore, profiles ProfileUpdater, publisher events.Publisher, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		avatars:   avatars,
		profiles:  profiles,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.With("component", "profile"),
	}
}

// UpdateProfile stores the optional avatar under the user's namespace and
// then saves name and avatar URL. If the metadata update fails after an
// upload, the stored avatar is left in place and only logged.
func (s *ProfileService) UpdateProfile(ctx context.Context, user core.User, name string, avatar *Avatar) (core.User, error) {
	if user.ID == "" {
		return core.User{}, core.ErrUserNotResolved
	}

	avatarURL := user.Profile.AvatarURL
	var key string
	if avatar != nil {
		var err error
		key, err = s.avatars.Upload(ctx, user.ID, avatar.Filename, avatar.ContentType, avatar.Body)
		if err != nil {
			return core.User{}, fmt.Errorf("%w: %w", core.ErrUpload, err)
		}
		avatarURL, err = s.avatars.PublicURL(key)
		if err != nil {
			return core.User{}, fmt.Errorf("%w: %w", ErrAvatarURL, err)
		}
	}

	updated, err := s.profiles.UpdateProfile(ctx, user.ID, core.Profile{
		Name:      strings.TrimSpace(name),
		AvatarURL: avatarURL,
	})
	if err != nil {
		if key != "" {
			s.logger.WarnContext(ctx, "Avatar stored but profile update failed",
				"user_id", user.ID,
				"avatar_key", key,
				"error", err)
		}
		return core.User{}, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewChange(events.ResourceProfile, user.ID, s.now())); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish profile change", "user_id", user.ID, "error", err)
		}
	}
	return updated, nil
}
