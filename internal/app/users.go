package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"english-mcq-service/internal/domain"
)

// ResolveUser finds the user behind a session identity, creating it on first access.
func (s *Service) ResolveUser(ctx context.Context, identity domain.Identity) (domain.User, error) {
	identity.Email = strings.TrimSpace(identity.Email)
	if identity.Email == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	user, err := s.store.EnsureUser(ctx, identity)
	if err != nil {
		return domain.User{}, fmt.Errorf("ensure user: %w", err)
	}
	return user, nil
}

// UpdateAvatar uploads the image and stores its URL on the user.
func (s *Service) UpdateAvatar(ctx context.Context, userID, filename string, r io.Reader) (domain.User, error) {
	if s.uploader == nil {
		return domain.User{}, errors.New("avatar uploads are not configured")
	}
	url, err := s.uploader.Upload(ctx, userID, filename, r)
	if err != nil {
		return domain.User{}, fmt.Errorf("upload avatar: %w", err)
	}
	user, err := s.store.UpdateAvatar(ctx, userID, url)
	if err != nil {
		return domain.User{}, fmt.Errorf("update avatar: %w", err)
	}
	return user, nil
}
