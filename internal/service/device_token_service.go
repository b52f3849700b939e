package service

import (
	"context"
	"strings"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/repository"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// DeviceTokenService manages push registrations for the caller's devices.
type DeviceTokenService struct {
	tokens repository.DeviceTokenRepository
}

// NewDeviceTokenService constructs the service.
func NewDeviceTokenService(tokens repository.DeviceTokenRepository) *DeviceTokenService {
	return &DeviceTokenService{tokens: tokens}
}

// Register upserts a device token; re-registering the same token refreshes
// its app binding instead of duplicating it.
func (s *DeviceTokenService) Register(ctx context.Context, userID, appID, token string, platform *string) (*domain.DeviceToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewValidationError("token is required", nil)
	}
	record := &domain.DeviceToken{
		UserID:   userID,
		AppID:    appID,
		Token:    token,
		Platform: platform,
	}
	if err := s.tokens.Upsert(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// Unregister drops the caller's token, typically on logout.
func (s *DeviceTokenService) Unregister(ctx context.Context, userID, token string) error {
	return apperrors.MapError(s.tokens.DeleteByUserToken(ctx, userID, token))
}
