package service

import (
	"context"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/notifier"
	"github.com/feedback-hub/helpdesk/internal/repository"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// AppService manages tenant applications and their sender settings.
type AppService struct {
	apps   repository.AppRepository
	mailer notifier.Sender
}

// NewAppService constructs the service.
func NewAppService(apps repository.AppRepository, mailer notifier.Sender) *AppService {
	return &AppService{apps: apps, mailer: mailer}
}

// GetApp returns a tenant by id.
func (s *AppService) GetApp(ctx context.Context, appID string) (*domain.App, error) {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return app, nil
}

// EmailSettingsInput carries a tenant's sender configuration update.
type EmailSettingsInput struct {
	EmailFrom *string
	EmailName *string
	SMTPHost  *string
	SMTPPort  *int
	SMTPUser  *string
	SMTPPass  *string
}

// UpdateEmailSettings replaces the app's sender configuration and drops
// any cached transport built from the previous settings.
func (s *AppService) UpdateEmailSettings(ctx context.Context, appID string, input EmailSettingsInput) (*domain.App, error) {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	// Invalidate before mutation so the cache key reflects the old tuple.
	if s.mailer != nil {
		s.mailer.Invalidate(app)
	}

	app.EmailFrom = input.EmailFrom
	app.EmailName = input.EmailName
	app.SMTPHost = input.SMTPHost
	app.SMTPPort = input.SMTPPort
	app.SMTPUser = input.SMTPUser
	app.SMTPPass = input.SMTPPass

	if err := s.apps.UpdateEmailSettings(ctx, app); err != nil {
		return nil, apperrors.MapError(err)
	}
	return app, nil
}
