package services

import (
	"context"

	"github.com/dmitrijs2005/formai/internal/client/models"
	"github.com/dmitrijs2005/formai/internal/client/repositories/metadata"
)

// SettingsService stores user preferences and the onboarding flag.
type SettingsService interface {
	Settings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, s models.Settings) error
	OnboardingCompleted(ctx context.Context) (bool, error)
	CompleteOnboarding(ctx context.Context) error
}

// DefaultSettings are returned before anything is saved.
var DefaultSettings = models.Settings{DarkMode: false, Notifications: true}

type settingsService struct {
	repo metadata.Repository
}

func NewSettingsService(repo metadata.Repository) SettingsService {
	return &settingsService{repo: repo}
}

func (s *settingsService) Settings(ctx context.Context) (models.Settings, error) {
	out := DefaultSettings
	if _, err := metadata.GetJSON(ctx, s.repo, KeySettings, &out); err != nil {
		return DefaultSettings, err
	}
	return out, nil
}

func (s *settingsService) SaveSettings(ctx context.Context, v models.Settings) error {
	return metadata.SetJSON(ctx, s.repo, KeySettings, v)
}

func (s *settingsService) OnboardingCompleted(ctx context.Context) (bool, error) {
	return metadata.GetBool(ctx, s.repo, KeyOnboardingCompleted)
}

func (s *settingsService) CompleteOnboarding(ctx context.Context) error {
	return s.repo.Set(ctx, KeyOnboardingCompleted, metadata.EncodeBool(true))
}
