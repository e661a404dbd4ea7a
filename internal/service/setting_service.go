package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/rs/zerolog"
)

// SettingStore persists key-value application settings.
type SettingStore interface {
	GetAll(ctx context.Context) ([]model.AppSetting, error)
	Upsert(ctx context.Context, key, value string) error
}

// SettingService resolves global exam behavior flags.
type SettingService struct {
	store SettingStore
	log   zerolog.Logger
}

// NewSettingService creates a SettingService.
func NewSettingService(store SettingStore, log zerolog.Logger) *SettingService {
	return &SettingService{
		store: store,
		log:   log.With().Str("component", "setting_service").Logger(),
	}
}

// ExamSettings resolves the engine settings snapshot. Unset or unparseable
// keys fall back to defaults, and a storage failure yields pure defaults:
// settings tune behavior, they never gate an exam.
func (s *SettingService) ExamSettings(ctx context.Context) model.ExamSettings {
	settings := model.DefaultExamSettings()

	rows, err := s.store.GetAll(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("settings unavailable, using defaults")
		return settings
	}

	for _, row := range rows {
		v, err := strconv.ParseBool(row.Value)
		if err != nil {
			continue
		}
		switch row.Key {
		case model.SettingShuffleQuestions:
			settings.ShuffleQuestions = v
		case model.SettingShowResults:
			settings.ShowResults = v
		}
	}
	return settings
}

// List returns all stored settings for the admin surface.
func (s *SettingService) List(ctx context.Context) ([]model.AppSetting, error) {
	return s.store.GetAll(ctx)
}

// Update upserts the given settings. Only known keys with boolean values
// are accepted; the whole batch is rejected on the first bad entry.
func (s *SettingService) Update(ctx context.Context, settings map[string]string) error {
	for key, value := range settings {
		switch key {
		case model.SettingShuffleQuestions, model.SettingShowResults:
		default:
			return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
		}
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %q must be a boolean, got %q", ErrInvalidSetting, key, value)
		}
	}

	for key, value := range settings {
		if err := s.store.Upsert(ctx, key, value); err != nil {
			return fmt.Errorf("upsert setting %s: %w", key, err)
		}
	}
	return nil
}
