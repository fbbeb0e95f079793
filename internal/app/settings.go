package app

import (
	"context"

	"pantry-planner/internal/settings"
	"pantry-planner/internal/storage"
)

// UpdateSettings replaces the settings after validating them.
func (a *App) UpdateSettings(ctx context.Context, s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return validationError(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Settings = s
	a.persist(ctx, storage.KeySettings)
	return nil
}

// Settings returns the current settings.
func (a *App) Settings() settings.Settings {
	return a.Snapshot().Settings
}
