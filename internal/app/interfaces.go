package app

import (
	"context"

	"devopsplayground/internal/state"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	SavePreferences(ctx context.Context, p state.Preferences) error
	LoadPreferences(ctx context.Context) (state.Preferences, error)
	Close() error
}
