package state

import (
	"context"
	"time"
)

// Store keeps UI preferences between runs. Lesson progress is session-only
// and never written here.
type Store interface {
	EnsureSchema(ctx context.Context) error
	SavePreferences(ctx context.Context, p Preferences) error
	LoadPreferences(ctx context.Context) (Preferences, error)
	Close() error
}

// Preferences are the remembered UI choices. An empty StyleVariant or a nil
// ASCIIOnly means nothing is stored for that choice.
type Preferences struct {
	StyleVariant string
	ASCIIOnly    *bool
	UpdatedAt    time.Time
}

func (p Preferences) Empty() bool {
	return p.StyleVariant == "" && p.ASCIIOnly == nil
}
