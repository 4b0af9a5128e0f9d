package ports

import "context"

// PrivacyController reads and mutates device privacy properties on behalf of
// grant policies carrying a privacySetting.
type PrivacyController interface {
	// GetProperty returns the current value of a privacy property.
	GetProperty(ctx context.Context, property string) (bool, error)

	// SetProperty updates a privacy property.
	SetProperty(ctx context.Context, property string, value bool) error
}
