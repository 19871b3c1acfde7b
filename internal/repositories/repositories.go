package repositories

import (
	"context"

	"github.com/desertthunder/nowsync/internal/models"
)

// UserStore defines the operations the sync engine needs from the user record
// store: enumerate users with the integration enabled and merge partial
// updates back by user ID.
type UserStore interface {
	// ListEnabledUsers returns the credentials of every user flagged as
	// having Spotify connected.
	ListEnabledUsers(ctx context.Context) ([]models.UserCredential, error)

	// UpdateUser applies a partial update to one user record. Columns absent
	// from fields are left untouched (merge-by-key semantics).
	UpdateUser(ctx context.Context, userID string, fields models.UpdateFields) error
}
