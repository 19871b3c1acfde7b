// package services defines interface Service for interacting with music service HTTP APIs
package services

import (
	"context"

	"github.com/desertthunder/nowsync/internal/models"
)

// Service defines the interface for a music service provider that issues
// short-lived access tokens and exposes the user's playback state.
type Service interface {
	// RefreshAccessToken exchanges a long-lived refresh token for a new
	// access token. Returns the new token and its absolute expiry.
	RefreshAccessToken(ctx context.Context, refreshToken string) (*models.TokenGrant, error)

	// CurrentlyPlaying fetches the playback state for the given access token.
	// A nil snapshot with a nil error means the user has no active session,
	// which is a valid outcome rather than a failure.
	CurrentlyPlaying(ctx context.Context, accessToken string) (*models.TrackSnapshot, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
