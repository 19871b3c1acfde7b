// package models defines the data model for the now-playing sync service
package models

import (
	"time"
)

// UserCredential represents one user's linkage to Spotify as stored in the
// external user record store. Tokens are read once per sync cycle; the engine
// holds no cross-cycle copies.
type UserCredential struct {
	UserID       string `json:"id"`
	AccessToken  string `json:"spotify_access_token"`
	RefreshToken string `json:"spotify_refresh_token"`

	// TokenExpiresAt is the raw stored expiry timestamp (ISO-8601). Kept as a
	// string so a malformed value can be detected and treated as expired
	// rather than rejected at decode time.
	TokenExpiresAt string `json:"spotify_token_expires_at"`
}

// TokenGrant is the result of a refresh-token exchange.
type TokenGrant struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TrackSnapshot is a normalized view of a currently-playing track.
type TrackSnapshot struct {
	Name        string
	Artists     string // display string, comma-space joined in API order
	Album       string
	AlbumArtURL string // first album image, empty when the image list is empty
	ProgressMS  int
	DurationMS  int
}

// UpdateFields is a partial update for a user record. Keys are store column
// names; the store merges by key and leaves absent columns untouched.
type UpdateFields map[string]any

// Store column names shared by both store backends.
const (
	ColAccessToken    = "spotify_access_token"
	ColTokenExpiresAt = "spotify_token_expires_at"
	ColLastUpdated    = "spotify_last_updated"
	ColIsListening    = "is_listening"
	ColTrackName      = "current_track_name"
	ColTrackArtist    = "current_track_artist"
	ColTrackAlbum     = "current_track_album"
	ColTrackAlbumURL  = "current_track_album_url"
	ColTrackProgress  = "current_track_progress_ms"
	ColTrackDuration  = "current_track_duration_ms"
)

// PlaybackUpdate builds the partial update for a fetched snapshot. A nil
// snapshot means the user has no active session: is_listening flips to false
// and previously stored track fields are left untouched.
func PlaybackUpdate(snapshot *TrackSnapshot, now time.Time) UpdateFields {
	fields := UpdateFields{
		ColIsListening: snapshot != nil,
		ColLastUpdated: now.UTC().Format(time.RFC3339),
	}

	if snapshot != nil {
		fields[ColTrackName] = snapshot.Name
		fields[ColTrackArtist] = snapshot.Artists
		fields[ColTrackAlbum] = snapshot.Album
		fields[ColTrackProgress] = snapshot.ProgressMS
		fields[ColTrackDuration] = snapshot.DurationMS
		if snapshot.AlbumArtURL != "" {
			fields[ColTrackAlbumURL] = snapshot.AlbumArtURL
		}
	}

	return fields
}
