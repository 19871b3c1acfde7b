// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/nowsync/internal/models"
	"github.com/desertthunder/nowsync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultRequestTimeout = 15 * time.Second
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyCurrentlyPlaying represents the /me/player/currently-playing payload.
type SpotifyCurrentlyPlaying struct {
	Item       *SpotifyTrack `json:"item"`
	ProgressMS int           `json:"progress_ms"`
	IsPlaying  bool          `json:"is_playing"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for the refresh-token exchange.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// RefreshAccessToken performs the grant_type=refresh_token exchange against the
// token endpoint and returns the new access token with its absolute expiry.
// Nothing is persisted here; the caller owns the store write.
func (s *SpotifyService) RefreshAccessToken(ctx context.Context, refreshToken string) (*models.TokenGrant, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	source := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", shared.ErrRefreshFailed)
	}

	return &models.TokenGrant{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry.UTC(),
	}, nil
}

// CurrentlyPlaying fetches the user's playback state with the given bearer token.
// A 204 response means no active session and maps to (nil, nil).
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context, accessToken string) (*models.TrackSnapshot, error) {
	apiURL := s.baseURL + "/me/player/currently-playing"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrFetchFailed, resp.StatusCode)
	}

	var playing SpotifyCurrentlyPlaying
	if err := json.NewDecoder(resp.Body).Decode(&playing); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrFetchFailed, err)
	}

	return normalizeSnapshot(&playing)
}

// normalizeSnapshot converts the raw payload into a [models.TrackSnapshot].
// A payload without a track item (private sessions, podcasts) is treated as a
// fetch failure, not a partial success.
func normalizeSnapshot(playing *SpotifyCurrentlyPlaying) (*models.TrackSnapshot, error) {
	if playing.Item == nil {
		return nil, fmt.Errorf("%w: response has no track item", shared.ErrFetchFailed)
	}
	if playing.Item.Name == "" {
		return nil, fmt.Errorf("%w: track item has no name", shared.ErrFetchFailed)
	}

	names := make([]string, 0, len(playing.Item.Artists))
	for _, artist := range playing.Item.Artists {
		names = append(names, artist.Name)
	}

	snapshot := &models.TrackSnapshot{
		Name:       playing.Item.Name,
		Artists:    strings.Join(names, ", "),
		Album:      playing.Item.Album.Name,
		ProgressMS: playing.ProgressMS,
		DurationMS: playing.Item.DurationMS,
	}

	if len(playing.Item.Album.Images) > 0 {
		snapshot.AlbumArtURL = playing.Item.Album.Images[0].URL
	}

	return snapshot, nil
}
