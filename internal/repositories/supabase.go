// Supabase (PostgREST) implementation of [UserStore]
package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/nowsync/internal/models"
	"github.com/desertthunder/nowsync/internal/shared"
)

const userColumns = "id,spotify_access_token,spotify_refresh_token,spotify_token_expires_at"

// SupabaseStore talks to a hosted Supabase/PostgREST users table with a
// service-role key. It is the production [UserStore] backend.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewSupabaseStore creates a store client for the given project URL and
// service-role key.
func NewSupabaseStore(baseURL, serviceKey string, client *http.Client) (*SupabaseStore, error) {
	if baseURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("%w: store url and service key are required", shared.ErrInvalidConfig)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &SupabaseStore{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: client,
	}, nil
}

// ListEnabledUsers fetches credential columns for all users with
// spotify_connected = true.
func (s *SupabaseStore) ListEnabledUsers(ctx context.Context) ([]models.UserCredential, error) {
	query := url.Values{}
	query.Set("select", userColumns)
	query.Set("spotify_connected", "eq.true")

	endpoint := fmt.Sprintf("%s/rest/v1/users?%s", s.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreQuery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrStoreQuery, resp.StatusCode)
	}

	var users []models.UserCredential
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrStoreQuery, err)
	}

	return users, nil
}

// UpdateUser PATCHes the user row, sending only the provided fields. PostgREST
// updates only the columns present in the body, which gives the merge
// semantics the sync engine relies on.
func (s *SupabaseStore) UpdateUser(ctx context.Context, userID string, fields models.UpdateFields) error {
	if len(fields) == 0 {
		return nil
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/users?id=eq.%s", s.baseURL, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreWrite, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrStoreWrite, resp.StatusCode)
	}

	return nil
}

func (s *SupabaseStore) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
}
