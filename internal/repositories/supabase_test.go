package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/nowsync/internal/models"
	"github.com/desertthunder/nowsync/internal/shared"
)

func TestNewSupabaseStore(t *testing.T) {
	t.Run("requires url and key", func(t *testing.T) {
		if _, err := NewSupabaseStore("", "key", nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected config error, got %v", err)
		}
		if _, err := NewSupabaseStore("https://x.supabase.co", "", nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected config error, got %v", err)
		}
	})
}

func TestSupabaseListEnabledUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("queries connected users with service key", func(t *testing.T) {
		var gotPath, gotAPIKey, gotAuth, gotFilter string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAPIKey = r.Header.Get("apikey")
			gotAuth = r.Header.Get("Authorization")
			gotFilter = r.URL.Query().Get("spotify_connected")

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[
				{"id": "user-1", "spotify_access_token": "tok", "spotify_refresh_token": "ref", "spotify_token_expires_at": "2025-06-01T12:00:00Z"},
				{"id": "user-2", "spotify_access_token": null, "spotify_refresh_token": null, "spotify_token_expires_at": null}
			]`)
		}))
		defer server.Close()

		store, err := NewSupabaseStore(server.URL, "service-key", nil)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		users, err := store.ListEnabledUsers(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotPath != "/rest/v1/users" {
			t.Errorf("expected /rest/v1/users, got %s", gotPath)
		}
		if gotAPIKey != "service-key" || gotAuth != "Bearer service-key" {
			t.Errorf("expected service key headers, got apikey=%s auth=%s", gotAPIKey, gotAuth)
		}
		if gotFilter != "eq.true" {
			t.Errorf("expected spotify_connected=eq.true, got %s", gotFilter)
		}

		if len(users) != 2 {
			t.Fatalf("expected 2 users, got %d", len(users))
		}
		if users[0].UserID != "user-1" || users[0].AccessToken != "tok" {
			t.Errorf("unexpected first user: %+v", users[0])
		}
		if users[1].AccessToken != "" {
			t.Errorf("expected null token decoded as empty, got %q", users[1].AccessToken)
		}
	})

	t.Run("non-2xx is a query error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		store, _ := NewSupabaseStore(server.URL, "service-key", nil)
		if _, err := store.ListEnabledUsers(ctx); !errors.Is(err, shared.ErrStoreQuery) {
			t.Errorf("expected store query error, got %v", err)
		}
	})

	t.Run("malformed body is a query error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"not": "a list"}`)
		}))
		defer server.Close()

		store, _ := NewSupabaseStore(server.URL, "service-key", nil)
		if _, err := store.ListEnabledUsers(ctx); !errors.Is(err, shared.ErrStoreQuery) {
			t.Errorf("expected store query error, got %v", err)
		}
	})
}

func TestSupabaseUpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("patches only the provided fields", func(t *testing.T) {
		var gotMethod, gotFilter string
		var gotBody map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotFilter = r.URL.Query().Get("id")
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		store, _ := NewSupabaseStore(server.URL, "service-key", nil)
		fields := models.UpdateFields{
			models.ColIsListening: false,
			models.ColLastUpdated: "2025-06-01T12:00:00Z",
		}

		if err := store.UpdateUser(ctx, "user-1", fields); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotMethod != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", gotMethod)
		}
		if gotFilter != "eq.user-1" {
			t.Errorf("expected id=eq.user-1, got %s", gotFilter)
		}
		if len(gotBody) != 2 {
			t.Errorf("expected exactly the provided fields, got %v", gotBody)
		}
		if gotBody[models.ColIsListening] != false {
			t.Errorf("expected is_listening false, got %v", gotBody[models.ColIsListening])
		}
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		store, _ := NewSupabaseStore(server.URL, "service-key", nil)
		if err := store.UpdateUser(ctx, "user-1", nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if called {
			t.Error("expected no request for an empty update")
		}
	})

	t.Run("non-2xx is a write error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		store, _ := NewSupabaseStore(server.URL, "service-key", nil)
		err := store.UpdateUser(ctx, "user-1", models.UpdateFields{models.ColIsListening: true})
		if !errors.Is(err, shared.ErrStoreWrite) {
			t.Errorf("expected store write error, got %v", err)
		}
	})
}
