// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/desertthunder/nowsync/internal/models"
)

// MockService is a scriptable test double for [services.Service]
type MockService struct {
	Grant      *models.TokenGrant
	RefreshErr error
	Snapshot   *models.TrackSnapshot
	FetchErr   error

	RefreshCalls int
	FetchCalls   int
	LastToken    string // access token passed to the most recent fetch
}

func (m *MockService) RefreshAccessToken(ctx context.Context, refreshToken string) (*models.TokenGrant, error) {
	m.RefreshCalls++
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	return m.Grant, nil
}

func (m *MockService) CurrentlyPlaying(ctx context.Context, accessToken string) (*models.TrackSnapshot, error) {
	m.FetchCalls++
	m.LastToken = accessToken
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Snapshot, nil
}

func (m *MockService) Name() string { return "mock" }

// RecordedUpdate captures one UpdateUser call.
type RecordedUpdate struct {
	UserID string
	Fields models.UpdateFields
}

// MockStore is a scriptable test double for [repositories.UserStore].
// Updates are recorded in call order.
type MockStore struct {
	Users     []models.UserCredential
	ListErr   error
	UpdateErr error

	mu      sync.Mutex
	Updates []RecordedUpdate
}

func (m *MockStore) ListEnabledUsers(ctx context.Context) ([]models.UserCredential, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Users, nil
}

func (m *MockStore) UpdateUser(ctx context.Context, userID string, fields models.UpdateFields) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, RecordedUpdate{UserID: userID, Fields: fields})
	return nil
}

// UpdatesFor returns the recorded updates for one user, in call order.
func (m *MockStore) UpdatesFor(userID string) []RecordedUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RecordedUpdate
	for _, u := range m.Updates {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}
