// package tasks implements the now-playing sync engine.
//
// The core abstraction is SyncEngine, which drives the token lifecycle, the
// per-user playback sync, and the fixed-delay batch loop. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowsync/internal/models"
	"github.com/desertthunder/nowsync/internal/repositories"
	"github.com/desertthunder/nowsync/internal/services"
	"github.com/desertthunder/nowsync/internal/shared"
	"golang.org/x/time/rate"
)

// SyncStatus classifies the outcome of one user's sync.
type SyncStatus int

const (
	StatusSynced SyncStatus = iota
	StatusSkipped
	StatusFailed
)

func (s SyncStatus) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return ""
	}
}

// CycleResult summarizes one full pass over all enabled users.
type CycleResult struct {
	CycleID string        `json:"cycle_id"`
	Total   int           `json:"total"`
	Synced  int           `json:"synced"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed"`
}

// SyncEngine composes the store client and the music service into the
// recurring batch job. All work is sequential: one user finishes before the
// next starts, which bounds the external request rate together with the
// limiter and keeps failures isolated without coordination.
type SyncEngine struct {
	store   repositories.UserStore
	service services.Service
	logger  *log.Logger
	limiter *rate.Limiter
	now     func() time.Time
}

// EngineOpts contains configuration options for creating a SyncEngine.
type EngineOpts struct {
	Store     repositories.UserStore
	Service   services.Service
	Logger    *log.Logger
	RateLimit float64          // music service requests per second (default: 5)
	Now       func() time.Time // clock override for tests
}

// NewSyncEngine creates a new SyncEngine with the provided dependencies.
func NewSyncEngine(opts EngineOpts) *SyncEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SyncEngine{
		store:   opts.Store,
		service: opts.Service,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		now:     opts.Now,
	}
}

// tokenExpired reports whether the stored expiry has passed. An absent value
// counts as expired; a malformed value counts as expired and is reported as a
// parse error so callers can log it distinctly. Never treats ambiguity as valid.
func (e *SyncEngine) tokenExpired(raw string) (bool, error) {
	if raw == "" {
		return true, nil
	}

	expiresAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if expiresAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return true, fmt.Errorf("%w: %q", shared.ErrExpiryParse, raw)
		}
	}

	return !e.now().UTC().Before(expiresAt.UTC()), nil
}

// EnsureValidToken returns an access token that is safe to send to the music
// service, refreshing and persisting first when the stored one has expired.
//
// On a successful refresh the new token, its expiry, and a last-synced marker
// are written back to the store. A failed refresh persists nothing and the
// user is skipped for the cycle. A failed persist after a successful exchange
// is logged but the fresh token is still used; the next cycle refreshes again.
func (e *SyncEngine) EnsureValidToken(ctx context.Context, cred *models.UserCredential) (string, error) {
	expired, parseErr := e.tokenExpired(cred.TokenExpiresAt)
	if parseErr != nil {
		// Fail open toward refreshing: an unreadable expiry must never be
		// treated as a valid token.
		e.logger.Warn("unparsable token expiry, forcing refresh", "user", cred.UserID, "err", parseErr)
	}

	if !expired {
		return cred.AccessToken, nil
	}

	grant, err := e.service.RefreshAccessToken(ctx, cred.RefreshToken)
	if err != nil {
		return "", err
	}

	fields := models.UpdateFields{
		models.ColAccessToken:    grant.AccessToken,
		models.ColTokenExpiresAt: grant.ExpiresAt.Format(time.RFC3339),
		models.ColLastUpdated:    e.now().UTC().Format(time.RFC3339),
	}

	if err := e.store.UpdateUser(ctx, cred.UserID, fields); err != nil {
		e.logger.Error("failed to persist refreshed token", "user", cred.UserID, "err", err)
	}

	cred.AccessToken = grant.AccessToken
	cred.TokenExpiresAt = grant.ExpiresAt.Format(time.RFC3339)

	return grant.AccessToken, nil
}

// SyncUser brings one user's playback record up to date: validate or refresh
// the token, fetch the playback state, and merge the partial update into the
// store. The returned error is informational; it never aborts the cycle.
func (e *SyncEngine) SyncUser(ctx context.Context, cred *models.UserCredential) (SyncStatus, *models.TrackSnapshot, error) {
	if cred.AccessToken == "" {
		e.logger.Info("user has no access token, skipping", "user", cred.UserID)
		return StatusSkipped, nil, nil
	}

	token, err := e.EnsureValidToken(ctx, cred)
	if err != nil {
		// No playback write for this user this cycle.
		return StatusFailed, nil, err
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return StatusFailed, nil, err
	}

	snapshot, fetchErr := e.service.CurrentlyPlaying(ctx, token)
	if fetchErr != nil {
		// Unknown playback state: leave is_listening and track fields alone,
		// only refresh the sync marker.
		fields := models.UpdateFields{
			models.ColLastUpdated: e.now().UTC().Format(time.RFC3339),
		}
		if writeErr := e.store.UpdateUser(ctx, cred.UserID, fields); writeErr != nil {
			e.logger.Error("failed to update sync marker", "user", cred.UserID, "err", writeErr)
		}
		return StatusFailed, nil, fetchErr
	}

	fields := models.PlaybackUpdate(snapshot, e.now())
	if err := e.store.UpdateUser(ctx, cred.UserID, fields); err != nil {
		return StatusFailed, snapshot, err
	}

	return StatusSynced, snapshot, nil
}

// RunCycle performs one pass over all enabled users. Store query failures
// produce an empty cycle rather than an error; per-user failures are logged
// with the user ID and do not stop iteration.
func (e *SyncEngine) RunCycle(ctx context.Context, progress chan<- ProgressUpdate) CycleResult {
	result := CycleResult{
		CycleID: shared.GenerateID(),
		Started: e.now().UTC(),
	}

	logger := shared.WithLogger(e.logger, "cycle", result.CycleID)

	e.sendProgress(progress, fetchUsersUpdate())

	users, err := e.store.ListEnabledUsers(ctx)
	if err != nil {
		logger.Error("failed to list enabled users", "err", err)
		e.sendProgress(progress, cycleDoneUpdate(result))
		result.Elapsed = e.now().UTC().Sub(result.Started)
		return result
	}

	result.Total = len(users)
	logger.Info("starting cycle", "users", len(users))

	for i := range users {
		cred := &users[i]
		e.sendProgress(progress, syncUserStartUpdate(i+1, result.Total, cred.UserID))

		status, snapshot, err := e.SyncUser(ctx, cred)
		switch status {
		case StatusSynced:
			result.Synced++
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		}

		if err != nil {
			logUserError(logger, cred.UserID, err)
		}

		e.sendProgress(progress, syncUserDoneUpdate(i+1, result.Total, cred.UserID, status, snapshot))
	}

	result.Elapsed = e.now().UTC().Sub(result.Started)
	e.sendProgress(progress, cycleDoneUpdate(result))

	return result
}

// Run executes sync cycles forever with a fixed delay between them: the next
// cycle starts interval after the previous one finished, regardless of how
// long it took. Returns nil once ctx is cancelled; cancellation is observed
// at the top of the loop and during the sleep, so an in-flight user finishes.
func (e *SyncEngine) Run(ctx context.Context, interval time.Duration, progress chan<- ProgressUpdate) error {
	if e.store == nil || e.service == nil {
		return fmt.Errorf("%w: engine missing store or service", shared.ErrServiceUnavailable)
	}

	e.logger.Info("starting sync loop", "interval", interval, "service", e.service.Name())

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("sync loop stopped")
			return nil
		default:
		}

		result := e.RunCycle(ctx, progress)
		e.logger.Info("cycle complete",
			"cycle", result.CycleID,
			"total", result.Total,
			"synced", result.Synced,
			"skipped", result.Skipped,
			"failed", result.Failed,
			"elapsed", result.Elapsed,
		)

		e.sendProgress(progress, sleepUpdate(interval))

		select {
		case <-ctx.Done():
			e.logger.Info("sync loop stopped")
			return nil
		case <-time.After(interval):
		}
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks the loop.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// logUserError logs a per-user failure under the matching error kind.
func logUserError(logger *log.Logger, userID string, err error) {
	switch {
	case errors.Is(err, shared.ErrRefreshFailed):
		logger.Error("token refresh failed, user skipped this cycle", "user", userID, "err", err)
	case errors.Is(err, shared.ErrFetchFailed):
		logger.Error("playback fetch failed, track fields untouched", "user", userID, "err", err)
	case errors.Is(err, shared.ErrStoreWrite):
		logger.Error("store write failed, update lost for this cycle", "user", userID, "err", err)
	default:
		logger.Error("user sync failed", "user", userID, "err", err)
	}
}
