package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/nowsync/internal/models"
)

// ProgressUpdate represents a progress event during a sync cycle.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current user number within the cycle
	Total   int    // Total users in this cycle
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// UserSyncUpdate is the Data payload for per-user progress events.
type UserSyncUpdate struct {
	UserID   string
	Status   SyncStatus
	Snapshot *models.TrackSnapshot // nil when not listening or on failure
}

// Operation phase enumeration
type Phase int

const (
	FetchUsers Phase = iota
	SyncUserStart
	SyncUserDone
	CycleDone
	Sleep
)

func (p Phase) String() string {
	switch p {
	case FetchUsers:
		return "fetch_users"
	case SyncUserStart:
		return "sync_user_start"
	case SyncUserDone:
		return "sync_user_done"
	case CycleDone:
		return "cycle_done"
	case Sleep:
		return "sleep"
	default:
		return ""
	}
}

func fetchUsersUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchUsers,
		Message: "Fetching enabled users from the store...",
	}
}

func syncUserStartUpdate(step, total int, userID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncUserStart,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Syncing %s...", step, total, userID),
		Data:    &UserSyncUpdate{UserID: userID},
	}
}

func syncUserDoneUpdate(step, total int, userID string, status SyncStatus, snapshot *models.TrackSnapshot) ProgressUpdate {
	message := fmt.Sprintf("[%d/%d] %s: %s", step, total, userID, status)
	if snapshot != nil {
		message = fmt.Sprintf("[%d/%d] %s: %s - %s", step, total, userID, snapshot.Artists, snapshot.Name)
	}
	return ProgressUpdate{
		Phase:   SyncUserDone,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    &UserSyncUpdate{UserID: userID, Status: status, Snapshot: snapshot},
	}
}

func cycleDoneUpdate(result CycleResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CycleDone,
		Step:    result.Total,
		Total:   result.Total,
		Message: fmt.Sprintf("Cycle complete: %d synced, %d skipped, %d failed", result.Synced, result.Skipped, result.Failed),
		Data:    result,
	}
}

func sleepUpdate(interval time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Sleep,
		Message: fmt.Sprintf("Sleeping %s until next cycle...", interval),
	}
}
