// Package tasks orchestrates the recurring now-playing sync.
//
// # Core Operations
//
// [SyncEngine] exposes four operations:
//
//  1. [SyncEngine.EnsureValidToken] : token lifecycle
//     - Returns the stored access token while its expiry is in the future
//     - Refreshes and persists when the expiry has passed or cannot be parsed
//     - A failed refresh persists nothing and skips the user for the cycle
//
//  2. [SyncEngine.SyncUser] : one user, one write
//     - Skips users without an access token (logged, not an error)
//     - Fetches the playback state and builds a merge-by-key partial update
//     - No active session flips is_listening off but preserves track fields
//     - A fetch failure refreshes only the last-synced marker
//
//  3. [SyncEngine.RunCycle] : one pass over all enabled users
//     - A failed store query yields an empty cycle, never a crash
//     - Users are processed sequentially; failures are isolated and logged
//
//  4. [SyncEngine.Run] : the loop
//     - Fixed-delay scheduling: sleep starts when the cycle ends
//     - Cancellation is observed at loop-top and during the sleep
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate] values sent
// non-blocking (select with default), so a slow or absent consumer never
// stalls the loop. Per-user events carry a [UserSyncUpdate] payload for the
// watch TUI.
//
// # Error Handling
//
// Per-user errors are absorbed at the [SyncEngine.RunCycle] boundary and
// converted into logged outcomes and [CycleResult] counters; the loop itself
// only ever sees per-user completion. There is no in-cycle retry: the next
// scheduled cycle is the retry mechanism.
package tasks
