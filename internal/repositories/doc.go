// Package repositories contains the user record store clients.
//
// [UserStore] is consumed by the sync engine. Two backends exist:
// [SupabaseStore] (PostgREST over HTTP, production) and [SQLiteStore]
// (local database). Both expose the same merge-by-key update semantics.
package repositories
