// Package models contains the shared data types passed between the store
// clients, the Spotify service, and the sync engine.
//
// [UserCredential] mirrors the credential columns of the external users table.
// [UpdateFields] carries merge-by-key partial updates back to the store: a
// column absent from the map is never written, which is what preserves stale
// track fields when a user stops listening.
package models
