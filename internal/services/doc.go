// Package services contains the music service clients.
//
// [Service] is the boundary the sync engine depends on: a refresh-token
// exchange and a currently-playing fetch. [SpotifyService] is the only
// implementation; it leans on [golang.org/x/oauth2] for the token exchange so
// that expiry math (now + expires_in) and client-credential placement follow
// the RFC 6749 rules rather than hand-rolled form encoding.
//
// Endpoint URLs live in unexported fields so package tests can point the
// client at an httptest server.
package services
