package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors (fatal at startup)
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Token lifecycle errors
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrExpiryParse    = fmt.Errorf("unparsable token expiry")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")

	// Playback fetch errors
	ErrFetchFailed = fmt.Errorf("playback fetch failed")

	// Store errors (recoverable per cycle)
	ErrStoreQuery = fmt.Errorf("store query failed")
	ErrStoreWrite = fmt.Errorf("store write failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
)
