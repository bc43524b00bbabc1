package internal

import (
	"errors"
	"fmt"
)

// ErrNotLoggedIn is returned by operations that require a valid session
// when no persisted session exists or validation failed.
var ErrNotLoggedIn = errors.New("not logged in")

// AuthErrorKind classifies authentication failures
type AuthErrorKind int

const (
	// AuthMissingCSRF means the server never issued an anti-forgery token
	AuthMissingCSRF AuthErrorKind = iota
	// AuthRejected means the server answered but refused the credentials
	AuthRejected
	// AuthHTTP means the login request failed at the HTTP level
	AuthHTTP
)

// AuthError represents a failure during the login handshake
type AuthError struct {
	Kind    AuthErrorKind
	Message string // server-supplied diagnostic for AuthRejected
	Status  int    // HTTP status for AuthHTTP
	Err     error
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case AuthMissingCSRF:
		return "auth error: server did not issue a CSRF token"
	case AuthRejected:
		return fmt.Sprintf("auth error: login rejected: %s", e.Message)
	default:
		return fmt.Sprintf("auth error: login returned HTTP %d", e.Status)
	}
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// FetchErrorKind classifies metadata and definition fetch failures
type FetchErrorKind int

const (
	// FetchNotFound maps a 404 response
	FetchNotFound FetchErrorKind = iota
	// FetchForbidden maps a 403 response
	FetchForbidden
	// FetchHTTP covers every other non-200 response
	FetchHTTP
	// FetchParse means the response body was not valid JSON
	FetchParse
)

// FetchError represents a failure retrieving project data
type FetchError struct {
	Kind      FetchErrorKind
	ProjectID int64
	Status    int
	Err       error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchNotFound:
		return fmt.Sprintf("fetch error: project %d not found or not accessible", e.ProjectID)
	case FetchForbidden:
		return fmt.Sprintf("fetch error: access to project %d denied", e.ProjectID)
	case FetchParse:
		return fmt.Sprintf("fetch error: project %d returned malformed data: %v", e.ProjectID, e.Err)
	default:
		return fmt.Sprintf("fetch error: project %d returned HTTP %d", e.ProjectID, e.Status)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AssetError represents a single failed asset fetch. It is accumulated as
// a warning and never aborts an archive build.
type AssetError struct {
	Asset  string
	Status int
	Err    error
}

func (e *AssetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("asset error: %s: %v", e.Asset, e.Err)
	}
	return fmt.Sprintf("asset error: %s returned HTTP %d", e.Asset, e.Status)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}
