package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Session holds the credentials established by a successful login. The
// password is exchanged for these values and never stored.
type Session struct {
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	Token     string `json:"token,omitempty"`
}

// SessionStore persists a single Session record on disk. The record is
// owner-read/write only and replaced atomically on save.
type SessionStore struct {
	path string
}

// NewSessionStore creates a store backed by the given file path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultSessionPath returns the per-user session record location.
func DefaultSessionPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// Path returns the store's file path.
func (s *SessionStore) Path() string {
	return s.path
}

// Persist writes the session record, overwriting any prior one. The file
// is written to a temp name and renamed so an interrupted save never
// leaves a partial record.
func (s *SessionStore) Persist(session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}

	// CreateTemp opens 0600 already; pin it in case the umask ever changes
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set session file mode: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save session file: %w", err)
	}
	return nil
}

// Restore loads the persisted session. A missing or malformed record
// means "not logged in" and returns (nil, nil), never an error.
func (s *SessionStore) Restore() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		LogDebug("Ignoring malformed session record at %s: %v", s.path, err)
		return nil, nil
	}
	// A record needs a username plus at least one credential. Browser
	// relay flows may deliver only the API token.
	if session.Username == "" || (session.SessionID == "" && session.Token == "") {
		LogDebug("Ignoring incomplete session record at %s", s.path)
		return nil, nil
	}
	return &session, nil
}

// Purge deletes the persisted record. Purging a store with no record is
// not an error.
func (s *SessionStore) Purge() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
