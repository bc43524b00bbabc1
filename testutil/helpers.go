package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// CreateTempDir creates a temporary directory for testing
func CreateTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "scratch-cli-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

// SessionPath returns a session file path inside a fresh temp dir
func SessionPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(CreateTempDir(t), "session.json")
}

// WriteFile writes a file for testing, creating parent directories
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// JSONUnmarshal unmarshals JSON for testing
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}
