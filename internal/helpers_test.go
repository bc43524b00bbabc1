package internal

import (
	"testing"

	"github.com/iksnae/scratch-cli/testutil"
)

// newTestClient creates a client pointed at a fake platform, backed by a
// session store in a fresh temp dir.
func newTestClient(t *testing.T, f *testutil.FakePlatform) *Client {
	t.Helper()
	cfg := &Config{
		SiteURL:        f.SiteURL(),
		APIURL:         f.APIURL(),
		ProjectsURL:    f.ProjectsURL(),
		AssetsURL:      f.AssetsURL(),
		TimeoutSeconds: 5,
		AssetWorkers:   4,
		OutputDir:      ".",
	}
	store := NewSessionStore(testutil.SessionPath(t))
	client, err := NewClient(cfg, store)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

// platformSession builds the session the fake platform considers valid.
func platformSession(f *testutil.FakePlatform) *Session {
	return &Session{
		Username:  f.Username,
		SessionID: f.SessionID,
		Token:     f.APIToken,
	}
}

// minimalDefinition is a two-target project document matching the
// resolver's expectations: a duplicated costume plus one sound.
func minimalDefinition() []byte {
	return []byte(`{"targets":[` +
		`{"costumes":[{"md5ext":"abc123.svg"}],"sounds":[{"md5ext":"def456.wav"}]},` +
		`{"costumes":[{"md5ext":"abc123.svg"}]}]}`)
}
