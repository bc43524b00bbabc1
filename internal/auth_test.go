package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/iksnae/scratch-cli/testutil"
)

func TestClient_Login(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	client := newTestClient(t, f)

	session, err := client.Login(context.Background(), f.Username, f.Password)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if session.Username != f.Username {
		t.Errorf("session.Username = %q, want %q", session.Username, f.Username)
	}
	if session.SessionID != f.SessionID {
		t.Errorf("session.SessionID = %q, want %q", session.SessionID, f.SessionID)
	}
	if session.Token != f.APIToken {
		t.Errorf("session.Token = %q, want %q", session.Token, f.APIToken)
	}

	// Login persists; restore must yield an equal session
	stored, err := client.Store().Restore()
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if stored == nil || *stored != *session {
		t.Errorf("Restore() = %+v, want %+v", stored, session)
	}
}

func TestClient_Login_Rejected(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	client := newTestClient(t, f)

	_, err := client.Login(context.Background(), f.Username, "wrong-password")

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login() error = %v, want *AuthError", err)
	}
	if authErr.Kind != AuthRejected {
		t.Errorf("AuthError.Kind = %v, want AuthRejected", authErr.Kind)
	}
	if authErr.Message != "Incorrect username or password." {
		t.Errorf("AuthError.Message = %q, want the server diagnostic", authErr.Message)
	}

	// A rejected login must not leave a persisted session behind
	stored, _ := client.Store().Restore()
	if stored != nil {
		t.Errorf("rejected login persisted a session: %+v", stored)
	}
}

func TestClient_Login_MissingCSRF(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	f.OmitCSRF = true
	client := newTestClient(t, f)

	_, err := client.Login(context.Background(), f.Username, f.Password)

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login() error = %v, want *AuthError", err)
	}
	if authErr.Kind != AuthMissingCSRF {
		t.Errorf("AuthError.Kind = %v, want AuthMissingCSRF", authErr.Kind)
	}
}

func TestClient_Validate(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	client := newTestClient(t, f)

	client.SetSession(platformSession(f))
	if !client.Validate(context.Background()) {
		t.Error("Validate() = false for a valid session")
	}

	client.SetSession(&Session{Username: f.Username, SessionID: "stale"})
	if client.Validate(context.Background()) {
		t.Error("Validate() = true for a stale session cookie")
	}
}

func TestClient_Logout_Idempotent(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	client := newTestClient(t, f)

	if err := client.Logout(); err != nil {
		t.Errorf("Logout() without a session error = %v", err)
	}

	client.SetSession(platformSession(f))
	if err := client.Store().Persist(client.Session()); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if err := client.Logout(); err != nil {
		t.Errorf("Logout() error = %v", err)
	}
	if client.Session() != nil {
		t.Error("Logout() left an in-memory session")
	}
	if err := client.Logout(); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
}

func TestClient_EnsureAuthenticated(t *testing.T) {
	t.Run("no stored session", func(t *testing.T) {
		f := testutil.NewFakePlatform(t)
		client := newTestClient(t, f)

		_, err := client.EnsureAuthenticated(context.Background())
		if !errors.Is(err, ErrNotLoggedIn) {
			t.Errorf("EnsureAuthenticated() error = %v, want ErrNotLoggedIn", err)
		}
	})

	t.Run("valid stored session", func(t *testing.T) {
		f := testutil.NewFakePlatform(t)
		client := newTestClient(t, f)
		if err := client.Store().Persist(platformSession(f)); err != nil {
			t.Fatalf("Persist() error = %v", err)
		}

		session, err := client.EnsureAuthenticated(context.Background())
		if err != nil {
			t.Fatalf("EnsureAuthenticated() error = %v", err)
		}
		if session.Username != f.Username {
			t.Errorf("session.Username = %q, want %q", session.Username, f.Username)
		}
	})

	t.Run("stale stored session is purged", func(t *testing.T) {
		f := testutil.NewFakePlatform(t)
		client := newTestClient(t, f)
		stale := platformSession(f)
		stale.SessionID = "expired"
		if err := client.Store().Persist(stale); err != nil {
			t.Fatalf("Persist() error = %v", err)
		}

		_, err := client.EnsureAuthenticated(context.Background())
		if !errors.Is(err, ErrNotLoggedIn) {
			t.Fatalf("EnsureAuthenticated() error = %v, want ErrNotLoggedIn", err)
		}

		stored, _ := client.Store().Restore()
		if stored != nil {
			t.Errorf("stale session was not purged: %+v", stored)
		}
	})
}
