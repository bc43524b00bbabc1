package internal

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Relay is a minimal server for browser-based auth flows: it receives an
// already-established session (username, tokens) and persists it through
// the regular session store. It never sees a password.
type Relay struct {
	store *SessionStore
}

// NewRelay creates a relay backed by the given store.
func NewRelay(store *SessionStore) *Relay {
	return &Relay{store: store}
}

type relayRequest struct {
	Username  string `json:"username"`
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}

type relayResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	LoggedIn bool   `json:"logged_in,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Handler returns the relay's HTTP handler.
func (rl *Relay) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scratch-auth", rl.handleReceive)
	mux.HandleFunc("/api/scratch-auth/status", rl.handleStatus)
	mux.HandleFunc("/api/scratch-auth/logout/", rl.handleLogout)
	return withCORS(mux)
}

// ListenAndServe serves the relay on addr until the listener fails.
func (rl *Relay) ListenAndServe(addr string) error {
	LogInfo("Session relay listening on %s", addr)
	return http.ListenAndServe(addr, rl.Handler())
}

func (rl *Relay) handleReceive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, relayResponse{Error: "POST required"})
		return
	}

	var req relayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, relayResponse{Error: "invalid JSON body"})
		return
	}
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, relayResponse{Error: "username missing"})
		return
	}
	if req.SessionID == "" && req.Token == "" {
		writeJSON(w, http.StatusBadRequest, relayResponse{Error: "session data missing"})
		return
	}

	session := &Session{
		Username:  req.Username,
		SessionID: req.SessionID,
		Token:     req.Token,
	}
	if err := rl.store.Persist(session); err != nil {
		LogError("Failed to persist relayed session: %v", err)
		writeJSON(w, http.StatusInternalServerError, relayResponse{Error: "failed to save session"})
		return
	}

	LogInfo("Received session for %s", req.Username)
	writeJSON(w, http.StatusOK, relayResponse{Success: true, Username: req.Username})
}

func (rl *Relay) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, relayResponse{Error: "GET required"})
		return
	}

	session, err := rl.store.Restore()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, relayResponse{Error: "failed to read session"})
		return
	}
	if session == nil {
		writeJSON(w, http.StatusOK, relayResponse{Success: true, LoggedIn: false})
		return
	}
	writeJSON(w, http.StatusOK, relayResponse{Success: true, LoggedIn: true, Username: session.Username})
}

// handleLogout drops the stored session for the named user. Logging out
// a user with no stored session succeeds; a mismatched name leaves the
// record alone.
func (rl *Relay) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, relayResponse{Error: "POST required"})
		return
	}

	username := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/scratch-auth/logout/"), "/")
	if username == "" {
		writeJSON(w, http.StatusBadRequest, relayResponse{Error: "username missing"})
		return
	}

	session, err := rl.store.Restore()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, relayResponse{Error: "failed to read session"})
		return
	}
	if session != nil && session.Username == username {
		if err := rl.store.Purge(); err != nil {
			LogError("Failed to purge relayed session: %v", err)
			writeJSON(w, http.StatusInternalServerError, relayResponse{Error: "failed to delete session"})
			return
		}
		LogInfo("Logged out %s", username)
	}
	writeJSON(w, http.StatusOK, relayResponse{Success: true, Username: username})
}

func writeJSON(w http.ResponseWriter, status int, body relayResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// withCORS allows the browser frontend to call the relay cross-origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
