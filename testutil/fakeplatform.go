package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakePlatform is an in-process stand-in for the remote creative
// platform: CSRF issuance, login, listings, metadata, definitions, and
// asset downloads, all on one httptest server. Tests point every
// endpoint base of a Config at it.
type FakePlatform struct {
	Server *httptest.Server

	Username  string
	Password  string
	APIToken  string
	SessionID string
	CSRFToken string

	// OmitCSRF suppresses the anti-forgery cookie to exercise the
	// missing-token failure
	OmitCSRF bool
	// FailRichListing makes the all-statuses listing return 500
	FailRichListing bool

	RichListing   []json.RawMessage
	PublicListing []json.RawMessage

	Metadata         map[int64]json.RawMessage
	Definitions      map[int64][]byte
	DefinitionTokens map[int64]string
	Assets           map[string][]byte
	FailAssets       map[string]int

	mu        sync.Mutex
	assetHits map[string]int
}

// NewFakePlatform starts a fake platform with one valid account and no
// projects. The server stops when the test finishes.
func NewFakePlatform(t *testing.T) *FakePlatform {
	t.Helper()
	f := &FakePlatform{
		Username:         "testuser",
		Password:         "hunter2",
		APIToken:         "api-token-123",
		SessionID:        "sess-abc",
		CSRFToken:        "csrf-xyz",
		Metadata:         make(map[int64]json.RawMessage),
		Definitions:      make(map[int64][]byte),
		DefinitionTokens: make(map[int64]string),
		Assets:           make(map[string][]byte),
		FailAssets:       make(map[string]int),
		assetHits:        make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.route))
	t.Cleanup(f.Server.Close)
	return f
}

// SiteURL returns the endpoint base playing the main site.
func (f *FakePlatform) SiteURL() string { return f.Server.URL }

// APIURL returns the endpoint base playing the API host.
func (f *FakePlatform) APIURL() string { return f.Server.URL }

// ProjectsURL returns the endpoint base playing the definition host.
// Definition and asset routes get distinct prefixes so a single server
// can play all four hosts.
func (f *FakePlatform) ProjectsURL() string { return f.Server.URL + "/raw" }

// AssetsURL returns the endpoint base playing the asset host.
func (f *FakePlatform) AssetsURL() string { return f.Server.URL + "/assets" }

// AddProject registers a project with metadata, a definition document,
// and its listing entry in both listing shapes.
func (f *FakePlatform) AddProject(id int64, title string, definition []byte) {
	f.Metadata[id] = json.RawMessage(fmt.Sprintf(
		`{"id":%d,"title":%q,"public":true,"stats":{"views":1,"loves":0,"favorites":0,"remixes":0},"history":{"created":"2024-01-01T00:00:00Z","modified":"2024-06-01T00:00:00Z"}}`,
		id, title))
	f.Definitions[id] = definition
	f.RichListing = append(f.RichListing, json.RawMessage(fmt.Sprintf(
		`{"pk":%d,"fields":{"title":%q,"view_count":1,"isPublished":true,"datetime_created":"2024-01-01","datetime_modified":"2024-06-01"}}`,
		id, title)))
	f.PublicListing = append(f.PublicListing, json.RawMessage(fmt.Sprintf(
		`{"id":%d,"title":%q,"public":true,"stats":{"views":1},"history":{"created":"2024-01-01","modified":"2024-06-01"}}`,
		id, title)))
}

// AssetHits reports how many times an asset was requested.
func (f *FakePlatform) AssetHits(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assetHits[name]
}

func (f *FakePlatform) authed(r *http.Request) bool {
	cookie, err := r.Cookie("scratchsessionsid")
	return err == nil && cookie.Value == f.SessionID
}

func (f *FakePlatform) route(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/csrf_token/":
		if !f.OmitCSRF {
			http.SetCookie(w, &http.Cookie{Name: "scratchcsrftoken", Value: f.CSRFToken, Path: "/"})
		}
		w.WriteHeader(http.StatusOK)

	case path == "/accounts/login/" && r.Method == http.MethodPost:
		f.handleLogin(w, r)

	case path == "/site-api/projects/all/":
		f.handleRichListing(w, r)

	case strings.HasPrefix(path, "/users/") && strings.HasSuffix(path, "/projects"):
		writeRawList(w, f.PublicListing)

	case strings.HasPrefix(path, "/users/"):
		if f.authed(r) && strings.TrimPrefix(path, "/users/") == f.Username {
			fmt.Fprintf(w, `{"username":%q}`, f.Username)
		} else {
			w.WriteHeader(http.StatusUnauthorized)
		}

	case strings.HasPrefix(path, "/projects/"):
		f.handleMetadata(w, strings.TrimPrefix(path, "/projects/"))

	case strings.HasPrefix(path, "/raw/"):
		f.handleDefinition(w, r, strings.TrimPrefix(path, "/raw/"))

	case strings.HasPrefix(path, "/assets/") && strings.HasSuffix(path, "/get/"):
		name := strings.TrimSuffix(strings.TrimPrefix(path, "/assets/"), "/get/")
		f.handleAsset(w, name)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *FakePlatform) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-CSRFToken") != f.CSRFToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if creds.Username != f.Username || creds.Password != f.Password {
		fmt.Fprint(w, `[{"msg":"Incorrect username or password."}]`)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "scratchsessionsid", Value: f.SessionID, Path: "/"})
	fmt.Fprintf(w, `[{"username":%q,"token":%q}]`, f.Username, f.APIToken)
}

func (f *FakePlatform) handleRichListing(w http.ResponseWriter, r *http.Request) {
	if f.FailRichListing {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !f.authed(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	writeRawList(w, f.RichListing)
}

func (f *FakePlatform) handleMetadata(w http.ResponseWriter, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	meta, ok := f.Metadata[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(meta)
}

func (f *FakePlatform) handleDefinition(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	def, ok := f.Definitions[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if required := f.DefinitionTokens[id]; required != "" {
		if r.URL.Query().Get("token") != required && r.Header.Get("X-Token") != f.APIToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
	}
	_, _ = w.Write(def)
}

func (f *FakePlatform) handleAsset(w http.ResponseWriter, name string) {
	f.mu.Lock()
	f.assetHits[name]++
	f.mu.Unlock()

	if status, ok := f.FailAssets[name]; ok {
		w.WriteHeader(status)
		return
	}
	data, ok := f.Assets[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write(data)
}

func writeRawList(w http.ResponseWriter, list []json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	if list == nil {
		list = []json.RawMessage{}
	}
	_ = json.NewEncoder(w).Encode(list)
}
