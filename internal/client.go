package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	userAgent         = "Mozilla/5.0 (compatible; ScratchCLI/1.0)"
	csrfCookieName    = "scratchcsrftoken"
	sessionCookieName = "scratchsessionsid"
)

// Client talks to the remote platform. It owns the HTTP client with its
// cookie jar, the endpoint set, and the current session, and composes the
// named operations the command layer consumes.
type Client struct {
	http       *http.Client
	cfg        *Config
	store      *SessionStore
	session    *Session
	normalizer *Normalizer

	siteURL *url.URL
	apiURL  *url.URL
}

// NewClient creates a client for the configured endpoints backed by the
// given session store.
func NewClient(cfg *Config, store *SessionStore) (*Client, error) {
	siteURL, err := url.Parse(cfg.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", cfg.SiteURL, err)
	}
	apiURL, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", cfg.APIURL, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		cfg:        cfg,
		store:      store,
		normalizer: NewNormalizer(),
		siteURL:    siteURL,
		apiURL:     apiURL,
	}, nil
}

// Session returns the current in-memory session, or nil when
// unauthenticated.
func (c *Client) Session() *Session {
	return c.session
}

// Store returns the client's session store.
func (c *Client) Store() *SessionStore {
	return c.store
}

// SetSession installs a session into memory and its cookie into the jar
// so subsequent requests are authenticated.
func (c *Client) SetSession(session *Session) {
	c.session = session
	if session == nil || session.SessionID == "" {
		return
	}
	cookie := []*http.Cookie{{Name: sessionCookieName, Value: session.SessionID, Path: "/"}}
	c.http.Jar.SetCookies(c.siteURL, cookie)
	c.http.Jar.SetCookies(c.apiURL, cookie)
}

// clearCookies drops every cookie by swapping in a fresh jar.
func (c *Client) clearCookies() {
	if jar, err := cookiejar.New(nil); err == nil {
		c.http.Jar = jar
	}
}

// csrfToken returns the anti-forgery token the server set as a cookie,
// or "" when absent.
func (c *Client) csrfToken() string {
	for _, cookie := range c.http.Jar.Cookies(c.siteURL) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

// refreshCSRF asks the server to (re)issue the anti-forgery cookie.
func (c *Client) refreshCSRF(ctx context.Context) error {
	resp, err := c.get(ctx, c.endpoint(c.cfg.SiteURL, "/csrf_token/"), nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// endpoint joins a base URL and a path.
func (c *Client) endpoint(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.cfg.SiteURL)
	return req, nil
}

func (c *Client) get(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.http.Do(req)
}

// tokenHeaders builds the header set for token-gated API reads. Mirrors
// the browser: a fresh CSRF cookie plus the session's API token.
func (c *Client) tokenHeaders(ctx context.Context) map[string]string {
	if c.session == nil || c.session.Token == "" {
		return nil
	}
	if err := c.refreshCSRF(ctx); err != nil {
		LogDebug("CSRF refresh failed: %v", err)
	}
	return map[string]string{
		"X-CSRFToken":      c.csrfToken(),
		"X-Requested-With": "XMLHttpRequest",
		"X-Token":          c.session.Token,
	}
}

// ListProjects enumerates the authenticated user's projects. The rich
// MyStuff listing includes unpublished projects; when it is unavailable
// the public-only listing is used instead, with a warning since
// unpublished projects silently vanish from the degraded result.
func (c *Client) ListProjects(ctx context.Context, limit int) ([]ProjectSummary, error) {
	if c.session == nil {
		return nil, ErrNotLoggedIn
	}

	if raws, err := c.listAllStatuses(ctx); err == nil {
		return c.normalizer.NormalizeList(raws)
	} else {
		LogWarn("Full project listing unavailable (%v); falling back to the public listing. Unpublished projects will be missing.", err)
	}

	raws, err := c.listPublished(ctx, limit)
	if err != nil {
		return nil, err
	}
	return c.normalizer.NormalizeList(raws)
}

func (c *Client) listAllStatuses(ctx context.Context) ([]json.RawMessage, error) {
	listURL := c.endpoint(c.cfg.SiteURL, "/site-api/projects/all/?page=1&ascsort=&descsort=")
	resp, err := c.get(ctx, listURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: FetchHTTP, Status: resp.StatusCode}
	}

	var raws []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, &FetchError{Kind: FetchParse, Err: err}
	}
	return raws, nil
}

func (c *Client) listPublished(ctx context.Context, limit int) ([]json.RawMessage, error) {
	listURL := c.endpoint(c.cfg.APIURL,
		fmt.Sprintf("/users/%s/projects?limit=%d&offset=0", url.PathEscape(c.session.Username), limit))
	resp, err := c.get(ctx, listURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: FetchHTTP, Status: resp.StatusCode}
	}

	var raws []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, &FetchError{Kind: FetchParse, Err: err}
	}
	return raws, nil
}

// projectRaw fetches the project metadata document as raw bytes. For own
// unpublished projects the session's API token unlocks the read.
func (c *Client) projectRaw(ctx context.Context, projectID int64) ([]byte, error) {
	metaURL := c.endpoint(c.cfg.APIURL, fmt.Sprintf("/projects/%d", projectID))
	resp, err := c.get(ctx, metaURL, c.tokenHeaders(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetchStatusError(projectID, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata for project %d: %w", projectID, err)
	}
	return data, nil
}

// ProjectMetadata fetches a project's title and access token.
func (c *Client) ProjectMetadata(ctx context.Context, projectID int64) (*ProjectMetadata, error) {
	raw, err := c.projectRaw(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var meta ProjectMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, &FetchError{Kind: FetchParse, ProjectID: projectID, Err: err}
	}
	if meta.ID == 0 {
		meta.ID = projectID
	}
	return &meta, nil
}

// ProjectInfo fetches a project's metadata and normalizes it into the
// canonical summary shape.
func (c *Client) ProjectInfo(ctx context.Context, projectID int64) (ProjectSummary, error) {
	raw, err := c.projectRaw(ctx, projectID)
	if err != nil {
		return ProjectSummary{}, err
	}

	summary, err := c.normalizer.NormalizeProject(raw)
	if err != nil {
		return ProjectSummary{}, &FetchError{Kind: FetchParse, ProjectID: projectID, Err: err}
	}
	if summary.ID == 0 {
		summary.ID = projectID
	}
	return summary, nil
}

// DownloadDefinition fetches the raw project document. An access token
// travels as a query parameter; without one, an authenticated session
// falls back to sending its API token as a header.
func (c *Client) DownloadDefinition(ctx context.Context, projectID int64, accessToken string) ([]byte, error) {
	defURL := c.endpoint(c.cfg.ProjectsURL, fmt.Sprintf("/%d", projectID))
	headers := map[string]string{}
	if accessToken != "" {
		defURL += "?token=" + url.QueryEscape(accessToken)
	} else if c.session != nil && c.session.Token != "" {
		headers["X-Token"] = c.session.Token
	}

	resp, err := c.get(ctx, defURL, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetchStatusError(projectID, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %d: %w", projectID, err)
	}
	return data, nil
}

// FetchAsset downloads one binary asset by identifier.
func (c *Client) FetchAsset(ctx context.Context, name string) ([]byte, error) {
	assetURL := c.endpoint(c.cfg.AssetsURL, fmt.Sprintf("/%s/get/", url.PathEscape(name)))
	resp, err := c.get(ctx, assetURL, nil)
	if err != nil {
		return nil, &AssetError{Asset: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &AssetError{Asset: name, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AssetError{Asset: name, Err: err}
	}
	return data, nil
}

func fetchStatusError(projectID int64, status int) *FetchError {
	switch status {
	case http.StatusNotFound:
		return &FetchError{Kind: FetchNotFound, ProjectID: projectID, Status: status}
	case http.StatusForbidden:
		return &FetchError{Kind: FetchForbidden, ProjectID: projectID, Status: status}
	default:
		return &FetchError{Kind: FetchHTTP, ProjectID: projectID, Status: status}
	}
}
