package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Login performs the credential exchange: obtain the anti-forgery cookie,
// POST the credentials with the token as a header, and parse the result
// list. On success the confirmed session is installed and persisted. The
// password only ever lives in the request body.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	if err := c.refreshCSRF(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach login endpoint: %w", err)
	}
	csrf := c.csrfToken()
	if csrf == "" {
		return nil, &AuthError{Kind: AuthMissingCSRF}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"username":    username,
		"password":    password,
		"useMessages": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(c.cfg.SiteURL, "/accounts/login/"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CSRFToken", csrf)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &AuthError{Kind: AuthHTTP, Status: resp.StatusCode}
	}

	var results []rawLoginResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &AuthError{Kind: AuthRejected, Message: "malformed login response", Err: err}
	}
	if len(results) == 0 || results[0].Username == "" {
		msg := "unknown"
		if len(results) > 0 && results[0].Msg != "" {
			msg = results[0].Msg
		}
		return nil, &AuthError{Kind: AuthRejected, Message: msg}
	}

	session := &Session{
		Username:  results[0].Username,
		SessionID: c.sessionCookie(),
		Token:     results[0].Token,
	}
	c.SetSession(session)

	if err := c.store.Persist(session); err != nil {
		return nil, err
	}
	return session, nil
}

// sessionCookie returns the session cookie the server set during login.
func (c *Client) sessionCookie() string {
	for _, u := range []*url.URL{c.siteURL, c.apiURL} {
		for _, cookie := range c.http.Jar.Cookies(u) {
			if cookie.Name == sessionCookieName {
				return cookie.Value
			}
		}
	}
	return ""
}

// Validate issues an authenticated profile read. Any failure, transport
// or HTTP, means the session is no longer usable.
func (c *Client) Validate(ctx context.Context) bool {
	if c.session == nil || c.session.Username == "" {
		return false
	}
	profileURL := c.endpoint(c.cfg.APIURL, "/users/"+url.PathEscape(c.session.Username))
	resp, err := c.get(ctx, profileURL, nil)
	if err != nil {
		LogDebug("Session validation failed: %v", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Logout purges the persisted record and clears the in-memory session.
// Logging out while logged out is not an error.
func (c *Client) Logout() error {
	err := c.store.Purge()
	c.session = nil
	c.clearCookies()
	return err
}

// EnsureAuthenticated restores the persisted session and validates it.
// An invalid restored session is purged before reporting ErrNotLoggedIn,
// so a dead record never lingers.
func (c *Client) EnsureAuthenticated(ctx context.Context) (*Session, error) {
	if c.session != nil {
		return c.session, nil
	}

	session, err := c.store.Restore()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotLoggedIn
	}

	c.SetSession(session)
	if !c.Validate(ctx) {
		LogDebug("Stored session for %s is no longer valid, purging", session.Username)
		if err := c.Logout(); err != nil {
			LogWarn("Failed to purge stale session: %v", err)
		}
		return nil, ErrNotLoggedIn
	}
	return session, nil
}
