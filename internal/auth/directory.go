package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User is the read-only view of a platform account as served by the
// user directory.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// Directory looks up users and sessions in the platform's user service.
// It never writes; account management lives outside this engine.
type Directory struct {
	endpoint string
	client   *http.Client
}

type DirectoryConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewDirectory(cfg DirectoryConfig) *Directory {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Directory{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// LookupUser fetches a user record by username.
func (d *Directory) LookupUser(ctx context.Context, username string) (*User, error) {
	target := fmt.Sprintf("%s/users/%s", d.endpoint, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}
	return &user, nil
}

// ValidateSession checks that a session token is still active in the
// platform session store.
func (d *Directory) ValidateSession(ctx context.Context, sessionID string) (bool, error) {
	target := fmt.Sprintf("%s/sessions/%s", d.endpoint, url.PathEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build session request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("session lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var session struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return false, fmt.Errorf("failed to decode session response: %w", err)
	}
	return session.Active, nil
}
