// Package auth verifies bearer tokens against the hosted identity provider
// and exposes the verified principal to handlers. The service never
// authenticates users itself; it only trusts what the provider reports.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Principal is an authenticated identity on whose behalf a submission is
// made.
type Principal struct {
	ID       string
	Email    string
	Name     string
	Handle   string
	Provider string
}

// Verifier resolves a bearer token to a verified principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// GoTrueVerifier validates tokens against a Supabase-style GoTrue endpoint
// (GET /auth/v1/user with the caller's token).
type GoTrueVerifier struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// NewGoTrueVerifier creates a verifier for the given project URL and anon
// API key.
func NewGoTrueVerifier(baseURL, anonKey string) (*GoTrueVerifier, error) {
	if baseURL == "" || anonKey == "" {
		return nil, fmt.Errorf("identity provider configuration is missing")
	}
	return &GoTrueVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// goTrueUser is the subset of the provider's user payload we consume.
type goTrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		UserName string `json:"user_name"`
		Name     string `json:"name"`
	} `json:"user_metadata"`
	Identities []struct {
		Provider string `json:"provider"`
	} `json:"identities"`
}

// Verify calls the provider with the caller's token and maps the user
// payload to a principal.
func (v *GoTrueVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.anonKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invalid session (status %d)", resp.StatusCode)
	}

	var user goTrueUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("malformed identity response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("invalid session")
	}

	p := &Principal{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.UserMetadata.Name,
	}
	if user.UserMetadata.UserName != "" {
		p.Handle = user.UserMetadata.UserName
	} else {
		p.Handle = user.UserMetadata.Name
	}
	if len(user.Identities) > 0 {
		p.Provider = user.Identities[0].Provider
	}

	return p, nil
}

// SocialLink derives a public profile URL for recognized providers; other
// providers get no link, only the handle.
func SocialLink(provider, handle string) string {
	if handle == "" {
		return ""
	}
	switch provider {
	case "github":
		return "https://github.com/" + handle
	case "twitter", "x":
		return "https://x.com/" + handle
	}
	return ""
}
