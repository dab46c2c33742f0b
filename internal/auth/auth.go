// Package auth turns inbound requests into Google credentials
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

// AccessTokenCookie is the cookie consulted when no Authorization header is sent
const AccessTokenCookie = "access_token"

// CredentialProvider yields the caller's Google credential for one request
type CredentialProvider interface {
	TokenSource(r *http.Request) (oauth2.TokenSource, error)
}

// RequestCredentials reads a Google access token from the Authorization
// header or, failing that, from the access_token cookie
type RequestCredentials struct{}

// TokenSource returns a static token source, or models.ErrUnauthorized when
// the request carries no token
func (RequestCredentials) TokenSource(r *http.Request) (oauth2.TokenSource, error) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		if c, err := r.Cookie(AccessTokenCookie); err == nil {
			token = strings.TrimSpace(c.Value)
		}
	}
	if token == "" {
		return nil, fmt.Errorf("%w: no access token", models.ErrUnauthorized)
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}), nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// IdentityResolver resolves the e-mail of the account owning a token
type IdentityResolver struct {
	opts []option.ClientOption
}

// NewIdentityResolver creates a resolver; opts are appended to every client
func NewIdentityResolver(opts ...option.ClientOption) *IdentityResolver {
	return &IdentityResolver{opts: opts}
}

// Email asks the userinfo endpoint who owns ts
func (ir *IdentityResolver) Email(ctx context.Context, ts oauth2.TokenSource) (string, error) {
	opts := append([]option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}, ir.opts...)
	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: userinfo lookup failed: %v", models.ErrUnauthorized, err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("%w: token carries no e-mail scope", models.ErrUnauthorized)
	}
	return strings.ToLower(info.Email), nil
}
