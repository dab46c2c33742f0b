package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

func TestRequestCredentials(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		cookie  string
		want    string
		wantErr bool
	}{
		{name: "bearer header", header: "Bearer ya29.header", want: "ya29.header"},
		{name: "lowercase scheme", header: "bearer ya29.lower", want: "ya29.lower"},
		{name: "cookie fallback", cookie: "ya29.cookie", want: "ya29.cookie"},
		{name: "header wins over cookie", header: "Bearer ya29.header", cookie: "ya29.cookie", want: "ya29.header"},
		{name: "basic auth ignored", header: "Basic dXNlcjpwYXNz", wantErr: true},
		{name: "nothing", wantErr: true},
		{name: "empty bearer", header: "Bearer ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/drive/files", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}

			ts, err := RequestCredentials{}.TokenSource(r)
			if tt.wantErr {
				assert.True(t, errors.Is(err, models.ErrUnauthorized))
				return
			}
			require.NoError(t, err)
			tok, err := ts.Token()
			require.NoError(t, err)
			assert.Equal(t, tt.want, tok.AccessToken)
		})
	}
}

func TestIdentityResolver_Email(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth2/v2/userinfo", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"code": 401, "message": "invalid credentials"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "1", "email": "Reviewer@Example.com", "verified_email": true}`))
	}))
	defer srv.Close()

	resolver := NewIdentityResolver(option.WithEndpoint(srv.URL + "/"))
	ctx := context.Background()

	email, err := resolver.Email(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "good"}))
	require.NoError(t, err)
	assert.Equal(t, "reviewer@example.com", email)

	_, err = resolver.Email(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "bad"}))
	assert.True(t, errors.Is(err, models.ErrUnauthorized))
}
