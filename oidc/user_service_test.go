package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"golang.org/x/oauth2"

	"github.com/Maxvgrad/spring-security/internal/testutil"
)

func userInfoServer(t *testing.T, response map[string]any) (*UserService, *string) {
	t.Helper()

	var seenAuth string
	server := testutil.NewLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("failed to encode userinfo response: %v", err)
		}
	}))
	t.Cleanup(server.Close)

	return NewUserService(server.URL), &seenAuth
}

func accessToken(scopes string) *oauth2.Token {
	token := &oauth2.Token{AccessToken: "access-token", TokenType: "Bearer"}
	if scopes == "" {
		return token
	}
	return token.WithExtra(map[string]any{"scope": scopes})
}

func TestUserServiceLoadUser(t *testing.T) {
	svc, seenAuth := userInfoServer(t, map[string]any{
		"sub":   "user-123",
		"name":  "Test User",
		"email": "user@example.com",
	})

	user, err := svc.LoadUser(context.Background(), accessToken("openid profile"), "user-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Principal() != "user-123" {
		t.Errorf("Principal() = %q, want user-123", user.Principal())
	}
	if !user.Authenticated() {
		t.Error("expected an authenticated token")
	}
	for _, authority := range []string{"ROLE_USER", "SCOPE_openid", "SCOPE_profile"} {
		if !user.HasAuthority(authority) {
			t.Errorf("missing authority %q in %v", authority, user.Authorities())
		}
	}
	if *seenAuth != "Bearer access-token" {
		t.Errorf("Authorization = %q, want the bearer access token", *seenAuth)
	}
}

func TestUserServiceSubjectMismatch(t *testing.T) {
	svc, _ := userInfoServer(t, map[string]any{"sub": "someone-else"})

	if _, err := svc.LoadUser(context.Background(), accessToken(""), "user-123"); err == nil {
		t.Fatal("a substituted userinfo subject must be rejected")
	}
}

func TestUserServiceMissingSubject(t *testing.T) {
	svc, _ := userInfoServer(t, map[string]any{"name": "No Subject"})

	if _, err := svc.LoadUser(context.Background(), accessToken(""), ""); err == nil {
		t.Fatal("a userinfo response without sub must be rejected")
	}
}

func TestUserServiceNoExpectedSubject(t *testing.T) {
	svc, _ := userInfoServer(t, map[string]any{"sub": "user-123"})

	user, err := svc.LoadUser(context.Background(), accessToken(""), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Principal() != "user-123" {
		t.Errorf("Principal() = %q, want user-123", user.Principal())
	}
}

func TestUserServiceMissingAccessToken(t *testing.T) {
	svc, _ := userInfoServer(t, map[string]any{"sub": "user-123"})

	if _, err := svc.LoadUser(context.Background(), nil, ""); err == nil {
		t.Fatal("a nil access token must be rejected")
	}
}

func TestUserServiceEndpointError(t *testing.T) {
	server := testutil.NewLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	svc := NewUserService(server.URL)
	if _, err := svc.LoadUser(context.Background(), accessToken(""), ""); err == nil {
		t.Fatal("expected an error from the userinfo endpoint")
	}
}

func TestFetchUserInfoClaims(t *testing.T) {
	svc, _ := userInfoServer(t, map[string]any{
		"sub":            "user-123",
		"name":           "Test User",
		"given_name":     "Test",
		"family_name":    "User",
		"email":          "user@example.com",
		"email_verified": true,
		"locale":         "en",
	})

	info, err := svc.FetchUserInfo(context.Background(), accessToken(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "Test User" || info.GivenName != "Test" || info.FamilyName != "User" {
		t.Errorf("unexpected name claims: %+v", info)
	}
	if !info.EmailVerified || info.Email != "user@example.com" {
		t.Errorf("unexpected email claims: %+v", info)
	}
}
