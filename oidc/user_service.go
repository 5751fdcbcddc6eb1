package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Maxvgrad/spring-security/authn"
)

// UserInfo holds the standard claims returned by an OpenID Connect userinfo
// endpoint. Unrecognized claims are ignored.
type UserInfo struct {
	Subject       string `json:"sub"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Locale        string `json:"locale"`
}

// UserServiceOption is a functional option for UserService.
type UserServiceOption func(*UserService)

// WithUserServiceHTTPClient sets a custom HTTP client for userinfo requests.
func WithUserServiceHTTPClient(client *http.Client) UserServiceOption {
	return func(s *UserService) {
		s.httpClient = client
	}
}

// WithUserServiceLogger sets a logger for userinfo retrieval events.
func WithUserServiceLogger(logger Logger) UserServiceOption {
	return func(s *UserService) {
		s.logger = logger
	}
}

// UserService loads user identity from an OpenID Connect userinfo endpoint
// and translates it into an authenticated token.
type UserService struct {
	userInfoURL string
	httpClient  *http.Client
	logger      Logger
}

// NewUserService creates a user service for the given userinfo endpoint.
func NewUserService(userInfoURL string, opts ...UserServiceOption) *UserService {
	s := &UserService{
		userInfoURL: userInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadUser fetches the userinfo claims with the given access token and
// returns an authenticated token for the subject.
//
// When expectedSubject is non-empty, the userinfo subject must match it
// exactly; a mismatch indicates a substituted response and is rejected. The
// returned token carries ROLE_USER plus one SCOPE_ prefixed authority per
// scope granted to the access token.
func (s *UserService) LoadUser(ctx context.Context, accessToken *oauth2.Token, expectedSubject string) (*authn.Token, error) {
	info, err := s.FetchUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if info.Subject == "" {
		return nil, fmt.Errorf("oidc: userinfo response is missing the sub claim")
	}
	if expectedSubject != "" && info.Subject != expectedSubject {
		return nil, fmt.Errorf("oidc: userinfo subject %q does not match expected subject", info.Subject)
	}

	authorities := []string{"ROLE_USER"}
	for _, scope := range scopesOf(accessToken) {
		authorities = append(authorities, "SCOPE_"+scope)
	}

	if s.logger != nil {
		s.logger.Printf("oidc: loaded user %s from userinfo endpoint", info.Subject)
	}
	return authn.NewAuthenticated(info.Subject, authorities...), nil
}

// FetchUserInfo retrieves the raw userinfo claims with the given access
// token.
func (s *UserService) FetchUserInfo(ctx context.Context, accessToken *oauth2.Token) (*UserInfo, error) {
	if accessToken == nil || accessToken.AccessToken == "" {
		return nil, fmt.Errorf("oidc: access token is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("oidc: failed to create userinfo request: %w", err)
	}
	accessToken.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oidc: userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("oidc: failed to read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oidc: userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("oidc: failed to decode userinfo response: %w", err)
	}
	return &info, nil
}

func scopesOf(token *oauth2.Token) []string {
	raw, ok := token.Extra("scope").(string)
	if !ok {
		return nil
	}
	return strings.Fields(raw)
}
