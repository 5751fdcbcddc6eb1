package authn

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryManager(t *testing.T) {
	manager := NewInMemoryManager(map[string]User{
		"user":  {Password: "password", Authorities: []string{"ROLE_USER"}},
		"admin": {Password: "hunter2", Authorities: []string{"ROLE_USER", "ROLE_ADMIN"}},
	})

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
		wantAuth []string
	}{
		{
			name:     "valid credentials",
			username: "user",
			password: "password",
			wantAuth: []string{"ROLE_USER"},
		},
		{
			name:     "admin credentials",
			username: "admin",
			password: "hunter2",
			wantAuth: []string{"ROLE_USER", "ROLE_ADMIN"},
		},
		{
			name:     "wrong password",
			username: "user",
			password: "wrong",
			wantErr:  true,
		},
		{
			name:     "unknown user",
			username: "ghost",
			password: "password",
			wantErr:  true,
		},
		{
			name:     "empty password for known user",
			username: "user",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := manager.Authenticate(context.Background(), NewCandidate(tt.username, tt.password))

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !IsAuthenticationError(err) {
					t.Errorf("expected an authentication failure, got %v", err)
				}
				var authErr *Error
				if !errors.As(err, &authErr) || authErr.Reason != ReasonBadCredentials {
					t.Errorf("expected bad credentials reason, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !token.Authenticated() {
				t.Error("expected an authenticated token")
			}
			for _, authority := range tt.wantAuth {
				if !token.HasAuthority(authority) {
					t.Errorf("missing authority %q", authority)
				}
			}
		})
	}
}

func TestDelegatingManager(t *testing.T) {
	unsupported := ManagerFunc(func(ctx context.Context, token *Token) (*Token, error) {
		return nil, Unsupported("not my credential type")
	})
	success := ManagerFunc(func(ctx context.Context, token *Token) (*Token, error) {
		return NewAuthenticated(token.Principal(), "ROLE_USER"), nil
	})
	failure := ManagerFunc(func(ctx context.Context, token *Token) (*Token, error) {
		return nil, BadCredentials("rejected")
	})
	processingError := errors.New("credential store unreachable")
	broken := ManagerFunc(func(ctx context.Context, token *Token) (*Token, error) {
		return nil, processingError
	})

	t.Run("skips unsupported delegates", func(t *testing.T) {
		manager := NewDelegatingManager(unsupported, success)

		token, err := manager.Authenticate(context.Background(), NewCandidate("user", "x"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !token.Authenticated() {
			t.Error("expected an authenticated token")
		}
	})

	t.Run("first definitive failure wins", func(t *testing.T) {
		manager := NewDelegatingManager(unsupported, failure, success)

		_, err := manager.Authenticate(context.Background(), NewCandidate("user", "x"))
		if !IsAuthenticationError(err) {
			t.Fatalf("expected an authentication failure, got %v", err)
		}
	})

	t.Run("processing errors propagate", func(t *testing.T) {
		manager := NewDelegatingManager(broken, success)

		_, err := manager.Authenticate(context.Background(), NewCandidate("user", "x"))
		if !errors.Is(err, processingError) {
			t.Fatalf("expected the processing error, got %v", err)
		}
		if IsAuthenticationError(err) {
			t.Error("processing error must not look like an authentication failure")
		}
	})

	t.Run("all unsupported fails with unsupported", func(t *testing.T) {
		manager := NewDelegatingManager(unsupported, unsupported)

		_, err := manager.Authenticate(context.Background(), NewCandidate("user", "x"))
		var authErr *Error
		if !errors.As(err, &authErr) || authErr.Reason != ReasonUnsupported {
			t.Fatalf("expected an unsupported failure, got %v", err)
		}
	})
}

func TestErrorIs(t *testing.T) {
	if !errors.Is(BadCredentials("nope"), ErrAuthenticationFailed) {
		t.Error("BadCredentials must satisfy ErrAuthenticationFailed")
	}
	if !errors.Is(Expired("old", nil), ErrAuthenticationFailed) {
		t.Error("Expired must satisfy ErrAuthenticationFailed")
	}
	if errors.Is(errors.New("boom"), ErrAuthenticationFailed) {
		t.Error("ordinary errors must not satisfy ErrAuthenticationFailed")
	}
}
