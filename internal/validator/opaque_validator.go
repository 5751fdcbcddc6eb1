package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// OpaqueTokenValidator validates opaque bearer tokens via RFC 7662 token
// introspection. The service authenticates to the introspection endpoint
// with HTTP Basic client credentials.
type OpaqueTokenValidator struct {
	introspectionURL string
	issuer           string
	audience         string
	clientID         string
	clientSecret     string
	httpClient       *http.Client
	logger           Logger
}

// NewOpaqueTokenValidator creates a validator that introspects opaque tokens.
func NewOpaqueTokenValidator(
	introspectionURL,
	issuer,
	audience,
	clientID,
	clientSecret string,
	httpClient *http.Client,
	logger Logger,
) (*OpaqueTokenValidator, error) {
	if introspectionURL == "" {
		return nil, errors.New("validator: introspection URL is required")
	}
	if issuer == "" {
		return nil, errors.New("validator: issuer is required")
	}
	if audience == "" {
		return nil, errors.New("validator: audience is required")
	}
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("validator: introspection client credentials are required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OpaqueTokenValidator{
		introspectionURL: introspectionURL,
		issuer:           issuer,
		audience:         audience,
		clientID:         clientID,
		clientSecret:     clientSecret,
		httpClient:       httpClient,
		logger:           logger,
	}, nil
}

// ValidateToken introspects the token and builds claims from the response.
func (v *OpaqueTokenValidator) ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrTokenEmpty
	}

	introspected, err := v.introspect(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	tokenClaims, err := v.buildClaims(introspected)
	if err != nil {
		return nil, err
	}

	if v.logger != nil {
		v.logger.Printf("validator: introspected opaque token for subject %s with scopes %v", tokenClaims.Subject, tokenClaims.Scopes)
	}

	return tokenClaims, nil
}

func (v *OpaqueTokenValidator) introspect(ctx context.Context, tokenString string) (map[string]any, error) {
	values := url.Values{}
	values.Set("token", tokenString)
	values.Set("token_type_hint", "access_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.introspectionURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("validator: failed to create introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(v.clientID, v.clientSecret)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validator: introspection request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("validator: failed to read introspection response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("validator: introspection endpoint returned status %d", resp.StatusCode)
	}

	var introspected map[string]any
	if err := json.Unmarshal(body, &introspected); err != nil {
		return nil, fmt.Errorf("validator: invalid introspection response: %w", err)
	}

	if active, ok := introspected["active"].(bool); !ok || !active {
		return nil, ErrTokenInactive
	}

	return introspected, nil
}

func (v *OpaqueTokenValidator) buildClaims(introspected map[string]any) (*TokenClaims, error) {
	if tokenIssuer := claimString(introspected, "iss"); tokenIssuer != "" && tokenIssuer != v.issuer {
		return nil, fmt.Errorf("%w: invalid issuer: expected %s, got %s", ErrTokenInvalid, v.issuer, tokenIssuer)
	}

	audience := claimStrings(introspected, "aud")
	if len(audience) > 0 && !contains(audience, v.audience) {
		return nil, fmt.Errorf("%w: invalid audience: expected %s in %v", ErrTokenInvalid, v.audience, audience)
	}
	if len(audience) == 0 {
		audience = []string{v.audience}
	}

	subject := firstNonEmpty(
		claimString(introspected, "sub"),
		claimString(introspected, "client_id"),
		claimString(introspected, "username"),
	)
	if subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrTokenInvalid)
	}

	var expiry time.Time
	if raw, ok := introspected["exp"]; ok {
		parsed, err := parseUnixTimeClaim(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid expiry claim: %v", ErrTokenInvalid, err)
		}
		if !parsed.After(time.Now()) {
			return nil, ErrTokenExpired
		}
		expiry = parsed
	}

	var issuedAt time.Time
	if raw, ok := introspected["iat"]; ok {
		parsed, err := parseUnixTimeClaim(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid issued at claim: %v", ErrTokenInvalid, err)
		}
		issuedAt = parsed
	}

	return &TokenClaims{
		Subject:  subject,
		Issuer:   v.issuer,
		Audience: audience,
		Expiry:   expiry,
		IssuedAt: issuedAt,
		Scopes:   extractScopes(introspected),
		Roles:    extractRoles(introspected),
		Email:    firstNonEmpty(claimString(introspected, "email"), claimString(introspected, "username")),
	}, nil
}

func parseUnixTimeClaim(raw any) (time.Time, error) {
	switch value := raw.(type) {
	case float64:
		return time.Unix(int64(value), 0), nil
	case int64:
		return time.Unix(value, 0), nil
	case int:
		return time.Unix(int64(value), 0), nil
	case json.Number:
		number, err := value.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(number, 0), nil
	case string:
		number, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(number, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", raw)
	}
}
