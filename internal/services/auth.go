package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Identity is the verified subject of an ID token.
type Identity struct {
	UID   string
	Email string
}

type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// identityVerifier resolves ID tokens with the identity toolkit
// accounts:lookup REST method.
type identityVerifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewIdentityVerifier(baseURL, apiKey string, logger *zap.Logger) TokenVerifier {
	if baseURL == "" {
		baseURL = "https://identitytoolkit.googleapis.com"
	}
	return &identityVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type accountsLookupResponse struct {
	Users []struct {
		LocalID  string `json:"localId"`
		Email    string `json:"email"`
		Disabled bool   `json:"disabled"`
	} `json:"users"`
}

// Verify implements TokenVerifier.
func (v *identityVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	body, _ := json.Marshal(map[string]string{"idToken": idToken})
	endpoint := fmt.Sprintf("%s/v1/accounts:lookup?%s", v.baseURL, url.Values{"key": []string{v.apiKey}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: identity lookup: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		// INVALID_ID_TOKEN, TOKEN_EXPIRED, USER_NOT_FOUND
		return nil, ErrInvalidToken
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, newUpstreamError("identity", resp.StatusCode, respBody)
	}

	var lookup accountsLookupResponse
	if err := json.Unmarshal(respBody, &lookup); err != nil {
		return nil, fmt.Errorf("%w: decode lookup response: %v", ErrUpstream, err)
	}
	if len(lookup.Users) == 0 || lookup.Users[0].LocalID == "" || lookup.Users[0].Disabled {
		return nil, ErrInvalidToken
	}

	return &Identity{UID: lookup.Users[0].LocalID, Email: lookup.Users[0].Email}, nil
}
