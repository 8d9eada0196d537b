package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/comanda-app/comanda-api/config"
)

// Auth0UserInfo is the subset of Auth0's /userinfo response we need to
// build a staff profile.
type Auth0UserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Auth0Service calls the Auth0 Management endpoints on behalf of a
// logged-in staff member
type Auth0Service struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuth0Service creates an Auth0 service from the app config. The
// domain may carry an explicit scheme (test servers do); bare domains
// get https.
func NewAuth0Service(cfg *config.Config) *Auth0Service {
	base := cfg.Auth0Domain
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &Auth0Service{
		baseURL:    strings.TrimSuffix(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetUserInfo resolves an access token into the holder's Auth0 profile
func (s *Auth0Service) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("userinfo endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var userInfo Auth0UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return &userInfo, nil
}
