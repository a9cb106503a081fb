package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrConsentRequired is returned when no stored token exists and the
// operator must complete the interactive consent flow.
var ErrConsentRequired = errors.New("google consent required")

// AuthManager holds the Google OAuth credentials and hands out
// authenticated per-API service handles. It is an explicit component: paths
// and scopes are injected, the token lives in a local file, and teardown is
// explicit.
type AuthManager struct {
	config    *oauth2.Config
	tokenFile string
	logger    *zap.Logger

	mu       sync.Mutex
	token    *oauth2.Token
	services map[string]*http.Client
}

func NewAuthManager(credentialsFile, tokenFile string, scopes []string, logger *zap.Logger) (*AuthManager, error) {
	secret, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}
	config, err := google.ConfigFromJSON(secret, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	return &AuthManager{
		config:    config,
		tokenFile: tokenFile,
		logger:    logger,
		services:  make(map[string]*http.Client),
	}, nil
}

// Authenticate loads the persisted token, refreshing it if expired. Returns
// ErrConsentRequired when no usable token exists; the operator then visits
// ConsentURL and finishes with Exchange.
func (m *AuthManager) Authenticate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.loadToken()
	if err != nil {
		return ErrConsentRequired
	}

	if !token.Valid() {
		if token.RefreshToken == "" {
			return ErrConsentRequired
		}
		refreshed, err := m.config.TokenSource(ctx, token).Token()
		if err != nil {
			return fmt.Errorf("failed to refresh google token: %w", err)
		}
		token = refreshed
		if err := m.saveToken(token); err != nil {
			return err
		}
		m.logger.Info("Refreshed google token")
	}

	m.token = token
	return nil
}

// ConsentURL returns the URL the operator visits to grant access.
func (m *AuthManager) ConsentURL() string {
	return m.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// Exchange trades a consent code for a token and persists it.
func (m *AuthManager) Exchange(ctx context.Context, code string) error {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange consent code: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return m.saveToken(token)
}

// Service returns an authenticated HTTP client for the named API and
// version, cached per name. Authenticate must have succeeded first.
func (m *AuthManager) Service(ctx context.Context, apiName, apiVersion string) (*http.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil {
		return nil, ErrConsentRequired
	}

	key := apiName + "_" + apiVersion
	if client, exists := m.services[key]; exists {
		return client, nil
	}

	client := m.config.Client(ctx, m.token)
	m.services[key] = client
	return client, nil
}

// Close drops the cached service handles.
func (m *AuthManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.services = make(map[string]*http.Client)
	m.token = nil
	return nil
}

func (m *AuthManager) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(m.tokenFile)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (m *AuthManager) saveToken(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.tokenFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to persist google token: %w", err)
	}
	return nil
}
