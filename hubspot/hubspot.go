// Package hubspot implements the HubSpot CRM connector: the OAuth2
// authorization-code flow, credential storage keyed per user and
// organization, and retrieval of contact records normalized into
// integration items.
package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Vector/hubspot-connector/models"
)

const (
	DefaultAuthURL    = "https://app.hubspot.com/oauth/authorize"
	DefaultTokenURL   = "https://api.hubapi.com/oauth/v1/token"
	DefaultAPIBaseURL = "https://api.hubapi.com"

	ScopeContactsRead  = "crm.objects.contacts.read"
	ScopeContactsWrite = "crm.objects.contacts.write"

	// stateDelimiter joins user and org ids into the OAuth state token.
	// Both ids must be free of it so the callback can split unambiguously.
	stateDelimiter = "_"

	credentialKeyPrefix  = "hubspot_credentials_"
	defaultCredentialTTL = 1800 * time.Second

	requestTimeout = 30 * time.Second
)

// Config carries the OAuth client settings. Endpoint URLs default to the
// real HubSpot endpoints; tests point them at local servers.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

func (c *Config) validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURI == "" {
		return errors.New("hubspot: client id, client secret and redirect uri are required")
	}

	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}

	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}

	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}

	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")

	return nil
}

// Credential is the decoded token payload as returned by HubSpot. It is
// persisted verbatim; beyond the presence of access_token no schema is
// enforced on it.
type Credential map[string]any

// AccessToken returns the access_token field, or "" when absent.
func (c Credential) AccessToken() string {
	s, _ := c["access_token"].(string)
	return s
}

// TTL returns the provider-reported expires_in as a duration, falling back
// to the default credential TTL when the field is absent or unusable.
func (c Credential) TTL() time.Duration {
	if v, ok := c["expires_in"].(float64); ok && v > 0 {
		return time.Duration(v) * time.Second
	}

	return defaultCredentialTTL
}

// DecodeCredential parses a credential stored or transported as a JSON
// string.
func DecodeCredential(raw string) (Credential, error) {
	var cred Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, ErrCorruptCredentials
	}

	return cred, nil
}

// CredentialKey derives the store key addressing the credential of a
// user/org pair. This is the sole addressing scheme; there is no listing.
func CredentialKey(userID, orgID string) string {
	return credentialKeyPrefix + userID + stateDelimiter + orgID
}

// Connector drives the OAuth credential lifecycle against HubSpot and the
// contact fetch that consumes it. Safe for concurrent use; concurrent
// callbacks for the same user/org race last-write-wins at the store.
type Connector struct {
	cfg    Config
	store  models.CredentialStore
	logger *zap.Logger
}

func New(cfg Config, store models.CredentialStore, logger *zap.Logger) (*Connector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if store == nil {
		return nil, errors.New("hubspot: credential store is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Connector{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}, nil
}

func (c *Connector) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  c.cfg.RedirectURI,
		Scopes:       []string{ScopeContactsRead, ScopeContactsWrite},
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.cfg.AuthURL,
			TokenURL: c.cfg.TokenURL,
		},
	}
}

// AuthorizeURL builds the consent URL the user is sent to. The state
// parameter round-trips the user/org pair through HubSpot.
func (c *Connector) AuthorizeURL(userID, orgID string) (string, error) {
	if userID == "" || orgID == "" {
		return "", errors.New("hubspot: user id and org id are required")
	}

	if strings.Contains(userID, stateDelimiter) || strings.Contains(orgID, stateDelimiter) {
		return "", fmt.Errorf("hubspot: user id and org id must not contain %q", stateDelimiter)
	}

	return c.oauthConfig().AuthCodeURL(userID + stateDelimiter + orgID), nil
}

func parseState(state string) (userID, orgID string, err error) {
	parts := strings.Split(state, stateDelimiter)
	if len(parts) != 2 {
		return "", "", ErrInvalidState
	}

	return parts[0], parts[1], nil
}

// HandleCallback processes the provider redirect: it exchanges the
// authorization code for a token and persists the raw token payload under
// the credential key with the provider-reported TTL. Persisting the
// credential is the only externally observable state change.
func (c *Connector) HandleCallback(ctx context.Context, code, state string) (Credential, error) {
	if code == "" {
		return nil, ErrMissingAuthorizationCode
	}

	userID, orgID, err := parseState(state)
	if err != nil {
		return nil, err
	}

	body, err := c.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		c.logger.Error("invalid json response from hubspot token endpoint",
			zap.Error(err))

		return nil, ErrInvalidProviderResponse
	}

	key := CredentialKey(userID, orgID)
	if err := c.store.Set(ctx, key, string(body), cred.TTL()); err != nil {
		return nil, fmt.Errorf("hubspot: store credentials: %w", err)
	}

	c.logger.Info("stored hubspot credentials",
		zap.String("user_id", userID),
		zap.String("org_id", orgID),
		zap.Duration("ttl", cred.TTL()),
	)

	return cred, nil
}

// exchangeCode performs the authorization-code grant. The client is scoped
// to this single call; failures carry the provider's raw response body and
// are never retried.
func (c *Connector) exchangeCode(ctx context.Context, code string) ([]byte, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"redirect_uri":  {c.cfg.RedirectURI},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("hubspot: build token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: requestTimeout}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hubspot: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hubspot: read token response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error("failed to retrieve access token",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)

		return nil, fmt.Errorf("%w: %s", ErrTokenExchangeFailed, body)
	}

	return body, nil
}

// GetCredentials returns the stored credential untouched. A stored value
// without an access token is treated the same as no credentials at all: a
// credential that cannot authenticate is useless regardless of why.
func (c *Connector) GetCredentials(ctx context.Context, userID, orgID string) (Credential, error) {
	stored, err := c.store.Get(ctx, CredentialKey(userID, orgID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrNoCredentials
		}

		return nil, fmt.Errorf("hubspot: read credentials: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(stored), &cred); err != nil {
		c.logger.Error("failed to parse stored hubspot credentials",
			zap.String("user_id", userID),
			zap.String("org_id", orgID),
			zap.Error(err),
		)

		return nil, ErrCorruptCredentials
	}

	if cred.AccessToken() == "" {
		return nil, ErrNoCredentials
	}

	return cred, nil
}
