// Package metaauth manages client credentials and the bearer-token
// lifecycle for the remote metadata API. Tokens come from a
// client-credentials exchange; credentials live in the encrypted slot
// store, the token and its expiry in plain storage. Each of the four
// slots is individually deletable.
package metaauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"retrohub/pkg/cache"
	"retrohub/pkg/storage"
)

const (
	slotClientID     = "meta_client_id"
	slotClientSecret = "meta_client_secret"
	slotAccessToken  = "meta_access_token"
	slotTokenExpiry  = "meta_token_expiry"
)

// expiryMargin is subtracted from the stored expiry: a token expiring
// within the margin is treated as already expired so callers never hold
// a token that dies mid-request.
const expiryMargin = 5 * time.Minute

const memTokenKey = "token"

var (
	ErrNotConfigured = errors.New("metadata API credentials not configured")
	ErrAuthFailed    = errors.New("authentication failed")
)

type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Cache caches the bearer token in memory and in storage, refreshing it
// through the configured token endpoint when it is missing or expired.
type Cache struct {
	kv       storage.KV
	secure   *storage.SecureStore
	httpc    *http.Client
	authURL  string
	defaults Credentials
	mem      *cache.Cache[string, string]
	log      *zap.Logger

	now func() time.Time
}

// NewCache wires the token cache. defaults are the configured
// credentials; user-saved ones take precedence.
func NewCache(kv storage.KV, secure *storage.SecureStore, authURL string, defaults Credentials, log *zap.Logger) *Cache {
	return &Cache{
		kv:       kv,
		secure:   secure,
		httpc:    &http.Client{Timeout: 15 * time.Second},
		authURL:  authURL,
		defaults: defaults,
		mem:      cache.New[string, string](),
		log:      log,
		now:      time.Now,
	}
}

// Token returns a valid bearer token, re-authenticating when the cached
// one is missing or inside the expiry margin. Callers seeing a 401 from
// the metadata API must ClearToken and retry.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if tok, ok := c.mem.Get(memTokenKey); ok {
		return tok, nil
	}

	if tok, exp, ok, err := c.storedToken(ctx); err != nil {
		return "", err
	} else if ok && c.now().Before(exp.Add(-expiryMargin)) {
		c.memoize(tok, exp)
		return tok, nil
	}

	return c.authenticate(ctx)
}

func (c *Cache) storedToken(ctx context.Context) (string, time.Time, bool, error) {
	tok, ok, err := c.kv.Get(ctx, slotAccessToken)
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("read token slot: %w", err)
	}
	if !ok {
		return "", time.Time{}, false, nil
	}

	raw, ok, err := c.kv.Get(ctx, slotTokenExpiry)
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("read expiry slot: %w", err)
	}
	if !ok {
		return "", time.Time{}, false, nil
	}

	exp, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return "", time.Time{}, false, nil
	}
	return string(tok), exp, true, nil
}

func (c *Cache) memoize(tok string, exp time.Time) {
	ttl := exp.Sub(c.now()) - expiryMargin
	if ttl > 0 {
		c.mem.Set(memTokenKey, tok, ttl)
	}
}

func (c *Cache) authenticate(ctx context.Context) (string, error) {
	creds, err := c.resolveCredentials(ctx)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrAuthFailed, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}

	exp := c.tokenExpiry(body.AccessToken, body.ExpiresIn)

	if err := c.kv.Set(ctx, slotAccessToken, []byte(body.AccessToken)); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}
	if err := c.kv.Set(ctx, slotTokenExpiry, []byte(exp.Format(time.RFC3339))); err != nil {
		return "", fmt.Errorf("persist expiry: %w", err)
	}
	c.memoize(body.AccessToken, exp)

	c.log.Info("metadata token refreshed", zap.Time("expires_at", exp))
	return body.AccessToken, nil
}

// tokenExpiry computes the expiry from expires_in, falling back to the
// token's own exp claim when the endpoint omits it, then to a
// conservative hour.
func (c *Cache) tokenExpiry(token string, expiresIn int64) time.Time {
	if expiresIn > 0 {
		return c.now().Add(time.Duration(expiresIn) * time.Second)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}

	c.log.Warn("token endpoint gave no expiry, assuming one hour")
	return c.now().Add(time.Hour)
}

func (c *Cache) resolveCredentials(ctx context.Context) (Credentials, error) {
	saved, ok, err := c.savedCredentials(ctx)
	if err != nil {
		return Credentials{}, err
	}

	creds := c.defaults
	if ok {
		creds = saved
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return Credentials{}, ErrNotConfigured
	}
	return creds, nil
}

func (c *Cache) savedCredentials(ctx context.Context) (Credentials, bool, error) {
	id, idOK, err := c.secure.Get(ctx, slotClientID)
	if err != nil {
		return Credentials{}, false, fmt.Errorf("read client id: %w", err)
	}
	secret, secOK, err := c.secure.Get(ctx, slotClientSecret)
	if err != nil {
		return Credentials{}, false, fmt.Errorf("read client secret: %w", err)
	}
	if !idOK || !secOK {
		return Credentials{}, false, nil
	}
	return Credentials{ClientID: id, ClientSecret: secret}, true, nil
}

// ClearToken drops the cached token everywhere. The next Token call
// re-authenticates.
func (c *Cache) ClearToken(ctx context.Context) error {
	c.mem.Delete(memTokenKey)
	if err := c.kv.Delete(ctx, slotAccessToken); err != nil {
		return err
	}
	return c.kv.Delete(ctx, slotTokenExpiry)
}

// SaveCredentials stores user-supplied credentials and invalidates any
// cached token, since it was issued for the old pair.
func (c *Cache) SaveCredentials(ctx context.Context, creds Credentials) error {
	if strings.TrimSpace(creds.ClientID) == "" || strings.TrimSpace(creds.ClientSecret) == "" {
		return errors.New("client id and client secret are required")
	}
	if err := c.secure.Set(ctx, slotClientID, creds.ClientID); err != nil {
		return err
	}
	if err := c.secure.Set(ctx, slotClientSecret, creds.ClientSecret); err != nil {
		return err
	}
	return c.ClearToken(ctx)
}

// Credentials returns the user-saved pair, ok=false when none is saved.
func (c *Cache) Credentials(ctx context.Context) (Credentials, bool, error) {
	return c.savedCredentials(ctx)
}

// DeleteCredentials removes the saved pair and invalidates the token.
func (c *Cache) DeleteCredentials(ctx context.Context) error {
	if err := c.secure.Delete(ctx, slotClientID); err != nil {
		return err
	}
	if err := c.secure.Delete(ctx, slotClientSecret); err != nil {
		return err
	}
	return c.ClearToken(ctx)
}
