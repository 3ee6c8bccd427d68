// Package auth implements the OAuth2 device authorization flow against
// the identity provider and owns the device token lifecycle.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/alexjbarnes/build-cli/internal/models"
	"github.com/alexjbarnes/build-cli/internal/transport"
	"golang.org/x/oauth2"
)

const (
	deviceCodePath = "/oauth/device/code"
	tokenPath      = "/oauth/token"

	grantDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"

	// defaultHTTPTimeout applies when no http.Client is supplied.
	defaultHTTPTimeout = 30 * time.Second
)

// Config identifies the application to the identity provider.
type Config struct {
	ClientID string
	Domain   string
	Scope    string
	Audience string
}

// DeviceCodeResponse is the identity provider's answer to a device code
// request.
type DeviceCodeResponse struct {
	DeviceCode              string
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string
	Expiry                  time.Time
	Interval                int
}

// Auth0Client talks to the identity provider's OAuth endpoints.
type Auth0Client struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewAuth0Client creates a client for https://{cfg.Domain}. If httpClient
// is nil a client with the same-host redirect policy is created.
func NewAuth0Client(cfg Config, httpClient *http.Client, logger *slog.Logger) *Auth0Client {
	if httpClient == nil {
		httpClient = transport.NewHTTPClient(defaultHTTPTimeout)
	}

	return &Auth0Client{
		cfg:        cfg,
		httpClient: httpClient,
		baseURL:    "https://" + cfg.Domain,
		logger:     logger,
	}
}

// SetBaseURL overrides the identity provider origin. Used by tests.
func (c *Auth0Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// oauthConfig describes the provider as a public client: client_id goes in
// the form and no secret is sent.
func (c *Auth0Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID: c.cfg.ClientID,
		Scopes:   strings.Fields(c.cfg.Scope),
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: c.baseURL + deviceCodePath,
			TokenURL:      c.baseURL + tokenPath,
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// oauthContext makes the oauth2 package use our client and redirect policy.
func (c *Auth0Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// DeviceCode starts a device authorization.
func (c *Auth0Client) DeviceCode(ctx context.Context) (*DeviceCodeResponse, error) {
	// oauth2 does not attach ctx to the device code request, so a cancelled
	// ctx is checked here and the client timeout bounds the call.
	if err := ctx.Err(); err != nil {
		return nil, &builderr.FetchError{Op: deviceCodePath, Err: err}
	}

	c.logger.Debug("identity provider request", slog.String("url", c.baseURL+deviceCodePath))

	da, err := c.oauthConfig().DeviceAuth(c.oauthContext(ctx), oauth2.SetAuthURLParam("audience", c.cfg.Audience))
	if err != nil {
		return nil, oauthError(deviceCodePath, err)
	}

	return &DeviceCodeResponse{
		DeviceCode:              da.DeviceCode,
		UserCode:                da.UserCode,
		VerificationURI:         da.VerificationURI,
		VerificationURIComplete: da.VerificationURIComplete,
		Expiry:                  da.Expiry,
		Interval:                int(da.Interval),
	}, nil
}

// Activate exchanges a device code for a token. While the user has not
// approved the device yet the provider answers 403, which surfaces as a
// *FetchError with that status. The whole response is kept so every field
// the provider returns ends up in the saved record.
func (c *Auth0Client) Activate(ctx context.Context, deviceCode string) (models.TokenRecord, error) {
	form := url.Values{
		"grant_type":  {grantDeviceCode},
		"device_code": {deviceCode},
		"client_id":   {c.cfg.ClientID},
	}

	var rec models.TokenRecord
	if err := c.postForm(ctx, tokenPath, form, &rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token.
// Only the fields a refresh is allowed to change are returned.
func (c *Auth0Client) RefreshAccessToken(ctx context.Context, refreshToken string) (models.TokenRecord, error) {
	c.logger.Debug("identity provider request", slog.String("url", c.baseURL+tokenPath))

	src := c.oauthConfig().TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})

	tok, err := src.Token()
	if err != nil {
		return nil, oauthError(tokenPath, err)
	}

	rec := models.TokenRecord{"access_token": tok.AccessToken}
	if tok.TokenType != "" {
		rec["token_type"] = tok.TokenType
	}
	for _, key := range []string{"id_token", "token_id", "scope"} {
		if v, ok := tok.Extra(key).(string); ok && v != "" {
			rec[key] = v
		}
	}

	return rec, nil
}

// oauthError maps oauth2 failures onto the fetch/response taxonomy.
func oauthError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &builderr.FetchError{Op: op, StatusCode: status, Body: transport.SanitizeBody(re.Body)}
	}

	var ue *url.Error
	if errors.As(err, &ue) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &builderr.FetchError{Op: op, Err: err}
	}

	return &builderr.ResponseError{Reason: fmt.Sprintf("decoding %s response: %v", op, err)}
}

// postForm sends a form-encoded POST and decodes the JSON response into
// result. Any non-2xx status becomes a *FetchError.
func (c *Auth0Client) postForm(ctx context.Context, endpoint string, form url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("identity provider request", slog.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &builderr.FetchError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := transport.ReadBody(resp.Body)
	if err != nil {
		return &builderr.FetchError{Op: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("identity provider response", slog.String("url", req.URL.String()), slog.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &builderr.FetchError{Op: endpoint, StatusCode: resp.StatusCode, Body: transport.SanitizeBody(body)}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &builderr.ResponseError{Reason: fmt.Sprintf("decoding %s response: %v", endpoint, err)}
	}

	return nil
}
