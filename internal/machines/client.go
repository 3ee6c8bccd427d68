// Package machines is the client for the build control plane: the
// remote machine, its containers, saved images and authorized SSH keys.
package machines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/alexjbarnes/build-cli/internal/transport"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTimeout bounds a single control-plane call unless the
	// operation asks for more.
	DefaultTimeout = 60 * time.Second

	// noMachineMessage is the backend's 404 message for a user with no
	// running machine.
	noMachineMessage = "No machine assigned to user. Please run machine create first."
)

// TokenSource yields the bearer token for control-plane calls. An empty
// string means the device is not authenticated.
type TokenSource interface {
	AccessToken() string
}

// Client is an authenticated JSON-over-POST caller bound to one base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	route      string
	tokens     TokenSource
	logger     *slog.Logger
	timeout    time.Duration
}

// NewClient creates a control-plane client. If httpClient is nil a client
// with the same-host redirect policy and no overall timeout is created;
// every call carries its own deadline instead.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = transport.NewHTTPClient(0)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		logger:     logger,
		timeout:    DefaultTimeout,
	}
}

// SetDefaultTimeout changes the deadline used by calls that do not pass
// WithTimeout.
func (c *Client) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// BaseURL returns the URL commands are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// SubRoute returns a client that resolves commands under {baseURL}/{path}.
func (c *Client) SubRoute(path string) *Client {
	path = strings.Trim(path, "/")

	sub := *c
	sub.baseURL = c.baseURL + "/" + path
	sub.route = strings.TrimPrefix(c.route+"/"+path, "/")

	return &sub
}

type runOptions struct {
	timeout  time.Duration
	expected []int
}

// RunOption adjusts a single Run call.
type RunOption func(*runOptions)

// WithTimeout overrides the call deadline.
func WithTimeout(d time.Duration) RunOption {
	return func(o *runOptions) { o.timeout = d }
}

// WithExpectedStatus replaces the accepted status codes. By default any
// 2xx status is accepted.
func WithExpectedStatus(codes ...int) RunOption {
	return func(o *runOptions) { o.expected = codes }
}

func (o *runOptions) accepts(code int) bool {
	if len(o.expected) == 0 {
		return code >= 200 && code <= 299
	}

	return slices.Contains(o.expected, code)
}

// Run POSTs args as JSON to {baseURL}/{command}. Without an access token
// it fails with ErrDeviceNotAuthenticated before touching the network. A
// 404 carrying the backend's "no machine" message becomes
// ErrMachineNotStarted; any other unexpected status or transport failure
// becomes a *FetchError.
func (c *Client) Run(ctx context.Context, command string, args map[string]any, opts ...RunOption) (Response, error) {
	token := c.tokens.AccessToken()
	if token == "" {
		return Response{}, builderr.ErrDeviceNotAuthenticated
	}

	o := runOptions{timeout: c.timeout}
	for _, opt := range opts {
		opt(&o)
	}

	if args == nil {
		args = map[string]any{}
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return Response{}, fmt.Errorf("marshalling %s arguments: %w", command, err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + command
	op := strings.TrimPrefix(c.route+"/"+command, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Debug("post",
		slog.String("url", endpoint),
		slog.String("body", string(payload)),
		slog.String("request_id", requestID),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &builderr.FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := transport.ReadBody(resp.Body)
	if err != nil {
		return Response{}, &builderr.FetchError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("response",
		slog.Int("status", resp.StatusCode),
		slog.String("body", transport.SanitizeBody(body)),
		slog.String("request_id", requestID),
	)

	if !o.accepts(resp.StatusCode) {
		if resp.StatusCode == http.StatusNotFound {
			if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String && msg.Str == noMachineMessage {
				return Response{}, builderr.ErrMachineNotStarted
			}
		}

		return Response{}, &builderr.FetchError{Op: op, StatusCode: resp.StatusCode, Body: transport.SanitizeBody(body)}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	if !gjson.ValidBytes(body) {
		return Response{}, &builderr.ResponseError{Reason: op + " response is not valid JSON"}
	}

	return Response{raw: body}, nil
}
