package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/alexjbarnes/build-cli/internal/models"
	"github.com/alexjbarnes/build-cli/internal/retry"
)

// FlowState is a step of the device authorization state machine.
type FlowState int

const (
	FlowRequested FlowState = iota
	FlowPolling
	FlowAuthorized
	FlowExhausted
	FlowAborted
)

func (s FlowState) String() string {
	switch s {
	case FlowRequested:
		return "requested"
	case FlowPolling:
		return "polling"
	case FlowAuthorized:
		return "authorized"
	case FlowExhausted:
		return "exhausted"
	case FlowAborted:
		return "aborted"
	}

	return "unknown"
}

// Default polling bounds.
const (
	DefaultPollAttempts = 5
	DefaultPollInterval = 5 * time.Second
)

// DeviceSession is the state of one device authorization, alive only for
// the duration of a single Run.
type DeviceSession struct {
	DeviceCode        string
	VerificationURI   string
	RemainingAttempts int
}

// DeviceAuthorizer is the subset of Auth0Client the flow drives.
type DeviceAuthorizer interface {
	DeviceCode(ctx context.Context) (*DeviceCodeResponse, error)
	Activate(ctx context.Context, deviceCode string) (models.TokenRecord, error)
}

// TokenSaver persists the token obtained by the flow.
type TokenSaver interface {
	SaveToken(rec models.TokenRecord) error
}

// DeviceFlow requests a device code, shows the verification URL and polls
// for approval a bounded number of times.
type DeviceFlow struct {
	Client   DeviceAuthorizer
	Tokens   TokenSaver
	Attempts int
	Interval time.Duration
	Out      io.Writer
	Logger   *slog.Logger

	// Open, when set, is called with the verification URL. Failures are
	// logged and otherwise ignored.
	Open func(url string) error

	// Wait replaces retry.Sleep between polls.
	Wait func(ctx context.Context, d time.Duration) error
}

// Run drives the flow to a terminal state. Authorized returns a nil error.
// Exhausted returns an error matching ErrAuthorizationExhausted. Aborted
// returns the failure that stopped the flow unchanged.
func (f *DeviceFlow) Run(ctx context.Context) (FlowState, error) {
	dc, err := f.Client.DeviceCode(ctx)
	if err != nil {
		return FlowAborted, fmt.Errorf("requesting device code: %w", err)
	}

	switch {
	case dc.DeviceCode == "":
		return FlowAborted, &builderr.ResponseError{Field: "device_code", Reason: "is missing or not a string"}
	case dc.VerificationURIComplete == "":
		return FlowAborted, &builderr.ResponseError{Field: "verification_uri_complete", Reason: "is missing or not a string"}
	}

	attempts := f.Attempts
	if attempts < 1 {
		attempts = DefaultPollAttempts
	}

	session := DeviceSession{
		DeviceCode:        dc.DeviceCode,
		VerificationURI:   dc.VerificationURIComplete,
		RemainingAttempts: attempts,
	}

	fmt.Fprintln(f.Out, "Please authorize device here:")
	fmt.Fprintln(f.Out, session.VerificationURI)

	if f.Open != nil {
		if err := f.Open(session.VerificationURI); err != nil {
			f.Logger.Warn("could not open browser", slog.String("error", err.Error()))
		}
	}

	policy := retry.Policy{Attempts: attempts, Delay: f.Interval, Wait: f.Wait}

	rec, err := retry.While(ctx, policy, func(ctx context.Context) (models.TokenRecord, error) {
		session.RemainingAttempts--
		f.Logger.Debug("polling for device approval", slog.Int("remaining", session.RemainingAttempts))

		return f.Client.Activate(ctx, session.DeviceCode)
	}, isPending)

	var exhausted *retry.ExhaustedError

	switch {
	case errors.As(err, &exhausted):
		return FlowExhausted, fmt.Errorf("%w after %d attempts: %w", builderr.ErrAuthorizationExhausted, exhausted.Attempts, exhausted.Err)
	case err != nil:
		return FlowAborted, err
	}

	// an approval without an access token would leave the device unusable
	if rec.AccessToken() == "" {
		return FlowAborted, &builderr.ResponseError{Field: "access_token", Reason: "is missing or not a string"}
	}

	if err := f.Tokens.SaveToken(rec); err != nil {
		return FlowAborted, err
	}

	return FlowAuthorized, nil
}

// isPending reports the identity provider's "authorization pending" answer.
func isPending(err error) bool {
	return builderr.IsStatus(err, http.StatusForbidden)
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
