// Package transport holds the HTTP plumbing shared by the control-plane
// client and the identity provider client.
package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

const (
	maxRedirects = 10

	// MaxResponseBytes caps response body reads.
	MaxResponseBytes = 1 << 20

	// maxErrorBody bounds how much of a response ends up in an error or log line.
	maxErrorBody = 256
)

// ErrRedirectBlocked is returned when a redirect would carry the bearer
// token to another host or over plain http.
var ErrRedirectBlocked = errors.New("redirect blocked")

// checkRedirect keeps redirects on the original host and scheme.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}

	if len(via) == 0 {
		return nil
	}

	from := via[0].URL
	switch {
	case req.URL.Host != from.Host:
		return fmt.Errorf("%w: %s -> %s", ErrRedirectBlocked, from.Host, req.URL.Host)
	case from.Scheme == "https" && req.URL.Scheme != "https":
		return fmt.Errorf("%w: %s downgraded to %s", ErrRedirectBlocked, from.Host, req.URL.Scheme)
	}

	return nil
}

// NewHTTPClient returns a client with the given overall timeout (zero for
// none) that refuses cross-host redirects.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
	}
}

// ReadBody reads at most MaxResponseBytes from r.
func ReadBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, MaxResponseBytes))
}

// SanitizeBody makes a response body safe to print: it is cut to 256
// bytes, invalid UTF-8 and control characters other than whitespace
// become '?'.
func SanitizeBody(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}

		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			return '?'
		}

		return r
	}, strings.ToValidUTF8(string(body), "�"))
}
