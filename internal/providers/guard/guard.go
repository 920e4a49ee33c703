// Package guard builds outbound HTTP clients for provider and extraction
// fetches. Every request URL is validated before dialling: providers fetch
// operator-supplied URLs, so loopback, private and link-local targets are
// refused, and response bodies are capped.
package guard

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

const (
	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes = 10 << 20 // 10 MiB

	// DefaultTimeout bounds a whole fetch including body read.
	DefaultTimeout = 30 * time.Second
)

// Policy controls what the guarded client may fetch.
type Policy struct {
	// AllowPrivate permits loopback and private address targets.
	// Only for tests and explicitly trusted local deployments.
	AllowPrivate bool

	// MaxBodyBytes caps the response body size. Zero means the default.
	MaxBodyBytes int64

	// Timeout bounds each request. Zero means the default.
	Timeout time.Duration
}

// DefaultPolicy returns the production policy: public targets only.
func DefaultPolicy() Policy {
	return Policy{}
}

func (p Policy) maxBody() int64 {
	if p.MaxBodyBytes > 0 {
		return p.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

func (p Policy) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultTimeout
}

// Validate checks a URL against the policy without fetching it.
func (p Policy) Validate(ctx context.Context, u *url.URL) error {
	if u == nil {
		return fmt.Errorf("%w: nil url", domain.ErrURLDenied)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", domain.ErrURLDenied, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", domain.ErrURLDenied)
	}
	if p.AllowPrivate {
		return nil
	}

	// Resolution catches both literal addresses and hostnames, including
	// disguised numeric forms the resolver normalises.
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("%w: resolve %q: %v", domain.ErrURLDenied, host, err)
	}
	for _, addr := range addrs {
		addr = addr.Unmap()
		if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
			addr.IsLinkLocalMulticast() || addr.IsUnspecified() || addr.IsMulticast() {
			return fmt.Errorf("%w: %q resolves to %s", domain.ErrURLDenied, host, addr)
		}
	}
	return nil
}

// transport validates every request target, including redirect hops, and
// caps the response body.
type transport struct {
	policy Policy
	next   http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.policy.Validate(req.Context(), req.URL); err != nil {
		return nil, err
	}
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	resp.Body = &cappedBody{reader: resp.Body, remaining: t.policy.maxBody()}
	return resp, nil
}

// cappedBody errors once more than the cap has been read.
type cappedBody struct {
	reader    io.ReadCloser
	remaining int64
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		// Distinguish a body that ends exactly at the cap from one
		// that overflows it.
		var probe [1]byte
		if n, err := b.reader.Read(probe[:]); n == 0 && err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("%w: body cap reached", domain.ErrResponseTooLarge)
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.reader.Read(p)
	b.remaining -= int64(n)
	return n, err
}

func (b *cappedBody) Close() error { return b.reader.Close() }

// NewClient builds an HTTP client enforcing the policy on every hop.
func NewClient(policy Policy) *http.Client {
	return &http.Client{
		Timeout: policy.timeout(),
		Transport: &transport{
			policy: policy,
			next:   http.DefaultTransport,
		},
	}
}

// ReadBody drains a response body up to the policy cap and closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return data, nil
}
