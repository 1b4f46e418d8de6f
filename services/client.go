// Package services implements the HTTP clients of the external collaborators: translation, dependency
// parsing, word segmentation and masked language model.
//
// Every client goes through a cache.Caller: results are cached by request, concurrent identical
// requests are collapsed, and failures are retried with a fresh HTTP session. Once the retries are
// exhausted, the calls return an error wrapping ErrExternal, which augmenters take as "no
// transformation possible".
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gomlx/go-vnaug/cache"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrExternal is returned when an external service can't provide a result.
var ErrExternal = errors.New("external service failure")

// Default client options.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 16 << 20
)

// Options shared by all service clients.
type Options struct {
	// Timeout of each HTTP request.
	Timeout time.Duration

	// CacheCapacity is the number of results kept in memory.
	CacheCapacity int

	// MaxRetry is the number of retries after a failed request.
	MaxRetry int
}

// DefaultOptions returns the options used by the service.
func DefaultOptions() Options {
	return Options{Timeout: DefaultTimeout, CacheCapacity: cache.DefaultCapacity, MaxRetry: cache.DefaultMaxRetry}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.CacheCapacity <= 0 {
		o.CacheCapacity = cache.DefaultCapacity
	}
	if o.MaxRetry < 0 {
		o.MaxRetry = 0
	}
	return o
}

// client is an HTTP session to one endpoint. The session is replaced by resetSession between retries.
type client struct {
	name     string
	endpoint string
	timeout  time.Duration

	mu sync.Mutex
	hc *http.Client
}

func newClient(name, endpoint string, timeout time.Duration) (*client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: invalid url %q", name, endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("%s: url %q must be http or https", name, endpoint)
	}
	c := &client{name: name, endpoint: endpoint, timeout: timeout}
	c.resetSession()
	return c, nil
}

// newCaller creates the cached, retrying caller of a client.
func newCaller[V any](c *client, opts Options) (*cache.Caller[V], error) {
	caller, err := cache.NewCaller[V](c.name, opts.CacheCapacity)
	if err != nil {
		return nil, err
	}
	caller.MaxRetry = opts.MaxRetry
	caller.OnRetry = c.resetSession
	return caller, nil
}

// resetSession drops pooled connections and starts a new HTTP session.
func (c *client) resetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hc != nil {
		c.hc.CloseIdleConnections()
		klog.V(1).Infof("%s: resetting HTTP session", c.name)
	}
	c.hc = &http.Client{Timeout: c.timeout, Transport: http.DefaultTransport.(*http.Transport).Clone()}
}

func (c *client) session() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hc
}

// postJSON posts request as JSON to the endpoint (joined with path, if not empty) and decodes the
// JSON response into response.
func (c *client) postJSON(ctx context.Context, path string, request, response any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return errors.Wrapf(err, "%s: failed to encode request", c.name)
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(body), response)
}

// postForm posts form values to the endpoint and decodes the JSON response into response.
func (c *client) postForm(ctx context.Context, path string, form url.Values, response any) error {
	return c.post(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), response)
}

func (c *client) post(ctx context.Context, path, contentType string, body io.Reader, response any) error {
	target := c.endpoint
	if path != "" {
		target = strings.TrimRight(c.endpoint, "/") + "/" + strings.TrimLeft(path, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return errors.Wrapf(err, "%s: failed to create request", c.name)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	resp, err := c.session().Do(req)
	if err != nil {
		return errors.Wrapf(ErrExternal, "%s: request to %s failed: %v", c.name, target, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxBodyBytes))
	if err != nil {
		return errors.Wrapf(ErrExternal, "%s: failed to read response: %v", c.name, err)
	}
	if resp.StatusCode/100 != 2 {
		return errors.Wrapf(ErrExternal, "%s: %s returned %s: %s", c.name, target, resp.Status, snippet(data))
	}
	if err := json.Unmarshal(data, response); err != nil {
		return errors.Wrapf(ErrExternal, "%s: invalid response %s: %v", c.name, snippet(data), err)
	}
	return nil
}

func snippet(data []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(data))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// noResult is the error returned when a caller gives up.
func noResult(name, key string) error {
	return errors.Wrapf(ErrExternal, "%s: no result for %q after retries", name, key)
}
