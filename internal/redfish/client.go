package redfish

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/stmcginnis/gofish"

	"github.com/nokia/mcp-redfish/internal/config"
	"github.com/nokia/mcp-redfish/internal/hosts"
	"github.com/nokia/mcp-redfish/internal/retry"
	"github.com/nokia/mcp-redfish/pkg/logging"
)

// session is the slice of the gofish API client the resource client
// needs. gofish performs the Redfish wire protocol; this package only
// adds resolution, retries and error classification on top.
type session interface {
	Get(url string) (*http.Response, error)
	Post(url string, payload interface{}) (*http.Response, error)
	Patch(url string, payload interface{}) (*http.Response, error)
	Delete(url string) (*http.Response, error)
	Logout()
}

type dialFunc func(ctx context.Context, target Resolved) (session, error)

// Resource is the decoded result of one Redfish operation. Headers maps
// a header name to its value, or to a []string when the header was
// repeated (Link headers typically are).
type Resource struct {
	Headers map[string]any `json:"headers"`
	Data    map[string]any `json:"data"`
}

// Client performs authenticated operations against a single Redfish
// host. One client serves one logical request/response cycle: it is not
// shared across concurrent calls, and Close must run on every exit
// path.
type Client struct {
	id     string
	target Resolved
	policy *retry.Policy
	sess   session
	closed bool
}

// Connect resolves the host configuration, establishes a session and
// returns a ready client. Connection failures during login are retried
// under the policy; validation failures are not.
func Connect(ctx context.Context, entry hosts.Entry, defaults config.Defaults, policy *retry.Policy) (*Client, error) {
	return connect(ctx, entry, defaults, policy, gofishDial)
}

func connect(ctx context.Context, entry hosts.Entry, defaults config.Defaults, policy *retry.Policy, dial dialFunc) (*Client, error) {
	target, err := Resolve(entry, defaults)
	if err != nil {
		return nil, err
	}

	c := &Client{
		id:     uuid.NewString()[:8],
		target: target,
		policy: policy,
	}
	op := "login " + target.Address

	logging.Info("Client", "[%s] Connecting to %s (auth %s)", c.id, target.Endpoint(), target.AuthMethod)
	err = policy.Do(ctx, op, func() error {
		sess, derr := dial(ctx, target)
		if derr != nil {
			logging.Warn("Client", "[%s] Session setup for %s failed: %v", c.id, target.Address, derr)
			return classify(op, derr)
		}
		c.sess = sess
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redfish session: %w", err)
	}

	logging.Debug("Client", "[%s] Session established", c.id)
	return c, nil
}

func gofishDial(ctx context.Context, target Resolved) (session, error) {
	cfg := gofish.ClientConfig{
		Endpoint:  target.Endpoint(),
		Username:  target.Username,
		Password:  target.Password,
		BasicAuth: target.AuthMethod == hosts.AuthMethodBasic,
	}

	if target.TLSServerCACert != "" {
		pem, err := os.ReadFile(target.TLSServerCACert)
		if err != nil {
			return nil, retry.Validationf("reading CA certificate %s: %v", target.TLSServerCACert, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, retry.Validationf("no certificates found in %s", target.TLSServerCACert)
		}
		cfg.HTTPClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{RootCAs: pool},
			},
		}
	}

	apiClient, err := gofish.ConnectContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return apiClient, nil
}

// classify tags an underlying error at the point of failure so the
// retry policy can inspect the tag instead of unwinding causal chains.
func classify(op string, err error) error {
	if retry.RetryableCause(err) {
		return &retry.TransportError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Get fetches a resource. An empty successful response is an error: a
// Redfish GET always carries a document.
func (c *Client) Get(ctx context.Context, path string) (*Resource, error) {
	return c.do(ctx, http.MethodGet, path, nil, true)
}

// Post sends an action or creation request. Empty responses are valid.
func (c *Client) Post(ctx context.Context, path string, body map[string]any) (*Resource, error) {
	return c.do(ctx, http.MethodPost, path, body, false)
}

// Patch updates writable properties of a resource.
func (c *Client) Patch(ctx context.Context, path string, body map[string]any) (*Resource, error) {
	return c.do(ctx, http.MethodPatch, path, body, false)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string) (*Resource, error) {
	return c.do(ctx, http.MethodDelete, path, nil, false)
}

func (c *Client) do(ctx context.Context, method, path string, body map[string]any, requireBody bool) (*Resource, error) {
	if c.sess == nil {
		return nil, retry.Validationf("redfish session not established")
	}
	op := method + " " + path

	var res *Resource
	err := c.policy.Do(ctx, op, func() error {
		logging.Debug("Client", "[%s] %s", c.id, op)
		resp, err := c.request(method, path, body)
		if err != nil {
			logging.Warn("Client", "[%s] %s failed: %v", c.id, op, err)
			return classify(op, err)
		}
		decoded, err := decodeResource(resp, requireBody)
		if err != nil {
			return classify(op, err)
		}
		res = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) request(method, path string, body map[string]any) (*http.Response, error) {
	switch method {
	case http.MethodGet:
		return c.sess.Get(path)
	case http.MethodPost:
		return c.sess.Post(path, body)
	case http.MethodPatch:
		return c.sess.Patch(path, body)
	case http.MethodDelete:
		return c.sess.Delete(path)
	default:
		return nil, retry.Validationf("unsupported method %s", method)
	}
}

// errEmptyResponse distinguishes a nil/empty successful response from
// an HTTP-level failure. Not retryable: the endpoint answered, the
// answer was just unusable.
var errEmptyResponse = errors.New("endpoint returned an empty response")

func decodeResource(resp *http.Response, requireBody bool) (*Resource, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	res := &Resource{
		Headers: headerMap(resp.Header),
		Data:    map[string]any{},
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if requireBody {
			return nil, errEmptyResponse
		}
		return res, nil
	}
	if err := json.Unmarshal(trimmed, &res.Data); err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}
	return res, nil
}

// headerMap flattens response headers for the tool layer: single-valued
// headers become strings, repeated headers become arrays.
func headerMap(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for name, values := range h {
		if len(values) == 1 {
			out[name] = values[0]
			continue
		}
		out[name] = values
	}
	return out
}

// Close logs out the session. Best-effort and idempotent: logout must
// never mask the result of the operation that preceded it, so nothing
// is returned.
func (c *Client) Close() {
	if c.sess == nil || c.closed {
		return
	}
	c.closed = true
	c.sess.Logout()
	logging.Debug("Client", "[%s] Logged out from %s", c.id, c.target.Address)
}
