package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/chirpmesh/chirp-go/chirperr"
)

// HTTPConfig contains options for the default HTTP transport.
type HTTPConfig struct {
	// Timeout applies to requests whose context carries no deadline of
	// its own. The subscribe loop always sets a per-request deadline
	// sized for long polls, so Timeout only bounds one-shot calls.
	Timeout time.Duration
	// Headers are additional headers sent with every request.
	Headers map[string]string
	// HTTPClient allows providing a custom *http.Client.
	HTTPClient *http.Client
}

// DefaultHTTPConfig returns the default HTTP transport options.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout: 10 * time.Second,
	}
}

// HTTP is the default Transport backed by net/http.
type HTTP struct {
	baseURL    string
	headers    map[string]string
	timeout    time.Duration
	httpClient *http.Client
}

// NewHTTP creates an HTTP transport for the given service origin, e.g.
// "https://ps.chirpmesh.net".
func NewHTTP(baseURL string, opts ...HTTPConfig) *HTTP {
	opt := DefaultHTTPConfig()
	if len(opts) > 0 {
		opt = opts[0]
	}

	httpClient := opt.HTTPClient
	if httpClient == nil {
		// Deadlines come from the request context, never from the
		// client, so long polls are not cut short.
		httpClient = &http.Client{}
	}

	return &HTTP{
		baseURL:    baseURL,
		headers:    opt.Headers,
		timeout:    opt.Timeout,
		httpClient: httpClient,
	}
}

// Send implements Transport.
func (t *HTTP) Send(ctx context.Context, req Request) (*Response, error) {
	if _, ok := ctx.Deadline(); !ok && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	u, err := url.Parse(t.baseURL + req.Path)
	if err != nil {
		return nil, &chirperr.TransportError{Op: string(req.Method) + " " + req.Path, Err: err}
	}

	q := u.Query()
	// Stable parameter order keeps request lines reproducible in logs
	// and test fixtures.
	keys := make([]string, 0, len(req.Query))
	for k := range req.Query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, req.Query[k])
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), u.String(), body)
	if err != nil {
		return nil, &chirperr.TransportError{Op: string(req.Method) + " " + req.Path, Err: err}
	}

	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, &chirperr.TransportError{Op: string(req.Method) + " " + req.Path, Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &chirperr.TransportError{Op: string(req.Method) + " " + req.Path, Err: err}
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	return &Response{
		Status:  httpResp.StatusCode,
		Headers: headers,
		Body:    respBody,
	}, nil
}

// Close releases idle connections held by the underlying client.
func (t *HTTP) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}
