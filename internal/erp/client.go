// Package erp talks to the ERP resource API that owns orders, menu items and
// user accounts.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruelux/pos/internal/metrics"
)

const (
	sessionCookie   = "sid"
	maxErrorBodyLen = 4 << 10
)

// Errors returned by the ERP client.
var (
	ErrUnauthorized = errors.New("erp: session expired or unauthorized")
	ErrNotFound     = errors.New("erp: document not found")
	ErrConflict     = errors.New("erp: document was modified concurrently")
	ErrNoSession    = errors.New("erp: no session in context")
)

// APIError is any other non-2xx answer from the ERP.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("erp: %d %s: %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("erp: %d: %s", e.Status, e.Message)
}

type sessionKey struct{}

// WithSession attaches the ERP session id used for calls made with ctx.
func WithSession(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sid)
}

// SessionFrom returns the ERP session id carried by ctx.
func SessionFrom(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// Client is a thin wrapper around the ERP HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the ERP at baseURL (without the /api suffix).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		http:    &http.Client{Timeout: timeout},
	}
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	anonymous   bool
}

// send performs req and returns the response with its body already read.
func (c *Client) send(ctx context.Context, req request) (*http.Response, []byte, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if !req.anonymous {
		sid := SessionFrom(ctx)
		if sid == "" {
			return nil, nil, ErrNoSession
		}
		httpReq.AddCookie(&http.Cookie{Name: sessionCookie, Value: sid})
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordERPRequest(req.op, 0, time.Since(start))
		return nil, nil, fmt.Errorf("%s: %w", req.op, err)
	}
	defer resp.Body.Close()
	metrics.RecordERPRequest(req.op, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: read body: %w", req.op, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, data, nil
	}
	return resp, data, statusError(resp.StatusCode, data)
}

// doJSON sends body as JSON (when non-nil) and decodes the answer into out.
func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	req := request{op: op, method: method, path: path, query: query}
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		req.body = bytes.NewReader(buf)
		req.contentType = "application/json"
	}
	_, data, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict, http.StatusExpectationFailed:
		return ErrConflict
	}
	apiErr := &APIError{Status: status}
	var payload struct {
		ExcType string `json:"exc_type"`
		Message string `json:"message"`
	}
	if len(body) > maxErrorBodyLen {
		body = body[:maxErrorBodyLen]
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Type = payload.ExcType
		apiErr.Message = payload.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// resourcePath builds /resource/<doctype>[/<name>] with each segment escaped.
func resourcePath(doctype string, name ...string) string {
	p := "/resource/" + url.PathEscape(doctype)
	for _, n := range name {
		p += "/" + url.PathEscape(n)
	}
	return p
}

func fieldsQuery(fields ...string) url.Values {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	q := url.Values{}
	q.Set("fields", "["+strings.Join(quoted, ",")+"]")
	return q
}
