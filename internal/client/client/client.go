package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventdesk/internal/common"
	"github.com/dmitrijs2005/eventdesk/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout applies when neither the client nor the call sets one.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Session is the view of the credential store the client needs: read the
// bearer token and drop the session on 401.
type Session interface {
	Token(ctx context.Context) string
	Clear(ctx context.Context)
}

// HTTPClient talks to the event-management REST backend.
type HTTPClient struct {
	baseURL        string
	http           *http.Client
	session        Session
	log            logging.Logger
	timeout        time.Duration
	onUnauthorized func(ctx context.Context)

	clears singleflight.Group
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// WithDefaultTimeout sets the per-request timeout used when a call does not
// pass WithTimeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUnauthorizedHook registers fn to run after the session was cleared
// because of a 401. It runs at most once per cleared session.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(c *HTTPClient) { c.onUnauthorized = fn }
}

// New builds a client for baseURL, resolved once from configuration.
func New(baseURL string, session Session, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		session: session,
		log:     logging.NewNopLogger(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestOptions struct {
	timeout time.Duration
	noAuth  bool
}

type RequestOption func(*requestOptions)

// WithTimeout overrides the timeout of a single call.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) { o.timeout = d }
}

// withoutAuth skips the bearer header (login).
func withoutAuth() RequestOption {
	return func(o *requestOptions) { o.noAuth = true }
}

// FilePart is one file of a multipart body.
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// Multipart is a request body sent as multipart/form-data. The boundary
// and content type come from mime/multipart; nothing forces JSON on it.
type Multipart struct {
	Fields map[string]string
	Files  []FilePart
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Do performs one request. body is JSON-encoded unless it is a *Multipart;
// a 2xx response body is decoded into out when out is non-nil (a
// *json.RawMessage receives it verbatim). Every failure is an *APIError.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any, out any, opts ...RequestOption) error {
	o := requestOptions{timeout: c.timeout}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *Multipart:
		r, ct, err := b.encode()
		if err != nil {
			return &APIError{Kind: KindValidation, Message: "could not encode upload", Err: err}
		}
		reader, contentType = r, ct
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: "could not encode request", Err: err}
		}
		reader, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindValidation, Message: "bad request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)

	var token string
	if !o.noAuth {
		token = c.session.Token(ctx)
		if token != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
		}
	}

	log := c.log.With("request_id", requestID, "method", method, "path", path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn(ctx, "request failed", "error", err, "elapsed", time.Since(start))
		return &APIError{Kind: KindNetworkUnavailable, Err: err}
	}
	defer resp.Body.Close()

	log.Debug(ctx, "response received", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decodeBody(resp.Body, out)
	}

	apiErr := &APIError{
		Kind:     kindForStatus(resp.StatusCode),
		Message:  errorMessage(resp.Body),
		Conflict: resp.StatusCode == http.StatusConflict,
	}
	if apiErr.Kind == KindUnauthorized && !o.noAuth {
		c.handleUnauthorized(ctx, token)
	}
	return apiErr
}

func decodeBody(r io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return &APIError{Kind: KindNetworkUnavailable, Err: err}
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Kind: KindServerError, Message: "malformed response", Err: err}
	}
	return nil
}

// errorMessage pulls the human-readable text out of an error body. The
// backend uses "message", "mensaje" or "error"; plain-text bodies are used
// as they are.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Mensaje string `json:"mensaje"`
		Error   string `json:"error"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(data, &payload) == nil {
		for _, m := range []string{payload.Message, payload.Mensaje, payload.Error, payload.Msg} {
			if m = strings.TrimSpace(m); m != "" {
				return m
			}
		}
		return ""
	}
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, "<") {
		// HTML error pages from proxies are not worth showing
		return ""
	}
	return text
}

// handleUnauthorized clears the session the failed request was sent with.
// Concurrent 401s for the same token collapse into one clear, and a 401
// for a token that is no longer current (already cleared or replaced by a
// new login) clears nothing.
func (c *HTTPClient) handleUnauthorized(ctx context.Context, sent string) {
	if sent == "" {
		return
	}
	_, _, _ = c.clears.Do(sent, func() (any, error) {
		if c.session.Token(ctx) != sent {
			return nil, nil
		}
		c.log.Info(ctx, "session rejected by server, logging out")
		c.session.Clear(ctx)
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return nil, nil
	})
}
