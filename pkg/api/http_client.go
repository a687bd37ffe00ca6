package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource yields the bearer token for each request. An empty token
// sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function into a TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string {
	if f == nil {
		return ""
	}
	return f()
}

// StaticToken is a fixed token, handy for scripts and tests.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() string { return string(t) }

// HTTPConfig configures the REST client.
type HTTPConfig struct {
	BaseURL    string
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// HTTPClient talks to the storefront REST backend.
type HTTPClient struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPClient builds a client for the backend at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("api: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		client:  httpClient,
		logger:  logger,
	}, nil
}

// BaseURL returns the configured backend root.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// Get issues a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values, target any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, target)
}

// Post issues a POST request.
func (c *HTTPClient) Post(ctx context.Context, path string, body, target any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, target)
}

// Put issues a PUT request.
func (c *HTTPClient) Put(ctx context.Context, path string, body, target any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, target)
}

// Patch issues a PATCH request.
func (c *HTTPClient) Patch(ctx context.Context, path string, body, target any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, target)
}

// Delete issues a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string, target any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, target)
}

// Do sends one request. A *Form body is sent as multipart, any other body as
// JSON. JSON responses decode into target; other responses are delivered raw
// into *[]byte or *string targets. Non-2xx responses return *Error and
// network failures *TransportError. Nothing is retried.
func (c *HTTPClient) Do(ctx context.Context, method, path string, query url.Values, body, target any) error {
	endpoint := c.endpoint(path, query)
	reader, contentType, err := encodeBody(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "api request failed", slog.String("method", method), slog.String("url", endpoint), slog.Any("error", err))
		return &TransportError{Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, URL: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("url", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	isJSON := isJSONContent(resp.Header.Get("Content-Type"))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, data, isJSON)
	}
	return decodeTarget(data, isJSON, target)
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	out := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		out += "?" + encoded
	}
	return out
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Form:
		return b.encode()
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("api: encode payload: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func decodeTarget(data []byte, isJSON bool, target any) error {
	switch t := target.(type) {
	case nil:
		return nil
	case *[]byte:
		*t = data
		return nil
	case *string:
		*t = string(data)
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if !isJSON {
		return fmt.Errorf("api: expected JSON response, got %d bytes of non-JSON content", len(data))
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

func isJSONContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Form is a multipart/form-data body with optional file parts.
type Form struct {
	Fields url.Values
	Files  []FormFile
}

// FormFile is one uploaded file part.
type FormFile struct {
	Field    string
	FileName string
	Content  io.Reader
}

// NewForm builds an empty form.
func NewForm() *Form {
	return &Form{Fields: url.Values{}}
}

// Set assigns a text field.
func (f *Form) Set(key, value string) *Form {
	if f.Fields == nil {
		f.Fields = url.Values{}
	}
	f.Fields.Set(key, value)
	return f
}

// AddFile appends a file part.
func (f *Form) AddFile(field, fileName string, content io.Reader) *Form {
	f.Files = append(f.Files, FormFile{Field: field, FileName: fileName, Content: content})
	return f
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, values := range f.Fields {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return nil, "", fmt.Errorf("api: write form field %s: %w", key, err)
			}
		}
	}
	for _, file := range f.Files {
		part, err := writer.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return nil, "", fmt.Errorf("api: create form file %s: %w", file.Field, err)
		}
		if file.Content != nil {
			if _, err := io.Copy(part, file.Content); err != nil {
				return nil, "", fmt.Errorf("api: write form file %s: %w", file.Field, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("api: close form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
