package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"electoral-app/internal/common"
	"electoral-app/internal/models"
)

// TokenSource supplies the bearer token for outgoing requests. An empty token means anonymous.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource
type StaticToken string

// Token implements TokenSource
func (s StaticToken) Token() string { return string(s) }

// Client is the API gateway: every call is sent exactly once, with no retries
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	userAgent  string
	verbose    bool
}

// ClientConfig holds client configuration
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration // 0 disables the client-side timeout
	UserAgent  string
	Verbose    bool
	HTTPClient *http.Client
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   "http://localhost:8001/api",
		UserAgent: "electoral-client/1.0",
	}
}

// NewClient creates a new API client. tokens may be nil for anonymous use.
func NewClient(config *ClientConfig, tokens TokenSource) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "electoral-client/1.0"
	}

	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		userAgent:  userAgent,
		verbose:    config.Verbose,
	}
}

// BaseURL returns the API root every path is resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call sends a JSON request and decodes a JSON response into result (which may be nil).
// body is only sent for non-GET methods.
func (c *Client) Call(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil && method != http.MethodGet {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return common.NewErrorWithCause(common.ErrInternal, "failed to marshal request body", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := c.createRequest(ctx, method, path, bodyReader)
	if err != nil {
		return err
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// UploadFile sends one multipart POST holding the photo under the "photo" field plus
// every extra field. The same auth and error rules as Call apply.
func (c *Client) UploadFile(ctx context.Context, path string, photo *models.Photo, fields map[string]string, result interface{}) error {
	if photo == nil {
		return common.NewError(common.ErrValidation, "no photo to upload")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	contentType := photo.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, photoFileName(photo)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return common.NewErrorWithCause(common.ErrInternal, "failed to create photo part", err)
	}
	if _, err := part.Write(photo.Data); err != nil {
		return common.NewErrorWithCause(common.ErrInternal, "failed to write photo part", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, fields[k]); err != nil {
			return common.NewErrorWithCause(common.ErrInternal, "failed to write form field", err)
		}
	}
	if err := writer.Close(); err != nil {
		return common.NewErrorWithCause(common.ErrInternal, "failed to finish multipart body", err)
	}

	req, err := c.createRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, result)
}

// Download is a binary response body
type Download struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Download fetches a binary resource with GET
func (c *Client) Download(ctx context.Context, path string) (*Download, error) {
	req, err := c.createRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrNetwork, "failed to read response body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, data)
	}

	d := &Download{Data: data, ContentType: resp.Header.Get("Content-Type")}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			d.FileName = params["filename"]
		}
	}
	return d, nil
}

// Low-level HTTP methods

// do sends req once and decodes the JSON response
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.NewErrorWithCause(common.ErrNetwork, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, data)
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return common.NewErrorWithCause(common.ErrDecode, "failed to decode response", err)
	}
	return nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.verbose {
			log.Printf("❌ %s %s failed: %v", req.Method, req.URL.Path, err)
		}
		return nil, common.NewErrorWithCause(common.ErrNetwork, "request failed", err)
	}
	if c.verbose {
		log.Printf("📡 %s %s -> %d (%s) [%s]", req.Method, req.URL.Path, resp.StatusCode,
			time.Since(start).Round(time.Millisecond), req.Header.Get("X-Request-ID"))
	}
	return resp, nil
}

// createRequest creates an HTTP request
func (c *Client) createRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrInternal, "failed to create HTTP request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", common.GenerateID())

	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// apiError maps a non-2xx response to an ErrAPI, preferring the server's detail
func apiError(status int, body []byte) error {
	return common.NewAPIError(status, errorDetail(body))
}

// errorDetail extracts "detail" from the error envelope. The detail may be a plain
// string or a list of validation entries carrying "msg".
func errorDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg != "" {
				msgs = append(msgs, e.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func photoFileName(p *models.Photo) string {
	if p.Name != "" {
		return p.Name
	}
	return "photo"
}

// IsNetworkError reports whether err means the server never answered
func IsNetworkError(err error) bool {
	return common.IsErrorCode(err, common.ErrNetwork)
}
