package inference

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/example/ripeness/api-go/internal/model"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrUnavailable = errors.New("service unavailable")
	ErrMalformed   = errors.New("malformed response")
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate checks. Only for known
	// internal endpoints.
	InsecureSkipVerify bool
}

// Client talks to the remote ripeness model service. It holds only
// configuration and is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Health reports whether the service answers /health with status "healthy".
// Every failure, including timeouts, is reported as false.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		log.Printf("inference health check: %v", err)
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("inference health check: %v", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("inference health check: status %d", resp.StatusCode)
		return false
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Printf("inference health check: decode: %v", err)
		return false
	}
	return body.Status == "healthy"
}

// Predict posts the image as multipart field "file".
func (c *Client) Predict(ctx context.Context, image []byte, filename string) (model.InferenceResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return model.InferenceResponse{}, fmt.Errorf("build predict request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return model.InferenceResponse{}, fmt.Errorf("build predict request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.InferenceResponse{}, fmt.Errorf("build predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &buf)
	if err != nil {
		return model.InferenceResponse{}, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return model.InferenceResponse{}, err
	}
	var out model.InferenceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return model.InferenceResponse{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}

// SupportedFruits returns the service's "fruits" list as-is.
func (c *Client) SupportedFruits(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/supported-fruits", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out struct {
		Fruits []json.RawMessage `json:"fruits"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if out.Fruits == nil {
		out.Fruits = []json.RawMessage{}
	}
	return out.Fruits, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnavailable, req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}
