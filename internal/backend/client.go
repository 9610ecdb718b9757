// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nyawara2025/dubaibankcases/internal/config"
	"github.com/nyawara2025/dubaibankcases/internal/logging"
)

// Configuration constants for the webhook service.
const (
	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the maximum accepted response body size.
	MaxResponseSize = 4 * 1024 * 1024

	// UserAgent identifies the dashboard to the service.
	UserAgent = "socdash/1.0"
)

// Endpoints holds the path of each remote operation, relative to the base URL.
type Endpoints struct {
	Login     string
	Incidents string
	Report    string
	Chat      string
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Endpoints Endpoints
	Timeout   time.Duration

	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	// HTTPClient overrides the default client. Its Timeout is left untouched.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the SOC webhook service. Safe for concurrent use.
type Client struct {
	baseURL    string
	endpoints  Endpoints
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger

	mu    sync.RWMutex
	token string
}

// New creates a client from opts.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: timeout,
			},
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		endpoints:  opts.Endpoints,
		httpClient: httpClient,
		limiter:    limiter,
		log:        logging.OrDiscard(opts.Logger).With("component", "backend"),
	}
}

// NewFromConfig creates a client from the [backend] config section.
func NewFromConfig(cfg config.BackendConfig, log *slog.Logger) *Client {
	return New(Options{
		BaseURL: cfg.BaseURL,
		Endpoints: Endpoints{
			Login:     cfg.Endpoints.Login,
			Incidents: cfg.Endpoints.Incidents,
			Report:    cfg.Endpoints.Report,
			Chat:      cfg.Endpoints.Chat,
		},
		Timeout:   cfg.Timeout(),
		RateLimit: cfg.RateLimitPerSec,
		Burst:     cfg.RateBurst,
		Logger:    log,
	})
}

// SetToken sets the bearer token sent with every request. An empty token
// clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Login submits credentials. A 2xx response is returned as decoded even when
// it carries no token; callers decide whether it is usable.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	body, err := c.do(ctx, "login", http.MethodPost, c.endpoints.Login, creds)
	if err != nil {
		return nil, err
	}
	var resp LoginResponse
	if len(bytes.TrimSpace(body)) == 0 {
		return &resp, nil
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: login: %v", ErrMalformedResponse, err)
	}
	return &resp, nil
}

// ListIncidents returns the raw incident payload. The service may answer with
// an array, a single object or nothing at all; normalization is the caller's
// job. An empty body is returned as JSON null.
func (c *Client) ListIncidents(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, "list incidents", http.MethodGet, c.endpoints.Incidents, nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(body), nil
}

// CreateIncident submits a new incident report. The response body is ignored.
func (c *Client) CreateIncident(ctx context.Context, report IncidentReport) error {
	_, err := c.do(ctx, "create incident", http.MethodPost, c.endpoints.Report, report)
	return err
}

// SendChat posts a chat message and returns the service's reply.
// A 2xx body without a reply field yields an empty Reply.
func (c *Client) SendChat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	body, err := c.do(ctx, "send chat", http.MethodPost, c.endpoints.Chat, req)
	if err != nil {
		return nil, err
	}
	var reply ChatReply
	if len(bytes.TrimSpace(body)) == 0 {
		return &reply, nil
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		// n8n sometimes answers with a bare string or an array of replies
		var s string
		if json.Unmarshal(body, &s) == nil {
			return &ChatReply{Reply: s}, nil
		}
		var arr []ChatReply
		if json.Unmarshal(body, &arr) == nil {
			if len(arr) > 0 {
				return &arr[0], nil
			}
			return &reply, nil
		}
		return nil, fmt.Errorf("%w: chat: %v", ErrMalformedResponse, err)
	}
	return &reply, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request and returns the body of a 2xx response.
// Transport failures, limiter waits that outlive ctx and timeouts come back
// as *NetworkError; non-2xx statuses as *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	requestID := uuid.New().String()
	c.setHeaders(req, requestID, payload != nil)

	c.logRequest(req, requestID)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		c.log.Warn("request failed", "op", op, "request_id", requestID, "duration", time.Since(start), "error", err)
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	c.logResponse(resp, requestID, time.Since(start))
	if err != nil {
		var tooLarge *responseTooLargeError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request, requestID string, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-ID", requestID)

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

type responseTooLargeError struct{ limit int64 }

func (e *responseTooLargeError) Error() string {
	return fmt.Sprintf("response exceeded maximum size of %d bytes", e.limit)
}

// readResponse reads the body up to MaxResponseSize.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, &responseTooLargeError{limit: MaxResponseSize}
	}
	return body, nil
}

// logRequest logs method and path only. Headers and bodies carry credentials.
func (c *Client) logRequest(req *http.Request, requestID string) {
	c.log.Debug("api request", "method", req.Method, "path", req.URL.Path, "request_id", requestID)
}

func (c *Client) logResponse(resp *http.Response, requestID string, d time.Duration) {
	level := slog.LevelDebug
	if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	c.log.Log(context.Background(), level, "api response",
		"status", resp.StatusCode, "path", resp.Request.URL.Path, "request_id", requestID, "duration", d)
}
