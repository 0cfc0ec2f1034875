package gateway

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yegors/co-france/internal/metrics"
	"github.com/yegors/co-france/pkg/logger"
)

// maxBodyBytes bounds how much of a response body is read
const maxBodyBytes = 4 << 20

// Client issues requests to the external services. One Client is shared by
// every service wrapper and reused across cycles.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *logger.Logger
}

// NewClient creates a client with the given request timeout
func NewClient(timeout time.Duration, userAgent string, log *logger.Logger) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: userAgent,
		logger:    log.Named("gateway"),
	}
}

// request describes one outbound call
type request struct {
	service  string // metrics / log label of the remote service
	endpoint string // metrics / log label of the call
	method   string
	url      string
	form     url.Values // sent urlencoded when method is POST
	accept   string
}

// do executes req and returns the body of a 200 response. Every failure is
// logged here and returned as *Error.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	op := req.service + "." + req.endpoint
	start := time.Now()

	body, err := c.fetch(ctx, req, op)

	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	metrics.RecordGatewayRequest(req.service, req.endpoint, outcome, time.Since(start))

	return body, err
}

func (c *Client) fetch(ctx context.Context, req request, op string) ([]byte, error) {
	var payload io.Reader
	if req.method == http.MethodPost && req.form != nil {
		payload = strings.NewReader(req.form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, payload)
	if err != nil {
		c.logger.Error("Failed to create request",
			logger.String("op", op), logger.String("url", req.url), logger.Error(err))
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("Sending request",
		logger.String("op", op),
		logger.String("method", req.method),
		logger.String("url", req.url))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled by StopPoller
			c.logger.Debug("Request cancelled", logger.String("op", op), logger.Error(err))
		} else {
			c.logger.Error("Failed to connect to service",
				logger.String("op", op), logger.String("url", req.url), logger.Error(err))
		}
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Service returned error",
			logger.String("op", op), logger.Int("status_code", resp.StatusCode))
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &Error{Kind: KindServer, Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.Error("Failed to read response body", logger.String("op", op), logger.Error(err))
		return nil, &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// decodeFailure logs and wraps a body parse error
func (c *Client) decodeFailure(op, format string, body []byte, err error) error {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	c.logger.Error("Failed to parse "+format,
		logger.String("op", op), logger.String("body", preview), logger.Error(err))
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
