package trackerapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/student-tracker/internal/platform/logging"
	"github.com/riskibarqy/student-tracker/internal/platform/resilience"
	"github.com/riskibarqy/student-tracker/internal/usecase"
)

const (
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 4 << 20
	breakerName      = "tracker_api"
	csvExportPath    = "/students/download/csv"
)

var errTrackerTransient = crerr.New("tracker api transient failure")

// Recorder receives per-call outcomes. *metrics.Manager satisfies it.
type Recorder interface {
	RecordTrackerRequest(operation, outcome string, elapsed time.Duration)
	SetCircuitState(breaker string, state float64)
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Metrics        Recorder
}

// Client talks to the tracker REST API. It implements student.Repository and
// profile.Repository.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	metrics    Recorder

	studentFlight resilience.SingleFlight[[]byte]
	profileFlight resilience.SingleFlight[[]byte]
}

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(baseURL)
	if baseURL == "" || err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: tracker api base url must be an absolute http(s) url, got %q", usecase.ErrInvalidInput, cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("trackerapi")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
		metrics:    cfg.Metrics,
	}
	c.breaker = resilience.NewCircuitBreaker(breakerName, cfg.CircuitBreaker,
		resilience.WithStateChange(func(name string, from, to resilience.CircuitState) {
			c.logger.Warn("tracker api circuit breaker state changed", "breaker", name, "from", from, "to", to)
			if c.metrics != nil {
				c.metrics.SetCircuitState(name, to.Gauge())
			}
		}),
	)

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) CircuitState() resilience.CircuitState {
	return c.breaker.State()
}

// ExportCSVURL is the navigation target of the roster CSV download; no request is made.
func (c *Client) ExportCSVURL() string {
	return buildURL(c.baseURL, csvExportPath)
}

type call struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      any
}

// do executes one call and returns the raw 2xx body. It never retries.
func (c *Client) do(ctx context.Context, in call) ([]byte, error) {
	started := time.Now()

	var raw []byte
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var reqErr error
		raw, reqErr = c.executeRequest(ctx, in)
		return reqErr
	}, isBreakerFailure)

	c.record(in.operation, err, time.Since(started))
	if err == nil {
		return raw, nil
	}
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "tracker api circuit breaker rejected request",
			"operation", in.operation,
			"state", c.breaker.State(),
		)
		return nil, fmt.Errorf("%w: tracker api is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	return nil, err
}

func (c *Client) executeRequest(ctx context.Context, in call) ([]byte, error) {
	fullURL := buildURL(c.baseURL, in.path)
	if encoded := in.query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var bodyReader io.Reader
	if in.body != nil {
		buf := bytebufferpool.Get()
		defer bytebufferpool.Put(buf)

		if err := sonic.ConfigDefault.NewEncoder(buf).Encode(in.body); err != nil {
			return nil, crerr.Wrapf(err, "encode %s request", in.operation)
		}
		bodyReader = bytes.NewReader(buf.Bytes())
	}

	req, err := http.NewRequestWithContext(ctx, in.method, fullURL, bodyReader)
	if err != nil {
		return nil, crerr.Wrapf(err, "build %s request", in.operation)
	}
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WarnContext(ctx, "tracker api request failed", "operation", in.operation, "error", err)
		return nil, crerr.Mark(
			fmt.Errorf("%w: %s: send request: %v", usecase.ErrDependencyUnavailable, in.operation, err),
			errTrackerTransient,
		)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, crerr.Mark(
			fmt.Errorf("%w: %s: read response body: %v", usecase.ErrDependencyUnavailable, in.operation, err),
			errTrackerTransient,
		)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	statusErr := classifyStatus(in.operation, resp.StatusCode, raw)
	if resp.StatusCode >= 500 {
		c.logger.WarnContext(ctx, "tracker api server error",
			"operation", in.operation,
			"status_code", resp.StatusCode,
			"body", abbreviateBody(raw),
		)
	}
	return nil, statusErr
}

func classifyStatus(operation string, status int, raw []byte) error {
	detail := abbreviateBody(raw)
	var body errorBody
	if len(raw) > 0 && sonic.Unmarshal(raw, &body) == nil && body.text() != "" {
		detail = body.text()
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %s", usecase.ErrNotFound, operation, detail)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s: %s", usecase.ErrInvalidInput, operation, detail)
	case status >= 500:
		return crerr.Mark(
			fmt.Errorf("%w: %s: status=%d body=%s", usecase.ErrDependencyUnavailable, operation, status, detail),
			errTrackerTransient,
		)
	default:
		return fmt.Errorf("%s: unexpected tracker api status=%d body=%s", operation, status, detail)
	}
}

// isBreakerFailure counts only transport failures and 5xx toward tripping the breaker.
func isBreakerFailure(err error) bool {
	return crerr.Is(err, errTrackerTransient)
}

func (c *Client) record(operation string, err error, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordTrackerRequest(operation, outcomeOf(err), elapsed)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case crerr.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case crerr.Is(err, usecase.ErrNotFound):
		return "not_found"
	case crerr.Is(err, usecase.ErrInvalidInput):
		return "invalid"
	case crerr.Is(err, usecase.ErrDependencyUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func requestID(ctx context.Context) string {
	if id := logging.RequestIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func buildURL(baseURL, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return baseURL + path
}

func studentPath(studentID string, suffix ...string) string {
	parts := append([]string{"students", url.PathEscape(studentID)}, suffix...)
	return "/" + strings.Join(parts, "/")
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(raw))
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
