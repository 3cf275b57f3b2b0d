package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jask/releasetour/internal/logger"
	"github.com/jask/releasetour/internal/tour"
)

const (
	maxBodyBytes  = 4 << 20
	maxErrorBytes = 512
)

// Options configures a Client.
type Options struct {
	CatalogURL       string
	ExecutionURL     string
	CatalogTimeout   time.Duration
	ExecutionTimeout time.Duration
	ClientID         string
	HTTPClient       *http.Client
	Logger           *logger.Logger
}

// Client talks to the catalog and execution services.
type Client struct {
	catalogURL       string
	executionURL     string
	catalogTimeout   time.Duration
	executionTimeout time.Duration
	clientID         string
	http             *http.Client
	log              *logger.Logger
	tracer           trace.Tracer
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	catalogTimeout := opts.CatalogTimeout
	if catalogTimeout <= 0 {
		catalogTimeout = 10 * time.Second
	}
	executionTimeout := opts.ExecutionTimeout
	if executionTimeout <= 0 {
		executionTimeout = 30 * time.Second
	}
	return &Client{
		catalogURL:       strings.TrimRight(opts.CatalogURL, "/"),
		executionURL:     strings.TrimRight(opts.ExecutionURL, "/"),
		catalogTimeout:   catalogTimeout,
		executionTimeout: executionTimeout,
		clientID:         opts.ClientID,
		http:             hc,
		log:              log.With("component", "api"),
		tracer:           otel.Tracer("github.com/jask/releasetour/internal/api"),
	}
}

// Lessons fetches the ordered lesson list for version.
func (c *Client) Lessons(ctx context.Context, version string) ([]tour.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, c.catalogTimeout)
	defer cancel()

	endpoint := c.catalogURL + "/api/lessons?" + url.Values{"version": {version}}.Encode()
	var out *[]tour.Lesson
	if err := c.do(ctx, "catalog.lessons", http.MethodGet, endpoint, nil, &out,
		attribute.String("tour.version", version)); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: lesson list is null", ErrMalformedPayload)
	}
	return *out, nil
}

// Versions fetches the versions the catalog serves.
func (c *Client) Versions(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.catalogTimeout)
	defer cancel()

	var out []string
	if err := c.do(ctx, "catalog.versions", http.MethodGet, c.catalogURL+"/api/versions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Run submits code for execution. A payload-level error is returned in
// RunResponse.Error, not as a Go error.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.executionTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return RunResponse{}, err
	}
	var out RunResponse
	if err := c.do(ctx, "execution.run", http.MethodPost, c.executionURL+"/api/run", body, &out,
		attribute.String("tour.version", req.Version),
		attribute.Int("tour.code_bytes", len(req.Code))); err != nil {
		return RunResponse{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte, out any, attrs ...attribute.KeyValue) error {
	ctx, span := c.tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	defer span.End()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return c.fail(span, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(span, op, fmt.Errorf("%s: %w", op, err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.fail(span, op, fmt.Errorf("%s: read body: %w", op, err))
	}
	c.log.Debug("api call", "op", op, "status", resp.StatusCode, "request_id", requestID, "elapsed", time.Since(start).String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBytes {
			data = data[:maxErrorBytes]
		}
		return c.fail(span, op, &StatusError{Op: op, Code: resp.StatusCode, Body: string(data)})
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.fail(span, op, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, op, err))
	}
	return nil
}

func (c *Client) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.log.Warn("api call failed", "op", op, "error", err)
	return err
}
