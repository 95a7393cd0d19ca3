// Package upstream talks to the marketplace REST API on behalf of the
// operator's session and normalizes what it returns into list items.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"duoadmin/config"
	"duoadmin/domain/action"
	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
	"duoadmin/infrastructure/persistence"
	"duoadmin/pkg/logger"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 16 << 20
	maxPlainError  = 200
)

// Client is the marketplace API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	normalizer *Normalizer
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for cfg.
func New(cfg config.UpstreamConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		normalizer: NewNormalizer(cfg.AssetBaseURL, cfg.DefaultAvatar),
		tracer:     otel.Tracer("duoadmin/upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches and normalizes the whole collection of e.
func (c *Client) List(ctx context.Context, sess session.Session, e entity.Entity) ([]listing.Item, error) {
	path, err := listPath(e)
	if err != nil {
		return nil, shared.NewValidationError(string(e), "entity", err.Error())
	}
	body, err := c.do(ctx, sess, string(e), http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer.Collection(e, body), nil
}

// Detail fetches one entity. The returned item keeps the full upstream record
// in Raw.
func (c *Client) Detail(ctx context.Context, sess session.Session, e entity.Entity, id string) (listing.Item, error) {
	path, err := detailPath(e, id)
	if err != nil {
		return listing.Item{}, shared.NewValidationError(string(e), "entity", err.Error())
	}
	body, err := c.do(ctx, sess, string(e), http.MethodGet, path, nil)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return listing.Item{}, shared.NewNotFoundError(string(e), id)
		}
		return listing.Item{}, err
	}
	item, ok := c.normalizer.Single(e, body)
	if !ok {
		return listing.Item{}, shared.NewNotFoundError(string(e), id)
	}
	return item, nil
}

// Execute performs one planned step.
func (c *Client) Execute(ctx context.Context, sess session.Session, step action.Step) error {
	method, path, err := stepRoute(step)
	if err != nil {
		return shared.NewValidationError(string(step.Entity), "op", err.Error())
	}
	_, err = c.do(ctx, sess, string(step.Entity), method, path, step.Body)
	return err
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, sess session.Session, ent, method, path string, payload any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.String("duoadmin.entity", ent),
	)

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	if rid := persistence.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	log := logger.Get().Named("upstream").With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", persistence.RequestIDFromContext(ctx)),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		log.Warn("Upstream request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, shared.NewUnavailableError(ent, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, shared.NewUnavailableError(ent, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug("Upstream request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	msg := errorMessage(body)
	log.Info("Upstream rejected request", zap.Int("status", resp.StatusCode), zap.String("message", msg))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, shared.NewUnauthorizedError(firstNonEmpty(msg, "session rejected by upstream"))
	case http.StatusForbidden:
		return nil, shared.NewForbiddenError(ent, firstNonEmpty(msg, "operation not permitted"))
	case http.StatusNotFound:
		return nil, shared.NewNotFoundError(ent, path)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, shared.NewUnavailableError(ent, fmt.Errorf("upstream status %d", resp.StatusCode))
	}
	return nil, shared.NewRejectedError(ent, msg)
}

// errorMessage extracts the upstream's own explanation of a failure, if any.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		for _, key := range []string{"message", "error", "detail", "data.message"} {
			if v := res.Get(key); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
				return strings.TrimSpace(v.Str)
			}
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxPlainError || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
