// Package lookup реализует вызовы сервиса поиска номеров телефонов.
// Ответы сервиса не интерпретируются: успешное тело возвращается как есть,
// неудача описывается через *DownstreamError.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/InQaaaaGit/telefone-relay/internal/config"
	"github.com/InQaaaaGit/telefone-relay/internal/middleware"
	"go.uber.org/zap"
)

const (
	lookupPath = "/consulta"
	batchPath  = "/consulta/lote"

	contentTypeJSON = "application/json"

	// MaxResponseBytes ограничивает размер читаемого ответа сервиса
	MaxResponseBytes = 10 << 20
)

// Response успешный ответ сервиса поиска номеров
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Client выполняет запросы к сервису поиска номеров
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient создает клиент для адреса и таймаута из конфигурации
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.DownstreamURL,
		httpClient: &http.Client{
			Timeout: cfg.DownstreamTimeout,
		},
		logger: logger,
	}
}

// BaseURL возвращает настроенный адрес сервиса
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Lookup запрашивает GET <base>/consulta?numero=<numero>
func (c *Client) Lookup(ctx context.Context, numero string, geo bool) (*Response, error) {
	query := url.Values{}
	query.Set("numero", numero)
	if geo {
		query.Set("geo", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+lookupPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &DownstreamError{Err: err}
	}

	return c.do(req)
}

// LookupBatch отправляет POST <base>/consulta/lote с массивом номеров в теле без изменений
func (c *Client) LookupBatch(ctx context.Context, numeros json.RawMessage) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+batchPath, bytes.NewReader(numeros))
	if err != nil {
		return nil, &DownstreamError{Err: err}
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	req.Header.Set("Accept", contentTypeJSON)
	requestID := middleware.RequestIDFromContext(req.Context())
	if requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Downstream request failed",
			zap.String("request_id", requestID),
			zap.String("url", req.URL.Redacted()),
			zap.Error(err))
		return nil, &DownstreamError{Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("Error closing downstream response body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, &DownstreamError{Err: err}
	}
	if len(body) > MaxResponseBytes {
		return nil, &DownstreamError{StatusCode: resp.StatusCode, Err: ErrResponseTooLarge}
	}

	c.logger.Debug("Downstream request processed",
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &DownstreamError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(body),
			Err:        ErrUnexpectedStatus,
		}
	}

	if !json.Valid(body) {
		return nil, &DownstreamError{StatusCode: resp.StatusCode, Err: ErrMalformedResponse}
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
