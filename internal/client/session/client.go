// Package session выполняет запросы к сервису заметок от имени текущей сессии:
// подставляет токен доступа, обновляет пару токенов при 401 и повторяет запрос один раз.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"notesync/internal/client/config"
	"notesync/internal/client/domain/entities"
	"notesync/internal/client/domain/result"
	"notesync/internal/client/metrics"
	"notesync/internal/client/middleware"
	"notesync/internal/client/ports/store"
	"notesync/internal/client/resilience"
	"notesync/pkg/logger"
)

// Константы ошибок и сообщений.
const (
	ErrEncodeBody    = "failed to encode request body"
	ErrBuildRequest  = "failed to build request"
	ErrReadResponse  = "failed to read response body"
	ErrNoTokens      = "no stored tokens"
	LogRetryAfterRef = "Retrying request with refreshed token"
	LogProactive     = "Access token expired, refreshing before send"
)

// Client выполняет аутентифицированные и публичные запросы.
type Client struct {
	baseURL        string
	store          store.TokenStore
	handler        middleware.Handler
	metrics        metrics.MetricsCollector
	refreshGroup   singleflight.Group
	refreshTimeout time.Duration
	now            func() time.Time

	// sessionMu упорядочивает записи в хранилище; generation растет при каждом
	// входе и выходе, чтобы запоздавшее обновление не перезаписало новую сессию.
	sessionMu  sync.Mutex
	generation uint64

	httpClient *http.Client
	extra      []middleware.Middleware
}

// New создает клиент сессии поверх хранилища токенов.
func New(cfg *config.Config, tokens store.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:        cfg.API.GetBaseURL(),
		store:          tokens,
		metrics:        metrics.Nop{},
		refreshTimeout: cfg.Session.RefreshTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.API.RequestTimeout}
	}

	breaker := resilience.NewCircuitBreaker("notes-api", resilience.CircuitBreakerConfig{
		ErrorThreshold:   cfg.Breaker.ErrorThreshold,
		Timeout:          cfg.Breaker.Timeout,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
	})

	stages := []middleware.Middleware{
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Metrics(c.metrics),
		middleware.RateLimit(middleware.NewLimiter(cfg.API.RateLimit, cfg.API.RateBurst), c.metrics),
		middleware.Breaker(breaker, c.metrics),
		middleware.ClientHeader(cfg.API.ClientHeaderName, cfg.API.ClientHeaderValue),
	}
	stages = append(stages, c.extra...)
	c.handler = middleware.Chain(middleware.Transport(c.httpClient), stages...)

	return c
}

// Do выполняет аутентифицированный запрос. Если хранилище пусто, возвращается
// ErrUnauthenticated без обращения к сети (или запрос уходит без токена при AllowAnonymous).
// При ответе 401 пара обновляется единственным общим запросом и исходный запрос
// повторяется ровно один раз; ответ повтора возвращается как есть.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	pair, ok := c.store.GetTokens(ctx)
	if !ok || pair.IsZero() {
		if ro.allowAnonymous {
			return c.send(ctx, method, path, payload, "")
		}
		return nil, fmt.Errorf("%w: %s", result.ErrUnauthenticated, ErrNoTokens)
	}

	log := logger.Log(ctx).With(zap.String("method", method), zap.String("path", path))

	if pair.HasRefreshToken() && isExpired(pair.AccessToken, c.now()) {
		log.Debug(ctx, LogProactive)
		pair, err = c.refresh(ctx, pair.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.send(ctx, method, path, payload, pair.AccessToken)
	if err != nil || !resp.IsUnauthorized() {
		return resp, err
	}

	refreshed, err := c.refresh(ctx, pair.AccessToken)
	if err != nil {
		return nil, err
	}

	log.Debug(ctx, LogRetryAfterRef)
	return c.send(ctx, method, path, payload, refreshed.AccessToken)
}

// ReplaceTokens сохраняет пару, полученную при входе. Обновление, начатое
// до вызова, свой результат уже не сохранит.
func (c *Client) ReplaceTokens(ctx context.Context, pair entities.TokenPair) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	c.generation++
	return c.store.SaveTokens(ctx, pair)
}

// ClearTokens завершает сессию локально. Обновление, начатое до вызова,
// свой результат уже не сохранит.
func (c *Client) ClearTokens(ctx context.Context) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	c.generation++
	return c.store.ClearTokens(ctx)
}

// DoPublic выполняет запрос без токена и без обновления.
func (c *Client) DoPublic(ctx context.Context, method, path string, body any) (*Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, method, path, payload, "")
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, accessToken string) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", result.ErrInvalidArgument, ErrBuildRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	httpResp, err := c.handler(req)
	if err != nil {
		return nil, result.Network(err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, result.Network(fmt.Errorf("%s: %w", ErrReadResponse, err))
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// encodeBody кодирует тело один раз, чтобы повтор отправил те же байты.
func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", result.ErrInvalidArgument, ErrEncodeBody, err)
	}
	return payload, nil
}
