package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"notesync/internal/client/domain/entities"
	"notesync/internal/client/domain/result"
	"notesync/internal/client/metrics"
	"notesync/pkg/logger"
)

// RefreshPath - путь обновления пары токенов.
const RefreshPath = "/api/auth/refresh"

const refreshKey = "refresh"

// Константы ошибок и сообщений обновления.
const (
	LogRefreshStarted   = "Refreshing session tokens"
	LogRefreshSucceeded = "Session tokens refreshed"
	LogRefreshReused    = "Tokens already refreshed by another caller"
	LogRefreshRejected  = "Refresh rejected, clearing session"
	LogRefreshFailed    = "Refresh failed, session kept"
	LogClearFailed      = "Failed to clear token store"
	LogSaveFailed       = "Failed to persist refreshed tokens"
	LogRefreshDropped   = "Session changed during refresh, result dropped"
	LogRefreshRejoin    = "Shared refresh returned the rejected token, refreshing again"
	ErrNoRefreshToken   = "no refresh token available"
	ErrRefreshRejected  = "refresh rejected"
	ErrRefreshResponse  = "invalid refresh response"
	ErrSessionEnded     = "session ended during refresh"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh обновляет пару токенов. Одновременные вызовы разделяют один запрос.
func (c *Client) Refresh(ctx context.Context) (entities.TokenPair, error) {
	return c.refresh(ctx, "")
}

// refresh присоединяет вызывающего к общему обновлению. Общий запрос выполняется
// в контексте, отвязанном от отмены вызывающих; отмена ctx прекращает только ожидание.
// rejected - токен доступа, который сервер отверг; пустая строка означает обязательное обновление.
// Если общий запрос был начат ради более старого токена и вернул именно rejected,
// вызывающий присоединяется к следующему обновлению.
func (c *Client) refresh(ctx context.Context, rejected string) (entities.TokenPair, error) {
	pair, err := c.joinRefresh(ctx, rejected)
	if err != nil || rejected == "" || pair.AccessToken != rejected {
		return pair, err
	}

	logger.Log(ctx).Debug(ctx, LogRefreshRejoin)
	return c.joinRefresh(ctx, rejected)
}

func (c *Client) joinRefresh(ctx context.Context, rejected string) (entities.TokenPair, error) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return c.doRefresh(refreshCtx, rejected)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return entities.TokenPair{}, res.Err
		}
		pair, _ := res.Val.(entities.TokenPair)
		return pair, nil
	case <-ctx.Done():
		return entities.TokenPair{}, result.Network(ctx.Err())
	}
}

// doRefresh выполняет обновление от имени всех ожидающих. Сохранение и очистка
// пары выполняются только если с начала обновления не было входа или выхода.
func (c *Client) doRefresh(ctx context.Context, rejected string) (entities.TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", "refresh"))

	c.sessionMu.Lock()
	generation := c.generation
	current, ok := c.store.GetTokens(ctx)
	c.sessionMu.Unlock()

	if ok && rejected != "" && current.AccessToken != rejected && !current.IsZero() {
		log.Debug(ctx, LogRefreshReused)
		c.metrics.RecordRefresh(metrics.RefreshReused)
		return current, nil
	}

	if !ok || !current.HasRefreshToken() {
		c.clear(ctx, generation)
		c.metrics.RecordRefresh(metrics.RefreshFailure)
		return entities.TokenPair{}, fmt.Errorf("%w: %s", result.ErrUnauthenticated, ErrNoRefreshToken)
	}

	log.Info(ctx, LogRefreshStarted, zap.String("refresh_token", logger.Redact(current.RefreshToken)))

	resp, err := c.DoPublic(ctx, http.MethodPost, RefreshPath, refreshRequest{RefreshToken: current.RefreshToken})
	if err != nil {
		log.Warn(ctx, LogRefreshFailed, zap.Error(err))
		c.metrics.RecordRefresh(metrics.RefreshFailure)
		return entities.TokenPair{}, err
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		log.Warn(ctx, LogRefreshFailed, zap.Int("status", resp.StatusCode))
		c.metrics.RecordRefresh(metrics.RefreshFailure)
		return entities.TokenPair{}, result.NewServerError(resp.StatusCode, "")
	}

	if !resp.IsSuccess() {
		log.Warn(ctx, LogRefreshRejected, zap.Int("status", resp.StatusCode))
		c.clear(ctx, generation)
		c.metrics.RecordRefresh(metrics.RefreshFailure)
		return entities.TokenPair{}, fmt.Errorf("%w: %s: status %d", result.ErrUnauthenticated, ErrRefreshRejected, resp.StatusCode)
	}

	var pair entities.TokenPair
	if err := json.Unmarshal(resp.Body, &pair); err != nil || pair.IsZero() {
		log.Warn(ctx, LogRefreshRejected, zap.Error(err))
		c.clear(ctx, generation)
		c.metrics.RecordRefresh(metrics.RefreshFailure)
		return entities.TokenPair{}, fmt.Errorf("%w: %s", result.ErrUnauthenticated, ErrRefreshResponse)
	}

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.generation != generation {
		log.Info(ctx, LogRefreshDropped)
		stored, ok := c.store.GetTokens(ctx)
		if !ok || stored.IsZero() {
			c.metrics.RecordRefresh(metrics.RefreshFailure)
			return entities.TokenPair{}, fmt.Errorf("%w: %s", result.ErrUnauthenticated, ErrSessionEnded)
		}
		c.metrics.RecordRefresh(metrics.RefreshReused)
		return stored, nil
	}

	if err := c.store.SaveTokens(ctx, pair); err != nil {
		log.Error(ctx, LogSaveFailed, zap.Error(err))
	}

	log.Info(ctx, LogRefreshSucceeded)
	c.metrics.RecordRefresh(metrics.RefreshSuccess)
	return pair, nil
}

// clear очищает хранилище, если сессия не сменилась с начала обновления.
func (c *Client) clear(ctx context.Context, generation uint64) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.generation != generation {
		return
	}
	if err := c.store.ClearTokens(ctx); err != nil {
		logger.Log(ctx).Error(ctx, LogClearFailed, zap.Error(err))
	}
}
