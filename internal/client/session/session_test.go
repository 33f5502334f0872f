package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/internal/client/adapters/tokenstore"
	"notesync/internal/client/config"
	"notesync/internal/client/domain/entities"
	"notesync/internal/client/domain/result"
	"notesync/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitGlobalLoggerWithLevel(logger.Development, "error")
	m.Run()
}

// notesServer принимает единственный действующий токен доступа и выдает
// новую пару в обмен на действующий токен обновления.
type notesServer struct {
	mu           sync.Mutex
	access       string
	refresh      string
	generation   int
	alwaysReject bool
	refreshDelay time.Duration
	refreshCode  int
	refreshGate  chan struct{}
	refreshEnter chan struct{}

	noteCalls    atomic.Int32
	refreshCalls atomic.Int32
	lastHeaders  atomic.Value
	bodies       []string
}

func newNotesServer(access, refresh string) *notesServer {
	return &notesServer{access: access, refresh: refresh}
}

func (s *notesServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case RefreshPath:
		s.handleRefresh(w, r)
	default:
		s.handleNotes(w, r)
	}
}

func (s *notesServer) handleNotes(w http.ResponseWriter, r *http.Request) {
	s.noteCalls.Add(1)
	s.lastHeaders.Store(r.Header.Clone())

	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.bodies = append(s.bodies, string(body))
	valid := !s.alwaysReject && r.Header.Get("Authorization") == "Bearer "+s.access
	s.mu.Unlock()

	if !valid {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"notes":[],"total":0}`))
}

func (s *notesServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	if s.refreshEnter != nil {
		s.refreshEnter <- struct{}{}
	}
	if s.refreshGate != nil {
		<-s.refreshGate
	}
	if s.refreshDelay > 0 {
		time.Sleep(s.refreshDelay)
	}
	if s.refreshCode != 0 {
		w.WriteHeader(s.refreshCode)
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if req.RefreshToken != s.refresh {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	s.generation++
	s.access = "access-new-" + string(rune('0'+s.generation))
	s.refresh = "refresh-new-" + string(rune('0'+s.generation))
	_ = json.NewEncoder(w).Encode(entities.TokenPair{AccessToken: s.access, RefreshToken: s.refresh})
}

func (s *notesServer) currentPair() entities.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entities.TokenPair{AccessToken: s.access, RefreshToken: s.refresh}
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BaseURL:           baseURL,
			RequestTimeout:    5 * time.Second,
			ClientHeaderName:  "X-Client-Name",
			ClientHeaderValue: "notesync-go",
		},
		Session: config.SessionConfig{
			RefreshTimeout: 5 * time.Second,
		},
		Breaker: config.BreakerConfig{ErrorThreshold: 100, Timeout: time.Second, SuccessThreshold: 1},
	}
}

func setup(t *testing.T, srv *notesServer, stored *entities.TokenPair, opts ...Option) (*Client, *tokenstore.MemoryStore) {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	tokens := tokenstore.NewMemoryStore()
	if stored != nil {
		require.NoError(t, tokens.SaveTokens(context.Background(), *stored))
	}
	return New(testConfig(ts.URL), tokens, opts...), tokens
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestDo_ValidTokenSendsOneRequestPerCall(t *testing.T) {
	srv := newNotesServer("access-1", "refresh-1")
	client, _ := setup(t, srv, &entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	for range 5 {
		resp, err := client.Do(context.Background(), http.MethodGet, "/api/notes?page=1&size=20", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, int32(5), srv.noteCalls.Load())
	assert.Equal(t, int32(0), srv.refreshCalls.Load())
}

func TestDo_SendsIdentifyingHeaders(t *testing.T) {
	srv := newNotesServer("access-1", "refresh-1")
	client, _ := setup(t, srv, &entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	ctx := logger.NewRequestIDContext(context.Background(), "req-7")
	_, err := client.Do(ctx, http.MethodGet, "/api/notes", nil)
	require.NoError(t, err)

	headers, ok := srv.lastHeaders.Load().(http.Header)
	require.True(t, ok)
	assert.Equal(t, "notesync-go", headers.Get("X-Client-Name"))
	assert.Equal(t, "req-7", headers.Get("X-Request-ID"))
	assert.Equal(t, "Bearer access-1", headers.Get("Authorization"))
}

func TestDo_NoTokens(t *testing.T) {
	t.Run("fails without network call", func(t *testing.T) {
		srv := newNotesServer("access-1", "refresh-1")
		client, _ := setup(t, srv, nil)

		resp, err := client.Do(context.Background(), http.MethodGet, "/api/notes", nil)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, result.ErrUnauthenticated)
		assert.Equal(t, int32(0), srv.noteCalls.Load())
	})

	t.Run("anonymous request is sent without bearer", func(t *testing.T) {
		srv := newNotesServer("access-1", "refresh-1")
		client, _ := setup(t, srv, nil)

		resp, err := client.Do(context.Background(), http.MethodGet, "/api/notes", nil, AllowAnonymous())
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, int32(0), srv.refreshCalls.Load())

		headers, _ := srv.lastHeaders.Load().(http.Header)
		assert.Empty(t, headers.Get("Authorization"))
	})
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	srv := newNotesServer("access-valid", "refresh-1")
	client, tokens := setup(t, srv, &entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"})

	body := map[string]string{"title": "t", "content": "c"}
	resp, err := client.Do(context.Background(), http.MethodPost, "/api/notes", body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int32(1), srv.refreshCalls.Load())
	assert.Equal(t, int32(2), srv.noteCalls.Load())

	stored, ok := tokens.GetTokens(context.Background())
	require.True(t, ok)
	assert.Equal(t, srv.currentPair(), stored)

	require.Len(t, srv.bodies, 2)
	assert.JSONEq(t, srv.bodies[0], srv.bodies[1])
}

func TestDo_RetryStillUnauthorizedIsReturnedAsIs(t *testing.T) {
	srv := newNotesServer("access-1", "refresh-1")
	srv.alwaysReject = true
	client, _ := setup(t, srv, &entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	resp, err := client.Do(context.Background(), http.MethodGet, "/api/notes", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), srv.refreshCalls.Load())
	assert.Equal(t, int32(2), srv.noteCalls.Load())
}

func TestDo_ConcurrentUnauthorizedCollapseIntoOneRefresh(t *testing.T) {
	srv := newNotesServer("access-valid", "refresh-1")
	srv.refreshDelay = 50 * time.Millisecond
	client, tokens := setup(t, srv, &entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"})

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	statuses := make(chan int, callers)

	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Do(context.Background(), http.MethodGet, "/api/notes", nil)
			if err != nil {
				errs <- err
				return
			}
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(errs)
	close(statuses)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	for status := range statuses {
		assert.Equal(t, http.StatusOK, status)
	}

	assert.Equal(t, int32(1), srv.refreshCalls.Load())
	assert.LessOrEqual(t, srv.noteCalls.Load(), int32(2*callers))

	stored, ok := tokens.GetTokens(context.Background())
	require.True(t, ok)
	assert.Equal(t, srv.currentPair(), stored)
}

func TestDo_FailedRefresh(t *testing.T) {
	tests := []struct {
		name        string
		stored      entities.TokenPair
		refreshCode int
		wantErr     error
		wantCleared bool
		wantCalls   int32
	}{
		{
			name:        "rejected refresh token",
			stored:      entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-revoked"},
			wantErr:     result.ErrUnauthenticated,
			wantCleared: true,
			wantCalls:   1,
		},
		{
			name:        "missing refresh token",
			stored:      entities.TokenPair{AccessToken: "access-stale"},
			wantErr:     result.ErrUnauthenticated,
			wantCleared: true,
			wantCalls:   0,
		},
		{
			name:        "malformed refresh response",
			stored:      entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"},
			refreshCode: http.StatusOK,
			wantErr:     result.ErrUnauthenticated,
			wantCleared: true,
			wantCalls:   1,
		},
		{
			name:        "refresh endpoint unavailable keeps session",
			stored:      entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"},
			refreshCode: http.StatusServiceUnavailable,
			wantErr:     result.ErrServerError,
			wantCleared: false,
			wantCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newNotesServer("access-valid", "refresh-1")
			srv.refreshCode = tt.refreshCode
			stored := tt.stored
			client, tokens := setup(t, srv, &stored)

			resp, err := client.Do(context.Background(), http.MethodGet, "/api/notes", nil)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCalls, srv.refreshCalls.Load())
			assert.Equal(t, int32(1), srv.noteCalls.Load())

			_, ok := tokens.GetTokens(context.Background())
			assert.Equal(t, !tt.wantCleared, ok)
		})
	}
}

func TestRefresh_CallerCancellationDoesNotCancelSharedRefresh(t *testing.T) {
	srv := newNotesServer("access-valid", "refresh-1")
	srv.refreshGate = make(chan struct{})
	srv.refreshEnter = make(chan struct{}, 1)
	client, tokens := setup(t, srv, &entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"})

	cancelCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.refresh(cancelCtx, "access-stale")
		firstErr <- err
	}()

	<-srv.refreshEnter

	type outcome struct {
		pair entities.TokenPair
		err  error
	}
	second := make(chan outcome, 1)
	go func() {
		pair, err := client.refresh(context.Background(), "access-stale")
		second <- outcome{pair: pair, err: err}
	}()

	cancel()
	err := <-firstErr
	assert.ErrorIs(t, err, result.ErrNetworkFailure)
	assert.ErrorIs(t, err, context.Canceled)

	close(srv.refreshGate)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, srv.currentPair(), got.pair)
	assert.Equal(t, int32(1), srv.refreshCalls.Load())

	stored, ok := tokens.GetTokens(context.Background())
	require.True(t, ok)
	assert.Equal(t, got.pair, stored)
}

func TestRefresh_ReusesPairStoredByAnotherCaller(t *testing.T) {
	srv := newNotesServer("access-valid", "refresh-1")
	client, tokens := setup(t, srv, &entities.TokenPair{AccessToken: "access-fresh", RefreshToken: "refresh-fresh"})

	pair, err := client.refresh(context.Background(), "access-stale")
	require.NoError(t, err)
	assert.Equal(t, entities.TokenPair{AccessToken: "access-fresh", RefreshToken: "refresh-fresh"}, pair)
	assert.Equal(t, int32(0), srv.refreshCalls.Load())

	stored, _ := tokens.GetTokens(context.Background())
	assert.Equal(t, pair, stored)
}

func TestDo_ProactiveRefresh(t *testing.T) {
	now := time.Now()

	t.Run("expired jwt is refreshed before send", func(t *testing.T) {
		expired := signedToken(t, now.Add(-10*time.Second))
		srv := newNotesServer("unused", "refresh-1")
		client, _ := setup(t, srv, &entities.TokenPair{AccessToken: expired, RefreshToken: "refresh-1"},
			WithClock(func() time.Time { return now }))

		resp, err := client.Do(context.Background(), http.MethodGet, "/api/notes", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(1), srv.refreshCalls.Load())
		assert.Equal(t, int32(1), srv.noteCalls.Load())
	})

	t.Run("jwt close to expiry is sent as is", func(t *testing.T) {
		closeToExpiry := signedToken(t, now.Add(20*time.Second))
		srv := newNotesServer(closeToExpiry, "refresh-1")
		client, _ := setup(t, srv, &entities.TokenPair{AccessToken: closeToExpiry, RefreshToken: "refresh-1"},
			WithClock(func() time.Time { return now }))

		resp, err := client.Do(context.Background(), http.MethodGet, "/api/notes", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(0), srv.refreshCalls.Load())
		assert.Equal(t, int32(1), srv.noteCalls.Load())
	})

	t.Run("valid jwt is sent as is", func(t *testing.T) {
		valid := signedToken(t, now.Add(time.Hour))
		srv := newNotesServer(valid, "refresh-1")
		client, _ := setup(t, srv, &entities.TokenPair{AccessToken: valid, RefreshToken: "refresh-1"},
			WithClock(func() time.Time { return now }))

		_, err := client.Do(context.Background(), http.MethodGet, "/api/notes", nil)
		require.NoError(t, err)
		assert.Equal(t, int32(0), srv.refreshCalls.Load())
		assert.Equal(t, int32(1), srv.noteCalls.Load())
	})
}

func TestIsExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "opaque", token: "opaque-token", want: false},
		{name: "expired", token: signedToken(t, now.Add(-time.Minute)), want: true},
		{name: "expires now", token: signedToken(t, now), want: true},
		{name: "expires in 20s", token: signedToken(t, now.Add(20*time.Second)), want: false},
		{name: "expires in an hour", token: signedToken(t, now.Add(time.Hour)), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isExpired(tt.token, now))
		})
	}
}

func TestClearTokens_DuringRefreshKeepsSessionEnded(t *testing.T) {
	srv := newNotesServer("access-valid", "refresh-1")
	srv.refreshGate = make(chan struct{})
	srv.refreshEnter = make(chan struct{}, 1)
	client, tokens := setup(t, srv, &entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"})

	done := make(chan error, 1)
	go func() {
		_, err := client.Do(context.Background(), http.MethodGet, "/api/notes", nil)
		done <- err
	}()

	<-srv.refreshEnter
	require.NoError(t, client.ClearTokens(context.Background()))
	close(srv.refreshGate)

	err := <-done
	assert.ErrorIs(t, err, result.ErrUnauthenticated)
	assert.Equal(t, int32(1), srv.refreshCalls.Load())

	_, ok := tokens.GetTokens(context.Background())
	assert.False(t, ok)
}

func TestReplaceTokens_DuringRefreshKeepsNewPair(t *testing.T) {
	srv := newNotesServer("access-valid", "refresh-1")
	srv.refreshGate = make(chan struct{})
	srv.refreshEnter = make(chan struct{}, 1)
	client, tokens := setup(t, srv, &entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"})

	type outcome struct {
		pair entities.TokenPair
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		pair, err := client.refresh(context.Background(), "access-stale")
		done <- outcome{pair: pair, err: err}
	}()

	<-srv.refreshEnter
	login := entities.TokenPair{AccessToken: "access-login", RefreshToken: "refresh-login"}
	require.NoError(t, client.ReplaceTokens(context.Background(), login))
	close(srv.refreshGate)

	got := <-done
	require.NoError(t, got.err)
	assert.Equal(t, login, got.pair)

	stored, ok := tokens.GetTokens(context.Background())
	require.True(t, ok)
	assert.Equal(t, login, stored)
}

// gatedStore задерживает первое чтение пары до закрытия gate.
type gatedStore struct {
	*tokenstore.MemoryStore
	once  sync.Once
	enter chan struct{}
	gate  chan struct{}
}

func (s *gatedStore) GetTokens(ctx context.Context) (entities.TokenPair, bool) {
	s.once.Do(func() {
		s.enter <- struct{}{}
		<-s.gate
	})
	return s.MemoryStore.GetTokens(ctx)
}

func TestRefresh_JoinerRejectedByReusedPairRefreshesAgain(t *testing.T) {
	srv := newNotesServer("access-valid", "refresh-1")
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	tokens := &gatedStore{
		MemoryStore: tokenstore.NewMemoryStore(),
		enter:       make(chan struct{}, 1),
		gate:        make(chan struct{}),
	}
	stale := entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"}
	require.NoError(t, tokens.SaveTokens(context.Background(), stale))
	client := New(testConfig(ts.URL), tokens)

	// Первое обновление начато ради более старого токена и вернет сохраненную пару.
	first := make(chan entities.TokenPair, 1)
	go func() {
		pair, _ := client.refresh(context.Background(), "access-older")
		first <- pair
	}()
	<-tokens.enter

	type outcome struct {
		pair entities.TokenPair
		err  error
	}
	second := make(chan outcome, 1)
	go func() {
		pair, err := client.refresh(context.Background(), "access-stale")
		second <- outcome{pair: pair, err: err}
	}()

	time.Sleep(50 * time.Millisecond)
	close(tokens.gate)

	assert.Equal(t, stale, <-first)

	got := <-second
	require.NoError(t, got.err)
	assert.NotEqual(t, "access-stale", got.pair.AccessToken)
	assert.Equal(t, srv.currentPair(), got.pair)
	assert.Equal(t, int32(1), srv.refreshCalls.Load())
}

func TestDo_CanceledContextIsNetworkFailure(t *testing.T) {
	srv := newNotesServer("access-1", "refresh-1")
	client, _ := setup(t, srv, &entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Do(ctx, http.MethodGet, "/api/notes", nil)
	assert.ErrorIs(t, err, result.ErrNetworkFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoPublic_DoesNotAttachToken(t *testing.T) {
	srv := newNotesServer("access-1", "refresh-1")
	client, _ := setup(t, srv, &entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	resp, err := client.DoPublic(context.Background(), http.MethodPost, "/api/auth/login", map[string]string{"email": "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(0), srv.refreshCalls.Load())
}

func TestDo_UnencodableBody(t *testing.T) {
	srv := newNotesServer("access-1", "refresh-1")
	client, _ := setup(t, srv, &entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	_, err := client.Do(context.Background(), http.MethodPost, "/api/notes", map[string]any{"bad": make(chan int)})
	assert.ErrorIs(t, err, result.ErrInvalidArgument)
	assert.Equal(t, int32(0), srv.noteCalls.Load())
}
