package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/internal/client/adapters/tokenstore"
	"notesync/internal/client/app"
	"notesync/internal/client/config"
	"notesync/internal/client/domain/entities"
	"notesync/internal/client/domain/result"
	"notesync/internal/client/session"
	"notesync/internal/mockserver"
	mockapp "notesync/internal/mockserver/app"
	mockconfig "notesync/internal/mockserver/config"
	"notesync/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitGlobalLoggerWithLevel(logger.Development, "error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var creds = entities.Credentials{Username: "ann", Email: "ann@example.com", Password: "password123"}

func clientConfig(baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BaseURL:           baseURL,
			RequestTimeout:    5 * time.Second,
			ClientHeaderName:  "X-Client-Name",
			ClientHeaderValue: "notesync-go",
		},
		Session: config.SessionConfig{
			RefreshTimeout: 5 * time.Second,
			LogoutAttempts: 2,
		},
		Breaker: config.BreakerConfig{ErrorThreshold: 100, Timeout: time.Second, SuccessThreshold: 1},
	}
}

func startMockServer(t *testing.T) (*mockserver.Server, string) {
	t.Helper()
	ctx := context.Background()

	cfg := &mockconfig.Config{
		JWT: mockconfig.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			BCryptCost:      4,
		},
	}
	server := mockserver.New(cfg, mockserver.NewMemoryStorage())
	require.NoError(t, server.Listen(ctx, "127.0.0.1:0"))
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	})

	baseURL, err := server.URL()
	require.NoError(t, err)
	return server, baseURL
}

func newAPI(baseURL string) (*app.NotesAPI, *tokenstore.MemoryStore) {
	store := tokenstore.NewMemoryStore()
	cfg := clientConfig(baseURL)
	client := session.New(cfg, store)
	return app.NewNotesAPI(client, store, cfg.Session.LogoutAttempts), store
}

func loggedIn(t *testing.T) (*app.NotesAPI, *tokenstore.MemoryStore, *mockserver.Server) {
	t.Helper()
	ctx := context.Background()

	server, baseURL := startMockServer(t)
	api, store := newAPI(baseURL)
	require.NoError(t, api.Register(ctx, creds).Err())
	require.NoError(t, api.Login(ctx, creds).Err())
	return api, store, server
}

func TestNotesAPI_LoginPersistsPairUnmodified(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, app.PathLogin, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"access-1","refreshToken":"refresh-1"}`))
	}))
	defer srv.Close()

	api, store := newAPI(srv.URL)
	require.True(t, api.Login(ctx, creds).IsSuccess())

	pair, ok := store.GetTokens(ctx)
	require.True(t, ok)
	assert.Equal(t, entities.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}, pair)
}

func TestNotesAPI_LoginRejectsEmptyPair(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	api, store := newAPI(srv.URL)
	r := api.Login(ctx, creds)
	assert.Equal(t, result.KindDecode, r.Kind())

	_, ok := store.GetTokens(ctx)
	assert.False(t, ok)
}

func TestNotesAPI_LoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	_, baseURL := startMockServer(t)
	api, store := newAPI(baseURL)
	require.True(t, api.Register(ctx, creds).IsSuccess())

	r := api.Login(ctx, entities.Credentials{Email: creds.Email, Password: "wrong-password"})
	assert.Equal(t, result.KindUnauthenticated, r.Kind())

	_, ok := store.GetTokens(ctx)
	assert.False(t, ok)
}

func TestNotesAPI_RegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	_, baseURL := startMockServer(t)
	api, _ := newAPI(baseURL)

	require.True(t, api.Register(ctx, creds).IsSuccess())

	r := api.Register(ctx, creds)
	var serverErr *result.ServerError
	require.ErrorAs(t, r.Err(), &serverErr)
	assert.Equal(t, http.StatusConflict, serverErr.StatusCode)
}

func TestNotesAPI_NoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	api, _, _ := loggedIn(t)

	draft := entities.NewDraft("groceries", "milk")
	created, err := api.CreateNote(ctx, draft).Get()
	require.NoError(t, err)
	assert.Equal(t, draft.ID, created.ID)
	assert.WithinDuration(t, draft.CreatedAt, created.CreatedAt, time.Millisecond)

	got, err := api.GetNote(ctx, draft.ID).Get()
	require.NoError(t, err)
	assert.Equal(t, created, got)

	edited := time.Now().UTC().Add(time.Minute)
	updated, err := api.UpdateNote(ctx, draft.ID, "groceries", "milk, eggs", edited).Get()
	require.NoError(t, err)
	assert.Equal(t, "milk, eggs", updated.Content)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.WithinDuration(t, edited, updated.LastEditedAt, time.Millisecond)

	page, err := api.ListNotes(ctx, 1, 20).Get()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, page.Total, len(page.Notes))
	require.Len(t, page.Notes, 1)

	require.True(t, api.DeleteNote(ctx, draft.ID).IsSuccess())

	r := api.GetNote(ctx, draft.ID)
	var serverErr *result.ServerError
	require.ErrorAs(t, r.Err(), &serverErr)
	assert.Equal(t, http.StatusNotFound, serverErr.StatusCode)
}

func TestNotesAPI_TransparentRefreshAfterExpiry(t *testing.T) {
	ctx := context.Background()
	api, store, server := loggedIn(t)

	before, _ := store.GetTokens(ctx)
	require.True(t, api.ListNotes(ctx, 1, 20).IsSuccess())

	server.ExpireAccessTokens()

	require.True(t, api.ListNotes(ctx, 1, 20).IsSuccess())
	assert.Equal(t, mockapp.Stats{RefreshSucceeded: 1}, server.Stats())

	after, ok := store.GetTokens(ctx)
	require.True(t, ok)
	assert.NotEqual(t, before, after)

	require.True(t, api.ListNotes(ctx, 1, 20).IsSuccess())
	assert.Equal(t, int64(1), server.Stats().RefreshSucceeded)
}

func TestNotesAPI_RevokedSessionIsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	api, store, server := loggedIn(t)

	pair, _ := store.GetTokens(ctx)

	otherStore := tokenstore.NewMemoryStore()
	require.NoError(t, otherStore.SaveTokens(ctx, pair))
	baseURL, err := server.URL()
	require.NoError(t, err)
	cfg := clientConfig(baseURL)
	revoker := app.NewNotesAPI(session.New(cfg, otherStore), otherStore, 1)
	require.True(t, revoker.Logout(ctx).IsSuccess())
	server.ExpireAccessTokens()

	r := api.ListNotes(ctx, 1, 20)
	assert.Equal(t, result.KindUnauthenticated, r.Kind())

	_, ok := store.GetTokens(ctx)
	assert.False(t, ok)
}

func TestNotesAPI_LogoutClearsLocalState(t *testing.T) {
	ctx := context.Background()

	t.Run("remote success", func(t *testing.T) {
		api, store, _ := loggedIn(t)
		require.True(t, api.Logout(ctx).IsSuccess())

		_, ok := store.GetTokens(ctx)
		assert.False(t, ok)
		assert.Equal(t, result.KindUnauthenticated, api.ListNotes(ctx, 1, 20).Kind())
	})

	t.Run("remote unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		baseURL := srv.URL
		srv.Close()

		api, store := newAPI(baseURL)
		require.NoError(t, store.SaveTokens(ctx, entities.TokenPair{AccessToken: "a", RefreshToken: "r"}))

		require.True(t, api.Logout(ctx).IsSuccess())
		_, ok := store.GetTokens(ctx)
		assert.False(t, ok)
	})

	t.Run("not logged in", func(t *testing.T) {
		api, _ := newAPI("http://127.0.0.1:1")
		assert.True(t, api.Logout(ctx).IsSuccess())
	})
}

func TestNotesAPI_ValidationWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	api, store := newAPI(srv.URL)
	require.NoError(t, store.SaveTokens(ctx, entities.TokenPair{AccessToken: "a", RefreshToken: "r"}))

	failures := []error{
		api.Register(ctx, entities.Credentials{Password: "password123"}).Err(),
		api.Login(ctx, entities.Credentials{Email: "ann@example.com"}).Err(),
		api.ListNotes(ctx, 0, 20).Err(),
		api.ListNotes(ctx, 1, 0).Err(),
		api.GetNote(ctx, " ").Err(),
		api.UpdateNote(ctx, "", "t", "c", time.Now()).Err(),
		api.DeleteNote(ctx, "").Err(),
	}
	for _, err := range failures {
		assert.ErrorIs(t, err, result.ErrInvalidArgument)
		assert.Equal(t, result.KindServer, result.KindOf(err))
	}
	assert.Zero(t, calls)
}

func TestNotesAPI_RequiresLogin(t *testing.T) {
	ctx := context.Background()
	_, baseURL := startMockServer(t)
	api, _ := newAPI(baseURL)

	assert.Equal(t, result.KindUnauthenticated, api.ListNotes(ctx, 1, 20).Kind())
	assert.Equal(t, result.KindUnauthenticated, api.CreateNote(ctx, entities.NewDraft("t", "c")).Kind())
}

// sessionRaceServer отвергает любой токен, кроме выданного при входе,
// и задерживает ответ на обновление до закрытия refreshGate.
func sessionRaceServer(t *testing.T, refreshEnter chan<- struct{}, refreshGate <-chan struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case session.RefreshPath:
			refreshEnter <- struct{}{}
			<-refreshGate
			_, _ = w.Write([]byte(`{"accessToken":"access-refreshed","refreshToken":"refresh-refreshed"}`))
		case app.PathLogin:
			_, _ = w.Write([]byte(`{"accessToken":"access-login","refreshToken":"refresh-login"}`))
		case app.PathLogout:
			w.WriteHeader(http.StatusNoContent)
		default:
			if r.Header.Get("Authorization") != "Bearer access-login" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"token expired"}`))
				return
			}
			_, _ = w.Write([]byte(`{"notes":[],"total":0}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNotesAPI_SessionChangeDuringRefresh(t *testing.T) {
	t.Run("logout wins over in-flight refresh", func(t *testing.T) {
		ctx := context.Background()
		refreshEnter := make(chan struct{}, 1)
		refreshGate := make(chan struct{})
		srv := sessionRaceServer(t, refreshEnter, refreshGate)

		api, store := newAPI(srv.URL)
		require.NoError(t, store.SaveTokens(ctx, entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"}))

		listed := make(chan result.Result[entities.NoteResponse], 1)
		go func() { listed <- api.ListNotes(ctx, 1, 20) }()

		<-refreshEnter
		require.True(t, api.Logout(ctx).IsSuccess())
		close(refreshGate)

		assert.Equal(t, result.KindUnauthenticated, (<-listed).Kind())
		_, ok := store.GetTokens(ctx)
		assert.False(t, ok)
	})

	t.Run("login wins over in-flight refresh", func(t *testing.T) {
		ctx := context.Background()
		refreshEnter := make(chan struct{}, 1)
		refreshGate := make(chan struct{})
		srv := sessionRaceServer(t, refreshEnter, refreshGate)

		api, store := newAPI(srv.URL)
		require.NoError(t, store.SaveTokens(ctx, entities.TokenPair{AccessToken: "access-stale", RefreshToken: "refresh-1"}))

		listed := make(chan result.Result[entities.NoteResponse], 1)
		go func() { listed <- api.ListNotes(ctx, 1, 20) }()

		<-refreshEnter
		require.True(t, api.Login(ctx, creds).IsSuccess())
		close(refreshGate)

		assert.True(t, (<-listed).IsSuccess())
		pair, ok := store.GetTokens(ctx)
		require.True(t, ok)
		assert.Equal(t, entities.TokenPair{AccessToken: "access-login", RefreshToken: "refresh-login"}, pair)
	})
}
