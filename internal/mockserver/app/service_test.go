package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/internal/mockserver/adapters/memory"
	"notesync/internal/mockserver/domain"
)

func newTestService() *Service {
	return NewService(memory.NewRepository(),
		NewTokenIssuer("test-secret", time.Minute),
		NewPasswordHasher(4),
		Config{RefreshTokenTTL: time.Hour})
}

func registerAndLogin(t *testing.T, svc *Service) (string, domain.TokenPair) {
	t.Helper()
	ctx := context.Background()
	user, err := svc.Register(ctx, "ann@example.com", "ann", "password123")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)
	return user.ID, pair
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Register(ctx, "not-an-email", "ann", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(ctx, "ann@example.com", "ann", "short")
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.Register(ctx, "ann@example.com", "ann", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ann@example.com", "ann", "password123")
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	userID, pair := registerAndLogin(t, svc)

	authenticated, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, authenticated)
	assert.NotEmpty(t, pair.RefreshToken)

	_, err = svc.Login(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "bob@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestService_RefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, pair := registerAndLogin(t, svc)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	assert.Equal(t, Stats{RefreshSucceeded: 1, RefreshRejected: 2}, svc.Stats())
}

func TestService_RefreshConcurrentReuseSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, pair := registerAndLogin(t, svc)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Refresh(ctx, pair.RefreshToken); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, pair := registerAndLogin(t, svc)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	assert.ErrorIs(t, svc.Logout(ctx, pair.RefreshToken), domain.ErrInvalidRefreshToken)

	_, err := svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestService_ExpireAccessTokens(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, pair := registerAndLogin(t, svc)

	svc.ExpireAccessTokens()

	_, err := svc.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrExpiredAccessToken)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, next.AccessToken)
	require.NoError(t, err)
}

func TestTokenIssuer_Validate(t *testing.T) {
	ctx := context.Background()
	issuer := NewTokenIssuer("secret", time.Minute)

	token, err := issuer.Issue(ctx, "user-1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other", time.Minute)
		_, err := other.Validate(ctx, token)
		assert.ErrorIs(t, err, domain.ErrInvalidAccessToken)
	})

	t.Run("expired", func(t *testing.T) {
		issuer.now = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { issuer.now = time.Now }()
		_, err := issuer.Validate(ctx, token)
		assert.ErrorIs(t, err, domain.ErrExpiredAccessToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Validate(ctx, "garbage")
		assert.ErrorIs(t, err, domain.ErrInvalidAccessToken)
	})
}

func TestService_Notes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	userID, _ := registerAndLogin(t, svc)

	_, err := svc.CreateNote(ctx, domain.Note{UserID: userID, Title: " "})
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)

	created, err := svc.CreateNote(ctx, domain.Note{UserID: userID, Title: "first", Content: "body"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.LastEditedAt)

	withID, err := svc.CreateNote(ctx, domain.Note{ID: "client-id", UserID: userID, Title: "second"})
	require.NoError(t, err)
	assert.Equal(t, "client-id", withID.ID)

	_, err = svc.CreateNote(ctx, domain.Note{ID: "client-id", UserID: userID, Title: "dup"})
	assert.ErrorIs(t, err, domain.ErrNoteAlreadyExists)

	notes, total, err := svc.ListNotes(ctx, userID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, notes, 2)

	_, _, err = svc.ListNotes(ctx, userID, 0, 20)
	assert.ErrorIs(t, err, domain.ErrInvalidPage)

	edited := time.Now().Add(time.Minute)
	updated, err := svc.UpdateNote(ctx, domain.Note{ID: created.ID, UserID: userID, Title: "renamed", LastEditedAt: edited})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, normalizeTime(edited), updated.LastEditedAt)

	require.NoError(t, svc.DeleteNote(ctx, userID, created.ID))
	_, err = svc.GetNote(ctx, userID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNoteNotFound)
}
