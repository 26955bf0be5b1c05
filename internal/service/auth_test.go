package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/lapcraft/internal/models"
	"github.com/Skotchmaster/lapcraft/pkg/tokens"
)

func newTestAuthService(t *testing.T) (*AuthService, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	return &AuthService{
		Repo:       newTestRepo(t),
		Tokens:     newTestIssuer(),
		RefreshTTL: 720 * time.Hour,
		Events:     pub,
	}, pub
}

func TestAuthService_RegisterLoginMe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, pub := newTestAuthService(t)

	res, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, []string{"user_registered"}, pub.types())

	claims, err := svc.Tokens.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "Ann", claims.Name)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ann@example.com", Password: "secret2"})
	require.ErrorIs(t, err, ErrConflict)

	login, err := svc.Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	loginClaims, err := svc.Tokens.Verify(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, loginClaims.Subject)

	var u models.User
	require.NoError(t, svc.Repo.Conn(ctx).First(&u, "email = ?", "ann@example.com").Error)
	require.NotNil(t, u.LastLogin)

	me, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", me.Name)

	p, err := svc.LoadPrincipal(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, p.IsSuperuser)

	_, err = svc.Login(ctx, "ann@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestAuthService(t)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "short password", in: RegisterInput{Name: "a", Email: "a@b.c", Password: "12345"}},
		{name: "bad email", in: RegisterInput{Name: "a", Email: "not-an-email", Password: "123456"}},
		{name: "empty name", in: RegisterInput{Name: " ", Email: "a@b.c", Password: "123456"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Refresh_SingleUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestAuthService(t)

	res, err := svc.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "secret1"})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Refresh(ctx, "never-issued")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_Refresh_Expired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestAuthService(t)

	res, err := svc.Register(ctx, RegisterInput{Name: "Cy", Email: "cy@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Repo.Conn(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokens.Sha256Hex(res.RefreshToken)).
		UpdateColumn("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestAuthService(t)

	res, err := svc.Register(ctx, RegisterInput{Name: "Di", Email: "di@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.RefreshToken))
	require.NoError(t, svc.Logout(ctx, res.RefreshToken))
	require.ErrorIs(t, svc.Logout(ctx, "unknown"), ErrValidation)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}
