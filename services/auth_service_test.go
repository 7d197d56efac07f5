package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

func newAuth(t *testing.T, mailer *fakeMailer) (AuthService, *fakeMailer) {
	t.Helper()
	store := newTestStore(t)
	var svc AuthService
	if mailer == nil {
		svc = NewAuthService(store, nil, zap.NewNop(), "test-secret", 15, 7, "ja")
	} else {
		svc = NewAuthService(store, mailer, zap.NewNop(), "test-secret", 15, 7, "ja")
	}
	return svc, mailer
}

func TestAuth_RegisterClassifiesEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t, nil)

	student, err := svc.Register(ctx, &models.RegisterRequest{Email: " 2301234@U.ac.jp ", Password: "password1", Name: "Sato"})
	require.NoError(t, err)
	assert.Equal(t, "2301234@u.ac.jp", student.User.Email)
	require.NotNil(t, student.User.StudentNumber)
	assert.Equal(t, "2301234", *student.User.StudentNumber)
	assert.False(t, student.User.IsInstructor)
	assert.Equal(t, "ja", student.User.Language)
	assert.Empty(t, student.User.PasswordHash)

	instructor, err := svc.Register(ctx, &models.RegisterRequest{Email: "tanaka@u.ac.jp", Password: "password1", Name: "Tanaka", Language: "en"})
	require.NoError(t, err)
	assert.Nil(t, instructor.User.StudentNumber)
	assert.True(t, instructor.User.IsInstructor)

	_, err = svc.Register(ctx, &models.RegisterRequest{Email: "tanaka@u.ac.jp", Password: "password1", Name: "Again"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = svc.Register(ctx, &models.RegisterRequest{Email: "x@u.ac.jp", Password: "short", Name: "X"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestAuth_LoginRefreshLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t, nil)

	_, err := svc.Register(ctx, &models.RegisterRequest{Email: "1@u.ac.jp", Password: "password1", Name: "One"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "1@u.ac.jp", Password: "wrong-password"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	_, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@u.ac.jp", Password: "password1"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	tokens, err := svc.Login(ctx, &models.LoginRequest{Email: "1@U.AC.JP", Password: "password1"})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.User.ID, claims.UserID)
	assert.Equal(t, "1@u.ac.jp", claims.Email)

	_, err = svc.ValidateAccessToken(tokens.AccessToken + "x")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	rotated, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized, "a refresh token is single use")

	require.NoError(t, svc.Logout(ctx, rotated.RefreshToken))
	_, err = svc.RefreshToken(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	assert.NoError(t, svc.Logout(ctx, "unknown"))
}

func TestAuth_PasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, mailer := newAuth(t, &fakeMailer{})

	tokens, err := svc.Register(ctx, &models.RegisterRequest{Email: "2@u.ac.jp", Password: "password1", Name: "Two"})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "unknown@u.ac.jp"}))
	assert.Empty(t, mailer.mails)

	require.NoError(t, svc.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "2@u.ac.jp"}))
	require.Len(t, mailer.mails, 1)
	token := mailer.mails[0].Body
	assert.Len(t, token, 64)

	// Cooldown: a second request right away sends nothing.
	require.NoError(t, svc.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "2@u.ac.jp"}))
	assert.Len(t, mailer.mails, 1)

	err = svc.ResetPassword(ctx, &models.ResetPasswordRequest{Token: "bogus", NewPassword: "new-password"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	require.NoError(t, svc.ResetPassword(ctx, &models.ResetPasswordRequest{Token: token, NewPassword: "new-password"}))

	err = svc.ResetPassword(ctx, &models.ResetPasswordRequest{Token: token, NewPassword: "other-password"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest, "tokens are consumed")

	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized, "reset signs out every session")

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "2@u.ac.jp", Password: "new-password"})
	assert.NoError(t, err)
}

func TestAuth_ForgotPasswordWithoutEmail(t *testing.T) {
	svc, _ := newAuth(t, nil)
	assert.NoError(t, svc.ForgotPassword(context.Background(), &models.ForgotPasswordRequest{Email: "a@u.ac.jp"}))
}

func TestAuth_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewAuthService(store, nil, zap.NewNop(), "test-secret", 15, 7, "ja")

	resp, err := svc.Register(ctx, &models.RegisterRequest{Email: "p@u.ac.jp", Password: "password1", Name: "P"})
	require.NoError(t, err)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, store.Sessions.Create(ctx, &models.Session{UserID: resp.User.ID, RefreshToken: "stale", ExpiresAt: expired}))
	require.NoError(t, store.ResetTokens.Create(ctx, &models.PasswordResetToken{UserID: resp.User.ID, TokenHash: "stale-hash", ExpiresAt: expired}))

	require.NoError(t, svc.PurgeExpired(ctx))

	_, err = store.Sessions.GetByRefreshToken(ctx, "stale")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = store.ResetTokens.GetByTokenHash(ctx, "stale-hash")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// the session issued at registration is still valid
	_, err = svc.RefreshToken(ctx, resp.RefreshToken)
	assert.NoError(t, err)
}

func TestAuth_ValidateAccessTokenRejectsForeignTokens(t *testing.T) {
	svc, _ := newAuth(t, nil)
	secret := []byte("test-secret")
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	sign := func(method jwt.SigningMethod, claims *models.TokenClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
		require.NoError(t, err)
		return s
	}

	ok := sign(jwt.SigningMethodHS256, &models.TokenClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})
	claims, err := svc.ValidateAccessToken(ok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	cases := map[string]string{
		"other algorithm": sign(jwt.SigningMethodHS512, &models.TokenClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
		"no expiry":       sign(jwt.SigningMethodHS256, &models.TokenClaims{UserID: "u1"}),
		"no user":         sign(jwt.SigningMethodHS256, &models.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
	}
	for name, token := range cases {
		_, err := svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, pkg.ErrUnauthorized, name)
	}
}
