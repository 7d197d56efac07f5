// Package services holds the business rules. Handlers call services with
// domain models; services talk to storage only through the repository
// interfaces and never see an http.Request.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/email"
	"github.com/akinalp/circles/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 12

	resetTokenExpiry   = 20 * time.Minute
	resetTokenCooldown = time.Minute
)

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*AuthTokens, error)
	Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	// ForgotPassword never reveals whether the address is registered.
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
	// PurgeExpired deletes expired sessions and reset tokens.
	PurgeExpired(ctx context.Context) error
}

// AuthTokens is the token pair returned by register, login and refresh.
type AuthTokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

type authService struct {
	store       *repository.Store
	emailSender email.EmailSender
	log         *zap.Logger
	jwtSecret   []byte
	accessExp   time.Duration
	refreshExp  time.Duration
	language    string
}

// NewAuthService builds the auth service. emailSender may be nil, in which
// case ForgotPassword silently does nothing.
func NewAuthService(
	store *repository.Store,
	emailSender email.EmailSender,
	logger *zap.Logger,
	jwtSecret string,
	accessExpMinutes int,
	refreshExpDays int,
	defaultLanguage string,
) AuthService {
	return &authService{
		store:       store,
		emailSender: emailSender,
		log:         logger.Named("auth"),
		jwtSecret:   []byte(jwtSecret),
		accessExp:   time.Duration(accessExpMinutes) * time.Minute,
		refreshExp:  time.Duration(refreshExpDays) * 24 * time.Hour,
		language:    defaultLanguage,
	}
}

// Register creates the account. A numeric local part is the student
// number; any other address is an instructor account.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	studentNumber, isInstructor := models.ClassifyEmail(req.Email)

	language := req.Language
	if language == "" {
		language = s.language
	}

	user := &models.User{
		Email:         req.Email,
		Name:          req.Name,
		PasswordHash:  string(hash),
		StudentNumber: studentNumber,
		IsInstructor:  isInstructor,
		Language:      language,
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID), zap.Bool("instructor", isInstructor))

	return s.generateTokens(ctx, user)
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.store.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
	}

	return s.generateTokens(ctx, user)
}

// RefreshToken rotates the session: the presented token is consumed and a
// fresh pair is issued.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	session, err := s.store.Sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if delErr := s.store.Sessions.DeleteByID(ctx, session.ID); delErr != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", delErr)
		}
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	if err := s.store.Sessions.DeleteByID(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old session: %w", err)
	}

	user, err := s.store.Users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	return s.generateTokens(ctx, user)
}

// Logout revokes the session. Unknown tokens are not an error.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.store.Sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.store.Sessions.DeleteByID(ctx, session.ID)
}

func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	var claims models.TokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token has no subject", pkg.ErrUnauthorized)
	}
	return &claims, nil
}

// ForgotPassword mails a one-time reset link. Only the SHA-256 of the
// token is stored. Requests for unknown addresses, during the resend
// cooldown, or with email disabled return nil without sending anything.
func (s *authService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if s.emailSender == nil {
		s.log.Debug("password reset requested but email is disabled")
		return nil
	}

	user, err := s.store.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	latest, err := s.store.ResetTokens.GetLatestByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return err
	}
	if latest != nil && time.Since(latest.CreatedAt) < resetTokenCooldown {
		return nil
	}

	plain, err := randomToken()
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if err := tx.ResetTokens.DeleteByUserID(ctx, user.ID); err != nil {
			return err
		}
		return tx.ResetTokens.Create(ctx, &models.PasswordResetToken{
			UserID:    user.ID,
			TokenHash: hashToken(plain),
			ExpiresAt: time.Now().Add(resetTokenExpiry),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailSender.SendPasswordReset(ctx, user.Email, plain); err != nil {
		s.log.Warn("failed to send password reset email", zap.String("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("%w: failed to send reset email", pkg.ErrInternal)
	}
	return nil
}

// ResetPassword consumes the token, sets the new password and signs the
// user out everywhere.
func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	token, err := s.store.ResetTokens.GetByTokenHash(ctx, hashToken(req.Token))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", pkg.ErrBadRequest)
		}
		return err
	}

	if time.Now().After(token.ExpiresAt) {
		if delErr := s.store.ResetTokens.DeleteByID(ctx, token.ID); delErr != nil {
			return fmt.Errorf("failed to delete expired reset token: %w", delErr)
		}
		return fmt.Errorf("%w: invalid or expired reset token", pkg.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Users.UpdatePassword(ctx, token.UserID, string(hash)); err != nil {
			return err
		}
		if err := tx.ResetTokens.DeleteByUserID(ctx, token.UserID); err != nil {
			return err
		}
		return tx.Sessions.DeleteByUserID(ctx, token.UserID)
	})
}

func (s *authService) generateTokens(ctx context.Context, user *models.User) (*AuthTokens, error) {
	now := time.Now()
	accessClaims := &models.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "circles",
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshString, err := randomToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refreshString,
		ExpiresAt:    now.Add(s.refreshExp),
	}
	if err := s.store.Sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	user.PasswordHash = ""

	return &AuthTokens{
		AccessToken:  accessString,
		RefreshToken: refreshString,
		User:         *user,
	}, nil
}

// randomToken returns 32 random bytes hex encoded.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *authService) PurgeExpired(ctx context.Context) error {
	now := time.Now()

	sessions, err := s.store.Sessions.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	tokens, err := s.store.ResetTokens.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}

	if sessions > 0 || tokens > 0 {
		s.log.Info("purged expired credentials",
			zap.Int64("sessions", sessions),
			zap.Int64("reset_tokens", tokens),
		)
	}
	return nil
}
