package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hookcraft/hookcraft-backend/internal/config"
	"github.com/hookcraft/hookcraft-backend/internal/dto"
	"github.com/hookcraft/hookcraft-backend/internal/models"
	"github.com/hookcraft/hookcraft-backend/internal/session"
	"github.com/hookcraft/hookcraft-backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt refuses longer inputs.
	maxPasswordLength = 72
)

type AuthService struct {
	store   store.Store
	revoker session.TokenRevoker
	cfg     *config.Config
	now     func() time.Time
}

func NewAuthService(st store.Store, revoker session.TokenRevoker, cfg *config.Config) *AuthService {
	return &AuthService{
		store:   st,
		revoker: revoker,
		cfg:     cfg,
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalName(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalidRequest("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalidRequest("password must be at least %d characters", minPasswordLength)
	}
	if len(req.Password) > maxPasswordLength {
		return nil, invalidRequest("password must be at most %d bytes", maxPasswordLength)
	}

	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storageError("lookup user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:            email,
		Password:         string(hash),
		FirstName:        optionalName(req.FirstName),
		LastName:         optionalName(req.LastName),
		Role:             models.RoleUser,
		SubscriptionTier: models.TierFree,
		HooksUsed:        0,
		HooksLimit:       models.TierFree.HooksLimit(),
		ResetDate:        s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		// Lost a race against a concurrent signup for the same address.
		if _, lookupErr := s.store.Users().GetByEmail(ctx, email); lookupErr == nil {
			return nil, ErrEmailTaken
		}
		return nil, storageError("create user", err)
	}

	slog.Info("user registered", "user_id", user.ID.String())
	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storageError("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(ctx, user)
}

// Refresh rotates a refresh token: the presented token is spent and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	if req.RefreshToken == "" {
		return nil, ErrInvalidToken
	}

	userID, err := s.store.RefreshTokens().Consume(ctx, hashToken(req.RefreshToken), s.now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, storageError("consume refresh token", err)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, storageError("load user", err)
	}

	return s.generateTokenPair(ctx, user)
}

// Logout revokes the presented access token until it expires, and the refresh token if given.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, token session.TokenInfo, refreshToken string) error {
	if token.ID != "" {
		ttl := token.ExpiresAt.Sub(s.now())
		if err := s.revoker.Revoke(ctx, token.ID, ttl); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}
	if refreshToken != "" {
		if err := s.store.RefreshTokens().Revoke(ctx, userID, hashToken(refreshToken)); err != nil {
			return storageError("revoke refresh token", err)
		}
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageError("load user", err)
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// UpdatePassword checks the current password, stores the new hash and signs
// out every other session by revoking outstanding refresh tokens.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, req *dto.UpdatePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return invalidRequest("current password and new password are required")
	}
	if len(req.NewPassword) < minPasswordLength {
		return invalidRequest("new password must be at least %d characters", minPasswordLength)
	}
	if len(req.NewPassword) > maxPasswordLength {
		return invalidRequest("new password must be at most %d bytes", maxPasswordLength)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return storageError("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return ErrIncorrectPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.Users().UpdatePassword(ctx, userID, string(hash)); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAllForUser(ctx, userID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return storageError("update password", err)
	}
	return nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
		User:         dto.NewUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().UTC().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.store.RefreshTokens().Create(ctx, record); err != nil {
		return "", storageError("store refresh token", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
