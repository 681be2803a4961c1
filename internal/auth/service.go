package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stocksim/internal/config"
	"stocksim/internal/models"
)

// Identity errors surfaced to the HTTP layer.
var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Service owns registration, login, and token verification.
type Service struct {
	db              *gorm.DB
	secret          []byte
	tokenTTL        time.Duration
	startingBalance decimal.Decimal
	logger          *zap.Logger
}

// NewService creates a new identity service. New accounts are funded with
// startingBalance.
func NewService(db *gorm.DB, cfg *config.Auth, startingBalance decimal.Decimal, logger *zap.Logger) *Service {
	return &Service{
		db:              db,
		secret:          []byte(cfg.JWTSecret),
		tokenTTL:        time.Duration(cfg.TokenTTLHours) * time.Hour,
		startingBalance: startingBalance,
		logger:          logger,
	}
}

// Register creates a new user with a bcrypt password hash and the configured
// starting balance.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:       username,
		PasswordHash:   string(hash),
		AccountBalance: s.startingBalance,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		var count int64
		s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count)
		if count > 0 {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Registered user", zap.Uint("user_id", user.ID), zap.String("username", username))
	return &user, nil
}

// Login verifies the credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, &user, nil
}

// Authenticate parses a session token and returns the user id it carries.
func (s *Service) Authenticate(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
