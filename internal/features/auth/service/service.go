package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"golang.org/x/crypto/bcrypt"

	"promo-backend/internal/common/config"
	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/common/logger"
	"promo-backend/internal/common/validation"
	"promo-backend/internal/features/auth/models"
	"promo-backend/internal/features/auth/repository"
)

const tokenIssuer = "promo-backend"

// AuthService issues and checks admin credentials.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.AdminUser, error)
	EnsureBootstrapAdmin(ctx context.Context) error

	AuthenticateToken(ctx context.Context, token string) (*models.Principal, error)
	AuthenticateInitData(ctx context.Context, raw string) (*models.Principal, error)
}

type claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	repo   repository.AdminUserRepository
	cfg    config.AuthConfig
	secret []byte
	now    func() time.Time
}

func NewAuthService(repo repository.AdminUserRepository, cfg config.AuthConfig) AuthService {
	return &authService{
		repo:   repo,
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same answer as a wrong password.
			return nil, apperrors.NewUnauthorizedError("invalid username or password")
		}
		return nil, apperrors.NewDatabaseError("get admin user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn().Str("username", user.Username).Msg("Admin login failed")
		return nil, apperrors.NewUnauthorizedError("invalid username or password")
	}

	token, expiresAt, err := s.issueToken(user.Username, user.Role)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to issue token")
	}

	logger.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("Admin logged in")
	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt, Role: user.Role}, nil
}

func (s *authService) issueToken(subject string, role models.Role) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *authService) AuthenticateToken(_ context.Context, raw string) (*models.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewUnauthorizedError("token has expired")
		}
		return nil, apperrors.NewUnauthorizedError("invalid token")
	}
	if !c.Role.Valid() {
		return nil, apperrors.NewUnauthorizedError("invalid token role")
	}
	return &models.Principal{Subject: c.Subject, Role: c.Role, Method: models.AuthMethodPassword}, nil
}

// AuthenticateInitData accepts Telegram Mini App init data signed for the
// configured bot. Only allow-listed Telegram IDs get in, always as admin.
func (s *authService) AuthenticateInitData(_ context.Context, raw string) (*models.Principal, error) {
	if s.cfg.TelegramBotToken == "" {
		return nil, apperrors.NewUnauthorizedError("telegram login is not configured")
	}
	if err := initdata.Validate(raw, s.cfg.TelegramBotToken, s.cfg.InitDataTTL); err != nil {
		return nil, apperrors.NewUnauthorizedError(fmt.Sprintf("invalid init data: %v", err))
	}
	data, err := initdata.Parse(raw)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError(fmt.Sprintf("failed to parse init data: %v", err))
	}
	if !slices.Contains(s.cfg.TelegramAdminIDs, data.User.ID) {
		return nil, apperrors.NewForbiddenError("telegram user is not an admin")
	}

	return &models.Principal{
		Subject: "tg:" + strconv.FormatInt(data.User.ID, 10),
		Role:    models.RoleAdmin,
		Method:  models.AuthMethodTelegram,
	}, nil
}

func (s *authService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.AdminUser, error) {
	username := strings.TrimSpace(req.Username)
	if err := validation.ValidateAdminUsername(username); err != nil {
		return nil, apperrors.NewValidationError("username", err.Error())
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewValidationError("password", err.Error())
	}
	if !req.Role.Valid() {
		return nil, apperrors.NewValidationError("role", "must be viewer, editor or admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to hash password")
	}

	user := &models.AdminUser{Username: username, PasswordHash: string(hash), Role: req.Role}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, apperrors.NewConflictError("admin user", "username already taken")
		}
		return nil, apperrors.NewDatabaseError("create admin user", err)
	}

	logger.Info().Str("username", username).Str("role", string(req.Role)).Msg("Admin user created")
	return user, nil
}

// EnsureBootstrapAdmin creates the configured admin account when the user
// table is empty. It is a no-op without bootstrap credentials.
func (s *authService) EnsureBootstrapAdmin(ctx context.Context) error {
	if s.cfg.BootstrapUser == "" || s.cfg.BootstrapPassword == "" {
		return nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	_, err = s.CreateUser(ctx, &models.CreateUserRequest{
		Username: s.cfg.BootstrapUser,
		Password: s.cfg.BootstrapPassword,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	logger.Info().Str("username", s.cfg.BootstrapUser).Msg("Bootstrap admin created")
	return nil
}
