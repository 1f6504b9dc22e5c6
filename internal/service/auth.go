package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	pkgdb "github.com/Skotchmaster/shop_orders/pkg/db"
	pkg_hash "github.com/Skotchmaster/shop_orders/pkg/hash"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/Skotchmaster/shop_orders/pkg/tokens"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const roleUser = "user"

var errInvalidCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthenticated)

type AuthService struct {
	Repo        *repo.GormRepo
	JWTSecret   []byte
	AccessTTL   time.Duration
	AdminEmails []string
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
	User        *models.User
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("username, email and password required: %w", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", domain.ErrValidation)
	}

	taken, err := s.Repo.UserTaken(ctx, username, email)
	if err != nil {
		return nil, domain.Persistence("check user", err)
	}
	if taken {
		return nil, fmt.Errorf("email or username already taken: %w", domain.ErrConflict)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := roleUser
	if slices.ContainsFunc(s.AdminEmails, func(a string) bool { return normalizeEmail(a) == email }) {
		role = tokens.RoleAdmin
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return nil, fmt.Errorf("email or username already taken: %w", domain.ErrConflict)
		}
		return nil, domain.Persistence("create user", err)
	}

	l.Info("user_registered", "user_id", user.ID, "role", role)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password required: %w", domain.ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, domain.Persistence("find user", err)
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, errInvalidCredentials
	}

	exp := time.Now().Add(s.AccessTTL)
	token, err := tokens.NewAccessToken(user.ID.String(), user.Username, user.Role, exp, s.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	logging.FromContext(ctx).Info("login_successful", "user_id", user.ID)
	return &LoginResult{AccessToken: token, AccessExp: exp, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookup("user", err)
	}
	return user, nil
}
