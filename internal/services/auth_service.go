package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rentspace/internal/domain"
	"rentspace/internal/repos"
	"rentspace/internal/validate"
)

type AuthService struct {
	Users  *repos.UserRepo
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewAuthService(users *repos.UserRepo, secret string, ttl time.Duration) *AuthService {
	return &AuthService{Users: users, Secret: []byte(secret), TTL: ttl}
}

type SignUpInput struct {
	Email    string
	Name     string
	Phone    string
	Password string
	Role     string
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, invalid("email", "Please enter a valid email address")
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, invalid("name", "Please enter your name")
	}
	phone, ok := validate.Phone(in.Phone)
	if !ok {
		return nil, invalid("phone", "Please enter a valid phone number")
	}
	if !validate.Password(in.Password) {
		return nil, invalid("password", "Password must be 8-64 characters with upper and lower case letters, a digit and a symbol")
	}
	if in.Role != domain.RoleTenant && in.Role != domain.RoleLandlord {
		return nil, invalid("role", "Please choose tenant or landlord")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Phone:     phone,
		Hash:      string(hash),
		Role:      in.Role,
		CreatedAt: domain.FormatTime(clock(s.Now)),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repos.ErrDuplicateEmail) {
			return nil, conflict("an account with this email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// SignIn checks credentials, binds sid to the user and returns the identity with a bearer token for it.
// SignIn checks the credentials and opens a new session. The caller's previous session, if any, is dropped.
func (s *AuthService) SignIn(ctx context.Context, prevSID, email, password string) (*domain.Identity, string, error) {
	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, "", ErrBadCreds
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, "", ErrBadCreds
	}
	sid := uuid.NewString()
	if err := s.Users.CreateSession(ctx, sid, u.ID, domain.FormatTime(clock(s.Now))); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	if prevSID != "" {
		if err := s.Users.DeleteSession(ctx, prevSID); err != nil {
			return nil, "", fmt.Errorf("drop previous session: %w", err)
		}
	}
	id := u.Identity(sid)
	tok, err := s.IssueToken(id)
	if err != nil {
		return nil, "", err
	}
	return id, tok, nil
}

func (s *AuthService) SignOut(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid, domain.FormatTime(clock(s.Now)))
}

// CurrentUser resolves a session id. An unknown, signed-out or expired session is ErrAuthRequired.
// Sessions live as long as tokens (TTL).
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.Identity, error) {
	if sid == "" {
		return nil, ErrAuthRequired
	}
	notBefore := ""
	if s.TTL > 0 {
		notBefore = domain.FormatTime(clock(s.Now).Add(-s.TTL))
	}
	u, err := s.Users.SessionUser(ctx, sid, notBefore)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrAuthRequired
		}
		return nil, err
	}
	return u.Identity(sid), nil
}

type tokenClaims struct {
	SID  string `json:"sid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *AuthService) IssueToken(id *domain.Identity) (string, error) {
	now := clock(s.Now)
	claims := tokenClaims{
		SID:  id.SessionID,
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// ParseToken verifies a bearer token and returns the session id it carries.
// The session still has to be live for CurrentUser to accept it.
func (s *AuthService) ParseToken(raw string) (string, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return clock(s.Now) }))
	if err != nil || claims.SID == "" {
		return "", ErrAuthRequired
	}
	return claims.SID, nil
}

func requireLandlord(id *domain.Identity) error {
	if id == nil {
		return ErrAuthRequired
	}
	if !id.IsLandlord() {
		return ErrForbidden
	}
	return nil
}
