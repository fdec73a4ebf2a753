package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/id"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	errBadLogin      = apierr.Unauthenticated("Invalid credentials")
)

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(db *sql.DB, secret []byte, ttl time.Duration) *Service {
	return &Service{store: NewStore(db), secret: secret, ttl: ttl, now: time.Now}
}

func (s *Service) Secret() []byte { return s.secret }

func (s *Service) Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || utf8.RuneCountInString(in.Password) < 6 {
		return nil, apierr.Invalid("username, email and a password of at least 6 characters are required")
	}

	for _, login := range []string{email, username} {
		exists, err := s.store.GetByLogin(ctx, login)
		if err != nil {
			return nil, err
		}
		if exists != nil {
			return nil, apierr.Conflict("User already exists")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acct := &Account{
		ID:           id.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		JoinedAt:     s.now().UTC(),
	}
	if in.Avatar != nil && *in.Avatar != "" {
		acct.Avatar = sql.NullString{String: *in.Avatar, Valid: true}
	}
	if err := s.store.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, apierr.Conflict("User already exists")
		}
		return nil, err
	}
	return s.issue(acct)
}

func (s *Service) Login(ctx context.Context, login, password string) (*AuthResponse, error) {
	acct, err := s.store.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, errBadLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, errBadLogin
	}
	return s.issue(acct)
}

func (s *Service) Me(ctx context.Context, userID string) (*UserResponse, error) {
	acct, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, apierr.NotFound("User not found")
	}
	u := toUserResponse(acct)
	return &u, nil
}

// FindByLogin exposes the lookup used by seeding.
func (s *Service) FindByLogin(ctx context.Context, login string) (*UserResponse, error) {
	acct, err := s.store.GetByLogin(ctx, login)
	if err != nil || acct == nil {
		return nil, err
	}
	u := toUserResponse(acct)
	return &u, nil
}

func (s *Service) issue(acct *Account) (*AuthResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": acct.ID,
		"exp": s.now().Add(s.ttl).Unix(),
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: tokenString, User: toUserResponse(acct)}, nil
}

// ParseToken validates an HS256 token and returns its subject.
func ParseToken(secret []byte, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || token == nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("invalid sub")
	}
	return sub, nil
}

func toUserResponse(a *Account) UserResponse {
	u := UserResponse{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Rating:       a.Rating,
		TotalRatings: a.TotalRatings,
		IsVerified:   a.IsVerified,
		JoinDate:     a.JoinedAt,
	}
	if a.Avatar.Valid {
		v := a.Avatar.String
		u.Avatar = &v
	}
	return u
}
