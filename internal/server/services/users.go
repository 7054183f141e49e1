// Package services contains server-side business logic. This file implements
// UserService, which handles signup and login and issues bearer tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	UserID string
	Email  string
	Token  string
}

// UserService provides authentication-related operations:
// - Signup: create users with a bcrypt password hash
// - Login: verify credentials and mint an access token
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int

	// dummyHash is compared against on unknown emails so that a miss costs
	// as much as a wrong password.
	dummyHash func() string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	s := &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  cfg.BcryptCost,
	}
	s.dummyHash = sync.OnceValue(func() string {
		h, _ := auth.HashPassword(uuid.NewString(), s.bcryptCost)
		return h
	})
	return s
}

// Signup registers a new account. The email is normalized before it is
// validated and stored; a taken email yields common.ErrorAlreadyExists.
func (s *UserService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = auth.NormalizeEmail(email)
	if !auth.ValidEmail(email) {
		return nil, fmt.Errorf("%w: email is not a valid address", common.ErrorValidation)
	}
	if utf8.RuneCountInString(password) < common.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, common.MinPasswordLength)
	}
	if len(password) > common.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", common.ErrorValidation, common.MaxPasswordBytes)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the credentials and, on success, returns a signed token.
// Unknown emails and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = auth.NormalizeEmail(email)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(s.dummyHash(), password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(auth.Identity{UserID: user.ID, Email: user.Email}, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &LoginResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}
