package service

import (
	"context"
	"errors"
	"strings"

	"twitt/internal/models"
	"twitt/internal/observability"
	"twitt/internal/repository"
	"twitt/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles account creation and the token lifecycle.
type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *TokenService
	bcryptCost int
}

type SignupInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Password2 string
}

func NewAuthService(userRepo repository.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost, mainly so tests stay fast.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

// Tokens exposes the token service used by this AuthService.
func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (_ *models.AuthPayload, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Signup")
	defer func() { observability.EndSpan(span, err) }()

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)

	if in.Username == "" {
		return nil, models.NewValidationError("Username", "Please enter username.")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError("Username", err.Error())
	}
	if in.Email == "" {
		return nil, models.NewValidationError("Email", "Please enter email.")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError("Email", err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError("password", err.Error())
	}
	if in.Password != in.Password2 {
		return nil, models.ErrPasswordMismatch
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if exists {
		return nil, models.ErrEmailExists
	}
	exists, err = s.userRepo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if exists {
		return nil, models.ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hash),
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email or username.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrEmailExists
		}
		return nil, models.NewInternalError(err)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.AuthPayload{TokenPair: pair, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (_ *models.AuthPayload, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Login")
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBadCredentials
		}
		return nil, models.NewInternalError(err)
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return nil, models.ErrBadCredentials
	}
	if !user.IsActive {
		return nil, models.ErrBadCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.AuthPayload{TokenPair: pair, User: user}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken, RefreshToken)
	if err != nil {
		return nil, err
	}
	if s.tokens.IsRevoked(ctx, claims.ID) {
		return nil, models.ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, models.ErrInvalidToken
	}
	if _, err := loadActor(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}

	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return nil, models.NewInternalError(err)
	}
	pair, err := s.tokens.IssuePair(userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &pair, nil
}

// Logout revokes the access token in use and, when supplied, the refresh token.
// A refresh token belonging to someone else is ignored.
func (s *AuthService) Logout(ctx context.Context, access *Claims, refreshToken string) error {
	if err := s.tokens.Revoke(ctx, access); err != nil {
		return models.NewInternalError(err)
	}
	if refreshToken == "" {
		return nil
	}
	refresh, err := s.tokens.Parse(refreshToken, RefreshToken)
	if err != nil {
		observability.FromContext(ctx).Debug("logout with unusable refresh token", zap.Error(err))
		return nil
	}
	if access != nil && refresh.Subject != access.Subject {
		return nil
	}
	if err := s.tokens.Revoke(ctx, refresh); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return loadActor(ctx, s.userRepo, userID)
}

// IssueWSTicket hands out a one-time WebSocket ticket for userID.
func (s *AuthService) IssueWSTicket(ctx context.Context, userID uuid.UUID) (string, error) {
	ticket, err := s.tokens.IssueWSTicket(ctx, userID)
	if errors.Is(err, ErrTicketStoreUnavailable) {
		return "", models.ErrRealtimeUnavailable
	}
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return ticket, nil
}
