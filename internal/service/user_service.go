package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"user-account-service/internal/domain"
	"user-account-service/internal/repository"
	"user-account-service/internal/security"
)

var (
	ErrBadCredentials   = errors.New("email or password is wrong")
	ErrEmailNotVerified = errors.New("email is not verified")
	ErrAlreadyVerified  = errors.New("verification has already been passed")
)

// ValidationError carries the first field-level validation message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

const defaultSubscription = "starter"

type LoginResult struct {
	Token string
	User  domain.UserSummary
}

type UserServiceInterface interface {
	Signup(ctx context.Context, email, password string) (*domain.UserSummary, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Verify(ctx context.Context, token string) error
	ReVerify(ctx context.Context, email string) error
	Logout(ctx context.Context, userID uint) error
	Current(ctx context.Context, userID uint) (*domain.UserSummary, error)
}

type UserService struct {
	repo       repository.UserRepository
	jwtMgr     *security.JWTManager
	notifier   EmailVerificationNotifier
	logger     *slog.Logger
	sessionTTL time.Duration
	baseURL    string
}

func NewUserService(
	repo repository.UserRepository,
	jwtMgr *security.JWTManager,
	notifier EmailVerificationNotifier,
	logger *slog.Logger,
	sessionTTL time.Duration,
	baseURL string,
) *UserService {
	return &UserService{
		repo:       repo,
		jwtMgr:     jwtMgr,
		notifier:   notifier,
		logger:     logger,
		sessionTTL: sessionTTL,
		baseURL:    baseURL,
	}
}

func validateCredentials(email, password string) error {
	errs := validation.Errors{
		"email":    validation.Validate(email, validation.Required, is.Email),
		"password": validation.Validate(password, validation.Required),
	}
	if err := errs.Filter(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

func (s *UserService) Signup(ctx context.Context, email, password string) (*domain.UserSummary, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:             email,
		PasswordHash:      hash,
		AvatarURL:         security.GravatarURL(email),
		Subscription:      defaultSubscription,
		VerificationToken: uuid.New().String(),
		Verified:          false,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	s.sendVerification(ctx, user.Email, user.VerificationToken)

	summary := user.Summary()
	return &summary, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !user.Verified {
		return nil, ErrEmailNotVerified
	}
	if err := security.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, security.ErrMismatchedPassword) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	token, err := s.jwtMgr.SignSessionToken(user.ID, user.Email, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := s.repo.SetSessionToken(user.ID, &token); err != nil {
		return nil, err
	}

	return &LoginResult{
		Token: token,
		User: domain.UserSummary{
			Email:        user.Email,
			Subscription: user.Subscription,
		},
	}, nil
}

func (s *UserService) Verify(ctx context.Context, token string) error {
	return s.repo.MarkVerified(token)
}

func (s *UserService) ReVerify(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(email)
	if err != nil {
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}
	// re-send the stored token; it is never rotated
	s.sendVerification(ctx, user.Email, user.VerificationToken)
	return nil
}

func (s *UserService) Logout(ctx context.Context, userID uint) error {
	return s.repo.SetSessionToken(userID, nil)
}

func (s *UserService) Current(ctx context.Context, userID uint) (*domain.UserSummary, error) {
	user, err := s.repo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	return &domain.UserSummary{
		Email:        user.Email,
		Subscription: user.Subscription,
	}, nil
}

// sendVerification delivers the verification link best-effort: failures are
// logged, never surfaced to the caller.
func (s *UserService) sendVerification(ctx context.Context, email, token string) {
	notification := VerificationNotification{
		Email:           email,
		Token:           token,
		VerificationURL: fmt.Sprintf("%s/api/users/verify/%s", s.baseURL, token),
	}
	if err := s.notifier.SendEmailVerification(ctx, notification); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email",
			"email", email,
			"error", err.Error(),
		)
	}
}
