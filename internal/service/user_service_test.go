package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"user-account-service/internal/domain"
	"user-account-service/internal/repository"
	"user-account-service/internal/security"
)

type stubUserRepository struct {
	createFn          func(*domain.User) error
	findByIDFn        func(id uint) (*domain.User, error)
	findByEmailFn     func(email string) (*domain.User, error)
	findByTokenFn     func(token string) (*domain.User, error)
	markVerifiedFn    func(token string) error
	setSessionTokenFn func(id uint, token *string) error
	setAvatarURLFn    func(id uint, avatarURL string) error
}

func (s *stubUserRepository) Create(u *domain.User) error {
	if s.createFn == nil {
		return errors.New("not implemented")
	}
	return s.createFn(u)
}

func (s *stubUserRepository) FindByID(id uint) (*domain.User, error) {
	if s.findByIDFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findByIDFn(id)
}

func (s *stubUserRepository) FindByEmail(email string) (*domain.User, error) {
	if s.findByEmailFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findByEmailFn(email)
}

func (s *stubUserRepository) FindByVerificationToken(token string) (*domain.User, error) {
	if s.findByTokenFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findByTokenFn(token)
}

func (s *stubUserRepository) MarkVerified(token string) error {
	if s.markVerifiedFn == nil {
		return errors.New("not implemented")
	}
	return s.markVerifiedFn(token)
}

func (s *stubUserRepository) SetSessionToken(id uint, token *string) error {
	if s.setSessionTokenFn == nil {
		return errors.New("not implemented")
	}
	return s.setSessionTokenFn(id, token)
}

func (s *stubUserRepository) SetAvatarURL(id uint, avatarURL string) error {
	if s.setAvatarURLFn == nil {
		return errors.New("not implemented")
	}
	return s.setAvatarURLFn(id, avatarURL)
}

type recordingNotifier struct {
	sent []VerificationNotification
	err  error
}

func (n *recordingNotifier) SendEmailVerification(_ context.Context, notification VerificationNotification) error {
	n.sent = append(n.sent, notification)
	return n.err
}

func newTestUserService(repo repository.UserRepository, notifier EmailVerificationNotifier) *UserService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtMgr := security.NewJWTManager("iss", "abcdefghijklmnopqrstuvwxyz123456")
	return NewUserService(repo, jwtMgr, notifier, logger, time.Hour, "http://localhost:8080")
}

func TestSignupCreatesUnverifiedUserAndSendsEmail(t *testing.T) {
	var created *domain.User
	repo := &stubUserRepository{
		createFn: func(u *domain.User) error {
			u.ID = 1
			created = u
			return nil
		},
	}
	notifier := &recordingNotifier{}
	svc := newTestUserService(repo, notifier)

	summary, err := svc.Signup(context.Background(), "a@x.com", "pw1")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if created == nil {
		t.Fatal("expected user to be created")
	}
	if created.Verified {
		t.Fatal("expected new user to be unverified")
	}
	if created.VerificationToken == "" {
		t.Fatal("expected a verification token to be issued")
	}
	if created.PasswordHash == "pw1" || created.PasswordHash == "" {
		t.Fatal("expected password to be hashed")
	}
	if err := security.ComparePasswordAndHash("pw1", created.PasswordHash); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !strings.HasPrefix(created.AvatarURL, "https://www.gravatar.com/avatar/") {
		t.Fatalf("expected gravatar-derived avatar url, got %q", created.AvatarURL)
	}
	if summary.Email != "a@x.com" || summary.Subscription != "starter" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one verification email, got %d", len(notifier.sent))
	}
	if notifier.sent[0].Token != created.VerificationToken {
		t.Fatal("notifier received a different token than the stored one")
	}
	wantLink := "http://localhost:8080/api/users/verify/" + created.VerificationToken
	if notifier.sent[0].VerificationURL != wantLink {
		t.Fatalf("unexpected verification link: %q", notifier.sent[0].VerificationURL)
	}
}

func TestSignupValidatesInputBeforeCreating(t *testing.T) {
	repo := &stubUserRepository{
		createFn: func(*domain.User) error {
			t.Fatal("create must not be called on validation failure")
			return nil
		},
	}
	svc := newTestUserService(repo, &recordingNotifier{})

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"invalid email", "not-an-email", "pw1"},
		{"empty email", "", "pw1"},
		{"empty password", "a@x.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.email, tc.password)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Message == "" {
				t.Fatal("expected a field-level message")
			}
		})
	}
}

func TestSignupDuplicateEmailReturnsConflict(t *testing.T) {
	repo := &stubUserRepository{
		createFn: func(*domain.User) error { return repository.ErrEmailTaken },
	}
	svc := newTestUserService(repo, &recordingNotifier{})

	_, err := svc.Signup(context.Background(), "dup@x.com", "pw1")
	if !errors.Is(err, repository.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupSwallowsEmailFailure(t *testing.T) {
	repo := &stubUserRepository{
		createFn: func(u *domain.User) error {
			u.ID = 1
			return nil
		},
	}
	notifier := &recordingNotifier{err: ErrFailedToSendEmail}
	svc := newTestUserService(repo, notifier)

	if _, err := svc.Signup(context.Background(), "a@x.com", "pw1"); err != nil {
		t.Fatalf("expected signup to succeed despite email failure, got %v", err)
	}
}

func TestLoginChecksExistenceThenVerificationThenPassword(t *testing.T) {
	hash, err := security.HashPassword("pw1")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("unknown user", func(t *testing.T) {
		repo := &stubUserRepository{
			findByEmailFn: func(string) (*domain.User, error) { return nil, repository.ErrUserNotFound },
		}
		svc := newTestUserService(repo, &recordingNotifier{})
		_, err := svc.Login(context.Background(), "ghost@x.com", "pw1")
		if !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("expected ErrBadCredentials, got %v", err)
		}
	})

	t.Run("unverified user", func(t *testing.T) {
		repo := &stubUserRepository{
			findByEmailFn: func(string) (*domain.User, error) {
				return &domain.User{ID: 1, Email: "a@x.com", PasswordHash: hash, Verified: false}, nil
			},
		}
		svc := newTestUserService(repo, &recordingNotifier{})
		_, err := svc.Login(context.Background(), "a@x.com", "pw1")
		if !errors.Is(err, ErrEmailNotVerified) {
			t.Fatalf("expected ErrEmailNotVerified, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := &stubUserRepository{
			findByEmailFn: func(string) (*domain.User, error) {
				return &domain.User{ID: 1, Email: "a@x.com", PasswordHash: hash, Verified: true}, nil
			},
		}
		svc := newTestUserService(repo, &recordingNotifier{})
		_, err := svc.Login(context.Background(), "a@x.com", "nope")
		if !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("expected ErrBadCredentials, got %v", err)
		}
	})
}

func TestLoginIssuesAndPersistsSessionToken(t *testing.T) {
	hash, err := security.HashPassword("pw1")
	if err != nil {
		t.Fatal(err)
	}
	var stored *string
	repo := &stubUserRepository{
		findByEmailFn: func(string) (*domain.User, error) {
			return &domain.User{ID: 42, Email: "a@x.com", PasswordHash: hash, Subscription: "starter", Verified: true}, nil
		},
		setSessionTokenFn: func(id uint, token *string) error {
			if id != 42 {
				t.Fatalf("unexpected user id %d", id)
			}
			stored = token
			return nil
		},
	}
	svc := newTestUserService(repo, &recordingNotifier{})

	res, err := svc.Login(context.Background(), "a@x.com", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if stored == nil || *stored != res.Token {
		t.Fatal("expected issued token to be persisted verbatim")
	}
	if res.User.Email != "a@x.com" || res.User.Subscription != "starter" {
		t.Fatalf("unexpected user summary: %+v", res.User)
	}

	claims, err := security.NewJWTManager("iss", "abcdefghijklmnopqrstuvwxyz123456").ParseSessionToken(res.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != "42" || claims.Email != "a@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestReVerify(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		repo := &stubUserRepository{
			findByEmailFn: func(string) (*domain.User, error) { return nil, repository.ErrUserNotFound },
		}
		svc := newTestUserService(repo, &recordingNotifier{})
		if err := svc.ReVerify(context.Background(), "ghost@x.com"); !errors.Is(err, repository.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("already verified sends nothing", func(t *testing.T) {
		repo := &stubUserRepository{
			findByEmailFn: func(string) (*domain.User, error) {
				return &domain.User{ID: 1, Email: "a@x.com", Verified: true}, nil
			},
		}
		notifier := &recordingNotifier{}
		svc := newTestUserService(repo, notifier)
		if err := svc.ReVerify(context.Background(), "a@x.com"); !errors.Is(err, ErrAlreadyVerified) {
			t.Fatalf("expected ErrAlreadyVerified, got %v", err)
		}
		if len(notifier.sent) != 0 {
			t.Fatalf("expected no email, got %d", len(notifier.sent))
		}
	})

	t.Run("resends existing token", func(t *testing.T) {
		repo := &stubUserRepository{
			findByEmailFn: func(string) (*domain.User, error) {
				return &domain.User{ID: 1, Email: "a@x.com", VerificationToken: "stored-token"}, nil
			},
		}
		notifier := &recordingNotifier{}
		svc := newTestUserService(repo, notifier)
		if err := svc.ReVerify(context.Background(), "a@x.com"); err != nil {
			t.Fatalf("reverify: %v", err)
		}
		if len(notifier.sent) != 1 || notifier.sent[0].Token != "stored-token" {
			t.Fatalf("expected existing token to be re-sent, got %+v", notifier.sent)
		}
	})
}

func TestVerifyDelegatesToRepository(t *testing.T) {
	var redeemed string
	repo := &stubUserRepository{
		markVerifiedFn: func(token string) error {
			redeemed = token
			return nil
		},
	}
	svc := newTestUserService(repo, &recordingNotifier{})
	if err := svc.Verify(context.Background(), "tok"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if redeemed != "tok" {
		t.Fatalf("unexpected redeemed token %q", redeemed)
	}
}

func TestLogoutClearsSessionToken(t *testing.T) {
	cleared := false
	repo := &stubUserRepository{
		setSessionTokenFn: func(id uint, token *string) error {
			if id != 7 || token != nil {
				t.Fatalf("unexpected args id=%d token=%v", id, token)
			}
			cleared = true
			return nil
		},
	}
	svc := newTestUserService(repo, &recordingNotifier{})
	if err := svc.Logout(context.Background(), 7); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !cleared {
		t.Fatal("expected session token to be cleared")
	}
}

func TestCurrentReturnsSanitizedSummary(t *testing.T) {
	repo := &stubUserRepository{
		findByIDFn: func(id uint) (*domain.User, error) {
			if id != 7 {
				t.Fatalf("unexpected id %d", id)
			}
			return &domain.User{ID: 7, Email: "a@x.com", Subscription: "starter", PasswordHash: "secret"}, nil
		},
	}
	svc := newTestUserService(repo, &recordingNotifier{})
	summary, err := svc.Current(context.Background(), 7)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if summary.Email != "a@x.com" || summary.Subscription != "starter" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
