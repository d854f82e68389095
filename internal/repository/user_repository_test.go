package repository

import (
	"errors"
	"sync"
	"testing"

	"user-account-service/internal/domain"
)

func TestUserRepositoryCreateAndLookups(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	u := &domain.User{
		Email:             "alice@example.com",
		PasswordHash:      "hashed",
		AvatarURL:         "https://www.gravatar.com/avatar/abc",
		Subscription:      "starter",
		VerificationToken: "tok-alice",
	}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected assigned id")
	}

	byEmail, err := repo.FindByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.Verified {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	byToken, err := repo.FindByVerificationToken("tok-alice")
	if err != nil {
		t.Fatalf("find by verification token: %v", err)
	}
	if byToken.ID != u.ID {
		t.Fatalf("unexpected user: %+v", byToken)
	}

	if _, err := repo.FindByEmail("nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByVerificationToken(""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected blank token lookup to fail, got %v", err)
	}
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	if err := repo.Create(&domain.User{Email: "dup@example.com", PasswordHash: "h1", VerificationToken: "t1"}); err != nil {
		t.Fatalf("create first user: %v", err)
	}
	err := repo.Create(&domain.User{Email: "dup@example.com", PasswordHash: "h2", VerificationToken: "t2"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserRepositoryMarkVerifiedIsSingleUse(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	u := &domain.User{Email: "bob@example.com", PasswordHash: "h", VerificationToken: "tok-bob"}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := repo.MarkVerified("tok-bob"); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	verified, err := repo.FindByID(u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !verified.Verified || verified.VerificationToken != "" {
		t.Fatalf("expected verified with blank token, got %+v", verified)
	}

	if err := repo.MarkVerified("tok-bob"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected second redeem to fail, got %v", err)
	}
	// a blank token must never match the blanked column
	if err := repo.MarkVerified(""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected blank redeem to fail, got %v", err)
	}
}

func TestUserRepositoryMarkVerifiedConcurrent(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	u := &domain.User{Email: "carol@example.com", PasswordHash: "h", VerificationToken: "tok-carol"}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		idx := i
		go func() {
			defer wg.Done()
			errs[idx] = repo.MarkVerified("tok-carol")
		}()
	}
	wg.Wait()

	success := 0
	notFound := 0
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrUserNotFound):
			notFound++
		default:
			t.Fatalf("unexpected redeem error: %v", err)
		}
	}
	if success != 1 || notFound != 1 {
		t.Fatalf("expected one success and one not-found, got success=%d notFound=%d", success, notFound)
	}
}

func TestUserRepositorySessionTokenLifecycle(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	u := &domain.User{Email: "dave@example.com", PasswordHash: "h", VerificationToken: "tok-dave"}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	tok := "bearer-token-value"
	if err := repo.SetSessionToken(u.ID, &tok); err != nil {
		t.Fatalf("set session token: %v", err)
	}
	loaded, err := repo.FindByID(u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.SessionToken == nil || *loaded.SessionToken != tok {
		t.Fatalf("expected stored session token, got %+v", loaded.SessionToken)
	}

	if err := repo.SetSessionToken(u.ID, nil); err != nil {
		t.Fatalf("clear session token: %v", err)
	}
	loaded, err = repo.FindByID(u.ID)
	if err != nil {
		t.Fatalf("reload after clear: %v", err)
	}
	if loaded.SessionToken != nil {
		t.Fatalf("expected cleared session token, got %q", *loaded.SessionToken)
	}

	if err := repo.SetSessionToken(9999, &tok); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for missing user, got %v", err)
	}
}

func TestUserRepositorySetAvatarURL(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewUserRepository(db)

	u := &domain.User{Email: "eve@example.com", PasswordHash: "h", VerificationToken: "tok-eve"}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := repo.SetAvatarURL(u.ID, "avatars/1_photo.jpg"); err != nil {
		t.Fatalf("set avatar url: %v", err)
	}
	loaded, err := repo.FindByID(u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.AvatarURL != "avatars/1_photo.jpg" {
		t.Fatalf("unexpected avatar url: %q", loaded.AvatarURL)
	}
	if err := repo.SetAvatarURL(12345, "avatars/x.jpg"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
