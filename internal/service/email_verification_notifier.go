package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrz1836/postmark"
)

var ErrFailedToSendEmail = errors.New("failed to send verification email")

type VerificationNotification struct {
	Email           string
	Token           string
	VerificationURL string
}

type EmailVerificationNotifier interface {
	SendEmailVerification(ctx context.Context, notification VerificationNotification) error
}

// DevEmailVerificationNotifier logs the verification link instead of sending
// it, for local development.
type DevEmailVerificationNotifier struct {
	logger *slog.Logger
}

func NewDevEmailVerificationNotifier(logger *slog.Logger) *DevEmailVerificationNotifier {
	return &DevEmailVerificationNotifier{logger: logger}
}

func (n *DevEmailVerificationNotifier) SendEmailVerification(ctx context.Context, notification VerificationNotification) error {
	link := notification.VerificationURL
	if strings.TrimSpace(link) == "" {
		link = fmt.Sprintf("token=%s", notification.Token)
	}
	n.logger.InfoContext(ctx, "email verification token issued",
		"email", notification.Email,
		"verification", link,
	)
	return nil
}

// PostmarkEmailVerificationNotifier delivers the verification link through
// Postmark's transactional API.
type PostmarkEmailVerificationNotifier struct {
	client *postmark.Client
	sender string
}

func NewPostmarkEmailVerificationNotifier(serverToken, accountToken, sender string) (*PostmarkEmailVerificationNotifier, error) {
	if serverToken == "" {
		return nil, fmt.Errorf("postmark server token is required")
	}
	if sender == "" {
		return nil, fmt.Errorf("sender email is required")
	}
	return &PostmarkEmailVerificationNotifier{
		client: postmark.NewClient(serverToken, accountToken),
		sender: sender,
	}, nil
}

func (n *PostmarkEmailVerificationNotifier) SendEmailVerification(ctx context.Context, notification VerificationNotification) error {
	resp, err := n.client.SendEmail(ctx, postmark.Email{
		From:     n.sender,
		To:       notification.Email,
		Subject:  "Confirm your email, please",
		Tag:      "email-verification",
		HTMLBody: fmt.Sprintf(`<a href=%q>Click here to verify your email</a>`, notification.VerificationURL),
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("%w: postmark error %d: %s", ErrFailedToSendEmail, resp.ErrorCode, resp.Message)
	}
	return nil
}
