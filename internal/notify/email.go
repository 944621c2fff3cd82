package notify

import (
	"context"
	"fmt"
	"strconv"

	gopkgmail "gopkg.in/gomail.v2"

	"github.com/grishakov/marketplace/internal/config"
	"github.com/grishakov/marketplace/internal/models"
)

type EmailNotifier struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	port, err := strconv.Atoi(cfg.SMTP_PORT)
	if err != nil {
		port = 465
	}
	return &EmailNotifier{
		host:     cfg.SMTP_HOST,
		port:     port,
		user:     cfg.SMTP_USER,
		password: cfg.SMTP_PASSWORD,
		from:     cfg.SMTP_FROM,
	}
}

func (s *EmailNotifier) send(to, subject, body string) error {
	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gopkgmail.NewDialer(s.host, s.port, s.user, s.password)
	d.SSL = true
	return d.DialAndSend(m)
}

func (s *EmailNotifier) AccountCreated(_ context.Context, user *models.User, token string) error {
	subject := fmt.Sprintf("Confirmation token for %s", user.Email)
	return s.send(user.Email, subject, token)
}

func (s *EmailNotifier) PasswordReset(_ context.Context, user *models.User, token string) error {
	subject := fmt.Sprintf("Password reset token for %s", user.Email)
	return s.send(user.Email, subject, token)
}

func (s *EmailNotifier) OrderPlaced(_ context.Context, user *models.User, order *models.Order) error {
	subject := fmt.Sprintf("Order #%d accepted", order.ID)
	body := fmt.Sprintf("Your order #%d has been placed and is being processed.", order.ID)
	return s.send(user.Email, subject, body)
}

func (s *EmailNotifier) OrderStatusChanged(_ context.Context, user *models.User, order *models.Order) error {
	subject := fmt.Sprintf("Order #%d status update", order.ID)
	body := fmt.Sprintf("Your order #%d is now %q.", order.ID, order.Status)
	return s.send(user.Email, subject, body)
}
