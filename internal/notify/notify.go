package notify

import (
	"context"

	"github.com/grishakov/marketplace/internal/models"
)

// Notifier is the side-effect collaborator handlers call explicitly instead of
// relying on signal dispatch. Failures are reported, never fatal to a request.
type Notifier interface {
	AccountCreated(ctx context.Context, user *models.User, token string) error
	PasswordReset(ctx context.Context, user *models.User, token string) error
	OrderPlaced(ctx context.Context, user *models.User, order *models.Order) error
	OrderStatusChanged(ctx context.Context, user *models.User, order *models.Order) error
}

// Noop is used in tests and when SMTP is not configured.
type Noop struct{}

func (Noop) AccountCreated(context.Context, *models.User, string) error       { return nil }
func (Noop) PasswordReset(context.Context, *models.User, string) error        { return nil }
func (Noop) OrderPlaced(context.Context, *models.User, *models.Order) error   { return nil }
func (Noop) OrderStatusChanged(context.Context, *models.User, *models.Order) error {
	return nil
}
