package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"
)

// EmailNotifier mails the customer who owns the order.
type EmailNotifier struct {
	mailer   utils.Mailer
	accounts store.AccountStore
	users    store.UserStore
}

func NewEmailNotifier(mailer utils.Mailer, accounts store.AccountStore, users store.UserStore) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, accounts: accounts, users: users}
}

func (n *EmailNotifier) Notify(ctx context.Context, event models.OrderEvent) error {
	to, err := n.recipient(ctx, event.Order.UserID)
	if err != nil {
		return err
	}
	if to == "" {
		return nil
	}
	msg, ok := composeEmail(event)
	if !ok {
		return nil
	}
	msg.To = to
	if err := n.mailer.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("email %s for order %s: %w", event.Type, event.Order.ID.Hex(), err)
	}
	return nil
}

// recipient prefers the login email and falls back to the profile.
func (n *EmailNotifier) recipient(ctx context.Context, uid string) (string, error) {
	account, err := n.accounts.GetAccount(ctx, uid)
	if err == nil && account.Email != "" {
		return account.Email, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("look up account %s: %w", uid, err)
	}

	user, err := n.users.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up profile %s: %w", uid, err)
	}
	return user.Email, nil
}

func composeEmail(event models.OrderEvent) (utils.EmailMessage, bool) {
	order := event.Order
	ref := order.ID.Hex()

	var subject, body string
	switch event.Type {
	case models.EventOrderPlaced:
		subject = "Order received: " + ref
		body = fmt.Sprintf("Thanks for your order of %s. We will confirm once your UPI payment (ref %s) is verified.",
			order.TotalAmount.StringFixed(2), order.PaymentTxnID)
	case models.EventPaymentSubmitted:
		subject = "Payment reference received: " + ref
		body = fmt.Sprintf("We received UPI reference %s for order %s and will verify it shortly.", order.PaymentTxnID, ref)
	case models.EventStatusChanged:
		subject = "Order update: " + ref
		body = fmt.Sprintf("Your order %s is now %s.", ref, humanStatus(order.Status))
	default:
		return utils.EmailMessage{}, false
	}

	var items strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&items, "<li>%s x %d</li>", html.EscapeString(item.Name), item.Quantity)
	}
	return utils.EmailMessage{
		Subject: subject,
		Text:    body,
		HTML:    fmt.Sprintf("<p>%s</p><ul>%s</ul>", html.EscapeString(body), items.String()),
	}, true
}

func humanStatus(status models.OrderStatus) string {
	return strings.ToLower(strings.ReplaceAll(string(status), "_", " "))
}
