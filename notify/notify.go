// Package notify fans order lifecycle events out to customers and to other systems.
package notify

import (
	"context"
	"errors"

	"go-storefront/models"
)

// Notifier receives order events after the write that caused them succeeded.
type Notifier interface {
	Notify(ctx context.Context, event models.OrderEvent) error
}

// Multi delivers every event to each notifier in turn. One failing
// notifier does not stop the others; their errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event models.OrderEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
