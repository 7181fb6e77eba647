package application

import (
	"context"
	"errors"

	"event-panel/internal/domain"
)

type Notifier interface {
	Notify(ctx context.Context, toast domain.Toast) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ domain.Toast) error {
	return nil
}

// MultiNotifier shows the same toast on every surface. A failing surface
// does not stop delivery to the others.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, toast domain.Toast) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, toast); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
