package usecase

import (
	"context"

	"hitrank/internal/domain/entity"
)

// Notifier pushes committed notifications to connected users. Delivery is
// best effort; the notification document is the source of truth.
type Notifier interface {
	Notify(notification *entity.Notification)
}

// PinViewCache is a read-through cache for pin views, invalidated after every
// committed mutation of the pin. Get returns a generation that Set must be
// given; Set drops the write if the pin was invalidated in between.
type PinViewCache interface {
	Get(ctx context.Context, pinID string, dst interface{}) (bool, int64, error)
	Set(ctx context.Context, pinID string, generation int64, view interface{}) error
	Invalidate(ctx context.Context, pinID string) error
}

// MediaVerifier checks that a challenger's media reference points at
// something that exists before the challenge is recorded.
type MediaVerifier interface {
	Verify(ctx context.Context, ref string) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(*entity.Notification) {}

type noopCache struct{}

func (noopCache) Get(context.Context, string, interface{}) (bool, int64, error) { return false, 0, nil }
func (noopCache) Set(context.Context, string, int64, interface{}) error         { return nil }
func (noopCache) Invalidate(context.Context, string) error                       { return nil }
