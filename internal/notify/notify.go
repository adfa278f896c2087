// Package notify delivers committed engine events to outside channels.
package notify

import (
	"context"
	"errors"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/service"
)

// Fanout publishes each event to every sink and reports all failures together.
type Fanout []service.EventPublisher

func (f Fanout) Publish(ctx context.Context, ev service.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
