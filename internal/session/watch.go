package session

import (
	"context"

	"motorhub/pkg/model"
)

type Handlers struct {
	OnSignedIn  func(model.Identity)
	OnSignedOut func()
}

// Watch dispatches state changes for identityID until ctx ends or the
// identity signs out. Handlers run on the calling goroutine and none runs
// after Watch returns. It returns nil after a sign-out and ctx.Err()
// otherwise.
func Watch(ctx context.Context, src Source, identityID string, h Handlers) error {
	updates := make(chan *model.Identity, 8)
	done := make(chan struct{})

	unsubscribe := src.Subscribe(identityID, func(identity *model.Identity) {
		select {
		case updates <- identity:
		case <-done:
		}
	})
	defer func() {
		close(done)
		unsubscribe()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case identity := <-updates:
			if identity == nil {
				if h.OnSignedOut != nil {
					h.OnSignedOut()
				}
				return nil
			}
			if h.OnSignedIn != nil {
				h.OnSignedIn(*identity)
			}
		}
	}
}
