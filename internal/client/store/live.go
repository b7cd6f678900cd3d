package store

import "context"

// Snapshot is one result of a live query.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Live runs query now and again after every committed write touching
// collections, sending each result on the returned channel. The channel is
// closed when ctx is done.
func Live[T any](ctx context.Context, s *Store, query func(ctx context.Context, r Repos) (T, error), collections ...string) <-chan Snapshot[T] {
	out := make(chan Snapshot[T])
	changes, cancel := s.hub.Subscribe(collections...)

	go func() {
		defer close(out)
		defer cancel()

		for {
			v, err := query(ctx, s.Read())
			select {
			case out <- Snapshot[T]{Value: v, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
