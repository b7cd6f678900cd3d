package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/google/uuid"
)

// Kicker asks the synchronizer for a sync cycle without waiting for it.
type Kicker interface {
	Kick()
}

type nopKicker struct{}

func (nopKicker) Kick() {}

// clock and id generation are swapped in tests.
var (
	now   = func() time.Time { return time.Now().UTC() }
	newID = uuid.NewString
)

func orNop(k Kicker) Kicker {
	if k == nil {
		return nopKicker{}
	}
	return k
}

// enqueue serializes v as the mutation payload for record id.
func enqueue(ctx context.Context, r store.Repos, collection string, op models.Op, id string, v any, at time.Time) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", collection, err)
	}
	_, err = r.Queue.Enqueue(ctx, collection, op, id, payload, at)
	return err
}
