package linking

import (
	"context"
	"fmt"

	"cottage/internal/pkg/contact"
	"cottage/internal/repository"
)

type ContactStore interface {
	ListContacts(ctx context.Context) ([]repository.ContactRow, error)
	SetContactNormalized(ctx context.Context, id, value string) error
}

type UserLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

type BackfillResult struct {
	Renormalized int
	Linked       int64
}

// Backfill recomputes every booking's normalized contact with n, then
// runs account linking for every user. It is safe to repeat, and is the
// way to migrate stored keys after the normalization rules change.
func (r *Resolver) Backfill(ctx context.Context, store ContactStore, users UserLister, n contact.Normalizer) (BackfillResult, error) {
	var res BackfillResult

	rows, err := store.ListContacts(ctx)
	if err != nil {
		return res, fmt.Errorf("list booking contacts: %w", err)
	}
	for _, row := range rows {
		want := n.NormalizeAny(row.Contact)
		if want == "" || want == row.ContactNormalized {
			continue
		}
		if err := store.SetContactNormalized(ctx, row.ID, want); err != nil {
			return res, fmt.Errorf("update booking %s: %w", row.ID, err)
		}
		r.log.Info("contact renormalized", "booking_id", row.ID, "from", row.ContactNormalized, "to", want)
		res.Renormalized++
	}

	ids, err := users.ListIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}
	for _, id := range ids {
		linked, err := r.LinkUser(ctx, id)
		if err != nil {
			return res, err
		}
		res.Linked += linked
	}
	return res, nil
}
