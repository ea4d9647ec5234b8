package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stevuth/rewardspeak-sub000/internal/offers"
)

// ErrOfferNotFound is returned by SetDisabled for an unknown offer_id.
var ErrOfferNotFound = errors.New("postgres: offer not found")

// OfferStore persists the canonical offer catalog.
type OfferStore struct {
	db *DB
}

func NewOfferStore(db *DB) *OfferStore { return &OfferStore{db: db} }

// upsert column order; must match the placeholder builder below.
var offerCols = []string{
	"offer_id", "name", "description", "click_url", "image_url", "network",
	"payout", "countries", "platforms", "devices", "categories", "events",
}

// UpsertBatch merges one chunk of offers keyed on offer_id. On conflict only
// the catalog columns are overwritten: is_disabled and created_at are left
// untouched so an admin-set disable and the original insert ordering survive
// every sync.
func (s *OfferStore) UpsertBatch(ctx context.Context, items []offers.Offer) error {
	if len(items) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*len(offerCols))

	argi := 1
	for _, o := range items {
		ph := make([]string, 0, len(offerCols))
		push := func(v any, cast string) {
			args = append(args, v)
			ph = append(ph, fmt.Sprintf("$%d%s", argi, cast))
			argi++
		}

		push(o.OfferID, "")
		push(o.Name, "")
		push(o.Description, "")
		push(o.ClickURL, "")
		push(o.ImageURL, "")
		push(o.Network, "")
		push(o.Payout, "")
		push(jsonArg(o.Countries), "::jsonb")
		push(jsonArg(o.Platforms), "::jsonb")
		push(jsonArg(o.Devices), "::jsonb")
		push(jsonArg(o.Categories), "::jsonb")
		push(jsonArg(o.Events), "::jsonb")

		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sql := "INSERT INTO all_offers (" + strings.Join(offerCols, ",") + ") VALUES " +
		strings.Join(placeholders, ",") +
		` ON CONFLICT (offer_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			click_url = EXCLUDED.click_url,
			image_url = EXCLUDED.image_url,
			network = EXCLUDED.network,
			payout = EXCLUDED.payout,
			countries = EXCLUDED.countries,
			platforms = EXCLUDED.platforms,
			devices = EXCLUDED.devices,
			categories = EXCLUDED.categories,
			events = EXCLUDED.events,
			last_synced_at = now()`

	if _, err := s.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert offers: %w", err)
	}
	return nil
}

// SetDisabled flips the admin disable flag for one offer, independent of sync.
func (s *OfferStore) SetDisabled(ctx context.Context, offerID string, disabled bool) error {
	ct, err := s.db.Pool.Exec(ctx,
		"UPDATE all_offers SET is_disabled=$2 WHERE offer_id=$1", offerID, disabled)
	if err != nil {
		return fmt.Errorf("set disabled: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrOfferNotFound
	}
	return nil
}

// Count returns the catalog size; used by the admin surface.
func (s *OfferStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.Pool.QueryRow(ctx, "SELECT COUNT(*)::bigint FROM all_offers").Scan(&n); err != nil {
		return 0, fmt.Errorf("count offers: %w", err)
	}
	return n, nil
}

// jsonArg marshals list/struct columns to a jsonb parameter. Empty slices
// serialize as [] rather than NULL so the column is never null.
func jsonArg(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
