package postgres

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `seq, event_id, kind, campaign_id, actor, slot, amount, payload`

// Append adds an event. The insert only succeeds when Seq directly follows
// the highest stored Seq, so concurrent writers cannot leave gaps.
func (s *EventStore) Append(ctx context.Context, e *domain.Event) error {
	if e == nil || e.Seq == 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO launch_events (` + eventColumns + `)
		SELECT $1::bigint, $2::text, $3::text, $4::bigint, $5::text, $6::bigint, $7::numeric, $8::jsonb
		WHERE $1::bigint = (SELECT COALESCE(MAX(seq), 0) + 1 FROM launch_events)
	`

	var payload any
	if len(e.Payload) > 0 {
		payload = []byte(e.Payload)
	}

	tag, err := s.pool.Exec(ctx, query,
		int64(e.Seq),
		e.EventID,
		string(e.Kind),
		int64(e.CampaignID),
		e.Actor.String(),
		int64(e.Slot),
		bigToNumeric(e.Amount),
		payload,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert launch event: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	last, err := s.LastSeq(ctx)
	if err != nil {
		return err
	}
	if e.Seq <= last {
		return storage.ErrDuplicateKey
	}
	return fmt.Errorf("seq %d does not follow %d: %w", e.Seq, last, storage.ErrInvalidInput)
}

// GetRange retrieves events with Seq in [from, to]; to == 0 means no upper bound.
func (s *EventStore) GetRange(ctx context.Context, from, to uint64) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM launch_events
		WHERE seq >= $1::bigint AND ($2::bigint = 0 OR seq <= $2::bigint)
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, int64(from), int64(to))
	if err != nil {
		return nil, fmt.Errorf("get launch events by range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByCampaign retrieves all events of a campaign, ordered by Seq ASC.
func (s *EventStore) GetByCampaign(ctx context.Context, campaignID uint64) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM launch_events
		WHERE campaign_id = $1 AND kind <> $2
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, int64(campaignID), string(domain.EventAssetApproved))
	if err != nil {
		return nil, fmt.Errorf("get launch events by campaign: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// LastSeq returns the highest stored Seq, or 0 for an empty journal.
func (s *EventStore) LastSeq(ctx context.Context) (uint64, error) {
	var last int64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM launch_events`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return uint64(last), nil
}

// scanEvents scans multiple rows into a slice of Event.
func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event

	for rows.Next() {
		var (
			e                     domain.Event
			seq, campaignID, slot int64
			kind, actor           string
			amount                pgtype.Numeric
			payload               []byte
		)

		err := rows.Scan(&seq, &e.EventID, &kind, &campaignID, &actor, &slot, &amount, &payload)
		if err != nil {
			return nil, fmt.Errorf("scan launch event row: %w", err)
		}

		e.Seq = uint64(seq)
		e.Kind = domain.EventKind(kind)
		e.CampaignID = uint64(campaignID)
		e.Slot = uint64(slot)
		if e.Actor, err = domain.ParseAddress(actor); err != nil {
			return nil, fmt.Errorf("launch event %d actor: %w", seq, err)
		}
		if e.Amount, err = numericToBig(amount); err != nil {
			return nil, fmt.Errorf("launch event %d amount: %w", seq, err)
		}
		if len(payload) > 0 {
			e.Payload = payload
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launch event rows: %w", err)
	}

	return events, nil
}

// bigToNumeric converts an integer amount to a NUMERIC parameter; nil maps to NULL.
func bigToNumeric(v *big.Int) pgtype.Numeric {
	if v == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: new(big.Int).Set(v), Exp: 0, Valid: true}
}

// numericToBig converts a scanned NUMERIC back to an integer. NULL maps to nil.
func numericToBig(n pgtype.Numeric) (*big.Int, error) {
	if !n.Valid {
		return nil, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, fmt.Errorf("non-finite numeric: %w", storage.ErrInvalidInput)
	}

	v := new(big.Int).Set(n.Int)
	if n.Exp == 0 {
		return v, nil
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(n.Exp))), nil)
	if n.Exp > 0 {
		return v.Mul(v, scale), nil
	}

	q, r := new(big.Int).QuoRem(v, scale, new(big.Int))
	if r.Sign() != 0 {
		return nil, fmt.Errorf("fractional numeric: %w", storage.ErrInvalidInput)
	}
	return q, nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
