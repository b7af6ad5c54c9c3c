// Package ledger persists subscriptions and download records. Credit
// consumption happens inside the ledger so the per-plan allowance can be
// enforced in a single guarded UPDATE.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/open-rails/downloadkit/subscription"
)

// ErrNoCredit is returned when a consume would exceed the plan allowance.
var ErrNoCredit = errors.New("ledger: no remaining credit")

// DownloadRecord is one row of the download history.
type DownloadRecord struct {
	ID             uuid.UUID
	UserID         string
	AssetID        string
	SubscriptionID string
	IsFree         bool
	CreatedAt      time.Time
}

// Store provides subscription and download-record persistence.
type Store struct {
	pg     *pgxpool.Pool
	schema string
}

func NewStore(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "ledger"
	}
	return &Store{pg: pg, schema: s}
}

func (s *Store) subsTable() string      { return s.schema + ".subscriptions" }
func (s *Store) downloadsTable() string { return s.schema + ".downloads" }

// GetActiveSubscription returns the user's ACTIVE, unexpired subscription or
// nil when there is none. At most one such row exists per user.
func (s *Store) GetActiveSubscription(ctx context.Context, userID string) (*subscription.UserSubscription, error) {
	if s.pg == nil || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	var sub subscription.UserSubscription
	err := s.pg.QueryRow(ctx,
		`SELECT id, user_id, plan_id, status, starts_at, ends_at, standard_used, premium_used
		   FROM `+s.subsTable()+`
		  WHERE user_id=$1 AND status=$2 AND ends_at > NOW()
		  ORDER BY starts_at DESC LIMIT 1`, userID, subscription.StatusActive).
		Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.StartsAt, &sub.EndsAt,
			&sub.StandardUsed, &sub.PremiumUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscription returns a subscription by id or nil when it does not exist.
func (s *Store) GetSubscription(ctx context.Context, id string) (*subscription.UserSubscription, error) {
	if s.pg == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var sub subscription.UserSubscription
	err := s.pg.QueryRow(ctx,
		`SELECT id, user_id, plan_id, status, starts_at, ends_at, standard_used, premium_used
		   FROM `+s.subsTable()+` WHERE id=$1 LIMIT 1`, id).
		Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.StartsAt, &sub.EndsAt,
			&sub.StandardUsed, &sub.PremiumUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ActivatePlan cancels any ACTIVE subscription the user holds and starts a
// fresh one on the given plan, preserving the one-active-per-user invariant
// inside a single transaction.
func (s *Store) ActivatePlan(ctx context.Context, userID string, plan subscription.Plan, now time.Time) (*subscription.UserSubscription, error) {
	if s.pg == nil {
		return nil, errors.New("ledger: no database")
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(plan.ID) == "" {
		return nil, errors.New("ledger: user id and plan id required")
	}
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE `+s.subsTable()+` SET status=$2, updated_at=NOW() WHERE user_id=$1 AND status=$3`,
		userID, subscription.StatusCancelled, subscription.StatusActive); err != nil {
		return nil, err
	}

	sub := subscription.UserSubscription{
		ID:       uuid.NewString(),
		UserID:   userID,
		PlanID:   plan.ID,
		Status:   subscription.StatusActive,
		StartsAt: now,
		EndsAt:   now.AddDate(0, 0, plan.DurationDays),
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO `+s.subsTable()+`
		   (id, user_id, plan_id, status, starts_at, ends_at, standard_used, premium_used)
		 VALUES ($1,$2,$3,$4,$5,$6,0,0)`,
		sub.ID, sub.UserID, sub.PlanID, sub.Status, sub.StartsAt, sub.EndsAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription flips one subscription to CANCELLED.
func (s *Store) CancelSubscription(ctx context.Context, id string) error {
	if s.pg == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	_, err := s.pg.Exec(ctx,
		`UPDATE `+s.subsTable()+` SET status=$2, updated_at=NOW() WHERE id=$1`,
		id, subscription.StatusCancelled)
	return err
}

// ConsumeCredit increments the subscription's premium or standard counter,
// guarded by the plan allowance so concurrent consumers never overshoot.
// Returns ErrNoCredit when nothing was left to consume.
func (s *Store) ConsumeCredit(ctx context.Context, subID string, premium bool, limit int) error {
	if s.pg == nil || strings.TrimSpace(subID) == "" {
		return errors.New("ledger: subscription id required")
	}
	col := "standard_used"
	if premium {
		col = "premium_used"
	}
	tag, err := s.pg.Exec(ctx,
		`UPDATE `+s.subsTable()+` SET `+col+` = `+col+` + 1, updated_at=NOW()
		  WHERE id=$1 AND status=$2 AND ends_at > NOW() AND `+col+` < $3`,
		subID, subscription.StatusActive, limit)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoCredit
	}
	return nil
}

// InsertDownload appends one row to the download history.
func (s *Store) InsertDownload(ctx context.Context, rec DownloadRecord) (DownloadRecord, error) {
	if s.pg == nil {
		return rec, errors.New("ledger: no database")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var subID *string
	if rec.SubscriptionID != "" {
		subID = &rec.SubscriptionID
	}
	_, err := s.pg.Exec(ctx,
		`INSERT INTO `+s.downloadsTable()+`
		   (id, user_id, asset_id, subscription_id, is_free, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, rec.UserID, rec.AssetID, subID, rec.IsFree, rec.CreatedAt)
	return rec, err
}

// CountDownloadsSince counts the user's recorded downloads at or after the
// cutoff. Backs the ledger-derived daily counter.
func (s *Store) CountDownloadsSince(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	if s.pg == nil || strings.TrimSpace(userID) == "" {
		return 0, nil
	}
	var n int
	err := s.pg.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+s.downloadsTable()+` WHERE user_id=$1 AND created_at >= $2`,
		userID, cutoff).Scan(&n)
	return n, err
}

// ExpireDue cancels every ACTIVE subscription whose period has ended and
// returns the number of rows flipped. Run nightly.
func (s *Store) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	if s.pg == nil {
		return 0, nil
	}
	tag, err := s.pg.Exec(ctx,
		`UPDATE `+s.subsTable()+` SET status=$1, updated_at=NOW() WHERE status=$2 AND ends_at <= $3`,
		subscription.StatusCancelled, subscription.StatusActive, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
