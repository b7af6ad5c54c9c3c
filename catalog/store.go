// Package catalog reads assets and plans from the catalog schema.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/open-rails/downloadkit/assets"
	"github.com/open-rails/downloadkit/subscription"
)

// Store provides asset and plan lookups against the catalog schema.
type Store struct {
	pg     *pgxpool.Pool
	schema string
}

func NewStore(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "catalog"
	}
	return &Store{pg: pg, schema: s}
}

func (s *Store) assetsTable() string { return s.schema + ".assets" }
func (s *Store) plansTable() string  { return s.schema + ".plans" }

// GetAsset returns the asset or nil when it does not exist.
func (s *Store) GetAsset(ctx context.Context, id string) (*assets.Asset, error) {
	if s.pg == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var a assets.Asset
	var src, mainFile, fileURL, thumb, preview *string
	err := s.pg.QueryRow(ctx,
		`SELECT id, title, tier, src, main_file, file_url, thumbnail_url, preview_url, views, downloads
		   FROM `+s.assetsTable()+` WHERE id=$1 LIMIT 1`, id).
		Scan(&a.ID, &a.Title, &a.Tier, &src, &mainFile, &fileURL, &thumb, &preview, &a.Views, &a.Downloads)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Src = deref(src)
	a.MainFile = deref(mainFile)
	a.FileURL = deref(fileURL)
	a.ThumbnailURL = deref(thumb)
	a.PreviewURL = deref(preview)
	return &a, nil
}

// ListPlans returns all purchasable plans, cheapest first.
func (s *Store) ListPlans(ctx context.Context) ([]subscription.Plan, error) {
	if s.pg == nil {
		return nil, nil
	}
	rows, err := s.pg.Query(ctx,
		`SELECT id, name, tier, price, standard_limit, premium_limit, duration_days
		   FROM `+s.plansTable()+` ORDER BY price ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []subscription.Plan
	for rows.Next() {
		var p subscription.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Tier, &p.Price, &p.StandardLimit, &p.PremiumLimit, &p.DurationDays); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPlan returns one plan or nil when it does not exist.
func (s *Store) GetPlan(ctx context.Context, id string) (*subscription.Plan, error) {
	if s.pg == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var p subscription.Plan
	err := s.pg.QueryRow(ctx,
		`SELECT id, name, tier, price, standard_limit, premium_limit, duration_days
		   FROM `+s.plansTable()+` WHERE id=$1 LIMIT 1`, id).
		Scan(&p.ID, &p.Name, &p.Tier, &p.Price, &p.StandardLimit, &p.PremiumLimit, &p.DurationDays)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IncrementDownloads bumps the asset's download counter.
func (s *Store) IncrementDownloads(ctx context.Context, id string) error {
	if s.pg == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	_, err := s.pg.Exec(ctx,
		`UPDATE `+s.assetsTable()+` SET downloads = downloads + 1, updated_at=NOW() WHERE id=$1`, id)
	return err
}

// IncrementViews bumps the asset's view counter.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	if s.pg == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	_, err := s.pg.Exec(ctx,
		`UPDATE `+s.assetsTable()+` SET views = views + 1, updated_at=NOW() WHERE id=$1`, id)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
