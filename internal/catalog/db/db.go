package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"venue-cms/internal/catalog"
	"venue-cms/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed"))
}

// ---------------- SHOWS ----------------

// InsertShow writes the show and its tiers in one transaction.
func (d *DB) InsertShow(ctx context.Context, show *models.Show) error {
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(show).Exec(ctx); err != nil {
			return err
		}
		if len(show.TicketTiers) > 0 {
			if _, err := tx.NewInsert().Model(&show.TicketTiers).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return catalog.ErrSlugExists
	}
	return err
}

func (d *DB) GetShowByID(ctx context.Context, id string) (*models.Show, error) {
	var show models.Show
	err := d.Bun.NewSelect().
		Model(&show).
		Relation("TicketTiers", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("show.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &show, nil
}

func (d *DB) GetShowBySlug(ctx context.Context, slug string) (*models.Show, error) {
	var show models.Show
	err := d.Bun.NewSelect().
		Model(&show).
		Relation("TicketTiers", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("show.slug = ?", slug).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &show, nil
}

func (d *DB) ListShows(ctx context.Context, publicOnly bool) ([]models.Show, error) {
	var shows []models.Show
	q := d.Bun.NewSelect().
		Model(&shows).
		Relation("TicketTiers", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Order("date ASC")
	if publicOnly {
		q = q.Where("published = ?", true).Where("archived = ?", false)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return shows, nil
}

// UpdateShow replaces the show row and its full tier set in one transaction.
func (d *DB) UpdateShow(ctx context.Context, show *models.Show) error {
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(show).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return catalog.ErrNotFound
		}
		if _, err := tx.NewDelete().
			Model((*models.TicketTier)(nil)).
			Where("show_id = ?", show.ID).
			Exec(ctx); err != nil {
			return err
		}
		if len(show.TicketTiers) > 0 {
			if _, err := tx.NewInsert().Model(&show.TicketTiers).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return catalog.ErrSlugExists
	}
	return err
}

func (d *DB) DeleteShow(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.TicketTier)(nil)).
			Where("show_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Show)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return catalog.ErrNotFound
		}
		return nil
	})
}

// ---------------- PAGES ----------------

func (d *DB) InsertPage(ctx context.Context, page *models.Page) error {
	_, err := d.Bun.NewInsert().Model(page).Exec(ctx)
	if isUniqueViolation(err) {
		return catalog.ErrSlugExists
	}
	return err
}

func (d *DB) GetPageByID(ctx context.Context, id string) (*models.Page, error) {
	var page models.Page
	err := d.Bun.NewSelect().
		Model(&page).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (d *DB) GetPageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	err := d.Bun.NewSelect().
		Model(&page).
		Where("slug = ?", slug).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (d *DB) ListPages(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	err := d.Bun.NewSelect().
		Model(&pages).
		Order("slug ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func (d *DB) UpdatePage(ctx context.Context, page *models.Page) error {
	res, err := d.Bun.NewUpdate().Model(page).WherePK().Exec(ctx)
	if isUniqueViolation(err) {
		return catalog.ErrSlugExists
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (d *DB) DeletePage(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Page)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// ---------------- SETTINGS ----------------

func (d *DB) GetSettings(ctx context.Context) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	err := d.Bun.NewSelect().
		Model(&settings).
		Where("id = ?", models.SiteSettingsID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (d *DB) UpsertSettings(ctx context.Context, settings *models.SiteSettings) error {
	_, err := d.Bun.NewInsert().
		Model(settings).
		On("CONFLICT (id) DO UPDATE").
		Set("site_title = EXCLUDED.site_title").
		Set("contact_email = EXCLUDED.contact_email").
		Set("contact_phone = EXCLUDED.contact_phone").
		Set("address = EXCLUDED.address").
		Set("footer_text = EXCLUDED.footer_text").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// ---------------- FAQ ----------------

func (d *DB) InsertFAQ(ctx context.Context, item *models.FAQItem) error {
	_, err := d.Bun.NewInsert().Model(item).Exec(ctx)
	return err
}

func (d *DB) GetFAQByID(ctx context.Context, id string) (*models.FAQItem, error) {
	var item models.FAQItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) ListFAQ(ctx context.Context, publicOnly bool) ([]models.FAQItem, error) {
	var items []models.FAQItem
	q := d.Bun.NewSelect().
		Model(&items).
		Order("position ASC")
	if publicOnly {
		q = q.Where("published = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) UpdateFAQ(ctx context.Context, item *models.FAQItem) error {
	res, err := d.Bun.NewUpdate().Model(item).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (d *DB) DeleteFAQ(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.FAQItem)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
