package db

import (
	"context"

	"github.com/uptrace/bun"

	"venue-cms/internal/models"
)

// DB is the append-only audit store. There is intentionally no update or
// delete path.
type DB struct {
	Bun *bun.DB
}

func (d *DB) InsertAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error {
	_, err := d.Bun.NewInsert().Model(entry).Exec(ctx)
	return err
}

func (d *DB) ListAuditEntries(ctx context.Context, limit, offset int) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	err := d.Bun.NewSelect().
		Model(&entries).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
