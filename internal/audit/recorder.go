// Package audit appends an immutable log entry alongside every admin
// mutation and login/logout. Writes are best-effort and synchronous: a
// failed audit insert is logged as a warning and never fails or rolls back
// the primary mutation.
package audit

import (
	"context"
	"fmt"
	"time"

	"venue-cms/internal/logger"
	"venue-cms/internal/models"
	"venue-cms/internal/utils"
)

type Store interface {
	InsertAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error
	ListAuditEntries(ctx context.Context, limit, offset int) ([]models.AuditLogEntry, error)
}

type Service struct {
	Store  Store
	Logger *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{Store: store, Logger: log}
}

// Record fills in ID and timestamp and appends the entry.
func (s *Service) Record(ctx context.Context, entry models.AuditLogEntry) {
	entry.ID = utils.NewID()
	entry.CreatedAt = time.Now().UTC()

	if err := s.Store.InsertAuditEntry(ctx, &entry); err != nil {
		s.Logger.Warn("AUDIT", fmt.Sprintf("failed to write audit entry (%s %s by %s): %v",
			entry.Action, entry.EntityType, entry.ActorEmail, err))
		return
	}
	s.Logger.LogAudit(entry.Action, entry.EntityType, entry.ActorEmail)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.AuditLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.ListAuditEntries(ctx, limit, offset)
}
