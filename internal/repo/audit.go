package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/fleet-scheduler/internal/domain"
)

// AuditRepo appends entries to the audit log.
type AuditRepo interface {
	Record(ctx context.Context, ev domain.AuditEvent) error
}

type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an AuditRepo backed by the provided db connection.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

func (r *pgAuditRepo) Record(ctx context.Context, ev domain.AuditEvent) error {
	const q = `
		INSERT INTO audit_log (user_id, role, tenant_id, module, action, description, ip)
		VALUES (@user_id, @role, @tenant_id, @module, @action, @description, @ip)`

	args := pgx.NamedArgs{
		"user_id":     ev.UserID,
		"role":        string(ev.Role),
		"tenant_id":   ev.TenantID,
		"module":      ev.Module,
		"action":      string(ev.Action),
		"description": ev.Description,
		"ip":          ev.IP,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.AuditRepo.Record: %w", err)
	}
	return nil
}
