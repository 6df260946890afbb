package domain

import "time"

// AuditAction is the kind of write being recorded.
type AuditAction string

const (
	AuditCreate AuditAction = "crear"
	AuditUpdate AuditAction = "editar"
	AuditDelete AuditAction = "eliminar"
)

// AuditEvent is one entry of the audit log.
type AuditEvent struct {
	UserID      string
	Role        Role
	TenantID    string
	Module      string
	Action      AuditAction
	Description string
	IP          string
	CreatedAt   time.Time
}
