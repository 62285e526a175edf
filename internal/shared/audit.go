package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit actions recorded against mutating requests.
const (
	AuditCreate  = "create"
	AuditUpdate  = "update"
	AuditDelete  = "delete"
	AuditStatus  = "status"
	AuditConvert = "convert"
	AuditReceive = "receive"
	AuditPayment = "payment"
)

// AuditActionFor derives the audit action from a mutating request. The
// UI posts everything, so the path suffix carries the intent.
func AuditActionFor(r *http.Request) string {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case strings.HasSuffix(path, "/delete"):
		return AuditDelete
	case strings.HasSuffix(path, "/edit"):
		return AuditUpdate
	case strings.HasSuffix(path, "/status"), strings.HasSuffix(path, "/cancel"):
		return AuditStatus
	case strings.HasSuffix(path, "/convert"):
		return AuditConvert
	case strings.HasSuffix(path, "/receive"):
		return AuditReceive
	case strings.HasSuffix(path, "/receipts"):
		return AuditPayment
	}
	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		return AuditUpdate
	case http.MethodDelete:
		return AuditDelete
	default:
		return AuditCreate
	}
}

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}
