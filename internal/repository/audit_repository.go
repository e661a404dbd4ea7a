package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository persists audit events.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Insert persists a single audit event.
func (r *AuditRepository) Insert(ctx context.Context, e *model.AuditEvent) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		meta = []byte("{}")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, action, actor_type, actor_id, details, ip_address, status, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Action, e.ActorType, e.ActorID, e.Details, e.IPAddress, e.Status, meta, e.CreatedAt)
	return err
}

// BulkInsert persists a batch of audit events via UNNEST. Used by the audit
// worker draining the Redis queue.
func (r *AuditRepository) BulkInsert(ctx context.Context, events []*model.AuditEvent) error {
	n := len(events)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, n)
	actions := make([]string, 0, n)
	actorTypes := make([]string, 0, n)
	actorIDs := make([]string, 0, n)
	details := make([]string, 0, n)
	ips := make([]string, 0, n)
	statuses := make([]string, 0, n)
	metas := make([]string, 0, n)
	createdAts := make([]time.Time, 0, n)

	for _, e := range events {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			meta = []byte("{}")
		}
		ids = append(ids, e.ID)
		actions = append(actions, e.Action)
		actorTypes = append(actorTypes, e.ActorType)
		actorIDs = append(actorIDs, e.ActorID)
		details = append(details, e.Details)
		ips = append(ips, e.IPAddress)
		statuses = append(statuses, e.Status)
		metas = append(metas, string(meta))
		createdAts = append(createdAts, e.CreatedAt)
	}

	query := `
		INSERT INTO audit_logs (id, action, actor_type, actor_id, details, ip_address, status, metadata, created_at)
		SELECT u.id, u.action, u.actor_type, u.actor_id, u.details, u.ip_address, u.status, u.metadata::jsonb, u.created_at
		FROM UNNEST(
			$1::uuid[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::text[],
			$6::text[],
			$7::text[],
			$8::text[],
			$9::timestamptz[]
		) AS u (id, action, actor_type, actor_id, details, ip_address, status, metadata, created_at)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, ids, actions, actorTypes, actorIDs, details, ips, statuses, metas, createdAts)
	return err
}

// ListPaginated retrieves audit events newest-first with an optional action
// filter.
func (r *AuditRepository) ListPaginated(ctx context.Context, action string, limit, offset int) ([]model.AuditEvent, int, error) {
	countQuery := `SELECT COUNT(*) FROM audit_logs`
	query := `SELECT id, action, actor_type, actor_id, details, ip_address, status, metadata, created_at FROM audit_logs`
	var countArgs, args []any

	if action != "" {
		countQuery += ` WHERE action = $1`
		query += ` WHERE action = $1`
		countArgs = append(countArgs, action)
		args = append(args, action)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if action != "" {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []model.AuditEvent
	for rows.Next() {
		var e model.AuditEvent
		var meta []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorType, &e.ActorID, &e.Details,
			&e.IPAddress, &e.Status, &meta, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Metadata)
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
