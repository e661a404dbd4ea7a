package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/classmark/cbt-backend/internal/config"
	"github.com/classmark/cbt-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AuditStore persists audit events directly to PostgreSQL.
type AuditStore interface {
	Insert(ctx context.Context, e *model.AuditEvent) error
	ListPaginated(ctx context.Context, action string, limit, offset int) ([]model.AuditEvent, int, error)
}

// AuditService records audit events. The hot path pushes events onto a
// Redis queue (drained to PostgreSQL by the audit worker) and publishes
// them to the live monitor channel in the same pipeline. If Redis is down
// the event is written to PostgreSQL directly; if that also fails, the
// event is logged and dropped. Emit never fails its caller.
type AuditService struct {
	rdb   *redis.Client
	store AuditStore
	log   zerolog.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(rdb *redis.Client, store AuditStore, log zerolog.Logger) *AuditService {
	return &AuditService{
		rdb:   rdb,
		store: store,
		log:   log.With().Str("component", "audit_service").Logger(),
	}
}

// Emit records one event, assigning its ID and timestamp if unset.
func (s *AuditService) Emit(ctx context.Context, event model.AuditEvent) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Str("action", event.Action).Msg("audit event marshal failed")
		return
	}

	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, config.WorkerKey.AuditQueue, payload)
	pipe.Publish(ctx, config.WorkerKey.MonitorChannel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("action", event.Action).Msg("audit queue unavailable, falling back to direct write")
		if err := s.store.Insert(ctx, &event); err != nil {
			s.log.Error().Err(err).
				Str("action", event.Action).
				Str("actor_id", event.ActorID).
				Msg("audit event dropped")
		}
	}
}

// List returns persisted audit events, newest first, optionally filtered
// by action.
func (s *AuditService) List(ctx context.Context, action string, limit, offset int) ([]model.AuditEvent, int, error) {
	return s.store.ListPaginated(ctx, action, limit, offset)
}
