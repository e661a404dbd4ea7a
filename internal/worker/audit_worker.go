package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/classmark/cbt-backend/internal/config"
	"github.com/classmark/cbt-backend/internal/model"
	"github.com/classmark/cbt-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	auditBatchSize = 100
	auditPopWait   = time.Second
)

// AuditWorker drains the Redis audit queue into PostgreSQL in batches.
// The hot request path only ever does an LPUSH; this worker owns the
// database writes so audit persistence cannot slow an exam down.
type AuditWorker struct {
	repo *repository.AuditRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewAuditWorker creates a new AuditWorker.
func NewAuditWorker(repo *repository.AuditRepository, rdb *redis.Client, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "audit_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine; cancel the context
// to stop. Remaining queued events are drained before exit.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("audit worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("audit worker stopping")
			w.drain(context.Background())
			w.log.Info().Msg("audit worker stopped")
			return
		default:
			w.processBatch(ctx)
		}
	}
}

// processBatch blocks for the first event, then opportunistically pops up
// to auditBatchSize-1 more so bursts land in one bulk insert.
func (w *AuditWorker) processBatch(ctx context.Context) {
	first, err := w.rdb.BLPop(ctx, auditPopWait, config.WorkerKey.AuditQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			time.Sleep(time.Second)
		}
		return
	}
	if len(first) < 2 {
		return
	}

	raw := [][]byte{[]byte(first[1])}
	for len(raw) < auditBatchSize {
		item, err := w.rdb.LPop(ctx, config.WorkerKey.AuditQueue).Result()
		if err != nil {
			break
		}
		raw = append(raw, []byte(item))
	}

	w.persist(ctx, raw)
}

func (w *AuditWorker) persist(ctx context.Context, raw [][]byte) {
	events := make([]*model.AuditEvent, 0, len(raw))
	for _, item := range raw {
		var e model.AuditEvent
		if err := json.Unmarshal(item, &e); err != nil {
			w.log.Error().Err(err).Msg("dropping undecodable audit event")
			continue
		}
		events = append(events, &e)
	}
	if len(events) == 0 {
		return
	}

	if err := w.repo.BulkInsert(ctx, events); err != nil {
		w.log.Error().Err(err).Int("count", len(events)).Msg("bulk insert failed, requeueing")
		for _, item := range raw {
			w.rdb.RPush(ctx, config.WorkerKey.AuditQueue, item)
		}
		time.Sleep(5 * time.Second)
		return
	}

	w.log.Debug().Int("count", len(events)).Msg("audit events persisted")
}

// drain flushes everything left on the queue before shutdown.
func (w *AuditWorker) drain(ctx context.Context) {
	drained := 0
	for {
		var raw [][]byte
		for len(raw) < auditBatchSize {
			item, err := w.rdb.LPop(ctx, config.WorkerKey.AuditQueue).Result()
			if err != nil {
				break
			}
			raw = append(raw, []byte(item))
		}
		if len(raw) == 0 {
			break
		}
		w.persist(ctx, raw)
		drained += len(raw)
	}
	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("drained audit queue")
	}
}
