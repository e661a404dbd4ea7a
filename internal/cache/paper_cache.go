package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/classmark/cbt-backend/internal/config"
	"github.com/classmark/cbt-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// paperTTL bounds staleness if an invalidation is ever missed.
const paperTTL = 6 * time.Hour

// RedisPaperCache caches student-facing exam papers in Redis. Only the
// stripped QuestionForStudent projection is ever stored; correct options
// never reach this cache. All failures degrade to a miss.
type RedisPaperCache struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisPaperCache creates a paper cache on the given client.
func NewRedisPaperCache(rdb *redis.Client, log zerolog.Logger) *RedisPaperCache {
	return &RedisPaperCache{
		rdb: rdb,
		log: log.With().Str("component", "paper_cache").Logger(),
	}
}

// GetPaper fetches a cached paper. The second return is false on miss or
// any Redis/decode failure.
func (c *RedisPaperCache) GetPaper(ctx context.Context, examID int) ([]model.QuestionForStudent, bool) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Int("exam_id", examID).Msg("paper cache read failed")
		}
		return nil, false
	}

	var paper []model.QuestionForStudent
	if err := json.Unmarshal(raw, &paper); err != nil {
		c.log.Warn().Err(err).Int("exam_id", examID).Msg("paper cache payload corrupt")
		c.InvalidatePaper(ctx, examID)
		return nil, false
	}
	return paper, true
}

// SetPaper stores a paper with a TTL. Errors are logged and swallowed.
func (c *RedisPaperCache) SetPaper(ctx context.Context, examID int, questions []model.QuestionForStudent) {
	raw, err := json.Marshal(questions)
	if err != nil {
		c.log.Warn().Err(err).Int("exam_id", examID).Msg("paper cache encode failed")
		return
	}
	if err := c.rdb.Set(ctx, config.CacheKey.ExamPaperKey(examID), raw, paperTTL).Err(); err != nil {
		c.log.Warn().Err(err).Int("exam_id", examID).Msg("paper cache write failed")
	}
}

// InvalidatePaper drops an exam's cached paper after a question mutation.
func (c *RedisPaperCache) InvalidatePaper(ctx context.Context, examID int) {
	if err := c.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID)).Err(); err != nil {
		c.log.Warn().Err(err).Int("exam_id", examID).Msg("paper cache invalidation failed")
	}
}
