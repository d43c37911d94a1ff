package historycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/domain"
)

var _ secondary.HistoryCache = (*HistoryCache)(nil)

const (
	historyKeyPrefix    = "submission:history:"
	generationKeyPrefix = "submission:history:gen:"

	// generation keys outlive any read-through, so a reset to zero cannot match a stale reader
	generationTTL = 24 * time.Hour
)

var errStaleGeneration = errors.New("history generation moved")

// HistoryCache stores history listings in one hash per (user, problem),
// keyed by the requested limit, so a single DEL invalidates every page size.
// A generation counter per (user, problem) is bumped on every invalidation.
type HistoryCache struct {
	redisClient *redis.Client
	logger      primary.Logger
	ttl         time.Duration
}

func NewHistoryCache(redisClient *redis.Client, logger primary.Logger, ttl time.Duration) *HistoryCache {
	return &HistoryCache{
		redisClient: redisClient,
		logger:      logger,
		ttl:         ttl,
	}
}

func historyKey(userID, problemID string) string {
	return fmt.Sprintf("%s%s:%s", historyKeyPrefix, userID, problemID)
}

func generationKey(userID, problemID string) string {
	return fmt.Sprintf("%s%s:%s", generationKeyPrefix, userID, problemID)
}

func generationOf(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *HistoryCache) Get(ctx context.Context, userID, problemID string, limit int) ([]domain.SubmissionSummary, int64, bool, error) {
	pipe := c.redisClient.TxPipeline()
	genCmd := pipe.Get(ctx, generationKey(userID, problemID))
	rawCmd := pipe.HGet(ctx, historyKey(userID, problemID), strconv.Itoa(limit))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("failed to read history cache: %w", err)
	}

	generation, err := generationOf(genCmd)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read history generation: %w", err)
	}

	raw, err := rawCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, generation, false, nil
		}
		return nil, 0, false, fmt.Errorf("failed to read history cache: %w", err)
	}

	var items []domain.SubmissionSummary
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Warn("Dropping unreadable history cache entry", "userId", userID, "problemId", problemID, "error", err)
		return nil, generation, false, nil
	}
	return items, generation, true, nil
}

// Set writes items only if the generation is still the one Get returned
func (c *HistoryCache) Set(ctx context.Context, userID, problemID string, limit int, generation int64, items []domain.SubmissionSummary) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	key := historyKey(userID, problemID)
	genKey := generationKey(userID, problemID)
	err = c.redisClient.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generationOf(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, strconv.Itoa(limit), payload)
			if c.ttl > 0 {
				pipe.Expire(ctx, key, c.ttl)
			}
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Skipped stale history write", "userId", userID, "problemId", problemID, "generation", generation)
		return nil
	default:
		return fmt.Errorf("failed to write history cache: %w", err)
	}
}

func (c *HistoryCache) Invalidate(ctx context.Context, userID, problemID string) error {
	genKey := generationKey(userID, problemID)
	pipe := c.redisClient.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, generationTTL)
	pipe.Del(ctx, historyKey(userID, problemID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate history cache: %w", err)
	}
	return nil
}
