// Package cache keeps recent successful query results in Redis so repeated
// questions do not hit the execution log store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rpa-assistant/internal/chatbot/formatter"
	"rpa-assistant/internal/common/logger"
	"rpa-assistant/internal/models"
)

const keyPrefix = "rpa:outcome:"

// OutcomeCache is a read-through cache of row results keyed by intent and
// parameters. Failures are never stored.
type OutcomeCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func New(client redis.Cmdable, ttl time.Duration, log logger.Logger) *OutcomeCache {
	return &OutcomeCache{client: client, ttl: ttl, logger: log}
}

// Key identifies one intent invocation. Params are JSON-encoded so that no
// separator inside a captured value can make two parameter lists collide.
func Key(intent models.IntentName, params []string) string {
	if params == nil {
		params = []string{}
	}
	encoded, _ := json.Marshal(params)
	return keyPrefix + string(intent) + ":" + string(encoded)
}

// Get returns cached rows. Any Redis error counts as a miss.
func (c *OutcomeCache) Get(ctx context.Context, intent models.IntentName, params []string) ([]models.Row, bool) {
	key := Key(intent, params)
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("outcome cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var rows []models.Row
	if err := json.Unmarshal([]byte(val), &rows); err != nil {
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	if rows == nil {
		rows = []models.Row{}
	}
	return rows, true
}

// Set stores rows with every value already rendered to display text, so a
// cached answer reads exactly like a live one.
func (c *OutcomeCache) Set(ctx context.Context, intent models.IntentName, params []string, rows []models.Row) {
	data, err := json.Marshal(Normalize(rows))
	if err != nil {
		return
	}
	key := Key(intent, params)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("outcome cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Normalize renders every non-NULL value with formatter.Render. NULL stays nil.
func Normalize(rows []models.Row) []models.Row {
	out := make([]models.Row, len(rows))
	for i, row := range rows {
		n := make(models.Row, len(row))
		for k, v := range row {
			if v == nil {
				n[k] = nil
				continue
			}
			n[k] = formatter.Render(v)
		}
		out[i] = n
	}
	return out
}
