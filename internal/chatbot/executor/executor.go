// Package executor runs an intent's query against the execution log store.
//
// Execute never returns an error: store problems become a Failure outcome
// at this boundary.
package executor

import (
	"context"
	"errors"
	"fmt"

	"rpa-assistant/internal/chatbot/catalog"
	"rpa-assistant/internal/common/database"
	"rpa-assistant/internal/common/logger"
	"rpa-assistant/internal/models"
)

// Cache is an optional read-through store for successful results.
type Cache interface {
	Get(ctx context.Context, intent models.IntentName, params []string) ([]models.Row, bool)
	Set(ctx context.Context, intent models.IntentName, params []string, rows []models.Row)
}

type Executor struct {
	catalog   *catalog.Catalog
	connector database.Connector
	cache     Cache
	logger    logger.Logger
}

type Option func(*Executor)

func WithCache(c Cache) Option {
	return func(e *Executor) {
		e.cache = c
	}
}

func New(c *catalog.Catalog, connector database.Connector, log logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		catalog:   c,
		connector: connector,
		logger:    log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute binds params positionally to the intent's query and runs it on a
// connection acquired for this call only.
func (e *Executor) Execute(ctx context.Context, intent models.IntentName, params []string) models.Outcome {
	def, ok := e.catalog.Lookup(intent)
	if !ok {
		return models.FailureOutcome(models.QueryFailure, fmt.Sprintf("unknown intent %q", intent))
	}
	if len(params) != len(def.Params) {
		return models.FailureOutcome(models.QueryFailure,
			fmt.Sprintf("intent %s expects %d parameters, got %d", intent, len(def.Params), len(params)))
	}

	if e.cache != nil {
		if rows, hit := e.cache.Get(ctx, intent, params); hit {
			e.logger.Debug("outcome served from cache", map[string]interface{}{
				"intent": intent,
				"rows":   len(rows),
			})
			out := models.RowsOutcome(rows)
			out.Cached = true
			return out
		}
	}

	rows, err := e.query(ctx, def.Query, params)
	if err != nil {
		kind := models.QueryFailure
		if errors.Is(err, database.ErrConnectionFailed) {
			kind = models.ConnectionFailure
		}
		e.logger.Error("intent query failed", map[string]interface{}{
			"intent": intent,
			"kind":   kind,
			"error":  err.Error(),
		})
		return models.FailureOutcome(kind, reason(err))
	}

	if e.cache != nil {
		e.cache.Set(ctx, intent, params, rows)
	}
	return models.RowsOutcome(rows)
}

func (e *Executor) query(ctx context.Context, query string, params []string) (rows []models.Row, err error) {
	conn, err := e.connector.Connect(ctx)
	if err != nil {
		if !errors.Is(err, database.ErrConnectionFailed) {
			err = &database.Error{Kind: database.ErrConnectionFailed, Err: err}
		}
		return nil, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			e.logger.Warn("failed to release connection", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
	}()

	args := make([]interface{}, len(params))
	for i, p := range params {
		args[i] = p
	}
	return conn.Query(ctx, query, args...)
}

// reason strips the failure category so the message carries the store's own words.
func reason(err error) string {
	var dbErr *database.Error
	if errors.As(err, &dbErr) {
		return dbErr.Err.Error()
	}
	return err.Error()
}
