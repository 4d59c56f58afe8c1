// Package chatbot answers operator questions about RPA bot executions.
//
// A question is resolved to an intent of the catalog, the intent's query is
// executed and the rows are rendered with the intent's templates. Every call
// is independent; the Bot holds no per-conversation state.
package chatbot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rpa-assistant/internal/chatbot/catalog"
	"rpa-assistant/internal/chatbot/formatter"
	"rpa-assistant/internal/chatbot/resolver"
	"rpa-assistant/internal/common/logger"
	"rpa-assistant/internal/common/observability"
	"rpa-assistant/internal/models"
)

// FallbackMessage answers any text no intent recognizes.
const FallbackMessage = "Sorry, I don’t understand that request. Try asking about job status, running bots, or machine status."

// Executor runs one intent. It must not return store errors any other way
// than as a Failure outcome.
type Executor interface {
	Execute(ctx context.Context, intent models.IntentName, params []string) models.Outcome
}

// Answer is the rendered response plus what led to it.
type Answer struct {
	Text    string             `json:"answer"`
	Intent  models.IntentName  `json:"intent,omitempty"`
	Params  []string           `json:"params,omitempty"`
	Outcome models.OutcomeKind `json:"outcome"`
	Cached  bool               `json:"cached,omitempty"`
}

// Matched reports whether an intent was recognized.
func (a Answer) Matched() bool {
	return a.Outcome != models.OutcomeNoMatch
}

type Bot struct {
	catalog  *catalog.Catalog
	resolver *resolver.Resolver
	executor Executor
	obs      *observability.Observability
	tracer   trace.Tracer
	logger   logger.Logger
}

type Option func(*Bot)

func WithObservability(o *observability.Observability) Option {
	return func(b *Bot) {
		b.obs = o
	}
}

// WithTracer overrides the tracer taken from the observability setup.
func WithTracer(t trace.Tracer) Option {
	return func(b *Bot) {
		b.tracer = t
	}
}

func New(c *catalog.Catalog, exec Executor, log logger.Logger, opts ...Option) *Bot {
	b := &Bot{
		catalog:  c,
		resolver: resolver.New(c),
		executor: exec,
		logger:   log,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.tracer == nil {
		b.tracer = b.obs.Tracer()
	}
	return b
}

func (b *Bot) Catalog() *catalog.Catalog {
	return b.catalog
}

// Respond returns the text answer to a question. It always returns a string.
func (b *Bot) Respond(ctx context.Context, text string) string {
	return b.Answer(ctx, text).Text
}

// Answer resolves, executes and formats one question.
func (b *Bot) Answer(ctx context.Context, text string) Answer {
	start := time.Now()
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
		ctx = WithRequestID(ctx, requestID)
	}

	ctx, span := b.tracer.Start(ctx, "chatbot.respond",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer span.End()

	log := b.logger.With(map[string]interface{}{"requestId": requestID})

	match, ok := b.resolve(ctx, text, log)
	if !ok {
		log.Info("question not understood", map[string]interface{}{
			"question": truncate(text, 200),
		})
		answer := Answer{Text: FallbackMessage, Outcome: models.OutcomeNoMatch}
		b.finish(ctx, span, answer, start)
		return answer
	}

	def, _ := b.catalog.Lookup(match.Intent)
	outcome := b.execute(ctx, match)
	text = b.format(ctx, def, outcome, match.Params)

	answer := Answer{
		Text:    text,
		Intent:  match.Intent,
		Params:  match.Params,
		Outcome: outcome.Kind(),
		Cached:  outcome.Cached,
	}
	if answer.Cached {
		b.obs.RecordCacheHit(ctx, string(match.Intent))
	}

	fields := map[string]interface{}{
		"intent":     match.Intent,
		"params":     match.Params,
		"outcome":    answer.Outcome,
		"cached":     answer.Cached,
		"durationMs": time.Since(start).Milliseconds(),
	}
	if outcome.Failed() {
		fields["reason"] = outcome.Failure.Reason
		log.Warn("question answered with a store failure", fields)
	} else {
		log.Info("question answered", fields)
	}

	b.finish(ctx, span, answer, start)
	return answer
}

func (b *Bot) resolve(ctx context.Context, text string, log logger.Logger) (resolver.Match, bool) {
	_, span := b.tracer.Start(ctx, "chatbot.resolve")
	defer span.End()

	candidates := b.resolver.ResolveAll(text)
	if len(candidates) == 0 {
		span.SetAttributes(attribute.Bool("matched", false))
		return resolver.Match{}, false
	}
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = string(c.Intent)
		}
		log.Warn("question matches several intents, using the first", map[string]interface{}{
			"candidates": names,
		})
		span.SetAttributes(attribute.StringSlice("intent.candidates", names))
	}

	m := candidates[0]
	span.SetAttributes(
		attribute.Bool("matched", true),
		attribute.String("intent", string(m.Intent)),
	)
	return m, true
}

func (b *Bot) execute(ctx context.Context, m resolver.Match) models.Outcome {
	ctx, span := b.tracer.Start(ctx, "chatbot.execute",
		trace.WithAttributes(attribute.String("intent", string(m.Intent))))
	defer span.End()

	outcome := b.executor.Execute(ctx, m.Intent, m.Params)
	span.SetAttributes(
		attribute.String("outcome", string(outcome.Kind())),
		attribute.Int("rows", len(outcome.Rows)),
	)
	if outcome.Failed() {
		span.SetStatus(codes.Error, outcome.Failure.Message())
	}
	return outcome
}

func (b *Bot) format(ctx context.Context, def catalog.Definition, outcome models.Outcome, params []string) string {
	_, span := b.tracer.Start(ctx, "chatbot.format")
	defer span.End()
	return formatter.Format(def, outcome, params)
}

func (b *Bot) finish(ctx context.Context, span trace.Span, a Answer, start time.Time) {
	span.SetAttributes(attribute.String("outcome", string(a.Outcome)))
	if a.Intent != "" {
		span.SetAttributes(attribute.String("intent", string(a.Intent)))
	}
	intent := string(a.Intent)
	if intent == "" {
		intent = "none"
	}
	b.obs.RecordQuestion(ctx, intent, string(a.Outcome), time.Since(start))
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
