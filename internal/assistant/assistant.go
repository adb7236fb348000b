// Package assistant applies the confirm-or-clarify policy to parsed reminders
// and exposes reminder management as function-calling tools.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	kerrors "kai/internal/errors"
	"kai/internal/logging"
	"kai/internal/notification"
	"kai/internal/observability"
	"kai/internal/reminder"
)

// DefaultConfidenceThreshold is the minimum confidence saved without asking.
const DefaultConfidenceThreshold = 0.6

// ReplyKind classifies an assistant reply.
type ReplyKind string

const (
	ReplyNotUnderstood ReplyKind = "not_understood"
	ReplyClarify       ReplyKind = "clarify"
	ReplyConfirmed     ReplyKind = "confirmed"
	ReplyDiscarded     ReplyKind = "discarded"
	ReplyFailed        ReplyKind = "failed"
)

// ErrNothingPending is returned by Confirm when the user has no draft waiting.
var ErrNothingPending = errors.New("no reminder awaiting confirmation")

// Notifications is the subset of notification.Service the assistant drives.
type Notifications interface {
	Create(ctx context.Context, userID string, parsed *reminder.ParsedReminder, originalText string) (notification.Notification, error)
	List(ctx context.Context, userID string) ([]notification.Notification, error)
	Cancel(ctx context.Context, userID, notificationID string) (notification.Notification, error)
	Update(ctx context.Context, userID, notificationID string, patch notification.Patch) (notification.Notification, error)
}

// Config tunes the assistant policy.
type Config struct {
	ConfidenceThreshold float64
	PendingTTL          time.Duration
	PendingSize         int
	// Location is the user's zone for relative phrases. Nil keeps the zone of Request.Now.
	Location *time.Location
}

// Request is one user utterance.
type Request struct {
	UserID string
	Text   string
	// Now overrides the assistant clock when non-zero.
	Now time.Time
}

// Reply is what the assistant says back.
type Reply struct {
	Kind         ReplyKind                 `json:"kind"`
	Message      string                    `json:"message"`
	Reminder     *reminder.ParsedReminder  `json:"reminder,omitempty"`
	Notification *notification.Notification `json:"notification,omitempty"`
}

// Assistant turns utterances into saved reminders or clarification prompts.
type Assistant struct {
	parser        *reminder.Parser
	notifications Notifications
	pending       *pendingDrafts
	config        Config
	metrics       *observability.MetricsCollector
	tracer        *observability.TracerProvider
	logger        logging.Logger

	// Now returns the current time; injectable for testing.
	Now func() time.Time
}

// New builds an Assistant. metrics and tracer may be nil.
func New(notifications Notifications, cfg Config, metrics *observability.MetricsCollector, tracer *observability.TracerProvider, logger logging.Logger) *Assistant {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	return &Assistant{
		parser:        reminder.NewParser(NewMetricsObserver(metrics)),
		notifications: notifications,
		pending:       newPendingDrafts(cfg.PendingSize, cfg.PendingTTL, metrics),
		config:        cfg,
		metrics:       metrics,
		tracer:        tracer,
		logger:        logging.OrNop(logger),
		Now:           time.Now,
	}
}

// Handle interprets one utterance. A "yes" or "no" while a draft is pending
// confirms or discards it. The returned error is non-nil only when saving
// failed; Reply.Message then carries a user-safe explanation.
func (a *Assistant) Handle(ctx context.Context, req Request) (Reply, error) {
	ctx = observability.ContextWithUserID(ctx, req.UserID)
	ctx, span := a.tracer.StartSpan(ctx, observability.SpanAssistantHandle)
	defer span.End()

	reply, err := a.handle(ctx, req)
	span.SetAttributes(attribute.String(observability.AttrReplyKind, string(reply.Kind)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handle")
	}
	a.metrics.RecordReply(ctx, string(reply.Kind))
	return reply, err
}

func (a *Assistant) handle(ctx context.Context, req Request) (Reply, error) {
	now := a.now(req.Now)
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Reply{Kind: ReplyNotUnderstood, Message: notUnderstoodMessage}, nil
	}

	if _, ok := a.pending.peek(req.UserID, now); ok {
		switch classifyAnswer(text) {
		case answerYes:
			return a.confirm(ctx, req.UserID, now)
		case answerNo:
			return a.discard(ctx, req.UserID, now), nil
		}
	}

	parsed := a.parser.Parse(text, now)
	if parsed == nil {
		return Reply{Kind: ReplyNotUnderstood, Message: notUnderstoodMessage}, nil
	}

	if parsed.Confidence < a.config.ConfidenceThreshold {
		a.pending.put(ctx, req.UserID, draft{parsed: parsed, originalText: text, storedAt: now}, a.metrics)
		logging.FromContext(ctx, a.logger).Debug("Assistant: parked draft %q (confidence %.2f)", parsed.Title, parsed.Confidence)
		return Reply{Kind: ReplyClarify, Message: clarificationMessage(parsed, now), Reminder: parsed}, nil
	}

	return a.persist(ctx, req.UserID, parsed, text, now)
}

// Confirm saves the user's pending draft.
func (a *Assistant) Confirm(ctx context.Context, userID string) (Reply, error) {
	ctx = observability.ContextWithUserID(ctx, userID)
	ctx, span := a.tracer.StartSpan(ctx, observability.SpanAssistantConfirm)
	defer span.End()

	reply, err := a.confirm(ctx, userID, a.now(time.Time{}))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "confirm")
	}
	if reply.Kind != "" {
		a.metrics.RecordReply(ctx, string(reply.Kind))
	}
	return reply, err
}

func (a *Assistant) confirm(ctx context.Context, userID string, now time.Time) (Reply, error) {
	d, ok := a.pending.take(userID, now)
	if !ok {
		return Reply{Kind: ReplyNotUnderstood, Message: nothingPendingText}, ErrNothingPending
	}
	return a.persist(ctx, userID, d.parsed, d.originalText, now)
}

// Discard drops the user's pending draft. It reports whether one existed.
func (a *Assistant) Discard(ctx context.Context, userID string) (Reply, bool) {
	now := a.now(time.Time{})
	if _, ok := a.pending.peek(userID, now); !ok {
		return Reply{Kind: ReplyNotUnderstood, Message: nothingPendingText}, false
	}
	reply := a.discard(ctx, userID, now)
	a.metrics.RecordReply(ctx, string(reply.Kind))
	return reply, true
}

func (a *Assistant) discard(ctx context.Context, userID string, now time.Time) Reply {
	if d, ok := a.pending.take(userID, now); ok {
		logging.FromContext(ctx, a.logger).Debug("Assistant: discarded draft %q", d.parsed.Title)
	}
	return Reply{Kind: ReplyDiscarded, Message: discardedMessage}
}

func (a *Assistant) persist(ctx context.Context, userID string, parsed *reminder.ParsedReminder, originalText string, now time.Time) (Reply, error) {
	n, err := a.notifications.Create(ctx, userID, parsed, originalText)
	if err != nil {
		logging.FromContext(ctx, a.logger).Warn("Assistant: failed to save reminder %q: %v", parsed.Title, err)
		return Reply{Kind: ReplyFailed, Message: userMessage(err), Reminder: parsed}, err
	}
	return Reply{
		Kind:         ReplyConfirmed,
		Message:      confirmationMessage(parsed, now),
		Reminder:     parsed,
		Notification: &n,
	}, nil
}

// PendingCount reports how many users have a draft parked.
func (a *Assistant) PendingCount() int {
	return a.pending.len()
}

func (a *Assistant) now(override time.Time) time.Time {
	now := override
	if now.IsZero() {
		now = a.Now()
	}
	if a.config.Location != nil {
		now = now.In(a.config.Location)
	}
	return now
}

func userMessage(err error) string {
	if errors.Is(err, notification.ErrLimitReached) {
		return "You already have the maximum number of active reminders. Cancel one before adding another."
	}
	if errors.Is(err, notification.ErrInvalid) {
		return kerrors.MessageInvalid
	}
	return kerrors.FormatForUser(err)
}

type answer int

const (
	answerOther answer = iota
	answerYes
	answerNo
)

var (
	yesAnswers = map[string]bool{"yes": true, "y": true, "yep": true, "yeah": true, "sure": true, "ok": true, "okay": true, "confirm": true, "save it": true}
	noAnswers  = map[string]bool{"no": true, "n": true, "nope": true, "cancel": true, "skip": true, "never mind": true, "nevermind": true}
)

func classifyAnswer(text string) answer {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!"))
	switch {
	case yesAnswers[normalized]:
		return answerYes
	case noAnswers[normalized]:
		return answerNo
	default:
		return answerOther
	}
}
