// Package activitymap turns auth activity events into flat audit records.
package activitymap

import (
	"context"
	"strings"
	"time"

	auth "github.com/goliatone/go-shop-auth"
)

// Record is one audit line. Actor is the user id, or "anonymous" when a
// login names an unknown user.
type Record struct {
	Actor      string    `json:"actor"`
	Verb       string    `json:"verb"`
	Object     string    `json:"object,omitempty"`
	Channel    string    `json:"channel"`
	Username   string    `json:"username,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Mapper builds records. The zero value is usable.
type Mapper struct {
	// Channel defaults to "auth"
	Channel string
	// Anonymous is the actor for events without a user id
	Anonymous string
	// Now stamps events that carry no time
	Now func() time.Time
}

// Map converts event. The object is the user id, or the submitted username
// when the user is unknown.
func (m Mapper) Map(event auth.ActivityEvent) Record {
	userID := strings.TrimSpace(event.UserID)
	username := strings.TrimSpace(event.Username)

	r := Record{
		Actor:      userID,
		Verb:       string(event.EventType),
		Object:     userID,
		Channel:    orDefault(m.Channel, "auth"),
		Username:   username,
		Reason:     strings.TrimSpace(event.Reason),
		OccurredAt: event.OccurredAt,
	}

	if r.Actor == "" {
		r.Actor = orDefault(m.Anonymous, "anonymous")
		r.Object = username
	}

	if r.OccurredAt.IsZero() {
		now := time.Now
		if m.Now != nil {
			now = m.Now
		}
		r.OccurredAt = now().UTC()
	}

	return r
}

// Sink logs one "activity" line per event
func (m Mapper) Sink(logger auth.Logger) auth.ActivitySink {
	if logger == nil {
		logger = auth.NopLogger{}
	}
	return auth.ActivitySinkFunc(func(_ context.Context, event auth.ActivityEvent) error {
		r := m.Map(event)
		args := []any{
			"actor", r.Actor,
			"verb", r.Verb,
			"channel", r.Channel,
			"occurred_at", r.OccurredAt,
		}
		if r.Object != "" {
			args = append(args, "object", r.Object)
		}
		if r.Username != "" {
			args = append(args, "username", r.Username)
		}
		if r.Reason != "" {
			args = append(args, "reason", r.Reason)
		}
		logger.Info("activity", args...)
		return nil
	})
}

// LogSink is Mapper{}.Sink(logger)
func LogSink(logger auth.Logger) auth.ActivitySink {
	return Mapper{}.Sink(logger)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
