package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Type names a domain event. It doubles as the AMQP routing key.
type Type string

const (
	UserCreated        Type = "user.created"
	UserUpdated        Type = "user.updated"
	UserDeleted        Type = "user.deleted"
	CompanyCreated     Type = "company.created"
	CompanyUpdated     Type = "company.updated"
	CompanyDeleted     Type = "company.deleted"
	ClientCreated      Type = "client.created"
	ClientUpdated      Type = "client.updated"
	ClientDeleted      Type = "client.deleted"
	ClientUserLinked   Type = "client_user.linked"
	ClientUserUnlinked Type = "client_user.unlinked"
)

// Event is the envelope written to the broker.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	ActorID   int64     `json:"actor_id,omitempty"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, actorID int64, payload any) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      t,
		ActorID:   actorID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
	Close() error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, *Event) error { return nil }
func (Noop) Close() error                          { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

func (r *Recorder) Publish(_ context.Context, ev *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of what has been published so far.
func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Event(nil), r.events...)
}

// Types returns the types of the recorded events in order.
func (r *Recorder) Types() []Type {
	evs := r.Events()
	out := make([]Type, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

// Emitter publishes on a best-effort basis: failures are logged and swallowed so a
// broker outage never fails the request that produced the event.
type Emitter struct {
	pub    Publisher
	logger *zap.Logger
}

func NewEmitter(pub Publisher, logger *zap.Logger) *Emitter {
	if pub == nil {
		pub = Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{pub: pub, logger: logger}
}

// Emit builds and publishes an event.
func (e *Emitter) Emit(ctx context.Context, t Type, actorID int64, payload any) {
	ev := New(t, actorID, payload)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.logger.Warn("publish event failed",
			zap.String("event_id", ev.ID),
			zap.String("type", string(t)),
			zap.Error(err))
	}
}
