package exec

import (
	"context"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"

	"github.com/asaidimu/go-jenga/core/query"
)

// ExecEventType identifies a lifecycle point in statement execution.
type ExecEventType string

const (
	StatementStart    ExecEventType = "statement.start"
	StatementSuccess  ExecEventType = "statement.success"
	StatementFailed   ExecEventType = "statement.failed"
	TransactionBegin  ExecEventType = "transaction.begin"
	TransactionCommit ExecEventType = "transaction.commit"
	TransactionAbort  ExecEventType = "transaction.abort"
)

// ExecEvent is emitted on the session bus around each executed statement
// and transaction boundary.
type ExecEvent struct {
	Type      ExecEventType      `json:"type"`
	Dialect   string             `json:"dialect"`
	SQL       string             `json:"sql,omitempty"`
	Params    []any              `json:"params,omitempty"`
	Kind      string             `json:"kind,omitempty"`
	Depth     int                `json:"depth,omitempty"`
	Error     *string            `json:"error,omitempty"`
	Duration  time.Duration      `json:"duration,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Result    *query.QueryResult `json:"-"`
}

// EventCallback handles one emitted event. A returned error is the
// subscriber's concern; emission never fails the emitting statement.
type EventCallback func(ctx context.Context, event ExecEvent) error

// SubscriptionInfo describes a registered event subscription.
type SubscriptionInfo struct {
	ID          string
	Event       ExecEventType
	Label       *string
	Description *string
	unsubscribe func()
}

// RegisterSubscriptionOptions configures a new subscription.
type RegisterSubscriptionOptions struct {
	Event       ExecEventType
	Callback    EventCallback
	Label       *string
	Description *string
}

// eventHub owns the typed bus and the subscription registry.
type eventHub struct {
	bus           *events.TypedEventBus[ExecEvent]
	subMu         sync.RWMutex
	subscriptions map[string]*SubscriptionInfo
}

func newEventHub() (*eventHub, error) {
	bus, err := events.NewTypedEventBus[ExecEvent](events.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &eventHub{
		bus:           bus,
		subscriptions: make(map[string]*SubscriptionInfo),
	}, nil
}

func (h *eventHub) emit(event ExecEvent) {
	if h == nil || h.bus == nil {
		return
	}
	event.Timestamp = time.Now()
	h.bus.Emit(string(event.Type), event)
}

// register subscribes a callback and returns an ID for later removal.
func (h *eventHub) register(options RegisterSubscriptionOptions) string {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	unsubscribe := h.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	h.subscriptions[id] = &SubscriptionInfo{
		ID:          id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		unsubscribe: unsubscribe,
	}
	return id
}

func (h *eventHub) unregister(id string) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	if info, ok := h.subscriptions[id]; ok {
		info.unsubscribe()
		delete(h.subscriptions, id)
	}
}

func (h *eventHub) list() []SubscriptionInfo {
	h.subMu.RLock()
	defer h.subMu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(h.subscriptions))
	for _, sub := range h.subscriptions {
		subs = append(subs, *sub)
	}
	return subs
}
