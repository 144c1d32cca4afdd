package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

type recordingHandler struct {
	mu     sync.Mutex
	types  []shared.EventType
	events []shared.Event
	err    error
}

func (h *recordingHandler) Handle(event shared.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []shared.EventType { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func syncBus() *EventBus {
	return NewEventBus(Config{AsyncMode: false})
}

func TestEventBus_RoutesByType(t *testing.T) {
	bus := syncBus()

	sessionHandler := &recordingHandler{types: []shared.EventType{shared.EventSessionLogged}}
	badgeHandler := &recordingHandler{types: []shared.EventType{shared.EventBadgeEarned}}
	require.NoError(t, bus.Register(sessionHandler))
	require.NoError(t, bus.Register(badgeHandler))

	event := shared.SessionLoggedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventSessionLogged, "user-1", time.Now()),
		UserID:    "user-1",
		SkillID:   "go",
	}
	require.NoError(t, bus.Publish(event))

	assert.Equal(t, 1, sessionHandler.count())
	assert.Equal(t, 0, badgeHandler.count())
}

func TestEventBus_EmptyTypesMeansAll(t *testing.T) {
	bus := syncBus()

	all := &recordingHandler{}
	require.NoError(t, bus.Register(all))

	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventSkillCreated, "a", time.Now())))
	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventGoalCompleted, "b", time.Now())))

	assert.Equal(t, 2, all.count())
}

func TestEventBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := syncBus()

	failing := &recordingHandler{types: []shared.EventType{shared.EventBadgeEarned}, err: errors.New("boom")}
	healthy := &recordingHandler{types: []shared.EventType{shared.EventBadgeEarned}}
	require.NoError(t, bus.Register(failing))
	require.NoError(t, bus.Register(healthy))

	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventBadgeEarned, "u", time.Now())))

	assert.Equal(t, 1, healthy.count())
	_, failed := bus.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := syncBus()
	bus.Close()

	err := bus.Publish(shared.NewBaseEvent(shared.EventSkillCreated, "u", time.Now()))
	assert.ErrorIs(t, err, ErrEventBusClosed)
	assert.ErrorIs(t, bus.Register(&recordingHandler{}), ErrEventBusClosed)
}

func TestEventBus_AsyncDeliversAll(t *testing.T) {
	bus := NewEventBus(Config{AsyncMode: true, WorkerPoolSize: 4})

	handler := &recordingHandler{types: []shared.EventType{shared.EventSessionLogged}}
	require.NoError(t, bus.Register(handler))

	for i := 0; i < 50; i++ {
		require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventSessionLogged, "u", time.Now())))
	}
	bus.Close()

	assert.Equal(t, 50, handler.count())
}
