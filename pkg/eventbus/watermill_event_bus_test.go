package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/propflow/pkg/channels/gochannel"
	"github.com/propflow/propflow/pkg/eventbus"
	"github.com/propflow/propflow/pkg/events"
	"github.com/propflow/propflow/pkg/models"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		assert.NoError(t, bus.Close())
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newTestBus(t)
	received := make(chan *events.CRMEventReceived, 1)

	err := bus.Handle(events.CRMEventReceivedEvent, func(_ context.Context, event interface{}) error {
		received <- event.(*events.CRMEventReceived)

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	published := events.CRMEventReceived{
		BaseEvent: events.NewBaseEvent(events.CRMEventReceivedEvent, ""),
		Event: models.WorkflowEvent{
			Type:      models.TriggerStageChange,
			ContactID: "contact-1",
			Data:      map[string]any{"to": "offer_made"},
		},
	}

	require.NoError(t, bus.Publish(ctx, "contact-1", published))

	select {
	case got := <-received:
		assert.Equal(t, published.ID, got.ID)
		assert.Equal(t, models.TriggerStageChange, got.Event.Type)
		assert.Equal(t, "contact-1", got.Event.ContactID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestWatermillEventBus_RunEventsTravelOnRunsTopic(t *testing.T) {
	bus := newTestBus(t)
	received := make(chan *events.RunPaused, 1)

	err := bus.Handle(events.RunPausedEvent, func(_ context.Context, event interface{}) error {
		received <- event.(*events.RunPaused)

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	resumeAt := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	paused := events.RunPaused{
		BaseEvent:       events.NewBaseEvent(events.RunPausedEvent, "wf-1"),
		RunID:           "run-1",
		ResumeAt:        resumeAt,
		NextActionIndex: 2,
	}

	require.NoError(t, bus.Publish(ctx, "run-1", paused))

	select {
	case got := <-received:
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, 2, got.NextActionIndex)
		assert.True(t, got.ResumeAt.Equal(resumeAt))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for run event delivery")
	}
}

func TestWatermillEventBus_UnhandledEventTypeIsIgnored(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered; publish must still succeed and not wedge the bus.
	event := events.RunCompleted{
		BaseEvent: events.NewBaseEvent(events.RunCompletedEvent, "wf-1"),
		RunID:     "run-1",
	}

	require.NoError(t, bus.Publish(ctx, "run-1", event))
}
