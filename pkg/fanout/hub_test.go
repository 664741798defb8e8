package fanout_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/notify/pkg/fanout"
)

func waitForEvent(t *testing.T, sub *fanout.Subscriber) fanout.Envelope {
	t.Helper()
	select {
	case env, ok := <-sub.Events():
		require.True(t, ok, "event channel closed before event arrived")
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return fanout.Envelope{}
	}
}

func TestMemoryHub_EmitReachesRoomMembers(t *testing.T) {
	hub := fanout.NewMemoryHub(8)
	defer hub.Close()

	ctx := context.Background()
	sub, err := hub.Join(ctx, "guid-1")
	require.NoError(t, err)
	defer sub.Close()

	other, err := hub.Join(ctx, "guid-2")
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, hub.Emit(ctx, "guid-1", "newNotification", map[string]string{"id": "n1"}))

	env := waitForEvent(t, sub)
	assert.Equal(t, "newNotification", env.Event)
	assert.Equal(t, "guid-1", env.Room)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "n1", payload["id"])

	// The other room saw nothing.
	select {
	case env := <-other.Events():
		t.Fatalf("unexpected event in guid-2: %+v", env)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryHub_EmitToEmptyRoomIsDropped(t *testing.T) {
	hub := fanout.NewMemoryHub(8)
	defer hub.Close()

	err := hub.Emit(context.Background(), "nobody-home", "newNotification", "hi")
	assert.NoError(t, err)
}

func TestMemoryHub_MultiRoomJoin(t *testing.T) {
	hub := fanout.NewMemoryHub(8)
	defer hub.Close()

	ctx := context.Background()
	// A connection is a member of both its resolved identity room and its
	// raw identifier room.
	sub, err := hub.Join(ctx, "guid-1", "local-1")
	require.NoError(t, err)
	defer sub.Close()

	assert.Equal(t, 1, hub.SubscriberCount("guid-1"))
	assert.Equal(t, 1, hub.SubscriberCount("local-1"))

	require.NoError(t, hub.Emit(ctx, "local-1", "newNotification", "via-raw-id"))
	env := waitForEvent(t, sub)
	assert.Equal(t, "local-1", env.Room)
}

func TestMemoryHub_DisconnectRevokesMembership(t *testing.T) {
	hub := fanout.NewMemoryHub(8)
	defer hub.Close()

	t.Run("explicit close", func(t *testing.T) {
		sub, err := hub.Join(context.Background(), "guid-1")
		require.NoError(t, err)
		require.Equal(t, 1, hub.SubscriberCount("guid-1"))

		require.NoError(t, sub.Close())
		assert.Equal(t, 0, hub.SubscriberCount("guid-1"))

		_, ok := <-sub.Events()
		assert.False(t, ok, "event channel should be closed")
	})

	t.Run("context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		_, err := hub.Join(ctx, "guid-2")
		require.NoError(t, err)
		require.Equal(t, 1, hub.SubscriberCount("guid-2"))

		cancel()
		assert.Eventually(t, func() bool {
			return hub.SubscriberCount("guid-2") == 0
		}, time.Second, 10*time.Millisecond)
	})
}

func TestMemoryHub_SlowConsumerMissesEvents(t *testing.T) {
	hub := fanout.NewMemoryHub(1)
	defer hub.Close()

	ctx := context.Background()
	sub, err := hub.Join(ctx, "guid-1")
	require.NoError(t, err)
	defer sub.Close()

	// Buffer holds one event; the second is dropped rather than blocking.
	require.NoError(t, hub.Emit(ctx, "guid-1", "newNotification", 1))
	require.NoError(t, hub.Emit(ctx, "guid-1", "newNotification", 2))

	env := waitForEvent(t, sub)
	var got int
	require.NoError(t, json.Unmarshal(env.Payload, &got))
	assert.Equal(t, 1, got)

	select {
	case env := <-sub.Events():
		t.Fatalf("expected dropped event, got %+v", env)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryHub_JoinAfterClose(t *testing.T) {
	hub := fanout.NewMemoryHub(8)
	require.NoError(t, hub.Close())

	_, err := hub.Join(context.Background(), "guid-1")
	assert.ErrorIs(t, err, fanout.ErrHubClosed)
}
