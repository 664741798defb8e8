package notifications_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/notify/pkg/notifications"
)

func newNotification(userID string, createdAt time.Time) notifications.Notification {
	return notifications.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     "title",
		Body:      "body",
		Channel:   notifications.ChannelInApp,
		Status:    notifications.StatusPending,
		Priority:  notifications.PriorityNormal,
		CreatedAt: createdAt,
	}
}

func TestMemoryStorage_CreateAndFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	notif := newNotification("user-1", time.Now().UTC())
	require.NoError(t, store.Create(ctx, notif))

	found, err := store.FindByID(ctx, notif.ID)
	require.NoError(t, err)
	assert.Equal(t, notif.ID, found.ID)
	assert.Equal(t, "user-1", found.UserID)
	assert.False(t, found.IsRead())

	_, err = store.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}

func TestMemoryStorage_FindMany_Ordering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	base := time.Now().UTC()
	var ids []string
	for i := range 3 {
		n := newNotification("user-1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Create(ctx, n))
		ids = append(ids, n.ID)
	}
	// Another user's record must not leak into the listing.
	require.NoError(t, store.Create(ctx, newNotification("user-2", base)))

	list, err := store.FindMany(ctx, notifications.Filter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID, "newest first")
	assert.Equal(t, ids[0], list[2].ID)
}

func TestMemoryStorage_FindMany_ReadFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	read := newNotification("user-1", time.Now().UTC())
	unread := newNotification("user-1", time.Now().UTC())
	require.NoError(t, store.Create(ctx, read))
	require.NoError(t, store.Create(ctx, unread))
	_, err := store.MarkRead(ctx, read.ID)
	require.NoError(t, err)

	isRead := true
	list, err := store.FindMany(ctx, notifications.Filter{UserID: "user-1", IsRead: &isRead})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, read.ID, list[0].ID)

	isRead = false
	list, err = store.FindMany(ctx, notifications.Filter{UserID: "user-1", IsRead: &isRead})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, unread.ID, list[0].ID)
}

func TestMemoryStorage_MarkRead_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	notif := newNotification("user-1", time.Now().UTC())
	require.NoError(t, store.Create(ctx, notif))

	first, err := store.MarkRead(ctx, notif.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	second, err := store.MarkRead(ctx, notif.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ReadAt)
	assert.Equal(t, *first.ReadAt, *second.ReadAt, "re-marking keeps the original timestamp")

	_, err = store.MarkRead(ctx, "missing")
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}

func TestMemoryStorage_UnreadCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	a := newNotification("user-1", time.Now().UTC())
	b := newNotification("user-1", time.Now().UTC())
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	count, err := store.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = store.MarkRead(ctx, a.ID)
	require.NoError(t, err)

	count, err = store.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.CountUnread(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMemoryStorage_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	notif := newNotification("user-1", time.Now().UTC())
	require.NoError(t, store.Create(ctx, notif))

	require.NoError(t, store.Delete(ctx, notif.ID))

	_, err := store.FindByID(ctx, notif.ID)
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)

	err = store.Delete(ctx, notif.ID)
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}

func TestMemoryStorage_Templates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	require.NoError(t, notifications.SeedTemplates(ctx, store))

	tpl, err := store.FindTemplateByID(ctx, notifications.TemplateWorkOrderCompleted)
	require.NoError(t, err)
	assert.Contains(t, tpl.Body, "{{")

	_, err = store.FindTemplateByID(ctx, 999)
	assert.ErrorIs(t, err, notifications.ErrTemplateNotFound)

	// Re-seeding is a no-op, not a duplicate or an error.
	require.NoError(t, notifications.SeedTemplates(ctx, store))
}

func TestMemoryStorage_ConcurrentCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	done := make(chan struct{})
	for i := range 10 {
		go func() {
			defer func() { done <- struct{}{} }()
			n := newNotification(fmt.Sprintf("user-%d", i%2), time.Now().UTC())
			assert.NoError(t, store.Create(ctx, n))
		}()
	}
	for range 10 {
		<-done
	}

	list, err := store.FindMany(ctx, notifications.Filter{UserID: "user-0"})
	require.NoError(t, err)
	assert.Len(t, list, 5)
}
