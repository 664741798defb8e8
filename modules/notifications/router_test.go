package notifications_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	module "github.com/fieldops/notify/modules/notifications"
	"github.com/fieldops/notify/pkg/directory"
	"github.com/fieldops/notify/pkg/fanout"
	"github.com/fieldops/notify/pkg/jwt"
	"github.com/fieldops/notify/pkg/notifications"
)

// roomResolver maps subjects to routing keys from a fixed table.
type roomResolver map[string]string

func (r roomResolver) Lookup(_ context.Context, userID string) (string, error) {
	if key, ok := r[userID]; ok {
		return key, nil
	}
	return "", directory.ErrUserNotFound
}

type testEnv struct {
	handler http.Handler
	store   *notifications.MemoryStorage
	hub     *fanout.MemoryHub
}

func newTestEnv(t *testing.T, cfg module.Config, opts ...module.Option) testEnv {
	t.Helper()

	store := notifications.NewMemoryStorage()
	hub := fanout.NewMemoryHub(16)
	t.Cleanup(func() { _ = hub.Close() })

	svc := notifications.NewService(store, hub)
	m := module.New(cfg, svc, hub, opts...)
	return testEnv{handler: m.Handle(), store: store, hub: hub}
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestModule_Deliver(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, module.Config{})

	rec := postJSON(t, env.handler, "/", `{
		"recipients": ["user-1", "user-2"],
		"title": "maintenance tonight",
		"body": "expect a short outage"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)

	var result notifications.DeliverResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Len(t, result.Notifications, 2)
	assert.Empty(t, result.Failures)

	list, err := env.store.FindMany(context.Background(), notifications.Filter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notifications.StatusPending, list[0].Status)
}

func TestModule_Deliver_Errors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, module.Config{})

	t.Run("empty recipients", func(t *testing.T) {
		t.Parallel()
		rec := postJSON(t, env.handler, "/", `{"recipients": [], "title": "t"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()
		rec := postJSON(t, env.handler, "/", `{"recipients": ["u"], "templateId": 77}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		rec := postJSON(t, env.handler, "/", `{"recipients": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestModule_ListAndFilters(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, module.Config{})

	rec := postJSON(t, env.handler, "/", `{"recipients": ["user-1"], "title": "a", "body": "b"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = getJSON(t, env.handler, "/?userId=user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []notifications.Notification
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &list))
	require.Len(t, list, 1)

	rec = getJSON(t, env.handler, "/?userId=user-1&isRead=true")
	require.Equal(t, http.StatusOK, rec.Code)
	list = nil
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &list))
	assert.Empty(t, list)

	rec = getJSON(t, env.handler, "/?userId=user-1&isRead=banana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModule_ReadLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, module.Config{})

	rec := postJSON(t, env.handler, "/", `{"recipients": ["user-1"], "title": "a", "body": "b"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result notifications.DeliverResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &result))
	id := result.Notifications[0].ID

	rec = getJSON(t, env.handler, "/unread/count?userId=user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	req := httptest.NewRequest(http.MethodPatch, "/"+id+"/read", nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var marked notifications.Notification
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &marked))
	assert.True(t, marked.IsRead())

	rec = getJSON(t, env.handler, "/unread/count?userId=user-1")
	assert.Contains(t, rec.Body.String(), `"count":0`)

	req = httptest.NewRequest(http.MethodDelete, "/"+id, nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = getJSON(t, env.handler, "/"+id)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/"+id, nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModule_UnreadCount_RequiresUserID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, module.Config{})
	rec := getJSON(t, env.handler, "/unread/count")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModule_Stream(t *testing.T) {
	t.Parallel()

	verifier, err := jwt.New([]byte("stream-test-signing-key-0123456789ab"))
	require.NoError(t, err)

	t.Run("authenticated connection receives its events", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, module.Config{RequireAuth: true, HeartbeatIntervalSec: 60},
			module.WithVerifier(verifier))

		token, err := verifier.Generate(jwt.Claims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/stream?token="+token, nil).WithContext(ctx)
		rec := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			defer close(done)
			env.handler.ServeHTTP(rec, req)
		}()

		// Wait for the subscription before emitting.
		require.Eventually(t, func() bool {
			return env.hub.SubscriberCount("user-1") == 1
		}, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, env.hub.Emit(ctx, "user-1", "newNotification",
			map[string]string{"id": "n-1"}))

		// Give the handler a moment to write the event before tearing down.
		time.Sleep(100 * time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		body := rec.Body.String()
		assert.Contains(t, body, "event: newNotification")
		assert.Contains(t, body, `"id":"n-1"`)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	})

	t.Run("joins routing key room when resolver configured", func(t *testing.T) {
		t.Parallel()

		resolver := roomResolver{"user-1": "guid-1"}
		env := newTestEnv(t, module.Config{RequireAuth: true, HeartbeatIntervalSec: 60},
			module.WithVerifier(verifier), module.WithResolver(resolver))

		token, err := verifier.Generate(jwt.Claims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/stream?token="+token, nil).WithContext(ctx)
		rec := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			defer close(done)
			env.handler.ServeHTTP(rec, req)
		}()

		require.Eventually(t, func() bool {
			return env.hub.SubscriberCount("user-1") == 1 &&
				env.hub.SubscriberCount("guid-1") == 1
		}, 2*time.Second, 10*time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}
	})

	t.Run("rejects anonymous connection when auth required", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, module.Config{RequireAuth: true},
			module.WithVerifier(verifier))

		rec := getJSON(t, env.handler, "/stream")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, module.Config{RequireAuth: false},
			module.WithVerifier(verifier))

		rec := getJSON(t, env.handler, "/stream?token=not.a.token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("anonymous connection joins private room when auth optional", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, module.Config{RequireAuth: false, HeartbeatIntervalSec: 60})

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
		rec := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			defer close(done)
			env.handler.ServeHTTP(rec, req)
		}()

		// The connection is live in some room, but not in any user room.
		require.Eventually(t, func() bool {
			return env.hub.SubscriberCount("user-1") == 0
		}, time.Second, 10*time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}
	})
}

func TestModule_RoutesAreMounted(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, module.Config{})
	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/missing-id"},
		{http.MethodPatch, "/missing-id/read"},
		{http.MethodDelete, "/missing-id"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equalf(t, http.StatusNotFound, rec.Code, "%s %s", route.method, route.path)
	}
}
