package assistant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushServer(t *testing.T, payloads ...string) string {
	t.Helper()

	upgrader := ws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, p := range payloads {
			require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(p)))
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestPushListenerAppendsClapMessage(t *testing.T) {
	a, _ := newTestAssistant(t, &fakeBackend{})
	url := pushServer(t, "noise", clapEvent, "more noise")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.RunPushListener(ctx, url)

	require.Eventually(t, func() bool { return len(a.History()) == 1 },
		time.Second, 5*time.Millisecond)

	history := a.History()
	assert.Equal(t, RoleAssistant, history[0].Role)
	assert.Equal(t, clapMessage, history[0].Content)
}

func TestPushListenerIgnoresUnknownPayloads(t *testing.T) {
	a, _ := newTestAssistant(t, &fakeBackend{})
	url := pushServer(t, "noise", "other_event")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.RunPushListener(ctx, url)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, a.History())
}

func TestPushListenerToleratesNoServer(t *testing.T) {
	a, _ := newTestAssistant(t, &fakeBackend{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.RunPushListener(ctx, "ws://127.0.0.1:1/ws")
		close(done)
	}()

	// Nothing connects; the listener just retries quietly and winds
	// down cleanly on cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop on cancel")
	}
	assert.Empty(t, a.History())
}
