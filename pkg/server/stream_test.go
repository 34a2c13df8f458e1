package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikri/sela/pkg/agent"
)

func TestBroadcaster_ObserverPublishesToSubscriber(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	ch := b.subscribe("sess-1")
	defer b.unsubscribe("sess-1", ch)

	b.Observer()("sess-1", agent.Event{Kind: agent.EventOutput, Payload: "done"})

	select {
	case msg := <-ch:
		assert.Equal(t, agent.EventOutput, msg.Kind)
		assert.Equal(t, "done", msg.Payload)
		assert.NotZero(t, msg.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestBroadcaster_SessionIsolation(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	chA := b.subscribe("sess-a")
	defer b.unsubscribe("sess-a", chA)
	chB := b.subscribe("sess-b")
	defer b.unsubscribe("sess-b", chB)

	b.Observer()("sess-a", agent.Event{Kind: agent.EventOutput, Payload: "for a"})

	select {
	case <-chA:
	case <-time.After(time.Second):
		t.Fatal("subscriber for sess-a did not receive the event")
	}

	select {
	case msg := <-chB:
		t.Fatalf("subscriber for sess-b received another session's event: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	ch := b.subscribe("sess-s")
	defer b.unsubscribe("sess-s", ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.publish("sess-s", streamMessage{Kind: agent.EventThinking})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestServer_StreamEndpoint(t *testing.T) {
	broadcaster := NewBroadcaster(zerolog.Nop())
	srv, err := NewServer(paymentsDisabled(), &stubRunner{}, broadcaster, zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + StreamPath + "?sessionId=sess-ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Subscription registers asynchronously with the upgrade.
	require.Eventually(t, func() bool {
		broadcaster.mu.RLock()
		defer broadcaster.mu.RUnlock()
		return len(broadcaster.subs["sess-ws"]) == 1
	}, time.Second, 10*time.Millisecond)

	broadcaster.Observer()("sess-ws", agent.Event{Kind: agent.EventOutput, Payload: "streamed"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, agent.EventOutput, msg.Kind)
	assert.Equal(t, "streamed", msg.Payload)
}

func TestServer_StreamRequiresSessionID(t *testing.T) {
	srv, err := NewServer(paymentsDisabled(), &stubRunner{}, NewBroadcaster(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, StreamPath, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
