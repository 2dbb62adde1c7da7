package notifications

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestHostWithoutPort(t *testing.T) {
	require.Equal(t, "example.com", hostWithoutPort("https://example.com:8443"))
	require.Equal(t, "example.com", hostWithoutPort("example.com:80"))
	require.Equal(t, "example.com", hostWithoutPort("example.com"))
	require.Equal(t, "localhost", hostWithoutPort("http://localhost:5173"))
	require.Equal(t, "", hostWithoutPort("  "))
}

func TestIsLoopback(t *testing.T) {
	require.True(t, isLoopback("localhost"))
	require.True(t, isLoopback("127.0.0.1"))
	require.True(t, isLoopback("::1"))
	require.False(t, isLoopback("example.com"))
	require.False(t, isLoopback("10.0.0.1"))
}

func dialHub(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(userID, w, r)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers(userID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, want, hub.Subscribers(userID))
}

func TestBroadcastReachesUserConnections(t *testing.T) {
	hub := NewHub()

	conn := dialHub(t, hub, "user-1")
	waitForSubscribers(t, hub, "user-1", 1)

	hub.Broadcast("user-1", Event{Event: "notification.created", NotificationID: "n-1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, "notification.created", event.Event)
	require.Equal(t, "n-1", event.NotificationID)
}

func TestBroadcastIsScopedToUser(t *testing.T) {
	hub := NewHub()

	mine := dialHub(t, hub, "user-1")
	other := dialHub(t, hub, "user-2")
	waitForSubscribers(t, hub, "user-1", 1)
	waitForSubscribers(t, hub, "user-2", 1)

	hub.Broadcast("user-2", Event{Event: "notification.created", NotificationID: "n-2"})

	require.NoError(t, other.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event Event
	require.NoError(t, other.ReadJSON(&event))
	require.Equal(t, "n-2", event.NotificationID)

	require.NoError(t, mine.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := mine.ReadMessage()
	require.Error(t, err, "no event is delivered to other users")
}

func TestDisconnectRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	conn := dialHub(t, hub, "user-1")
	waitForSubscribers(t, hub, "user-1", 1)

	require.NoError(t, conn.Close())
	waitForSubscribers(t, hub, "user-1", 0)

	// Broadcasting to a user without connections is a no-op.
	hub.Broadcast("user-1", Event{Event: "notification.created"})
	hub.Broadcast("", Event{Event: "notification.created"})
}
