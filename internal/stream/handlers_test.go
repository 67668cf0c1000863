package stream

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

// fakeAuth signs the caller in as ?as=<user>.
func fakeAuth(c *fiber.Ctx) error {
	if as := c.Query("as"); as != "" {
		c.Locals("user_id", as)
		return c.Next()
	}
	return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
}

func startServer(t *testing.T, hub *Hub) string {
	t.Helper()
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub, fakeAuth)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "ws://" + ln.Addr().String()
}

func TestStreamHandlersRejections(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), NewHub(nil, nil), fakeAuth)

	cases := []struct {
		path string
		want int
	}{
		{"/stream/ws/user-1", http.StatusUnauthorized},
		{"/stream/ws/user-1?as=user-2", http.StatusForbidden},
		{"/stream/ws/user-1?as=user-1", http.StatusUpgradeRequired},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
		if err != nil {
			t.Fatalf("request error: %v", err)
		}
		if resp.StatusCode != tc.want {
			t.Fatalf("%s: status %d, want %d", tc.path, resp.StatusCode, tc.want)
		}
	}
}

func TestStreamHandlersWebsocketBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	base := startServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/stream/ws/user-1?as=user-1", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	waitClients(t, hub, "user-1", 1)
	_ = hub.Broadcast(context.Background(), "user-1", []byte("hello"))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(msg) != "hello" {
		t.Fatalf("unexpected message %q", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("client")); err != nil {
		t.Fatalf("write error: %v", err)
	}
}

func TestStreamHandlersUnregisterOnClose(t *testing.T) {
	hub := NewHub(nil, nil)
	base := startServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/stream/ws/user-3?as=user-3", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	waitClients(t, hub, "user-3", 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	conn.Close()
	waitClients(t, hub, "user-3", 0)
}

func waitClients(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.clients[userID])
		hub.mu.RUnlock()
		if n == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients for %s, got %d", want, userID, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
