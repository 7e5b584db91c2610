package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub(zaptest.NewLogger(t))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Subscribe(conn, r.URL.Query().Get("player"))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(h.Close)
	return h, srv
}

func dialHub(t *testing.T, srv *httptest.Server, player string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?player=" + player
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	h, srv := newTestHub(t)
	conn := dialHub(t, srv, "p1")
	defer conn.Close()

	// The server-side subscription races the dial; keep broadcasting until
	// the payload lands.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				h.Broadcast([]byte("hello"))
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "hello", string(msg))
}

func TestBroadcastSurvivesDisconnectChurn(t *testing.T) {
	h, srv := newTestHub(t)
	keeper := dialHub(t, srv, "keeper")
	defer keeper.Close()

	// Keep the surviving subscriber draining so it is never dropped as slow.
	received := make(chan struct{}, 1)
	go func() {
		for {
			if _, _, err := keeper.ReadMessage(); err != nil {
				return
			}
			select {
			case received <- struct{}{}:
			default:
			}
		}
	}()

	// Broadcasts race connects and disconnects; a disconnect landing between
	// the subscriber snapshot and the send must not take the broadcaster down.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			h.Broadcast([]byte("tick"))
			time.Sleep(time.Millisecond)
		}
	}()
	for i := 0; i < 25; i++ {
		c := dialHub(t, srv, "churn")
		c.Close()
	}
	wg.Wait()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("surviving subscriber stopped receiving broadcasts")
	}
}
