package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, opts Options) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(opts, slog.New(slog.DiscardHandler))
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(cancel)
	t.Cleanup(srv.Close)
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func TestHub_RebroadcastsToEveryClientIncludingSender(t *testing.T) {
	hub, srv, _ := startHub(t, Options{})
	sender := dial(t, srv, nil)
	viewer := dial(t, srv, nil)
	waitForClients(t, hub, 2)

	payload := `{"millId":"m1","riceVariety":"Basmati","pricePerKg":120}`
	send(t, sender, `{"event":"priceUpdate","data":`+payload+`}`)

	for _, conn := range []*websocket.Conn{sender, viewer} {
		f := readFrame(t, conn)
		assert.Equal(t, EventNewPrice, f.Event)
		assert.JSONEq(t, payload, string(f.Data))
	}
}

func TestHub_DropsMalformedAndUnknownFrames(t *testing.T) {
	hub, srv, _ := startHub(t, Options{})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	send(t, conn, `not json`)
	send(t, conn, `{"event":"chat","data":"hello"}`)
	send(t, conn, `{"event":"priceUpdate","data":42}`)

	f := readFrame(t, conn)
	assert.Equal(t, EventNewPrice, f.Event)
	assert.JSONEq(t, `42`, string(f.Data))
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_MissingDataIsRelayedAsNull(t *testing.T) {
	hub, srv, _ := startHub(t, Options{})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	send(t, conn, `{"event":"priceUpdate"}`)

	assert.JSONEq(t, `null`, string(readFrame(t, conn).Data))
}

func TestHub_OversizedFrameDisconnects(t *testing.T) {
	hub, srv, _ := startHub(t, Options{MaxMessageBytes: 64})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	send(t, conn, `{"event":"priceUpdate","data":"`+strings.Repeat("x", 200)+`"}`)

	waitForClients(t, hub, 0)
}

func TestHub_PublishFromServer(t *testing.T) {
	hub, srv, _ := startHub(t, Options{})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	hub.Publish(context.Background(), json.RawMessage(`{"pricePerKg":99}`))

	assert.JSONEq(t, `{"pricePerKg":99}`, string(readFrame(t, conn).Data))
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	hub, srv, cancel := startHub(t, Options{})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

type loopbackBridge struct {
	msgs      chan []byte
	published atomic.Int32
	err       error
}

func newLoopbackBridge(err error) *loopbackBridge {
	return &loopbackBridge{msgs: make(chan []byte, 8), err: err}
}

func (b *loopbackBridge) Publish(_ context.Context, msg []byte) error {
	b.published.Add(1)
	if b.err != nil {
		return b.err
	}
	b.msgs <- msg
	return nil
}

func (b *loopbackBridge) Subscribe(ctx context.Context, deliver func([]byte)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-b.msgs:
			deliver(m)
		}
	}
}

func TestHub_FramesTravelThroughBridge(t *testing.T) {
	bridge := newLoopbackBridge(nil)
	hub, srv, _ := startHub(t, Options{Bridge: bridge})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	send(t, conn, `{"event":"priceUpdate","data":{"pricePerKg":150}}`)

	f := readFrame(t, conn)
	assert.JSONEq(t, `{"pricePerKg":150}`, string(f.Data))
	assert.Equal(t, int32(1), bridge.published.Load())
}

func TestHub_BridgeFailureStillDeliversLocally(t *testing.T) {
	bridge := newLoopbackBridge(errors.New("redis unavailable"))
	hub, srv, _ := startHub(t, Options{Bridge: bridge})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	send(t, conn, `{"event":"priceUpdate","data":1}`)

	assert.JSONEq(t, `1`, string(readFrame(t, conn).Data))
}

func TestServeWS_OriginCheck(t *testing.T) {
	hub, srv, _ := startHub(t, Options{AllowedOrigins: []string{"http://localhost:3000"}})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	dial(t, srv, http.Header{"Origin": {"http://localhost:3000"}})
	waitForClients(t, hub, 1)
}
