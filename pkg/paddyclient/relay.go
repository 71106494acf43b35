package paddyclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	EventPriceUpdate = "priceUpdate"
	EventNewPrice    = "newPrice"

	relayWriteWait = 10 * time.Second
)

// Event is one frame received from the relay. Data is the payload exactly as
// the publisher sent it.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Price decodes the event payload as a price.
func (e Event) Price() (Price, error) {
	var p Price
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return p, errors.New("event has no price payload")
	}
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return p, fmt.Errorf("decode price event: %w", err)
	}
	return p, nil
}

// Relay is a websocket subscriber to the server's price relay. Every received
// event is handed to the dispatch callback from a single reader goroutine.
type Relay struct {
	url      string
	header   http.Header
	dialer   *websocket.Dialer
	dispatch func(Event)

	mu     sync.Mutex
	conn   *websocket.Conn
	closed chan struct{}
}

// NewRelay builds a relay for the server at baseURL. It does not connect.
func NewRelay(baseURL string, dispatch func(Event)) *Relay {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	if dispatch == nil {
		dispatch = func(Event) {}
	}
	return &Relay{
		url:      u + "/api/socket",
		header:   http.Header{},
		dialer:   websocket.DefaultDialer,
		dispatch: dispatch,
	}
}

// SetOrigin sets the Origin header sent on connect, for servers that restrict
// websocket origins.
func (r *Relay) SetOrigin(origin string) {
	r.header.Set("Origin", origin)
}

// Connect dials the relay. Calling Connect on a connected relay is a no-op.
func (r *Relay) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return nil
	}

	conn, resp, err := r.dialer.DialContext(ctx, r.url, r.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("connect relay: %w", err)
	}

	r.conn = conn
	r.closed = make(chan struct{})
	go r.readLoop(conn, r.closed)
	return nil
}

// Done is closed when the current connection's reader exits, whether from
// Disconnect or a server close.
func (r *Relay) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return r.closed
}

// Disconnect closes the connection and waits for the reader to exit.
func (r *Relay) Disconnect() error {
	r.mu.Lock()
	conn, closed := r.conn, r.closed
	r.conn = nil
	r.mu.Unlock()
	if conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(relayWriteWait))
	err := conn.Close()
	<-closed
	return err
}

// EmitPriceUpdate sends v as a priceUpdate frame. The server rebroadcasts it
// to every subscriber, this one included.
func (r *Relay) EmitPriceUpdate(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode price update: %w", err)
	}
	frame, err := json.Marshal(Event{Name: EventPriceUpdate, Data: data})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return ErrNotConnected
	}
	_ = r.conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
	return r.conn.WriteMessage(websocket.TextMessage, frame)
}

func (r *Relay) readLoop(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			r.mu.Lock()
			if r.conn == conn {
				r.conn = nil
				conn.Close()
			}
			r.mu.Unlock()
			return
		}
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil || ev.Name == "" {
			continue
		}
		r.dispatch(ev)
	}
}
