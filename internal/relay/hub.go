package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Bridge fans frames out across server instances.
type Bridge interface {
	Publish(ctx context.Context, msg []byte) error
	Subscribe(ctx context.Context, deliver func([]byte)) error
}

type Options struct {
	SendBuffer      int
	MaxMessageBytes int64
	AllowedOrigins  []string
	// Bridge is optional; without it frames only reach this instance's clients.
	Bridge Bridge
}

// Hub owns the set of connected clients. All mutation of that set happens on
// the goroutine running Run.
type Hub struct {
	opts   Options
	logger *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	clients map[*Client]struct{}
	count   atomic.Int64
}

func NewHub(opts Options, logger *slog.Logger) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 64 << 10
	}
	return &Hub{
		opts:       opts,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.opts.Bridge != nil {
		go h.runBridge(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			h.logger.Info("relay stopped")
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.logger.Debug("relay client connected", slog.String("client_id", c.id), slog.Int("clients", len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Debug("relay client disconnected", slog.String("client_id", c.id), slog.Int("clients", len(h.clients)))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Debug("relay client too slow, frame dropped", slog.String("client_id", c.id))
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Publish wraps data in a newPrice frame and sends it to every client. With a
// bridge the frame takes the round trip through it so other instances see it
// too; if the bridge refuses it, local clients still get it.
func (h *Hub) Publish(ctx context.Context, data json.RawMessage) {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	msg, err := json.Marshal(Frame{Event: EventNewPrice, Data: data})
	if err != nil {
		h.logger.Debug("relay payload is not valid JSON", slog.Any("error", err))
		return
	}

	if h.opts.Bridge != nil {
		err := h.opts.Bridge.Publish(ctx, msg)
		if err == nil {
			return
		}
		h.logger.Warn("relay bridge publish failed, delivering locally", slog.Any("error", err))
	}
	h.deliver(msg)
}

func (h *Hub) deliver(msg []byte) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) runBridge(ctx context.Context) {
	const retryDelay = time.Second
	for {
		err := h.opts.Bridge.Subscribe(ctx, h.deliver)
		if ctx.Err() != nil {
			return
		}
		h.logger.Warn("relay bridge subscription ended", slog.Any("error", err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}
