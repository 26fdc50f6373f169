package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/pkg/logger"
)

const (
	defaultBuffer    = 64
	defaultHeartbeat = 30 * time.Second
)

// Client is one connected stream. A client without topics receives everything.
type Client struct {
	ID     string
	Topics []string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Messages returns the client's pending messages
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Done is closed when the client is unsubscribed
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) wants(topic string) bool {
	return len(c.Topics) == 0 || slices.Contains(c.Topics, topic)
}

// Broadcaster fans notifications out to stream clients by topic
type Broadcaster struct {
	logger    *logger.Logger
	heartbeat time.Duration
	buffer    int

	mutex   sync.RWMutex
	clients map[string]*Client

	shutdown  chan struct{}
	closeOnce sync.Once
}

// NewBroadcaster creates a new broadcaster
func NewBroadcaster(log *logger.Logger) *Broadcaster {
	return &Broadcaster{
		logger:    log.WithComponent("sse-broadcaster"),
		heartbeat: defaultHeartbeat,
		buffer:    defaultBuffer,
		clients:   make(map[string]*Client),
		shutdown:  make(chan struct{}),
	}
}

// Subscribe registers a client for the given topics, replacing any client with the same id
func (b *Broadcaster) Subscribe(id string, topics ...string) *Client {
	client := &Client{
		ID:     id,
		Topics: slices.Clone(topics),
		send:   make(chan []byte, b.buffer),
		done:   make(chan struct{}),
	}

	b.mutex.Lock()
	if old, ok := b.clients[id]; ok {
		old.close()
	}
	b.clients[id] = client
	b.mutex.Unlock()

	b.logger.Debug("SSE client connected",
		zap.String("clientId", id),
		zap.Strings("topics", topics))
	return client
}

// Unsubscribe removes a client
func (b *Broadcaster) Unsubscribe(client *Client) {
	b.mutex.Lock()
	if current, ok := b.clients[client.ID]; ok && current == client {
		delete(b.clients, client.ID)
	}
	b.mutex.Unlock()

	client.close()
	b.logger.Debug("SSE client disconnected", zap.String("clientId", client.ID))
}

// Publish sends payload to every client interested in topic.
// Slow clients whose buffer is full miss the message.
func (b *Broadcaster) Publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("Failed to marshal SSE payload", zap.Error(err))
		return
	}

	b.mutex.RLock()
	defer b.mutex.RUnlock()

	for _, client := range b.clients {
		if !client.wants(topic) {
			continue
		}
		select {
		case client.send <- data:
		default:
			b.logger.Warn("SSE client buffer full, dropping message",
				zap.String("clientId", client.ID),
				zap.String("topic", topic))
		}
	}
}

// ClientCount returns the number of connected clients
func (b *Broadcaster) ClientCount() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.clients)
}

// Close disconnects every client
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() {
		close(b.shutdown)

		b.mutex.Lock()
		defer b.mutex.Unlock()
		for _, client := range b.clients {
			client.close()
		}
		b.clients = make(map[string]*Client)
		b.logger.Debug("SSE broadcaster shutdown complete")
	})
}

// Serve streams messages for the given topics until the request ends,
// the client is replaced or the broadcaster closes
func (b *Broadcaster) Serve(w http.ResponseWriter, r *http.Request, clientID string, topics ...string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Server-Sent Events not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := b.Subscribe(clientID, topics...)
	defer b.Unsubscribe(client)

	if err := write(w, flusher, fmt.Sprintf(`{"type":"connected","client_id":%q}`, clientID)); err != nil {
		return
	}

	heartbeat := time.NewTicker(b.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-b.shutdown:
			return
		case data := <-client.send:
			if err := write(w, flusher, string(data)); err != nil {
				b.logger.Warn("Failed to send to SSE client",
					zap.String("clientId", clientID),
					zap.Error(err))
				return
			}
		case <-heartbeat.C:
			msg := fmt.Sprintf(`{"type":"heartbeat","timestamp":%q}`, time.Now().Format(time.RFC3339))
			if err := write(w, flusher, msg); err != nil {
				return
			}
		}
	}
}

func write(w http.ResponseWriter, flusher http.Flusher, data string) error {
	frame := "data: " + data + "\n\n"
	n, err := w.Write([]byte(frame))
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("incomplete write: wrote %d/%d bytes", n, len(frame))
	}
	flusher.Flush()
	return nil
}
