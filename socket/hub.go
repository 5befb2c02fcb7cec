package socket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"postserver/internal/post/model"
	"postserver/pkg/logger"
	"postserver/pkg/metrics"
)

var errHubStopped = errors.New("socket: hub stopped")

// Hub fans post events out to every connected WebSocket client.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan model.PostEvent
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan model.PostEvent, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.removeLocked(client)
			}
			h.mu.Unlock()
			close(h.done)
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.WebSocketClients.Inc()
			logger.Sugar.Debugf("Realtime client connected: %s", client.ID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if h.clients[client] {
				h.removeLocked(client)
				logger.Sugar.Debugf("Realtime client disconnected: %s", client.ID)
			}
			h.mu.Unlock()

		case event := <-h.Broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling post event: %v", err)
				continue
			}

			// Send outside the lock.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					// Lagging client: drop it rather than block the hub.
					logger.Sugar.Warnf("Client %s's send buffer is full. Disconnecting.", client.ID)
					metrics.EventsDropped.Inc()
					h.mu.Lock()
					if h.clients[client] {
						h.removeLocked(client)
					}
					h.mu.Unlock()
				}
			}
		}
	}
}

// Publish queues an event for broadcast. It gives up when ctx is done.
func (h *Hub) Publish(ctx context.Context, event model.PostEvent) error {
	select {
	case <-h.done:
		return errHubStopped
	default:
	}
	select {
	case h.Broadcast <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return errHubStopped
	}
}

// register hands a client to the event loop; false means the hub has stopped.
func (h *Hub) register(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// removeLocked must be called with h.mu held.
func (h *Hub) removeLocked(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	metrics.WebSocketClients.Dec()
}
