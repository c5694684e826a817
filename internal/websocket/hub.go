// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeSnackbarMessage = "snackbar:message"
	MessageTypeSnackbarError   = "snackbar:error"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type delivery struct {
	session string // empty means every client
	message Message
}

// Hub maintains the set of active clients and routes messages to them.
type Hub struct {
	clients    map[*Client]bool
	outbound   chan delivery
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		outbound:   make(chan delivery, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

// String names the service in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err().
//
// Shutdown is checked first, then client lifecycle events, then messages,
// so a client registered before a message is always considered for it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case d := <-h.outbound:
			h.deliver(d)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Debug().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Debug().Int("total_clients", total).Msg("websocket client disconnected")
}

// logGracefulShutdown closes every client and logs why. ctx.Err() is not
// logged as an error because cancellation is the expected shutdown path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// sortedClients returns the clients in connection order. Callers hold h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// deliver sends a message to its targets in connection order.
// Clients with a full buffer are dropped.
func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range h.sortedClients() {
		if d.session != "" && client.session != d.session {
			continue
		}
		select {
		case client.send <- d.message:
			metrics.WSMessagesSent.WithLabelValues(d.message.Type).Inc()
		default:
			metrics.WSMessagesDropped.Inc()
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// closeAllClients closes every client, in connection order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// SendToSession queues a message for every connection of session.
// It never blocks; when the queue is full the message is dropped.
func (h *Hub) SendToSession(session, messageType string, data interface{}) {
	h.enqueue(delivery{session: session, message: Message{Type: messageType, Data: data}})
}

// BroadcastJSON queues a message for every connected client.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	h.enqueue(delivery{message: Message{Type: messageType, Data: data}})
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.outbound <- d:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", d.message.Type).Msg("websocket queue full, dropping message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionClientCount returns the number of connections of session.
func (h *Hub) SessionClientCount(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if client.session == session {
			n++
		}
	}
	return n
}
