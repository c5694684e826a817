// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/marketpanel/internal/logging"
)

// NewUpgrader returns an upgrader that accepts same-host origins and the
// listed ones ("*" accepts any). A missing Origin header is rejected:
// browsers always send it.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return checkOrigin(r, allowedOrigins)
		},
	}
}

func checkOrigin(r *http.Request, allowedOrigins []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// ServeClient upgrades the request and attaches the connection to session.
// It returns once the client is registered with the hub.
func (h *Hub) ServeClient(ctx context.Context, w http.ResponseWriter, r *http.Request, session string, upgrader *websocket.Upgrader) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	client := newClient(session, sendBuffer)
	select {
	case h.Register <- client:
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
	go client.notify(conn)
	go client.listen(conn, h.Unregister)
	return nil
}

// sanitizeLogValue keeps control characters out of log lines.
func sanitizeLogValue(s string) string {
	if len(s) > 200 {
		s = s[:200]
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
