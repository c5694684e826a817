// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/marketpanel/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // tabs only send pings
	sendBuffer     = 32
)

// clientSeq orders clients by connection time.
var clientSeq atomic.Uint64

// Client is one browser tab subscribed to the notifications of its panel
// session. The hub owns send and closes it when it drops the client.
type Client struct {
	id      uint64
	session string
	send    chan Message
	pong    chan struct{}
	dropped chan struct{} // closed once send was seen closed
}

func newClient(session string, buffer int) *Client {
	return &Client{
		id:      clientSeq.Add(1),
		session: session,
		send:    make(chan Message, buffer),
		pong:    make(chan struct{}, 1),
		dropped: make(chan struct{}),
	}
}

// listen answers ping messages until the connection drops, then hands the
// client back to the hub unless the hub already dropped it.
func (c *Client) listen(conn *websocket.Conn, unregister chan<- *Client) {
	defer func() {
		_ = conn.Close()
		select {
		case unregister <- c:
		case <-c.dropped:
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Str("session", c.session).Msg("unexpected websocket close error")
			}
			return
		}
		if msg.Type == MessageTypePing {
			select {
			case c.pong <- struct{}{}:
			default: // a reply is already pending
			}
		}
	}
}

// notify writes session notifications, ping replies and keepalive pings
// until the hub closes send or a write fails.
func (c *Client) notify(conn *websocket.Conn) {
	keepalive := time.NewTicker(pingPeriod)
	defer func() {
		keepalive.Stop()
		_ = conn.Close()
	}()

	for {
		var err error
		select {
		case msg, ok := <-c.send:
			if !ok {
				close(c.dropped)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			err = writeJSON(conn, msg)
		case <-c.pong:
			err = writeJSON(conn, Message{Type: MessageTypePong})
		case <-keepalive.C:
			err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		}
		if err != nil {
			logging.Debug().Err(err).Str("session", c.session).Msg("websocket write failed")
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, msg Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
