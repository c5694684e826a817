// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

/*
Package websocket pushes panel notifications to browsers.

Every connection belongs to one panel session (the mp_session cookie). The
panel host emits "snackbar:message" and "snackbar:error" notifications for a
session; the hub delivers them to every connection of that session. Messages
with an empty session go to all clients.

Wire format (server to client):

	{"type": "snackbar:message", "data": "Settings saved"}
	{"type": "snackbar:error", "data": "get settings: api returned status 502"}
	{"type": "pong", "data": null}

Clients may send {"type": "ping"} and receive a pong.

The hub runs under suture through Serve. Delivery is non-blocking: a client
whose send buffer is full is disconnected and the message is counted as
dropped.
*/
package websocket
