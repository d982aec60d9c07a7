// Package server exposes the HTTP surface: the WebSocket upgrade, health and
// stats endpoints, and a built-in test page speaking the envelope protocol.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades GET requests on the relay endpoint and attaches
// the resulting connection to the hub.
func (h *Hub) WebSocketHandler() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     newOriginChecker(h.cfg.AllowedOrigins, h.log).check,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "err", err)
			return
		}

		h.attach(newClient(h, conn, r.RemoteAddr))
	}
}

// HealthHandler reports that the relay is up.
func (h *Hub) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "chat relay is running")
}

// StatsHandler reports live room, membership, and connection counts.
func (h *Hub) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	rooms, memberships, connections := h.Stats()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{
		"rooms":       rooms,
		"memberships": memberships,
		"connections": connections,
	})
}

// TestPageHandler serves a minimal browser client for poking the relay by
// hand: connect, setup an identity, join a room, send typing and message
// events, and watch what comes back.
func (h *Hub) TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		h.log.Warn("writing test page failed", "err", err)
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Chat Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background: #f9f9f9; }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 5px; }
        button { padding: 5px 12px; }
    </style>
</head>
<body>
    <h1>Chat Relay Test</h1>
    <div>
        <button onclick="connect()">Connect</button>
        <input type="text" id="identity" placeholder="identity">
        <button onclick="send('setup', {_id: val('identity')})">Setup</button>
        <input type="text" id="room" placeholder="room">
        <button onclick="send('join chat', val('room'))">Join</button>
        <button onclick="send('typing', val('room'))">Typing</button>
        <button onclick="send('stop typing', val('room'))">Stop typing</button>
    </div>
    <div>
        <input type="text" id="to" placeholder="recipient identity">
        <input type="text" id="content" placeholder="message">
        <button onclick="sendMessage()">Send message</button>
    </div>
    <div id="log"></div>
    <script>
        let ws = null;
        const log = (line) => {
            const div = document.createElement('div');
            div.textContent = line;
            const el = document.getElementById('log');
            el.appendChild(div);
            el.scrollTop = el.scrollHeight;
        };
        const val = (id) => document.getElementById(id).value.trim();
        function connect() {
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onopen = () => log('-- connected --');
            ws.onclose = () => log('-- closed --');
            ws.onmessage = (e) => log('<< ' + e.data);
        }
        function send(event, data) {
            if (!ws) return;
            const frame = JSON.stringify({event: event, data: data});
            ws.send(frame);
            log('>> ' + frame);
        }
        function sendMessage() {
            send('new message', {
                sender: {_id: val('identity')},
                chat: {users: [{_id: val('identity')}, {_id: val('to')}]},
                content: val('content')
            });
        }
    </script>
</body>
</html>`
