// Package server manages individual WebSocket clients: the read/write pumps,
// keepalive, rate limiting, and delivery into the per-connection send buffer.
package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"chatrelay/internal/relay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client couples one WebSocket connection to its relay session. It is the
// session's delivery Sink: outbound frames go through a buffered channel
// drained by the write pump, so delivery never blocks a broadcast.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *relay.Session
	send    chan []byte
	addr    string
	limiter *rateLimiter
	log     *slog.Logger

	closed   atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, addr string) *Client {
	cfg := hub.cfg
	conn.SetReadLimit(cfg.MaxMessageSize)

	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, cfg.SendBufferSize),
		addr:    addr,
		limiter: newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefill),
		log:     hub.log.With("component", "client", "addr", addr),
		done:    make(chan struct{}),
	}
}

// Deliver queues a frame for the write pump. A client whose buffer is full is
// beyond saving: the frame is dropped, the connection is torn down, and the
// read pump unwinds into the usual disconnect cleanup.
func (c *Client) Deliver(frame []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
	}

	c.log.Warn("send buffer full, dropping connection")
	go func() {
		_ = c.conn.Close()
	}()
	return false
}

func (c *Client) finish() {
	c.closed.Store(true)
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Client) readPump() {
	defer func() {
		c.hub.detach(c)
		_ = c.conn.Close()
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("setting read deadline failed", "err", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.limiter.allow() {
			c.log.Warn("rate limit exceeded, discarding frame")
			continue
		}

		c.hub.router.Dispatch(c.session, frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			// One websocket message per frame keeps envelope boundaries
			// intact for clients parsing JSON per message.
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !isExpectedCloseError(err) {
					c.log.Warn("write failed", "err", err)
				}
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// logReadError keeps disconnect noise at debug level and reserves warnings
// for genuinely unexpected failures.
func (c *Client) logReadError(err error) {
	if errors.Is(err, websocket.ErrReadLimit) {
		c.log.Warn("frame exceeded maximum size", "limit", c.hub.cfg.MaxMessageSize)
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		c.log.Debug("client disconnected", "err", err)
		return
	}
	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		c.log.Debug("connection closed", "err", err)
		return
	}
	c.log.Warn("read failed", "err", err)
}

// isExpectedCloseError checks for errors that routinely accompany a
// connection teardown.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
