package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// clientFrame is the control message a socket sends to manage its channel
// subscriptions.
type clientFrame struct {
	Action    string `json:"action"` // "join" or "leave"
	ProjectID uint64 `json:"project_id"`
}

// Client is one websocket connection. Channel membership is per-socket and
// lost on disconnect; reconnecting clients re-join and re-fetch state.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uint64

	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewClient wraps an upgraded connection and starts its read/write pumps.
func NewClient(hub *Hub, conn *websocket.Conn, userID uint64) *Client {
	client := &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) close() {
	c.once.Do(func() {
		c.hub.drop(c)
		close(c.done)
		c.conn.Close()
	})
}

// readPump consumes join/leave frames until the connection drops.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: read error for user %d: %v", c.userID, err)
			}
			return
		}

		switch frame.Action {
		case "join":
			c.hub.join(frame.ProjectID, c)
		case "leave":
			c.hub.leave(frame.ProjectID, c)
		}
	}
}

// writePump forwards broadcasts to the socket and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
