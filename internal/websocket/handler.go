package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches an editor connection to the session and blocks until it
// closes.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 256)}
	if !hub.join(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
