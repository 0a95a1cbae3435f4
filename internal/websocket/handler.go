package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection and blocks until the peer goes away.
func ServeWs(hub *Hub, conn *websocket.Conn, userID, sessionID string, handle MessageHandler) {
	client := &Client{
		Hub:       hub,
		Conn:      conn,
		UserID:    userID,
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}
	hub.register <- client

	go client.writePump()
	client.readPump(handle)
}
