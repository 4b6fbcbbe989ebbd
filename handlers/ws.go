package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/taskgrid/taskgrid/board"
	"github.com/taskgrid/taskgrid/services"
)

// WSHandler upgrades authenticated connections and registers them with the
// event hub so the board updates live across sessions.
type WSHandler struct {
	hub *services.Hub
}

func NewWSHandler(hub *services.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, board.ErrUnauthorized)
		return
	}

	// Upgrade HTTP connection to WebSocket
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	// A user may hold several connections (multiple tabs or devices);
	// each registers independently.
	client := &services.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: user.ID,
	}

	h.hub.Register(client)
	log.Printf("WebSocket client registered: %s", user.ID)

	// Start goroutines for reading and writing
	go client.WritePump()
	go client.ReadPump()
}
