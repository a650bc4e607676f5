package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  LearningService
	upgrader websocket.Upgrader
}

func NewWSHandler(service LearningService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeLive upgrades an authenticated request and streams the user's
// dashboard: a full snapshot first, then a points message per change.
// Clients may send {"type":"refresh"} to receive a new snapshot.
func (h *WSHandler) ServeLive(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log := loggerFrom(r).With("user_id", user.ID)

	// subscribe before the snapshot so no change slips between them
	updates, cancel := h.service.Subscribe(user.ID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// only this goroutine writes to conn
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "points", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// push gives up once the writer has stopped
	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	sendSnapshot := func() {
		dash, err := h.service.Dashboard(r.Context(), user.ID)
		if err != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		push(outboundMessage[any]{Type: "dashboard", Payload: dash})
	}
	sendSnapshot()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "refresh":
			sendSnapshot()
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
