package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"quest-bot/internal/domain"
)

// EventRouter handles inbound chat events (app.Router).
type EventRouter interface {
	HandleMessage(ctx context.Context, ev domain.MessageEvent) (domain.Reply, error)
	HandleReaction(ctx context.Context, ev domain.ReactionEvent) error
}

// WSHandler accepts chat bridge connections: the bridge forwards platform
// messages and reactions, and receives replies, direct messages and broadcasts.
type WSHandler struct {
	router   EventRouter
	hub      *Hub
	token    string
	upgrader websocket.Upgrader
}

func NewWSHandler(router EventRouter, hub *Hub, token string) *WSHandler {
	return &WSHandler{
		router: router,
		hub:    hub,
		token:  token,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId"`
	Payload   json.RawMessage `json:"payload"`
}

type replyPayload struct {
	RequestID             string            `json:"requestId,omitempty"`
	ParticipantID         string            `json:"participantId"`
	Text                  string            `json:"text"`
	Choices               []domain.EmojiRef `json:"choices,omitempty"`
	ReactionWindowSeconds int               `json:"reactionWindowSeconds,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	RequestID string `json:"requestId,omitempty"`
	Message   string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quest use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.token != "" && r.URL.Query().Get("token") != h.token {
		http.Error(w, "invalid bridge token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	bc := h.hub.register()
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-bc.send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-bc.done:
				return
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	var handlers sync.WaitGroup

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		// Events are independent units of work; the router serializes per participant.
		handlers.Add(1)
		go func(in inboundMessage) {
			defer handlers.Done()
			h.handle(ctx, bc, in)
		}(inbound)
	}

	cancel()
	handlers.Wait()
	h.hub.unregister(bc)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, bc *bridgeConn, in inboundMessage) {
	switch in.Type {
	case "message":
		var ev domain.MessageEvent
		if err := json.Unmarshal(in.Payload, &ev); err != nil || ev.ParticipantID == "" {
			h.sendError(ctx, bc, in.RequestID, "invalid message payload")
			return
		}
		reply, err := h.router.HandleMessage(ctx, ev)
		if err != nil {
			log.Printf("handle message from %s: %v", ev.ParticipantID, err)
			h.sendError(ctx, bc, in.RequestID, err.Error())
			return
		}
		if reply.Empty() {
			return
		}
		_, _ = bc.enqueue(ctx, outboundMessage[any]{Type: "reply", Payload: replyPayload{
			RequestID:             in.RequestID,
			ParticipantID:         ev.ParticipantID,
			Text:                  reply.Text,
			Choices:               reply.Choices,
			ReactionWindowSeconds: int(reply.ReactionWindow.Seconds()),
		}})
	case "reaction":
		var ev domain.ReactionEvent
		if err := json.Unmarshal(in.Payload, &ev); err != nil || ev.ParticipantID == "" {
			h.sendError(ctx, bc, in.RequestID, "invalid reaction payload")
			return
		}
		if err := h.router.HandleReaction(ctx, ev); err != nil {
			log.Printf("handle reaction from %s: %v", ev.ParticipantID, err)
			h.sendError(ctx, bc, in.RequestID, err.Error())
		}
	default:
		h.sendError(ctx, bc, in.RequestID, "unsupported message type")
	}
}

func (h *WSHandler) sendError(ctx context.Context, bc *bridgeConn, requestID, message string) {
	_, _ = bc.enqueue(ctx, outboundMessage[any]{Type: "error", Payload: errorPayload{RequestID: requestID, Message: message}})
}
