package http

import (
	"context"
	"sync"

	"quest-bot/internal/domain"
)

// Hub tracks connected chat bridges and implements app.NotificationGateway by
// pushing frames to every one of them.
type Hub struct {
	mu    sync.RWMutex
	conns map[*bridgeConn]struct{}
}

type bridgeConn struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*bridgeConn]struct{})}
}

type directPayload struct {
	ParticipantID string `json:"participantId"`
	Text          string `json:"text"`
}

type broadcastPayload struct {
	Scope          string   `json:"scope"`
	ParticipantIDs []string `json:"participantIds,omitempty"`
	Text           string   `json:"text"`
}

func (h *Hub) DirectMessage(ctx context.Context, participantID, text string) error {
	return h.deliver(ctx, outboundMessage[any]{Type: "direct", Payload: directPayload{ParticipantID: participantID, Text: text}})
}

func (h *Hub) BroadcastToParticipants(ctx context.Context, participantIDs []string, text string) error {
	return h.deliver(ctx, outboundMessage[any]{Type: "broadcast", Payload: broadcastPayload{Scope: "participants", ParticipantIDs: participantIDs, Text: text}})
}

func (h *Hub) BroadcastToChannels(ctx context.Context, text string) error {
	return h.deliver(ctx, outboundMessage[any]{Type: "broadcast", Payload: broadcastPayload{Scope: "channels", Text: text}})
}

// Connected returns the number of live bridges.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) register() *bridgeConn {
	c := &bridgeConn{
		send: make(chan outboundMessage[any], 64),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *bridgeConn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	close(c.done)
}

func (h *Hub) deliver(ctx context.Context, msg outboundMessage[any]) error {
	h.mu.RLock()
	targets := make([]*bridgeConn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return domain.ErrGatewayUnavailable
	}
	delivered := 0
	for _, c := range targets {
		ok, err := c.enqueue(ctx, msg)
		if err != nil {
			return err
		}
		if ok {
			delivered++
		}
	}
	if delivered == 0 {
		return domain.ErrGatewayUnavailable
	}
	return nil
}

// enqueue reports false when the connection closed before the frame was queued.
func (c *bridgeConn) enqueue(ctx context.Context, msg outboundMessage[any]) (bool, error) {
	select {
	case <-c.done:
		return false, nil
	default:
	}
	select {
	case c.send <- msg:
		return true, nil
	case <-c.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
