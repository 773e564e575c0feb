// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prover

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Event types streamed over the /ws/events websocket.
const (
	EventRebuild        = "rebuild"
	EventSessionCreated = "session_created"
	EventSessionClosed  = "session_closed"
	EventHypInserted    = "hypothesis_inserted"
	EventHypErased      = "hypothesis_erased"
	EventProofFound     = "proof_found"
)

// Event is one service notification. Fields are populated per type:
// rebuild events carry BuildID and Lemmas, session events carry
// SessionID, hypothesis events carry SessionID and Name.
type Event struct {
	Type      string    `json:"type"`
	Time      time.Time `json:"time"`
	SessionID string    `json:"session_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	BuildID   string    `json:"build_id,omitempty"`
	Lemmas    int       `json:"lemmas,omitempty"`
}

// eventHub fans service events out to websocket subscribers. Slow
// subscribers drop events rather than blocking the publisher.
type eventHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[int]chan Event)}
}

// subscribe registers a subscriber. The cancel func must be called
// when the subscriber is done.
func (h *eventHub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	ch := make(chan Event, 16)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish delivers an event to every subscriber, dropping it for any
// subscriber whose buffer is full.
func (h *eventHub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// close shuts the hub down and closes every subscriber channel.
func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// upgrader upgrades HTTP connections to websocket connections.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// sendJSON writes a JSON message to the websocket, logging failures.
func sendJSON(ws *websocket.Conn, v any) error {
	if err := ws.WriteJSON(v); err != nil {
		slog.Warn("Failed to write websocket message", "error", err)
		return err
	}
	return nil
}

// HandleEvents handles GET /v1/prover/ws/events.
//
// Description:
//
//	Upgrades the connection and forwards rebuild, session, and
//	hypothesis events as JSON messages until the client disconnects
//	or the service stops.
func (h *Handlers) HandleEvents(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleEvents")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	events, cancel := h.svc.SubscribeEvents()
	defer cancel()

	logger.Info("Event subscriber connected")

	// The client never sends payloads; the read loop only detects
	// disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				logger.Info("Event stream closed")
				return
			}
			if err := sendJSON(ws, ev); err != nil {
				return
			}
		case <-done:
			logger.Info("Event subscriber disconnected")
			return
		}
	}
}
