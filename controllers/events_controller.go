package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daystep/daystep/events"
	"github.com/daystep/daystep/middleware"
)

const heartbeatInterval = 25 * time.Second

// EventsController streams the caller's progress updates and the public win
// feed over SSE.
type EventsController struct {
	hub *events.Hub
}

func NewEventsController(hub *events.Hub) *EventsController {
	return &EventsController{hub: hub}
}

// Stream holds the connection open, forwarding hub events as SSE frames.
// Periodic comment lines keep intermediaries from closing the idle stream.
func (e *EventsController) Stream(ctx *gin.Context) {
	sub := e.hub.Subscribe(middleware.UserID(ctx))
	defer e.hub.Unsubscribe(sub)

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no") // nginx

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case ev := <-sub.C:
			payload, err := json.Marshal(ev.Payload)
			if err != nil {
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, payload)
			return true
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}
