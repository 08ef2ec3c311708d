package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/pokerjest/stamper/internal/event"
)

// Events streams refresh and cache events as Server-Sent Events.
func (h *Handler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientChan := make(chan event.Event, 10)
	forward := func(e event.Event) {
		// slow clients lose events rather than stall the bus
		select {
		case clientChan <- e:
		default:
		}
	}

	topics := []event.EventType{
		event.EventRefreshStarted,
		event.EventRefreshComplete,
		event.EventRefreshFailed,
		event.EventMediaCached,
	}
	subIDs := make(map[event.EventType]string, len(topics))
	for _, t := range topics {
		subIDs[t] = h.bus.Subscribe(t, forward)
	}
	defer func() {
		for t, id := range subIDs {
			h.bus.Unsubscribe(t, id)
		}
		h.log.Debug("event stream closed")
	}()

	c.SSEvent("message", "connected")
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case evt := <-clientChan:
			data, err := json.Marshal(ssePayload(evt))
			if err != nil {
				h.log.Warn("event encoding failed", "type", evt.Type, "error", err)
				continue
			}
			c.SSEvent(string(evt.Type), string(data))
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// ssePayload flattens refresh results; their error does not marshal.
func ssePayload(e event.Event) interface{} {
	res, ok := e.Payload.(event.RefreshResult)
	if !ok {
		return e.Payload
	}
	out := gin.H{
		"rows":        res.Rows,
		"duration_ms": res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		out["error"] = res.Err.Error()
	}
	return out
}
