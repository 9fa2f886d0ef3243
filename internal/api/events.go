package api

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/shiftr/internal/notify"
)

const heartbeatEvery = 15 * time.Second

// Events streams every bus event to the client as server-sent events.
// A slow client loses events rather than holding up the engine.
func (h *Handler) Events(c *gin.Context) {
	ch := make(chan notify.Envelope, 64)
	unsubscribe := h.Engine.Bus().Subscribe(func(_ context.Context, env notify.Envelope) {
		select {
		case ch <- env:
		default:
			h.Logger.Printf("SSE client too slow, dropping %s", env.Kind)
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"at": h.Engine.Now()})
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case env := <-ch:
			c.SSEvent(string(env.Kind), env)
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": h.Engine.Now()})
		}
		return true
	})
}
