package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/greenway-backend/internal/config"
	"github.com/Ananth-NQI/greenway-backend/internal/models"
	"github.com/Ananth-NQI/greenway-backend/internal/pubsub"
)

// streamEvents writes sub to the client as server-sent events until the
// subscription closes or a write fails. It owns sub and closes it.
//
// A write to a peer that has gone away still lands in the socket buffer, so
// only a later flush fails. The heartbeat tick keeps that window to a few
// heartbeats; the keep-alive comment is for proxies.
func streamEvents(c *fiber.Ctx, sub *pubsub.Subscription[models.Event], stream config.StreamConfig, logger *zap.Logger) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	keepAlive, heartbeat := stream.KeepAlive, stream.Heartbeat
	if heartbeat <= 0 {
		heartbeat = keepAlive
	}

	topic := c.Path()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		logger.Debug("stream opened", zap.String("topic", topic), zap.Uint64("subscriber", sub.ID()))

		keepAliveTicker := time.NewTicker(keepAlive)
		defer keepAliveTicker.Stop()
		heartbeatTicker := time.NewTicker(heartbeat)
		defer heartbeatTicker.Stop()

		if err := writeComment(w, "connected"); err != nil {
			return
		}

		for {
			select {
			case evt, ok := <-sub.Events():
				if !ok {
					logger.Debug("stream closed by server", zap.String("topic", topic))
					return
				}
				if err := writeEvent(w, evt); err != nil {
					logger.Warn("dropping stream subscriber", zap.String("topic", topic), zap.Error(err))
					return
				}
			case <-keepAliveTicker.C:
				if err := writeComment(w, "keep-alive"); err != nil {
					logger.Debug("stream client gone", zap.String("topic", topic))
					return
				}
			case <-heartbeatTicker.C:
				if err := writeComment(w, ""); err != nil {
					logger.Debug("stream client gone", zap.String("topic", topic))
					return
				}
			}
		}
	}))
	return nil
}

func writeComment(w *bufio.Writer, text string) error {
	line := ":\n\n"
	if text != "" {
		line = ": " + text + "\n\n"
	}
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.Flush()
}

func writeEvent(w *bufio.Writer, evt models.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", evt.ID, evt.Type, data); err != nil {
		return err
	}
	return w.Flush()
}
