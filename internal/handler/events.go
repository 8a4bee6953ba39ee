package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"intervue/internal/utils/extractor"
	"intervue/internal/utils/sse"
)

const heartbeatInterval = 60 * time.Second

// Events streams interview progress to the browser over server-sent
// events. One stream per user; a reconnect replaces the previous channel.
func (h *Handler) Events(c echo.Context) error {
	identity, err := extractor.FromContext(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ch := make(chan map[string]interface{}, 16)
	sse.RegisterChannel(identity.UserID, ch)
	defer sse.UnregisterChannel(identity.UserID, ch)

	h.logger.Info("Event stream opened", zap.String("userId", identity.UserID))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Event stream closed", zap.String("userId", identity.UserID))
			return nil
		case event := <-ch:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(res, "data: %s\n\n", payload)
			res.Flush()
		case <-heartbeat.C:
			fmt.Fprint(res, ": heartbeat\n\n")
			res.Flush()
		}
	}
}
