package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-progression-service/internal/app"
)

// FeedHandler streams progression updates to the authenticated user
// over a websocket.
type FeedHandler struct {
	hub      *app.ProgressHub
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewFeedHandler(hub *app.ProgressHub, log *logrus.Logger) *FeedHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FeedHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and pumps hub updates until the client
// goes away.
func (h *FeedHandler) Serve(c *gin.Context) {
	userID := c.GetString(userIDKey)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("feed upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(userID)
	defer cancel()

	done := make(chan struct{})

	// Read loop exists only to observe the close handshake.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				h.log.WithError(err).Debug("feed write failed")
				return
			}
		case <-done:
			return
		}
	}
}
