package handlers

import (
  "context"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/gorilla/websocket"

  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/requestdata"
  "github.com/taskpilot-org/taskpilot-backend/internal/socket"
)

var upgrader = websocket.Upgrader{
  CheckOrigin: func(r *http.Request) bool {
    return true
  },
}

// WsHandler upgrades the connection and subscribes it to the caller's own
// event channel, where task mutations are published.
func WsHandler(hub *socket.Hub, log *logger.Logger) gin.HandlerFunc {
  return func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil || rd.UserID == uuid.Nil {
      c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
      return
    }
    conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
    if err != nil {
      log.Warn("Failed to upgrade to websocket", "error", err)
      return
    }
    ctx, cancel := context.WithCancel(context.Background())
    client := socket.NewClient(conn, hub, cancel, log)
    hub.Subscribe(client, []string{socket.UserChannel(rd.UserID)})

    go client.ReadLoop(ctx)
    go client.WriteLoop(ctx)
  }
}
