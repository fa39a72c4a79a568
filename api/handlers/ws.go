package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"chirp/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientEvent is what sessions send upstream. Only typing indicators
// and read receipts travel client-to-server; everything else is REST.
type clientEvent struct {
	Event          string `json:"event"`
	ConversationID int64  `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
	MessageID      int64  `json:"message_id"`
}

// wsToken accepts the same bearer token as REST, at handshake only.
// Browsers cannot set headers on WebSocket upgrades, so a query
// parameter is accepted as well.
func wsToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie("token"); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// WSHandler upgrades the connection and joins the session to the
// user's room. There is no per-event re-authentication.
func WSHandler(c *gin.Context) {
	userID, err := services.ParseToken(wsToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "not authorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	services.GlobalWSConnManager.Add(userID, conn)
	defer services.GlobalWSConnManager.Remove(userID, conn)
	services.MarkOnline(userID)

	done := make(chan struct{})
	defer close(done)
	go services.KeepPresenceAlive(userID, done)

	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"connected"}`))

	for {
		var event clientEvent
		if err := conn.ReadJSON(&event); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("WebSocket read error:", err)
			}
			break
		}
		handleClientEvent(c, userID, event)
	}
}

func handleClientEvent(c *gin.Context, userID int64, event clientEvent) {
	ctx := c.Request.Context()
	switch event.Event {
	case "typing":
		if event.ConversationID == 0 {
			return
		}
		services.PushToUser(ctx, event.ConversationID, "user_typing", map[string]interface{}{
			"user_id":         userID,
			"conversation_id": event.ConversationID,
			"is_typing":       event.IsTyping,
			"at":              time.Now(),
		})
	case "message_read":
		if event.MessageID == 0 {
			return
		}
		if err := messageService.MarkRead(ctx, userID, event.MessageID); err != nil {
			log.Printf("message_read from user %d failed: %v", userID, err)
		}
	default:
		log.Printf("unknown ws event %q from user %d", event.Event, userID)
	}
}
