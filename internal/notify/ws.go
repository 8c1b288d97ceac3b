package notify

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeWS upgrades an authenticated request to a websocket and pumps hub
// events to it until the peer goes away. onConnect/onDisconnect let the caller
// mirror the session id onto the user document.
func ServeWS(hub *Hub, onConnect, onDisconnect func(userID primitive.ObjectID, sessionID string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := c.MustGet("userId").(primitive.ObjectID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("[NOTIFY] [ERROR] websocket upgrade failed:", err)
			return
		}

		session := hub.Connect(userID.Hex())
		sessionID := primitive.NewObjectID().Hex()
		if onConnect != nil {
			onConnect(userID, sessionID)
		}
		log.Println("[NOTIFY] [INFO] session connected:", userID.Hex())

		go writePump(conn, session)
		readPump(conn)

		hub.Disconnect(session)
		if onDisconnect != nil {
			onDisconnect(userID, sessionID)
		}
		log.Println("[NOTIFY] [INFO] session disconnected:", userID.Hex())
	}
}

func writePump(conn *websocket.Conn, session *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-session.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients never send application frames; the loop only consumes control
	// messages until the connection dies.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
