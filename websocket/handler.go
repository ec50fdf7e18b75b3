package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/middleware"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket handles the WebSocket connection. Clients connecting
// without a token authenticate afterwards with an "AUTH:<token>" text frame.
func HandleWebSocket(c echo.Context, hub *Hub, userID primitive.ObjectID) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:        userID,
		Conn:          conn,
		Authenticated: userID != primitive.NilObjectID,
	}

	hub.register <- client

	if client.Authenticated {
		conn.WriteJSON(Notification{
			Type:    "connected",
			Message: "WebSocket connection established",
			UserID:  userID.Hex(),
		})
	} else {
		conn.WriteJSON(Notification{
			Type:         "connected",
			Message:      "WebSocket connection established. Please authenticate to receive notifications.",
			RequiresAuth: true,
		})
	}

	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			if messageType == websocket.TextMessage {
				messageStr := string(message)
				if strings.HasPrefix(messageStr, "AUTH:") {
					token := strings.TrimPrefix(messageStr, "AUTH:")
					claims, err := middleware.ParseToken(token)
					if err != nil {
						conn.WriteJSON(Notification{
							Type:         "auth_response",
							Message:      "Authentication failed",
							RequiresAuth: true,
						})
						continue
					}
					objID, err := primitive.ObjectIDFromHex(claims.UserID)
					if err != nil {
						conn.WriteJSON(Notification{
							Type:         "auth_response",
							Message:      "Authentication failed",
							RequiresAuth: true,
						})
						continue
					}
					hub.AuthenticateClient(client, objID)
					conn.WriteJSON(Notification{
						Type:    "auth_response",
						Message: "Authenticated",
						UserID:  claims.UserID,
					})
					continue
				}
			}
		}
	}()

	return nil
}
