package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// Temps maximum pour l'écriture d'un message
	writeWait = 10 * time.Second

	// Temps maximum pour la lecture d'un pong
	pongWait = 60 * time.Second

	// Intervalle des pings
	pingPeriod = (pongWait * 9) / 10

	// Taille maximale des messages
	maxMessageSize = 4096
)

// Client représente une connexion WebSocket authentifiée
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan interface{}
	UserID string
}

// incoming est un message reçu du navigateur
type incoming struct {
	Type      string `json:"type"`
	SondageID string `json:"sondage_id"`
}

// handleMessage traite un message applicatif et retourne l'éventuelle réponse à renvoyer
func (c *Client) handleMessage(raw []byte) map[string]interface{} {
	var msg incoming
	if err := json.Unmarshal(raw, &msg); err != nil {
		return map[string]interface{}{"type": "error", "message": "Message JSON invalide"}
	}

	switch msg.Type {
	case "join_sondage", "leave_sondage":
		if _, err := primitive.ObjectIDFromHex(msg.SondageID); err != nil {
			return map[string]interface{}{"type": "error", "message": "sondage_id invalide"}
		}
		if msg.Type == "join_sondage" {
			c.hub.JoinSondage(c, msg.SondageID)
			return map[string]interface{}{"type": "joined_sondage", "sondage_id": msg.SondageID}
		}
		c.hub.LeaveSondage(c, msg.SondageID)
		return map[string]interface{}{"type": "left_sondage", "sondage_id": msg.SondageID}

	case "ping":
		return map[string]interface{}{"type": "pong"}

	default:
		log.Printf("⚠️  Type de message inconnu: %s", msg.Type)
		return map[string]interface{}{"type": "error", "message": "Type de message inconnu"}
	}
}

// readPump pompe les messages de la connexion WebSocket vers le hub
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ Erreur WebSocket: %v", err)
			}
			break
		}
		if resp := c.handleMessage(message); resp != nil {
			c.hub.Reply(c, resp)
		}
	}
}

// writePump pompe les messages du hub vers la connexion WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Le hub a fermé le canal
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("❌ Erreur écriture WebSocket: %v", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
