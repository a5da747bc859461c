package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// authTimeout borne l'attente du message d'authentification
const authTimeout = 10 * time.Second

// UserLoader relit le compte du token
type UserLoader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Handler gère les connexions WebSocket
type Handler struct {
	hub       *Hub
	jwtSecret string
	users     UserLoader
	upgrader  websocket.Upgrader
}

// NewHandler crée un nouveau handler WebSocket; allowedOrigins vide accepte toutes les origines
func NewHandler(hub *Hub, jwtSecret string, users UserLoader, allowedOrigins []string) *Handler {
	return &Handler{
		hub:       hub,
		jwtSecret: jwtSecret,
		users:     users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// authenticate valide le premier message et retourne l'identifiant de l'utilisateur
func (h *Handler) authenticate(ctx context.Context, raw []byte) (string, string) {
	var msg authMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "authenticate" {
		return "", "Authentification requise"
	}
	if msg.Token == "" {
		return "", "Token requis"
	}

	claims, err := utils.ValidateToken(msg.Token, h.jwtSecret)
	if err != nil {
		return "", "Token invalide ou expiré"
	}

	if h.users != nil {
		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return "", "Token invalide ou expiré"
		}
		user, err := h.users.FindByID(ctx, id)
		if err != nil || user == nil {
			return "", "Utilisateur introuvable"
		}
	}
	return claims.UserID, ""
}

// ServeWS gère les requêtes WebSocket
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}

	// Attendre le message d'authentification
	go func() {
		_ = conn.SetReadDeadline(time.Now().Add(authTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("❌ Erreur lecture auth: %v", err)
			conn.Close()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		userID, failure := h.authenticate(ctx, message)
		cancel()
		if failure != "" {
			_ = conn.WriteJSON(map[string]interface{}{"type": "error", "message": failure})
			conn.Close()
			return
		}

		client := &Client{
			hub:    h.hub,
			conn:   conn,
			send:   make(chan interface{}, 256),
			UserID: userID,
		}

		_ = conn.WriteJSON(map[string]interface{}{
			"type":    "authenticated",
			"user_id": userID,
		})

		if !h.hub.Register(client) {
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}()
}
