package websocket

import (
	"sync"

	"espace-clubs-backend/metrics"
	"espace-clubs-backend/models"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Types des messages poussés aux clients
const (
	TypeResultats   = "resultats"
	TypeCommentaire = "commentaire"
)

// Hub gère les connexions WebSocket actives et les rooms de sondages
type Hub struct {
	// Connexions actives
	clients map[*Client]bool

	// Rooms de sondages (sondage_id -> clients)
	rooms map[string]map[*Client]bool

	// Mutex pour sécuriser les accès concurrents
	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	stopOnce   sync.Once
}

// Message représente un message à diffuser dans une room
type Message struct {
	SondageID string
	Payload   interface{}
}

// NewHub crée un nouveau hub WebSocket
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
	}
}

// Run démarre la boucle principale du hub
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Inc()
			log.Printf("🔌 Client connecté: %s (total: %d)", client.UserID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.removeLocked(client)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("👋 Client déconnecté: %s (total: %d)", client.UserID, total)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Register enregistre un client; retourne false si le hub est arrêté
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister retire un client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// removeLocked retire un client de toutes les rooms et ferme son canal; h.mu doit être tenu
func (h *Hub) removeLocked(client *Client) {
	delete(h.clients, client)
	for sondageID, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, sondageID)
		}
	}
	close(client.send)
	metrics.WebsocketClients.Dec()
}

// deliver envoie un message aux membres d'une room; un client trop lent est déconnecté
func (h *Hub) deliver(message *Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[message.SondageID]
	if !ok {
		return
	}
	sent := 0
	for client := range members {
		select {
		case client.send <- message.Payload:
			sent++
		default:
			log.Printf("❌ Canal plein pour %s, déconnexion", client.UserID)
			h.removeLocked(client)
		}
	}
	log.WithFields(log.Fields{"sondage_id": message.SondageID, "clients": sent}).Debug("📡 Diffusion room sondage")
}

// Reply envoie une réponse à un seul client sans bloquer.
// Le canal n'est fermé que sous h.mu: un client encore enregistré a un canal ouvert.
func (h *Hub) Reply(client *Client, payload interface{}) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// JoinSondage ajoute un client à la room d'un sondage
func (h *Hub) JoinSondage(client *Client, sondageID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	if h.rooms[sondageID] == nil {
		h.rooms[sondageID] = make(map[*Client]bool)
	}
	h.rooms[sondageID][client] = true
	log.Printf("✅ User %s a rejoint le sondage %s", client.UserID, sondageID)
}

// LeaveSondage retire un client de la room d'un sondage
func (h *Hub) LeaveSondage(client *Client, sondageID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[sondageID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, sondageID)
		}
	}
}

// RoomSize retourne le nombre de clients abonnés à un sondage
func (h *Hub) RoomSize(sondageID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sondageID])
}

// ClientCount retourne le nombre de connexions actives
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToSondage met un message en file pour la room du sondage, sans bloquer l'appelant
func (h *Hub) SendToSondage(sondageID string, payload interface{}) {
	select {
	case h.broadcast <- &Message{SondageID: sondageID, Payload: payload}:
	default:
		log.Printf("⚠️  File de diffusion pleine, message perdu pour le sondage %s", sondageID)
	}
}

// BroadcastResultats pousse les résultats à jour aux abonnés du sondage
func (h *Hub) BroadcastResultats(sondageID primitive.ObjectID, resultats models.ResultatsSondage) {
	h.SendToSondage(sondageID.Hex(), map[string]interface{}{
		"type":       TypeResultats,
		"sondage_id": sondageID.Hex(),
		"resultats":  resultats,
	})
}

// BroadcastCommentaire pousse un nouveau commentaire aux abonnés du sondage
func (h *Hub) BroadcastCommentaire(sondageID primitive.ObjectID, commentaire models.CommentaireWithAuteur) {
	h.SendToSondage(sondageID.Hex(), map[string]interface{}{
		"type":        TypeCommentaire,
		"sondage_id":  sondageID.Hex(),
		"commentaire": commentaire,
	})
}

// Shutdown arrête le hub et ferme toutes les connexions
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		log.Printf("🔄 Arrêt du hub WebSocket...")
		close(h.done)

		h.mu.Lock()
		for client := range h.clients {
			h.removeLocked(client)
			if client.conn != nil {
				client.conn.Close()
			}
		}
		h.mu.Unlock()

		log.Printf("✅ Hub WebSocket arrêté")
	})
}
