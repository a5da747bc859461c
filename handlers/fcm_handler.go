package handlers

import (
	"context"
	"net/http"

	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscriber enregistre et retire les tokens FCM d'un utilisateur
type PushSubscriber interface {
	Subscribe(ctx context.Context, userID primitive.ObjectID, req models.FCMSubscribeRequest, userAgent string) error
	Unsubscribe(ctx context.Context, userID primitive.ObjectID, token string) error
}

// FCMHandler gère les abonnements aux notifications push
type FCMHandler struct {
	notifier PushSubscriber
}

// NewFCMHandler crée une nouvelle instance de FCMHandler
func NewFCMHandler(notifier PushSubscriber) *FCMHandler {
	return &FCMHandler{notifier: notifier}
}

// Subscribe enregistre le token FCM de l'appareil de l'utilisateur connecté
func (h *FCMHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.FCMSubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.notifier.Subscribe(r.Context(), user.ID, req, r.Header.Get("User-Agent")); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("🔔 Token FCM enregistré pour %s", user.Email)
	utils.RespondSuccess(w, "Abonnement FCM réussi", nil)
}

// Unsubscribe supprime un token FCM de l'utilisateur connecté
func (h *FCMHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.FCMUnsubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.notifier.Unsubscribe(r.Context(), user.ID, req.FCMToken); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Désabonnement FCM réussi", nil)
}
