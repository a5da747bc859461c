package services

import (
	"context"
	"espace-clubs-backend/models"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSender envoie un message à une liste de tokens
type PushSender interface {
	SendToAll(ctx context.Context, tokens []string, title, body string, data map[string]string) (success, failed int, invalid []string)
}

// PushNotifier cible des utilisateurs plutôt que des tokens
type PushNotifier struct {
	tokens FCMTokenStore
	sender PushSender
}

// NewPushNotifier crée le notifier
func NewPushNotifier(tokens FCMTokenStore, sender PushSender) *PushNotifier {
	return &PushNotifier{tokens: tokens, sender: sender}
}

// Subscribe enregistre (ou rattache) un token FCM à l'utilisateur
func (n *PushNotifier) Subscribe(ctx context.Context, userID primitive.ObjectID, req models.FCMSubscribeRequest, userAgent string) error {
	if req.FCMToken == "" {
		return invalid("fcm_token", "Token FCM requis")
	}
	if req.UserAgent == "" {
		req.UserAgent = userAgent
	}
	return n.tokens.Upsert(ctx, &models.FCMToken{
		UserID:    userID,
		Token:     req.FCMToken,
		Device:    req.Device,
		UserAgent: req.UserAgent,
	})
}

// Unsubscribe supprime un token de l'utilisateur
func (n *PushNotifier) Unsubscribe(ctx context.Context, userID primitive.ObjectID, token string) error {
	if token == "" {
		return invalid("fcm_token", "Token FCM requis")
	}
	return n.tokens.Delete(ctx, userID, token)
}

// NotifyUsers envoie une notification à tous les appareils des utilisateurs; les tokens invalides sont supprimés
func (n *PushNotifier) NotifyUsers(ctx context.Context, userIDs []primitive.ObjectID, title, body string, data map[string]string) (success, failed int) {
	if len(userIDs) == 0 {
		return 0, 0
	}

	tokens, err := n.tokens.FindByUserIDs(ctx, userIDs)
	if err != nil {
		log.WithError(err).Warn("⚠️  Erreur récupération tokens FCM")
		return 0, 0
	}
	if len(tokens) == 0 {
		return 0, 0
	}

	list := make([]string, 0, len(tokens))
	for _, t := range tokens {
		list = append(list, t.Token)
	}

	success, failed, invalidTokens := n.sender.SendToAll(ctx, list, title, body, data)
	if len(invalidTokens) > 0 {
		if err := n.tokens.DeleteTokens(ctx, invalidTokens); err != nil {
			log.WithError(err).Warn("⚠️  Erreur suppression des tokens invalides")
		} else {
			log.Printf("🧹 %d token(s) FCM invalide(s) supprimé(s)", len(invalidTokens))
		}
	}
	return success, failed
}
