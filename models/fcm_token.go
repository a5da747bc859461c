package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FCMToken représente un token FCM pour les notifications
type FCMToken struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Token     string             `json:"token" bson:"token"`
	Device    string             `json:"device,omitempty" bson:"device,omitempty"` // iOS, Android, Web
	UserAgent string             `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// FCMSubscribeRequest représente la requête d'abonnement FCM
type FCMSubscribeRequest struct {
	FCMToken  string `json:"fcm_token"`
	Device    string `json:"device,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// FCMUnsubscribeRequest représente la requête de désabonnement FCM
type FCMUnsubscribeRequest struct {
	FCMToken string `json:"fcm_token"`
}

// FCMNotificationResponse représente le bilan d'un envoi FCM
type FCMNotificationResponse struct {
	Success      int      `json:"success"`
	Failed       int      `json:"failed"`
	Total        int      `json:"total"`
	FailedTokens []string `json:"failed_tokens,omitempty"`
}
