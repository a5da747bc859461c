package services

import (
	"context"
	"fmt"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// fcmBatchSize est la limite de tokens par requête multicast FCM
const fcmBatchSize = 500

// FCMService gère l'envoi des notifications via Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
}

// NewFCMService crée une nouvelle instance de FCMService
func NewFCMService(ctx context.Context, credentialsFile string) (*FCMService, error) {
	var opt option.ClientOption

	// FIREBASE_CREDENTIALS_JSON prime sur le fichier (déploiement cloud)
	if credentialsJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON"); credentialsJSON != "" {
		log.Println("📦 Utilisation des credentials Firebase depuis FIREBASE_CREDENTIALS_JSON")
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	} else {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("fichier de credentials Firebase introuvable: %w", err)
		}
		log.Printf("📦 Utilisation des credentials Firebase depuis le fichier: %s", credentialsFile)
		opt = option.WithCredentialsFile(credentialsFile)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'initialisation de Firebase: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la création du client FCM: %w", err)
	}

	log.Println("✓ Firebase Cloud Messaging initialisé")
	return &FCMService{client: client}, nil
}

// NewDisabledFCMService retourne un service sans client: les envois sont ignorés
func NewDisabledFCMService() *FCMService {
	return &FCMService{}
}

// Enabled indique si FCM est configuré
func (s *FCMService) Enabled() bool {
	return s != nil && s.client != nil
}

// sendBatch envoie un data message à au plus fcmBatchSize tokens
func (s *FCMService) sendBatch(ctx context.Context, tokens []string, data map[string]string) (success, failed int, invalid []string, err error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	message := &messaging.MulticastMessage{
		Data: data,
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{"Urgency": "high"},
		},
		Tokens: tokens,
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("erreur lors de l'envoi multicast: %w", err)
	}

	for idx, resp := range response.Responses {
		if resp.Success {
			continue
		}
		if messaging.IsUnregistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
			invalid = append(invalid, tokens[idx])
		}
		log.WithError(resp.Error).Debug("❌ Échec d'envoi FCM")
	}
	return response.SuccessCount, response.FailureCount, invalid, nil
}

// SendToAll envoie une notification à tous les tokens, par lots.
// invalid contient les tokens que FCM ne reconnaît plus.
func (s *FCMService) SendToAll(ctx context.Context, tokens []string, title, body string, data map[string]string) (success, failed int, invalid []string) {
	if !s.Enabled() || len(tokens) == 0 {
		return 0, 0, nil
	}

	// Uniquement des data messages, le service worker construit l'affichage
	payload := make(map[string]string, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["title"] = title
	payload["message"] = body

	for i := 0; i < len(tokens); i += fcmBatchSize {
		end := i + fcmBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[i:end]

		ok, ko, bad, err := s.sendBatch(ctx, batch, payload)
		if err != nil {
			log.Printf("❌ Erreur pour le batch %d: %v", i/fcmBatchSize+1, err)
			failed += len(batch)
			continue
		}
		success += ok
		failed += ko
		invalid = append(invalid, bad...)
	}

	log.Printf("📊 Envoi FCM: %d succès, %d échecs sur %d total", success, failed, len(tokens))
	return success, failed, invalid
}
