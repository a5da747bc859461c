package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// SlackService gère l'envoi de notifications Slack
type SlackService struct {
	webhookURL string
	client     *http.Client
}

// SlackMessage représente un message Slack
type SlackMessage struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment représente une pièce jointe Slack
type Attachment struct {
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
	Footer    string  `json:"footer,omitempty"`
}

// Field représente un champ dans une pièce jointe Slack
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Incident décrit une requête HTTP terminée en erreur
type Incident struct {
	Method    string
	Path      string
	Status    int
	Message   string
	Origin    string
	UserAgent string
	RequestID string
}

// NewSlackService crée une nouvelle instance de SlackService
func NewSlackService(webhookURL string) *SlackService {
	if webhookURL == "" {
		log.Println("⚠️  Slack webhook URL non configuré - notifications Slack désactivées")
	}
	return &SlackService{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled indique si un webhook est configuré
func (s *SlackService) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

// buildMessage met en forme un incident
func buildMessage(inc Incident, at time.Time) SlackMessage {
	color, title := "danger", "🚨 Erreur serveur"
	if inc.Status == http.StatusForbidden {
		color, title = "warning", "⛔ Accès refusé"
	}

	fields := []Field{
		{Title: "Méthode", Value: inc.Method, Short: true},
		{Title: "Status Code", Value: strconv.Itoa(inc.Status), Short: true},
		{Title: "Chemin", Value: inc.Path},
	}
	optional := []struct {
		title, value string
		short        bool
	}{
		{"Origin", inc.Origin, true},
		{"Request ID", inc.RequestID, true},
		{"User-Agent", inc.UserAgent, false},
	}
	for _, f := range optional {
		if f.value != "" {
			fields = append(fields, Field{Title: f.title, Value: f.value, Short: f.short})
		}
	}

	return SlackMessage{
		Attachments: []Attachment{{
			Color:     color,
			Title:     title,
			Text:      inc.Message,
			Fields:    fields,
			Timestamp: at.Unix(),
			Footer:    "Espace Clubs - Backend",
		}},
	}
}

// Notify envoie l'incident au webhook
func (s *SlackService) Notify(ctx context.Context, inc Incident) error {
	if !s.Enabled() {
		return nil
	}

	jsonData, err := json.Marshal(buildMessage(inc, time.Now()))
	if err != nil {
		return fmt.Errorf("erreur lors de la sérialisation du message Slack: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("erreur lors de la création de la requête: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("erreur lors de l'envoi à Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack a retourné un code d'erreur: %d", resp.StatusCode)
	}

	log.WithFields(log.Fields{"method": inc.Method, "path": inc.Path, "status": inc.Status}).Info("✓ Notification Slack envoyée")
	return nil
}

// NotifyAsync envoie l'incident sans bloquer la requête en cours
func (s *SlackService) NotifyAsync(inc Incident) {
	if !s.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Notify(ctx, inc); err != nil {
			log.WithError(err).Error("❌ Erreur lors de l'envoi de la notification Slack")
		}
	}()
}
