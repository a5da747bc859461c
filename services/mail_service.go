package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// Mailer envoie un email texte
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailConfig regroupe les paramètres SMTP
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailService envoie les emails transactionnels via SMTP
type MailService struct {
	cfg     MailConfig
	enabled bool
}

// NewMailService crée le service; sans SMTP_HOST, les envois sont seulement journalisés
func NewMailService(cfg MailConfig) *MailService {
	if cfg.Host == "" {
		log.Println("⚠️  SMTP_HOST non configuré - emails désactivés")
		return &MailService{cfg: cfg}
	}
	return &MailService{cfg: cfg, enabled: true}
}

// Enabled indique si l'envoi SMTP est actif
func (s *MailService) Enabled() bool {
	return s.enabled
}

func (s *MailService) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return mail.NewClient(s.cfg.Host, opts...)
}

// Send envoie un email texte brut
func (s *MailService) Send(ctx context.Context, to, subject, body string) error {
	if !s.enabled {
		log.WithFields(log.Fields{"to": to, "subject": subject}).Debug("📭 email ignoré (SMTP désactivé)")
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("adresse d'expédition invalide: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("adresse de destination invalide: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := s.client()
	if err != nil {
		return fmt.Errorf("erreur lors de la création du client SMTP: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("erreur lors de l'envoi de l'email: %w", err)
	}

	log.Printf("✉️  Email envoyé à %s: %s", to, subject)
	return nil
}

// sendAsync envoie un email en arrière-plan, une erreur est seulement journalisée
func sendAsync(m Mailer, to, subject, body string) {
	if m == nil || to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.Send(ctx, to, subject, body); err != nil {
			log.WithError(err).WithField("to", to).Warn("⚠️  Échec d'envoi d'email")
		}
	}()
}

// Modèles des emails transactionnels

func welcomeMail(prenom string) (string, string) {
	return "Bienvenue sur Espace Clubs",
		fmt.Sprintf("Bonjour %s,\n\nVotre compte Espace Clubs est créé. Rejoignez un club, votez aux sondages et inscrivez-vous aux événements de votre campus.\n\nÀ bientôt !", prenom)
}

func participationMail(prenom, club, statut string) (string, string) {
	decision := "acceptée"
	if statut != "accepte" {
		decision = "refusée"
	}
	return fmt.Sprintf("Votre demande d'adhésion à %s", club),
		fmt.Sprintf("Bonjour %s,\n\nVotre demande d'adhésion au club %s a été %s.\n\nL'équipe Espace Clubs", prenom, club, decision)
}

func reminderMail(prenom, titre, lieu string, debut time.Time) (string, string) {
	return fmt.Sprintf("Rappel : %s demain", titre),
		fmt.Sprintf("Bonjour %s,\n\nPetit rappel : l'événement « %s » commence le %s à %s.\nLieu : %s\n\nL'équipe Espace Clubs",
			prenom, titre, debut.Format("02/01/2006"), debut.Format("15:04"), lieu)
}
