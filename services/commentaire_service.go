package services

import (
	"context"
	"errors"
	"espace-clubs-backend/metrics"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToxicCommentError décrit un commentaire refusé par la modération
type ToxicCommentError struct {
	Avertissements int
	Bloque         bool
}

func (e *ToxicCommentError) Error() string {
	return fmt.Sprintf("commentaire toxique (avertissement %d/%d)", e.Avertissements, models.MaxAvertissements)
}

// Is rattache l'erreur à ErrCommentToxic
func (e *ToxicCommentError) Is(target error) bool {
	return target == ErrCommentToxic
}

// CommentaireService gère les commentaires et leur modération
type CommentaireService struct {
	commentaires CommentaireStore
	sondages     SondageStore
	clubs        ClubStore
	users        UserStore
	checker      ToxicityChecker
	broadcaster  Broadcaster
	publisher    EventPublisher
}

// NewCommentaireService crée le service des commentaires
func NewCommentaireService(commentaires CommentaireStore, sondages SondageStore, clubs ClubStore, users UserStore, checker ToxicityChecker, broadcaster Broadcaster, publisher EventPublisher) *CommentaireService {
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &CommentaireService{
		commentaires: commentaires,
		sondages:     sondages,
		clubs:        clubs,
		users:        users,
		checker:      checker,
		broadcaster:  broadcaster,
		publisher:    publisher,
	}
}

// List retourne les commentaires d'un sondage; les commentaires masqués ne sont visibles que des admins
func (s *CommentaireService) List(ctx context.Context, sondageID primitive.ObjectID, q models.ListQuery, viewer *models.User) ([]models.CommentaireWithAuteur, int64, error) {
	sondage, err := s.sondages.FindByID(ctx, sondageID)
	if err != nil {
		return nil, 0, err
	}
	if sondage == nil {
		return nil, 0, ErrPollNotFound
	}
	return s.commentaires.List(ctx, models.CommentaireFilter{
		ListQuery:     q,
		SondageID:     &sondageID,
		InclureMasque: viewer != nil && viewer.IsAdmin(),
	})
}

func validateContenu(contenu string) (string, error) {
	contenu = strings.TrimSpace(contenu)
	if err := utils.ValidateLength("contenu", contenu, 1, models.MaxCommentaireLength); err != nil {
		return "", err
	}
	return contenu, nil
}

// moderate évalue le texte; un texte toxique vaut un avertissement à son auteur
func (s *CommentaireService) moderate(ctx context.Context, author *models.User, sondageID primitive.ObjectID, contenu string) (models.Verdict, error) {
	verdict, err := s.checker.Check(ctx, contenu)
	if err != nil {
		return verdict, fmt.Errorf("modération impossible: %w", err)
	}

	label := "ok"
	if verdict.Toxic {
		label = "toxique"
	}
	metrics.CommentsModerated.WithLabelValues(verdict.Source, label).Inc()

	if !verdict.Toxic {
		return verdict, nil
	}

	updated, err := s.users.AddAvertissement(ctx, author.ID, models.MaxAvertissements)
	if err != nil {
		return verdict, err
	}
	toxic := &ToxicCommentError{Avertissements: author.Avertissements + 1}
	if updated != nil {
		toxic.Avertissements = updated.Avertissements
		toxic.Bloque = updated.IsBlocked()
	}

	log.WithFields(log.Fields{
		"user_id":        author.ID.Hex(),
		"sondage_id":     sondageID.Hex(),
		"score":          verdict.Score,
		"source":         verdict.Source,
		"avertissements": toxic.Avertissements,
		"bloque":         toxic.Bloque,
	}).Warn("🚫 commentaire refusé par la modération")

	publishEvent(s.publisher, DomainEvent{
		Type: EventCommentaireRejete,
		Key:  sondageID.Hex(),
		Payload: map[string]interface{}{
			"user_id":        author.ID.Hex(),
			"score":          verdict.Score,
			"avertissements": toxic.Avertissements,
			"bloque":         toxic.Bloque,
		},
	})
	return verdict, toxic
}

// Create publie un commentaire après modération
func (s *CommentaireService) Create(ctx context.Context, sondageID primitive.ObjectID, author *models.User, contenu string) (*models.CommentaireWithAuteur, error) {
	if author.IsBlocked() {
		return nil, ErrAccountBlocked
	}
	contenu, err := validateContenu(contenu)
	if err != nil {
		return nil, err
	}

	sondage, err := s.sondages.FindByID(ctx, sondageID)
	if err != nil {
		return nil, err
	}
	if sondage == nil {
		return nil, ErrPollNotFound
	}

	verdict, err := s.moderate(ctx, author, sondageID, contenu)
	if err != nil {
		return nil, err
	}

	c := &models.Commentaire{
		SondageID:     sondageID,
		UserID:        author.ID,
		Contenu:       contenu,
		ScoreToxicite: verdict.Score,
	}
	if err := s.commentaires.Create(ctx, c); err != nil {
		return nil, err
	}

	out := &models.CommentaireWithAuteur{
		Commentaire:  *c,
		AuteurNom:    author.Nom,
		AuteurPrenom: author.Prenom,
	}
	s.broadcaster.BroadcastCommentaire(sondageID, *out)
	return out, nil
}

// loadCommentaire charge un commentaire existant
func (s *CommentaireService) loadCommentaire(ctx context.Context, id primitive.ObjectID) (*models.Commentaire, error) {
	c, err := s.commentaires.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCommentNotFound
	}
	return c, nil
}

// Update modifie le texte d'un commentaire (auteur uniquement), avec une nouvelle modération
func (s *CommentaireService) Update(ctx context.Context, id primitive.ObjectID, author *models.User, contenu string) (*models.Commentaire, error) {
	if author.IsBlocked() {
		return nil, ErrAccountBlocked
	}
	c, err := s.loadCommentaire(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != author.ID {
		return nil, ErrForbidden
	}
	contenu, err = validateContenu(contenu)
	if err != nil {
		return nil, err
	}

	verdict, err := s.moderate(ctx, author, c.SondageID, contenu)
	if err != nil {
		return nil, err
	}

	if err := s.commentaires.UpdateContenu(ctx, id, contenu, verdict.Score); err != nil {
		return nil, err
	}
	c.Contenu = contenu
	c.ScoreToxicite = verdict.Score
	return c, nil
}

// Delete supprime un commentaire (auteur, président du club du sondage ou admin)
func (s *CommentaireService) Delete(ctx context.Context, id primitive.ObjectID, user *models.User) error {
	c, err := s.loadCommentaire(ctx, id)
	if err != nil {
		return err
	}

	if c.UserID != user.ID && !user.IsAdmin() {
		sondage, err := s.sondages.FindByID(ctx, c.SondageID)
		if err != nil {
			return err
		}
		if sondage == nil {
			return ErrForbidden
		}
		if _, err := loadManagedClub(ctx, s.clubs, sondage.ClubID, user); err != nil {
			if errors.Is(err, ErrClubNotFound) {
				return ErrForbidden
			}
			return err
		}
	}

	if err := s.commentaires.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateResume(ctx, c.SondageID)
	return nil
}

// invalidateResume oublie le résumé IA quand les commentaires visibles changent autrement que par un ajout
func (s *CommentaireService) invalidateResume(ctx context.Context, sondageID primitive.ObjectID) {
	if err := s.sondages.ClearResume(ctx, sondageID); err != nil {
		log.WithError(err).WithField("sondage_id", sondageID.Hex()).Warn("⚠️  Impossible d'invalider le résumé")
	}
}

// Report signale un commentaire; au seuil de signalements distincts, il est masqué
func (s *CommentaireService) Report(ctx context.Context, id primitive.ObjectID, user *models.User) (*models.Commentaire, error) {
	c, err := s.loadCommentaire(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID == user.ID {
		return nil, ErrForbidden
	}

	updated, err := s.commentaires.AddSignalement(ctx, id, user.ID, models.SeuilSignalements)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrAlreadyReported
	}

	if updated.Masque && !c.Masque {
		log.WithFields(log.Fields{"commentaire_id": id.Hex(), "signalements": updated.NombreSignalements()}).
			Info("🙈 commentaire masqué après signalements")
		s.invalidateResume(ctx, c.SondageID)
	}
	return updated, nil
}

// ModerationQueue liste les commentaires signalés ou masqués
func (s *CommentaireService) ModerationQueue(ctx context.Context, q models.ListQuery) ([]models.CommentaireWithAuteur, int64, error) {
	return s.commentaires.List(ctx, models.CommentaireFilter{
		ListQuery:     q,
		InclureMasque: true,
		SignalesSeuls: true,
	})
}

// Restore efface les signalements d'un commentaire et le rend de nouveau visible
func (s *CommentaireService) Restore(ctx context.Context, id primitive.ObjectID) error {
	c, err := s.loadCommentaire(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.commentaires.Restore(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCommentNotFound
	}
	if c.Masque {
		s.invalidateResume(ctx, c.SondageID)
	}
	return nil
}
