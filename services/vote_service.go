package services

import (
	"context"
	"errors"
	"espace-clubs-backend/database"
	"espace-clubs-backend/metrics"
	"espace-clubs-backend/models"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrVoteConflict signale qu'un autre changement du même vote a été appliqué entre-temps
var ErrVoteConflict = errors.New("vote modifié simultanément")

// VoteService applique le protocole de vote: au plus une réponse par (utilisateur, sondage).
//
//	aucun vote --Submit--> voté(choix)
//	voté(a)    --Change(confirmé)--> voté(b), b != a
//	voté(a)    --Delete--> aucun vote
type VoteService struct {
	sondages    SondageStore
	reponses    ReponseStore
	broadcaster Broadcaster
	publisher   EventPublisher
	now         func() time.Time
}

// NewVoteService crée le service de vote
func NewVoteService(sondages SondageStore, reponses ReponseStore, broadcaster Broadcaster, publisher EventPublisher) *VoteService {
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &VoteService{
		sondages:    sondages,
		reponses:    reponses,
		broadcaster: broadcaster,
		publisher:   publisher,
		now:         time.Now,
	}
}

// openSondage charge un sondage qui accepte encore des votes
func (s *VoteService) openSondage(ctx context.Context, sondageID primitive.ObjectID) (*models.Sondage, error) {
	sondage, err := s.sondages.FindByID(ctx, sondageID)
	if err != nil {
		return nil, err
	}
	if sondage == nil {
		return nil, ErrPollNotFound
	}
	if !sondage.IsOpenAt(s.now()) {
		return nil, ErrPollClosed
	}
	return sondage, nil
}

// Current retourne le vote de l'utilisateur, ou nil s'il n'a pas voté
func (s *VoteService) Current(ctx context.Context, sondageID, userID primitive.ObjectID) (*models.Reponse, error) {
	sondage, err := s.sondages.FindByID(ctx, sondageID)
	if err != nil {
		return nil, err
	}
	if sondage == nil {
		return nil, ErrPollNotFound
	}
	return s.reponses.Find(ctx, sondageID, userID)
}

// Submit enregistre le premier vote d'un utilisateur
func (s *VoteService) Submit(ctx context.Context, sondageID, userID, choixID primitive.ObjectID) (*models.VoteResult, error) {
	sondage, err := s.openSondage(ctx, sondageID)
	if err != nil {
		return nil, s.reject(err)
	}
	if sondage.FindChoix(choixID) == nil {
		return nil, s.reject(ErrOptionNotFound)
	}

	rep := &models.Reponse{SondageID: sondageID, UserID: userID, ChoixID: choixID}
	if err := s.reponses.Insert(ctx, rep); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, s.reject(ErrAlreadyVoted)
		}
		return nil, err
	}

	return s.after(ctx, *sondage, models.VoteSoumis, EventVoteSoumis, userID, rep)
}

// Change remplace le choix d'un vote existant. La confirmation explicite est obligatoire.
func (s *VoteService) Change(ctx context.Context, sondageID, userID, choixID primitive.ObjectID, confirmed bool) (*models.VoteResult, error) {
	sondage, err := s.openSondage(ctx, sondageID)
	if err != nil {
		return nil, s.reject(err)
	}
	if sondage.FindChoix(choixID) == nil {
		return nil, s.reject(ErrOptionNotFound)
	}

	current, err := s.reponses.Find(ctx, sondageID, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, s.reject(ErrNoVote)
	}
	if current.ChoixID == choixID {
		return nil, s.reject(ErrSameOption)
	}
	if !confirmed {
		return nil, s.reject(ErrConfirmationRequired)
	}

	changed, err := s.reponses.ChangeChoix(ctx, sondageID, userID, current.ChoixID, choixID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Le vote a été supprimé ou modifié par une autre requête depuis la lecture
		again, err := s.reponses.Find(ctx, sondageID, userID)
		if err != nil {
			return nil, err
		}
		if again == nil {
			return nil, s.reject(ErrNoVote)
		}
		return nil, s.reject(ErrVoteConflict)
	}

	current.ChoixID = choixID
	current.UpdatedAt = s.now()
	return s.after(ctx, *sondage, models.VoteModifie, EventVoteModifie, userID, current)
}

// Delete retire le vote d'un utilisateur
func (s *VoteService) Delete(ctx context.Context, sondageID, userID primitive.ObjectID) (*models.VoteResult, error) {
	sondage, err := s.openSondage(ctx, sondageID)
	if err != nil {
		return nil, s.reject(err)
	}

	deleted, err := s.reponses.Delete(ctx, sondageID, userID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, s.reject(ErrNoVote)
	}

	return s.after(ctx, *sondage, models.VoteSupprime, EventVoteSupprime, userID, nil)
}

// after recalcule les résultats puis notifie les abonnés, le flux d'événements et les métriques
func (s *VoteService) after(ctx context.Context, sondage models.Sondage, transition, eventType string, userID primitive.ObjectID, rep *models.Reponse) (*models.VoteResult, error) {
	metrics.VoteTransitions.WithLabelValues(transition).Inc()

	fields := log.Fields{"sondage_id": sondage.ID.Hex(), "user_id": userID.Hex(), "transition": transition}
	if rep != nil {
		fields["choix_id"] = rep.ChoixID.Hex()
	}
	log.WithFields(fields).Info("🗳️  vote")

	payload := map[string]interface{}{
		"sondage_id": sondage.ID.Hex(),
		"user_id":    userID.Hex(),
	}
	if rep != nil {
		payload["choix_id"] = rep.ChoixID.Hex()
	}
	publishEvent(s.publisher, DomainEvent{Type: eventType, Key: sondage.ID.Hex(), Payload: payload, OccurredAt: s.now()})

	result := &models.VoteResult{Transition: transition, Reponse: rep}
	resultats, err := resultatsFor(ctx, s.reponses, sondage)
	if err != nil {
		// Le vote est enregistré, seuls les résultats manquent
		log.WithError(err).Warn("résultats indisponibles après le vote")
		return result, nil
	}
	result.Resultats = &resultats
	s.broadcaster.BroadcastResultats(sondage.ID, resultats)
	return result, nil
}

func (s *VoteService) reject(err error) error {
	reason := ""
	switch {
	case errors.Is(err, ErrAlreadyVoted):
		reason = "deja_vote"
	case errors.Is(err, ErrNoVote):
		reason = "aucun_vote"
	case errors.Is(err, ErrConfirmationRequired):
		reason = "confirmation"
	case errors.Is(err, ErrSameOption):
		reason = "meme_choix"
	case errors.Is(err, ErrPollClosed):
		reason = "ferme"
	case errors.Is(err, ErrOptionNotFound):
		reason = "choix_invalide"
	case errors.Is(err, ErrVoteConflict):
		reason = "conflit"
	}
	if reason != "" {
		metrics.VoteRejections.WithLabelValues(reason).Inc()
	}
	return err
}
