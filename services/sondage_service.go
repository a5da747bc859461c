package services

import (
	"context"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberNotifier pousse une notification aux appareils d'une liste d'utilisateurs
type MemberNotifier interface {
	NotifyUsers(ctx context.Context, userIDs []primitive.ObjectID, title, body string, data map[string]string) (success, failed int)
}

// SondageService gère le cycle de vie des sondages (création, édition, clôture, suppression)
type SondageService struct {
	sondages       SondageStore
	reponses       ReponseStore
	commentaires   CommentaireStore
	clubs          ClubStore
	participations ParticipationStore
	notifier       MemberNotifier
	broadcaster    Broadcaster
	publisher      EventPublisher
	now            func() time.Time
}

// SondageServiceDeps regroupe les dépendances du service sondages
type SondageServiceDeps struct {
	Sondages       SondageStore
	Reponses       ReponseStore
	Commentaires   CommentaireStore
	Clubs          ClubStore
	Participations ParticipationStore
	Notifier       MemberNotifier
	Broadcaster    Broadcaster
	Publisher      EventPublisher
}

// NewSondageService crée le service sondages
func NewSondageService(d SondageServiceDeps) *SondageService {
	s := &SondageService{
		sondages:       d.Sondages,
		reponses:       d.Reponses,
		commentaires:   d.Commentaires,
		clubs:          d.Clubs,
		participations: d.Participations,
		notifier:       d.Notifier,
		broadcaster:    d.Broadcaster,
		publisher:      d.Publisher,
		now:            time.Now,
	}
	if s.broadcaster == nil {
		s.broadcaster = noopBroadcaster{}
	}
	if s.publisher == nil {
		s.publisher = NoopPublisher{}
	}
	return s
}

// validateChoix nettoie les libellés et vérifie leur nombre et leur unicité (sans tenir compte de la casse)
func validateChoix(libelles []string) ([]models.ChoixSondage, error) {
	if len(libelles) < models.MinChoix || len(libelles) > models.MaxChoix {
		return nil, invalid("choix", fmt.Sprintf("un sondage doit proposer entre %d et %d choix", models.MinChoix, models.MaxChoix))
	}

	seen := map[string]bool{}
	choix := make([]models.ChoixSondage, 0, len(libelles))
	for _, l := range libelles {
		l = strings.TrimSpace(l)
		if err := utils.ValidateLength("choix", l, 1, 200); err != nil {
			return nil, err
		}
		key := normalizeText(l)
		if seen[key] {
			return nil, invalid("choix", fmt.Sprintf("le choix « %s » est en double", l))
		}
		seen[key] = true
		choix = append(choix, models.ChoixSondage{Libelle: l})
	}
	return choix, nil
}

func (s *SondageService) validateDateFin(t *models.FlexibleTime) (*time.Time, error) {
	if t == nil || t.IsZero() {
		return nil, nil
	}
	if !t.After(s.now()) {
		return nil, invalid("date_fin", "la date de fin doit être dans le futur")
	}
	return t.Ptr(), nil
}

// load charge un sondage existant
func (s *SondageService) load(ctx context.Context, id primitive.ObjectID) (*models.Sondage, error) {
	sondage, err := s.sondages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sondage == nil {
		return nil, ErrPollNotFound
	}
	return sondage, nil
}

// loadManaged charge un sondage modifiable par l'utilisateur (auteur, président du club ou admin)
func (s *SondageService) loadManaged(ctx context.Context, id primitive.ObjectID, user *models.User) (*models.Sondage, error) {
	sondage, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sondage.AuteurID == user.ID || user.IsAdmin() {
		return sondage, nil
	}
	club, err := s.clubs.FindByID(ctx, sondage.ClubID)
	if err != nil {
		return nil, err
	}
	if !canManageClub(user, club) {
		return nil, ErrForbidden
	}
	return sondage, nil
}

// List retourne les sondages paginés
func (s *SondageService) List(ctx context.Context, f models.SondageFilter) ([]models.Sondage, int64, error) {
	if f.Statut != "" {
		if err := utils.ValidateOneOf("statut", f.Statut, models.SondageOuvert, models.SondageFerme); err != nil {
			return nil, 0, err
		}
	}
	return s.sondages.List(ctx, f)
}

// Get retourne un sondage et ses résultats en direct
func (s *SondageService) Get(ctx context.Context, id primitive.ObjectID) (*models.SondageDetail, error) {
	sondage, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := resultatsFor(ctx, s.reponses, *sondage)
	if err != nil {
		return nil, err
	}
	return &models.SondageDetail{Sondage: *sondage, Resultats: res}, nil
}

// Create publie un sondage dans un club actif (président du club ou admin) et prévient les membres
func (s *SondageService) Create(ctx context.Context, req models.CreateSondageRequest, user *models.User) (*models.Sondage, error) {
	clubID, err := primitive.ObjectIDFromHex(req.ClubID)
	if err != nil {
		return nil, invalid("club_id", "club_id invalide")
	}
	club, err := loadManagedClub(ctx, s.clubs, clubID, user)
	if err != nil {
		return nil, err
	}
	if !club.IsActive() {
		return nil, ErrClubNotActive
	}

	question := strings.TrimSpace(req.Question)
	if err := utils.ValidateLength("question", question, 1, 300); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if err := utils.ValidateLength("description", description, 0, 2000); err != nil {
		return nil, err
	}
	choix, err := validateChoix(req.Choix)
	if err != nil {
		return nil, err
	}
	dateFin, err := s.validateDateFin(req.DateFin)
	if err != nil {
		return nil, err
	}

	sondage := &models.Sondage{
		ClubID:      clubID,
		AuteurID:    user.ID,
		Question:    question,
		Description: description,
		Choix:       choix,
		Statut:      models.SondageOuvert,
		DateFin:     dateFin,
	}
	if err := s.sondages.Create(ctx, sondage); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"sondage_id": sondage.ID.Hex(), "club_id": clubID.Hex()}).Info("🗳️  Sondage créé")
	publishEvent(s.publisher, DomainEvent{
		Type:    EventSondageCree,
		Key:     sondage.ID.Hex(),
		Payload: map[string]interface{}{"club_id": clubID.Hex(), "question": question},
	})
	s.notifyMembers(club, sondage)
	return sondage, nil
}

// notifyMembers pousse le nouveau sondage aux membres du club, en arrière-plan
func (s *SondageService) notifyMembers(club *models.Club, sondage *models.Sondage) {
	if s.notifier == nil || s.participations == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		members, err := s.participations.AcceptedUserIDs(ctx, club.ID)
		if err != nil {
			log.WithError(err).Warn("⚠️  Membres du club introuvables pour la notification")
			return
		}
		recipients := make([]primitive.ObjectID, 0, len(members))
		for _, id := range members {
			if id != sondage.AuteurID {
				recipients = append(recipients, id)
			}
		}
		success, failed := s.notifier.NotifyUsers(ctx, recipients, "🗳️ Nouveau sondage – "+club.Nom, sondage.Question, map[string]string{
			"action":     "nouveau_sondage",
			"sondage_id": sondage.ID.Hex(),
			"url":        "/sondages/" + sondage.ID.Hex(),
		})
		log.Printf("📣 Sondage '%s' notifié: %d succès, %d échecs", sondage.Question, success, failed)
	}()
}

// Update modifie un sondage; les choix ne sont modifiables qu'avant le premier vote
func (s *SondageService) Update(ctx context.Context, id primitive.ObjectID, req models.UpdateSondageRequest, user *models.User) (*models.Sondage, error) {
	sondage, err := s.loadManaged(ctx, id, user)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if req.Question != nil {
		q := strings.TrimSpace(*req.Question)
		if err := utils.ValidateLength("question", q, 1, 300); err != nil {
			return nil, err
		}
		fields["question"] = q
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		if err := utils.ValidateLength("description", d, 0, 2000); err != nil {
			return nil, err
		}
		fields["description"] = d
	}
	if req.DateFin != nil {
		dateFin, err := s.validateDateFin(req.DateFin)
		if err != nil {
			return nil, err
		}
		if dateFin != nil {
			fields["date_fin"] = *dateFin
		}
	}
	if req.Choix != nil {
		votes, err := s.reponses.CountBySondage(ctx, id)
		if err != nil {
			return nil, err
		}
		if votes > 0 {
			return nil, ErrPollHasVotes
		}
		choix, err := validateChoix(req.Choix)
		if err != nil {
			return nil, err
		}
		for i := range choix {
			choix[i].ID = primitive.NewObjectID()
		}
		fields["choix"] = choix
	}

	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}
	if err := s.sondages.UpdateFields(ctx, sondage.ID, fields); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Close ferme un sondage ouvert
func (s *SondageService) Close(ctx context.Context, id primitive.ObjectID, user *models.User) (*models.ResultatsSondage, error) {
	if _, err := s.loadManaged(ctx, id, user); err != nil {
		return nil, err
	}
	closed, err := s.sondages.Close(ctx, id)
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, ErrPollClosed
	}
	return s.afterClose(ctx, id, "manuelle")
}

// afterClose publie l'événement de clôture et diffuse les résultats finaux
func (s *SondageService) afterClose(ctx context.Context, id primitive.ObjectID, mode string) (*models.ResultatsSondage, error) {
	sondage, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := resultatsFor(ctx, s.reponses, *sondage)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"sondage_id": id.Hex(), "mode": mode, "votes": res.TotalVotes}).Info("🔒 Sondage fermé")
	publishEvent(s.publisher, DomainEvent{
		Type:    EventSondageFerme,
		Key:     id.Hex(),
		Payload: map[string]interface{}{"mode": mode, "total_votes": res.TotalVotes, "gagnants": res.Gagnants},
	})
	s.broadcaster.BroadcastResultats(id, res)
	return &res, nil
}

// CloseExpired ferme les sondages dont la date de fin est passée; retourne le nombre fermé
func (s *SondageService) CloseExpired(ctx context.Context) (int, error) {
	expired, err := s.sondages.FindExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, sondage := range expired {
		ok, err := s.sondages.Close(ctx, sondage.ID)
		if err != nil {
			return closed, err
		}
		if !ok {
			continue
		}
		closed++
		if _, err := s.afterClose(ctx, sondage.ID, "automatique"); err != nil {
			log.WithError(err).WithField("sondage_id", sondage.ID.Hex()).Warn("⚠️  Diffusion de la clôture impossible")
		}
	}
	return closed, nil
}

// Delete supprime un sondage, ses votes et ses commentaires
func (s *SondageService) Delete(ctx context.Context, id primitive.ObjectID, user *models.User) error {
	if _, err := s.loadManaged(ctx, id, user); err != nil {
		return err
	}
	return s.deleteCascade(ctx, id)
}

func (s *SondageService) deleteCascade(ctx context.Context, id primitive.ObjectID) error {
	if err := s.reponses.DeleteBySondage(ctx, id); err != nil {
		return err
	}
	if err := s.commentaires.DeleteBySondage(ctx, id); err != nil {
		return err
	}
	if err := s.sondages.Delete(ctx, id); err != nil {
		return err
	}
	log.WithField("sondage_id", id.Hex()).Info("🗑️  Sondage supprimé")
	return nil
}

// DeleteByClub supprime tous les sondages d'un club
func (s *SondageService) DeleteByClub(ctx context.Context, clubID primitive.ObjectID) error {
	ids, err := s.sondages.FindIDsByClub(ctx, clubID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.deleteCascade(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Resultats retourne les résultats agrégés d'un sondage
func (s *SondageService) Resultats(ctx context.Context, id primitive.ObjectID) (*models.ResultatsSondage, error) {
	sondage, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := resultatsFor(ctx, s.reponses, *sondage)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ResultatsPNG retourne l'histogramme des résultats
func (s *SondageService) ResultatsPNG(ctx context.Context, id primitive.ObjectID) ([]byte, error) {
	res, err := s.Resultats(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderResultatsPNG(*res)
}

// ResultatsXLSX retourne le classeur des résultats et son nom de fichier
func (s *SondageService) ResultatsXLSX(ctx context.Context, id primitive.ObjectID) ([]byte, string, error) {
	res, err := s.Resultats(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := ExportResultatsXLSX(*res)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("resultats-%s.xlsx", id.Hex()), nil
}
