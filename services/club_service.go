package services

import (
	"context"
	"errors"
	"espace-clubs-backend/database"
	"espace-clubs-backend/metrics"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClubService gère les clubs et les adhésions (ParticipationMembre)
type ClubService struct {
	clubs          ClubStore
	participations ParticipationStore
	users          UserStore
	sondages       *SondageService
	evenements     *EvenementService
	mailer         Mailer
	now            func() time.Time
}

// NewClubService crée le service des clubs. La suppression d'un club passe par les services
// sondages et événements pour nettoyer votes, commentaires et inscriptions.
func NewClubService(clubs ClubStore, participations ParticipationStore, users UserStore, sondages *SondageService, evenements *EvenementService, mailer Mailer) *ClubService {
	return &ClubService{
		clubs:          clubs,
		participations: participations,
		users:          users,
		sondages:       sondages,
		evenements:     evenements,
		mailer:         mailer,
		now:            time.Now,
	}
}

// List retourne les clubs; seuls les admins voient les clubs non validés
func (s *ClubService) List(ctx context.Context, f models.ClubFilter, viewer *models.User) ([]models.Club, int64, error) {
	if viewer == nil || !viewer.IsAdmin() {
		f.Statut = models.ClubActif
	} else if f.Statut != "" {
		if err := utils.ValidateOneOf("statut", f.Statut, models.ClubEnAttente, models.ClubActif, models.ClubRefuse); err != nil {
			return nil, 0, err
		}
	}
	return s.clubs.List(ctx, f)
}

// Get retourne un club; un club non validé n'est visible que de son président et des admins
func (s *ClubService) Get(ctx context.Context, id primitive.ObjectID, viewer *models.User) (*models.Club, error) {
	club, err := s.clubs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if club == nil || (!club.IsActive() && !canManageClub(viewer, club)) {
		return nil, ErrClubNotFound
	}
	return club, nil
}

func clubFields(nom, description, categorie *string) (bson.M, error) {
	fields := bson.M{}
	if nom != nil {
		v := strings.TrimSpace(*nom)
		if err := utils.ValidateLength("nom", v, 2, 100); err != nil {
			return nil, err
		}
		fields["nom"] = v
	}
	if description != nil {
		v := strings.TrimSpace(*description)
		if err := utils.ValidateLength("description", v, 0, 2000); err != nil {
			return nil, err
		}
		fields["description"] = v
	}
	if categorie != nil {
		v := strings.ToLower(strings.TrimSpace(*categorie))
		if err := utils.ValidateLength("categorie", v, 1, 50); err != nil {
			return nil, err
		}
		fields["categorie"] = v
	}
	return fields, nil
}

// Create crée un club dont le créateur devient président (et premier membre)
func (s *ClubService) Create(ctx context.Context, req models.CreateClubRequest, creator *models.User) (*models.Club, error) {
	fields, err := clubFields(&req.Nom, &req.Description, &req.Categorie)
	if err != nil {
		return nil, err
	}

	statut := models.ClubEnAttente
	if creator.IsAdmin() {
		statut = models.ClubActif
	}

	club := &models.Club{
		Nom:           fields["nom"].(string),
		Description:   fields["description"].(string),
		Categorie:     fields["categorie"].(string),
		PresidentID:   creator.ID,
		Statut:        statut,
		NombreMembres: 1,
	}
	if err := s.clubs.Create(ctx, club); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrClubNameTaken
		}
		return nil, err
	}

	now := s.now()
	if err := s.participations.Create(ctx, &models.ParticipationMembre{
		ClubID:       club.ID,
		UserID:       creator.ID,
		Statut:       models.ParticipationAccepte,
		DateDemande:  now,
		DateDecision: &now,
	}); err != nil && !errors.Is(err, database.ErrDuplicate) {
		return nil, err
	}

	log.WithFields(log.Fields{"club_id": club.ID.Hex(), "statut": club.Statut}).Info("✓ Club créé")
	return club, nil
}

// Update modifie un club (président ou admin)
func (s *ClubService) Update(ctx context.Context, id primitive.ObjectID, req models.UpdateClubRequest, user *models.User) (*models.Club, error) {
	if _, err := loadManagedClub(ctx, s.clubs, id, user); err != nil {
		return nil, err
	}
	fields, err := clubFields(req.Nom, req.Description, req.Categorie)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}
	if err := s.clubs.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrClubNameTaken
		}
		return nil, err
	}
	return s.clubs.FindByID(ctx, id)
}

// SetLogo enregistre l'URL du logo
func (s *ClubService) SetLogo(ctx context.Context, id primitive.ObjectID, url string, user *models.User) (*models.Club, error) {
	if _, err := loadManagedClub(ctx, s.clubs, id, user); err != nil {
		return nil, err
	}
	if err := s.clubs.UpdateFields(ctx, id, bson.M{"logo_url": url}); err != nil {
		return nil, err
	}
	return s.clubs.FindByID(ctx, id)
}

// Delete supprime un club, ses adhésions, ses sondages et ses événements
func (s *ClubService) Delete(ctx context.Context, id primitive.ObjectID, user *models.User) error {
	if _, err := loadManagedClub(ctx, s.clubs, id, user); err != nil {
		return err
	}

	if s.sondages != nil {
		if err := s.sondages.DeleteByClub(ctx, id); err != nil {
			return err
		}
	}
	if s.evenements != nil {
		if err := s.evenements.DeleteByClub(ctx, id); err != nil {
			return err
		}
	}
	if err := s.participations.DeleteByClub(ctx, id); err != nil {
		return err
	}
	if err := s.clubs.Delete(ctx, id); err != nil {
		return err
	}

	log.WithFields(log.Fields{"club_id": id.Hex(), "user_id": user.ID.Hex()}).Info("🗑️  Club supprimé")
	return nil
}

// Decide valide ou refuse un club (admin). Valider promeut le président s'il n'est que membre.
func (s *ClubService) Decide(ctx context.Context, id primitive.ObjectID, statut string) (*models.Club, error) {
	if err := utils.ValidateOneOf("statut", statut, models.ClubActif, models.ClubRefuse); err != nil {
		return nil, err
	}
	club, err := s.clubs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}

	if err := s.clubs.UpdateFields(ctx, id, bson.M{"statut": statut}); err != nil {
		return nil, err
	}
	club.Statut = statut

	if statut == models.ClubActif {
		president, err := s.users.FindByID(ctx, club.PresidentID)
		if err != nil {
			return nil, err
		}
		if president != nil && president.Role == models.RoleMembre {
			if err := s.users.UpdateFields(ctx, president.ID, bson.M{"role": models.RolePresident}); err != nil {
				return nil, err
			}
			log.WithField("user_id", president.ID.Hex()).Info("⬆️  Utilisateur promu président")
		}
	}

	log.WithFields(log.Fields{"club_id": id.Hex(), "statut": statut}).Info("✓ Décision sur le club")
	return club, nil
}

// Join dépose une demande d'adhésion à un club actif
func (s *ClubService) Join(ctx context.Context, clubID primitive.ObjectID, user *models.User, message string) (*models.ParticipationMembre, error) {
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	if !club.IsActive() {
		return nil, ErrClubNotActive
	}

	message = strings.TrimSpace(message)
	if err := utils.ValidateLength("message", message, 0, 500); err != nil {
		return nil, err
	}

	p := &models.ParticipationMembre{
		ClubID:      clubID,
		UserID:      user.ID,
		Statut:      models.ParticipationEnAttente,
		Message:     message,
		DateDemande: s.now(),
	}
	if err := s.participations.Create(ctx, p); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrParticipationExists
		}
		return nil, err
	}

	metrics.Registrations.WithLabelValues("adhesion").Inc()
	return p, nil
}

// DecideParticipation accepte ou refuse une demande en attente (président ou admin)
func (s *ClubService) DecideParticipation(ctx context.Context, clubID, participationID primitive.ObjectID, statut string, user *models.User) (*models.ParticipationMembre, error) {
	if err := utils.ValidateOneOf("statut", statut, models.ParticipationAccepte, models.ParticipationRefuse); err != nil {
		return nil, err
	}
	club, err := loadManagedClub(ctx, s.clubs, clubID, user)
	if err != nil {
		return nil, err
	}

	existing, err := s.participations.FindByID(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.ClubID != clubID {
		return nil, ErrParticipationNotFound
	}

	decided, err := s.participations.Decide(ctx, participationID, statut)
	if err != nil {
		return nil, err
	}
	if decided == nil {
		return nil, ErrParticipationDecided
	}

	if statut == models.ParticipationAccepte {
		if err := s.clubs.IncrementMembres(ctx, clubID, 1); err != nil {
			return nil, err
		}
	}

	if member, err := s.users.FindByID(ctx, decided.UserID); err == nil && member != nil {
		subject, body := participationMail(member.Prenom, club.Nom, statut)
		sendAsync(s.mailer, member.Email, subject, body)
	}

	log.WithFields(log.Fields{"club_id": clubID.Hex(), "participation_id": participationID.Hex(), "statut": statut}).Info("✓ Demande d'adhésion traitée")
	return decided, nil
}

// Leave retire l'utilisateur d'un club; le président ne peut pas quitter son propre club
func (s *ClubService) Leave(ctx context.Context, clubID primitive.ObjectID, user *models.User) error {
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return err
	}
	if club == nil {
		return ErrClubNotFound
	}
	if club.PresidentID == user.ID {
		return ErrForbidden
	}

	p, err := s.participations.FindByClubAndUser(ctx, clubID, user.ID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrParticipationNotFound
	}
	deleted, err := s.participations.Delete(ctx, p.ID, clubID, user.ID)
	if err != nil {
		return err
	}
	if deleted == nil {
		return ErrParticipationNotFound
	}
	// Le statut supprimé fait foi: une acceptation concurrente a pu le changer
	if deleted.Statut == models.ParticipationAccepte {
		return s.clubs.IncrementMembres(ctx, clubID, -1)
	}
	return nil
}

// Participations liste les adhésions d'un club (président ou admin)
func (s *ClubService) Participations(ctx context.Context, clubID primitive.ObjectID, statut string, user *models.User) ([]models.ParticipationWithUser, error) {
	if statut != "" {
		if err := utils.ValidateOneOf("statut", statut, models.ParticipationEnAttente, models.ParticipationAccepte, models.ParticipationRefuse); err != nil {
			return nil, err
		}
	}
	if _, err := loadManagedClub(ctx, s.clubs, clubID, user); err != nil {
		return nil, err
	}
	return s.participations.ListByClub(ctx, clubID, statut)
}

// MyClubs retourne les clubs de l'utilisateur avec l'état de sa participation
func (s *ClubService) MyClubs(ctx context.Context, user *models.User) ([]models.ClubMembership, error) {
	participations, err := s.participations.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(participations) == 0 {
		return []models.ClubMembership{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.ClubID)
	}
	clubs, err := s.clubs.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.ParticipationMembre, len(participations))
	for _, p := range participations {
		byID[p.ClubID] = p
	}
	out := make([]models.ClubMembership, 0, len(clubs))
	for _, c := range clubs {
		out = append(out, models.ClubMembership{Club: c, Participation: byID[c.ID]})
	}
	return out, nil
}

// MemberIDs retourne les membres acceptés d'un club
func (s *ClubService) MemberIDs(ctx context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.participations.AcceptedUserIDs(ctx, clubID)
}

// ExportMembres génère le classeur des adhésions d'un club (président ou admin)
func (s *ClubService) ExportMembres(ctx context.Context, clubID primitive.ObjectID, user *models.User) ([]byte, string, error) {
	club, err := loadManagedClub(ctx, s.clubs, clubID, user)
	if err != nil {
		return nil, "", err
	}
	membres, err := s.participations.ListByClub(ctx, clubID, "")
	if err != nil {
		return nil, "", err
	}
	data, err := ExportMembresXLSX(*club, membres)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("membres-%s.xlsx", club.ID.Hex()), nil
}
