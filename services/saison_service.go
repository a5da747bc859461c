package services

import (
	"context"
	"errors"
	"espace-clubs-backend/database"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SaisonService gère les saisons, leurs compétitions, les résultats et le classement
type SaisonService struct {
	saisons      SaisonStore
	competitions CompetitionStore
	clubs        ClubStore
	now          func() time.Time
}

// NewSaisonService crée le service saisons/compétitions
func NewSaisonService(saisons SaisonStore, competitions CompetitionStore, clubs ClubStore) *SaisonService {
	return &SaisonService{saisons: saisons, competitions: competitions, clubs: clubs, now: time.Now}
}

func (s *SaisonService) withStatut(saison *models.Saison) *models.Saison {
	saison.Statut = saison.StatutAt(s.now())
	return saison
}

func validateSaison(req *models.SaisonRequest) error {
	req.Nom = strings.TrimSpace(req.Nom)
	req.Description = strings.TrimSpace(req.Description)
	if err := utils.ValidateLength("nom", req.Nom, 1, 100); err != nil {
		return err
	}
	if err := utils.ValidateLength("description", req.Description, 0, 2000); err != nil {
		return err
	}
	if req.DateDebut.IsZero() || req.DateFin.IsZero() {
		return invalid("date_debut", "les dates de début et de fin sont requises")
	}
	if !req.DateFin.After(req.DateDebut.Time) {
		return ErrInvalidDates
	}
	return nil
}

// ListSaisons retourne toutes les saisons avec leur statut calculé
func (s *SaisonService) ListSaisons(ctx context.Context) ([]models.Saison, error) {
	saisons, err := s.saisons.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range saisons {
		s.withStatut(&saisons[i])
	}
	return saisons, nil
}

// GetSaison retourne une saison
func (s *SaisonService) GetSaison(ctx context.Context, id primitive.ObjectID) (*models.Saison, error) {
	saison, err := s.saisons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if saison == nil {
		return nil, ErrSeasonNotFound
	}
	return s.withStatut(saison), nil
}

// CreateSaison crée une saison
func (s *SaisonService) CreateSaison(ctx context.Context, req models.SaisonRequest) (*models.Saison, error) {
	if err := validateSaison(&req); err != nil {
		return nil, err
	}
	saison := &models.Saison{
		Nom:         req.Nom,
		Description: req.Description,
		DateDebut:   req.DateDebut.Time,
		DateFin:     req.DateFin.Time,
	}
	if err := s.saisons.Create(ctx, saison); err != nil {
		return nil, err
	}
	log.WithField("saison_id", saison.ID.Hex()).Info("🏁 Saison créée")
	return s.withStatut(saison), nil
}

// UpdateSaison modifie une saison; ses compétitions doivent rester dans les nouvelles bornes
func (s *SaisonService) UpdateSaison(ctx context.Context, id primitive.ObjectID, req models.SaisonRequest) (*models.Saison, error) {
	saison, err := s.GetSaison(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateSaison(&req); err != nil {
		return nil, err
	}

	saison.Nom = req.Nom
	saison.Description = req.Description
	saison.DateDebut = req.DateDebut.Time
	saison.DateFin = req.DateFin.Time

	competitions, _, err := s.competitions.List(ctx, models.CompetitionFilter{
		ListQuery: models.ListQuery{Page: 1, Limit: models.MaxPageLimit},
		SaisonID:  &id,
	})
	if err != nil {
		return nil, err
	}
	for _, c := range competitions {
		if !saison.Contains(c.DateDebut, c.DateFin) {
			return nil, ErrCompetitionOutsideSeason
		}
	}

	if err := s.saisons.Update(ctx, saison); err != nil {
		return nil, err
	}
	return s.withStatut(saison), nil
}

// DeleteSaison supprime une saison et ses compétitions
func (s *SaisonService) DeleteSaison(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.GetSaison(ctx, id); err != nil {
		return err
	}
	if err := s.competitions.DeleteBySaison(ctx, id); err != nil {
		return err
	}
	return s.saisons.Delete(ctx, id)
}

// validateCompetition contrôle la requête et la rattache à sa saison
func (s *SaisonService) validateCompetition(ctx context.Context, req *models.CompetitionRequest) (*models.Saison, error) {
	saisonID, err := primitive.ObjectIDFromHex(req.SaisonID)
	if err != nil {
		return nil, invalid("saison_id", "saison_id invalide")
	}
	saison, err := s.GetSaison(ctx, saisonID)
	if err != nil {
		return nil, err
	}

	req.Titre = strings.TrimSpace(req.Titre)
	req.Description = strings.TrimSpace(req.Description)
	req.Objectif = strings.TrimSpace(req.Objectif)
	if err := utils.ValidateLength("titre", req.Titre, 1, 200); err != nil {
		return nil, err
	}
	if err := utils.ValidateLength("description", req.Description, 0, 2000); err != nil {
		return nil, err
	}
	if err := utils.ValidateOneOf("type", req.Type, models.CompetitionDefi, models.CompetitionTournoi, models.CompetitionQuiz); err != nil {
		return nil, err
	}
	if req.Statut == "" {
		req.Statut = models.CompetitionActive
	}
	if err := utils.ValidateOneOf("statut", req.Statut, models.CompetitionActive, models.CompetitionInactive); err != nil {
		return nil, err
	}
	if req.Points < 0 {
		return nil, invalid("points", "les points doivent être positifs")
	}
	if req.DateDebut.IsZero() || req.DateFin.IsZero() {
		return nil, invalid("date_debut", "les dates de début et de fin sont requises")
	}
	if !req.DateFin.After(req.DateDebut.Time) {
		return nil, ErrInvalidDates
	}
	if !saison.Contains(req.DateDebut.Time, req.DateFin.Time) {
		return nil, ErrCompetitionOutsideSeason
	}
	return saison, nil
}

// ListCompetitions retourne les compétitions paginées
func (s *SaisonService) ListCompetitions(ctx context.Context, f models.CompetitionFilter) ([]models.Competition, int64, error) {
	if f.Statut != "" {
		if err := utils.ValidateOneOf("statut", f.Statut, models.CompetitionActive, models.CompetitionInactive); err != nil {
			return nil, 0, err
		}
	}
	return s.competitions.List(ctx, f)
}

// GetCompetition retourne une compétition
func (s *SaisonService) GetCompetition(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	c, err := s.competitions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCompetitionNotFound
	}
	return c, nil
}

// CreateCompetition crée une compétition dans une saison
func (s *SaisonService) CreateCompetition(ctx context.Context, req models.CompetitionRequest) (*models.Competition, error) {
	saison, err := s.validateCompetition(ctx, &req)
	if err != nil {
		return nil, err
	}
	c := &models.Competition{
		SaisonID:    saison.ID,
		Titre:       req.Titre,
		Description: req.Description,
		Type:        req.Type,
		Objectif:    req.Objectif,
		Points:      req.Points,
		DateDebut:   req.DateDebut.Time,
		DateFin:     req.DateFin.Time,
		Statut:      req.Statut,
	}
	if err := s.competitions.Create(ctx, c); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"competition_id": c.ID.Hex(), "saison_id": saison.ID.Hex()}).Info("🏆 Compétition créée")
	return c, nil
}

// UpdateCompetition modifie une compétition
func (s *SaisonService) UpdateCompetition(ctx context.Context, id primitive.ObjectID, req models.CompetitionRequest) (*models.Competition, error) {
	c, err := s.GetCompetition(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SaisonID == "" {
		req.SaisonID = c.SaisonID.Hex()
	}
	saison, err := s.validateCompetition(ctx, &req)
	if err != nil {
		return nil, err
	}

	c.SaisonID = saison.ID
	c.Titre = req.Titre
	c.Description = req.Description
	c.Type = req.Type
	c.Objectif = req.Objectif
	c.Points = req.Points
	c.DateDebut = req.DateDebut.Time
	c.DateFin = req.DateFin.Time
	c.Statut = req.Statut
	if err := s.competitions.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCompetition supprime une compétition et ses résultats
func (s *SaisonService) DeleteCompetition(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.GetCompetition(ctx, id); err != nil {
		return err
	}
	return s.competitions.Delete(ctx, id)
}

// AddResultat attribue des points à un club; par défaut les points de la compétition
func (s *SaisonService) AddResultat(ctx context.Context, competitionID primitive.ObjectID, req models.ResultatRequest) (*models.CompetitionResultat, error) {
	c, err := s.GetCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	clubID, err := primitive.ObjectIDFromHex(req.ClubID)
	if err != nil {
		return nil, invalid("club_id", "club_id invalide")
	}
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}

	points := c.Points
	if req.Points != nil {
		if *req.Points < 0 {
			return nil, invalid("points", "les points doivent être positifs")
		}
		points = *req.Points
	}

	res := &models.CompetitionResultat{
		CompetitionID: c.ID,
		SaisonID:      c.SaisonID,
		ClubID:        clubID,
		Points:        points,
	}
	if err := s.competitions.AddResultat(ctx, res); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrResultExists
		}
		return nil, err
	}
	return res, nil
}

// Resultats liste les résultats d'une compétition
func (s *SaisonService) Resultats(ctx context.Context, competitionID primitive.ObjectID) ([]models.CompetitionResultat, error) {
	if _, err := s.GetCompetition(ctx, competitionID); err != nil {
		return nil, err
	}
	return s.competitions.ListResultats(ctx, competitionID)
}

// Classement retourne le classement d'une saison: points décroissants, puis nom du club
func (s *SaisonService) Classement(ctx context.Context, saisonID primitive.ObjectID) ([]models.ClassementEntry, error) {
	if _, err := s.GetSaison(ctx, saisonID); err != nil {
		return nil, err
	}
	entries, err := s.competitions.Classement(ctx, saisonID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rang = i + 1
	}
	return entries, nil
}
