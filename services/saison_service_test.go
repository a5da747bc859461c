package services

import (
	"context"
	"espace-clubs-backend/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newSaisonFixture() (*SaisonService, *fakeClubs, time.Time) {
	clubs := newFakeClubs()
	svc := NewSaisonService(newFakeSaisons(), newFakeCompetitions(clubs), clubs)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, clubs, now
}

func saisonRequest(debut, fin time.Time) models.SaisonRequest {
	return models.SaisonRequest{Nom: "Saison 2025-2026", DateDebut: flex(debut), DateFin: flex(fin)}
}

func TestSaisonService_CreateAndStatut(t *testing.T) {
	ctx := context.Background()
	svc, _, now := newSaisonFixture()

	enCours, err := svc.CreateSaison(ctx, saisonRequest(now.AddDate(0, -4, 0), now.AddDate(0, 5, 0)))
	require.NoError(t, err)
	assert.Equal(t, models.SaisonEnCours, enCours.Statut)

	aVenir, err := svc.CreateSaison(ctx, saisonRequest(now.AddDate(1, 0, 0), now.AddDate(2, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, models.SaisonAVenir, aVenir.Statut)

	_, err = svc.CreateSaison(ctx, saisonRequest(now, now.AddDate(0, 0, -1)))
	assert.ErrorIs(t, err, ErrInvalidDates)

	_, err = svc.CreateSaison(ctx, models.SaisonRequest{Nom: " ", DateDebut: flex(now), DateFin: flex(now.Add(time.Hour))})
	_, isValidation := IsValidation(err)
	assert.True(t, isValidation)

	list, err := svc.ListSaisons(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, aVenir.ID, list[0].ID)
	assert.Equal(t, models.SaisonAVenir, list[0].Statut)

	_, err = svc.GetSaison(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}

func TestSaisonService_Competitions(t *testing.T) {
	ctx := context.Background()
	svc, _, now := newSaisonFixture()
	saison, err := svc.CreateSaison(ctx, saisonRequest(now.AddDate(0, -1, 0), now.AddDate(0, 6, 0)))
	require.NoError(t, err)

	req := models.CompetitionRequest{
		SaisonID:  saison.ID.Hex(),
		Titre:     "Défi lecture",
		Type:      models.CompetitionDefi,
		Points:    50,
		DateDebut: flex(now),
		DateFin:   flex(now.AddDate(0, 1, 0)),
	}
	c, err := svc.CreateCompetition(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.CompetitionActive, c.Statut)

	t.Run("hors saison", func(t *testing.T) {
		r := req
		r.DateFin = flex(now.AddDate(1, 0, 0))
		_, err := svc.CreateCompetition(ctx, r)
		assert.ErrorIs(t, err, ErrCompetitionOutsideSeason)
	})

	t.Run("type inconnu", func(t *testing.T) {
		r := req
		r.Type = "marathon"
		_, err := svc.CreateCompetition(ctx, r)
		_, isValidation := IsValidation(err)
		assert.True(t, isValidation)
	})

	t.Run("saison inconnue", func(t *testing.T) {
		r := req
		r.SaisonID = primitive.NewObjectID().Hex()
		_, err := svc.CreateCompetition(ctx, r)
		assert.ErrorIs(t, err, ErrSeasonNotFound)
	})

	t.Run("modification garde la saison", func(t *testing.T) {
		r := req
		r.SaisonID = ""
		r.Titre = "Défi lecture - printemps"
		r.Statut = models.CompetitionInactive
		updated, err := svc.UpdateCompetition(ctx, c.ID, r)
		require.NoError(t, err)
		assert.Equal(t, saison.ID, updated.SaisonID)
		assert.Equal(t, models.CompetitionInactive, updated.Statut)
	})

	t.Run("la saison ne peut pas exclure ses compétitions", func(t *testing.T) {
		_, err := svc.UpdateSaison(ctx, saison.ID, saisonRequest(now.AddDate(0, 0, 7), now.AddDate(0, 6, 0)))
		assert.ErrorIs(t, err, ErrCompetitionOutsideSeason)

		updated, err := svc.UpdateSaison(ctx, saison.ID, saisonRequest(now.AddDate(0, -2, 0), now.AddDate(0, 8, 0)))
		require.NoError(t, err)
		assert.Equal(t, models.SaisonEnCours, updated.Statut)
	})

	t.Run("suppression en cascade", func(t *testing.T) {
		require.NoError(t, svc.DeleteSaison(ctx, saison.ID))
		_, err := svc.GetCompetition(ctx, c.ID)
		assert.ErrorIs(t, err, ErrCompetitionNotFound)
	})
}

func TestSaisonService_Classement(t *testing.T) {
	ctx := context.Background()
	svc, clubs, now := newSaisonFixture()
	saison, err := svc.CreateSaison(ctx, saisonRequest(now.AddDate(0, -1, 0), now.AddDate(0, 6, 0)))
	require.NoError(t, err)

	newCompetition := func(points int) *models.Competition {
		c, err := svc.CreateCompetition(ctx, models.CompetitionRequest{
			SaisonID:  saison.ID.Hex(),
			Titre:     "Tournoi",
			Type:      models.CompetitionTournoi,
			Points:    points,
			DateDebut: flex(now),
			DateFin:   flex(now.Add(48 * time.Hour)),
		})
		require.NoError(t, err)
		return c
	}
	tournoi := newCompetition(30)
	quiz := newCompetition(20)

	echecs := newClub(primitive.NewObjectID())
	echecs.Nom = "Échecs"
	astro := newClub(primitive.NewObjectID())
	astro.Nom = "Astronomie"
	theatre := newClub(primitive.NewObjectID())
	theatre.Nom = "Théâtre"
	for _, c := range []*models.Club{echecs, astro, theatre} {
		clubs.clubs[c.ID] = c
	}

	dix := 10
	_, err = svc.AddResultat(ctx, tournoi.ID, models.ResultatRequest{ClubID: echecs.ID.Hex()})
	require.NoError(t, err)
	_, err = svc.AddResultat(ctx, quiz.ID, models.ResultatRequest{ClubID: astro.ID.Hex()})
	require.NoError(t, err)
	_, err = svc.AddResultat(ctx, tournoi.ID, models.ResultatRequest{ClubID: astro.ID.Hex(), Points: &dix})
	require.NoError(t, err)
	_, err = svc.AddResultat(ctx, quiz.ID, models.ResultatRequest{ClubID: theatre.ID.Hex(), Points: &dix})
	require.NoError(t, err)

	_, err = svc.AddResultat(ctx, tournoi.ID, models.ResultatRequest{ClubID: echecs.ID.Hex()})
	assert.ErrorIs(t, err, ErrResultExists)

	_, err = svc.AddResultat(ctx, tournoi.ID, models.ResultatRequest{ClubID: primitive.NewObjectID().Hex()})
	assert.ErrorIs(t, err, ErrClubNotFound)

	negatif := -5
	_, err = svc.AddResultat(ctx, quiz.ID, models.ResultatRequest{ClubID: echecs.ID.Hex(), Points: &negatif})
	_, isValidation := IsValidation(err)
	assert.True(t, isValidation)

	classement, err := svc.Classement(ctx, saison.ID)
	require.NoError(t, err)
	require.Len(t, classement, 3)

	// Astronomie et Échecs sont à égalité (30): départage par nom
	assert.Equal(t, "Astronomie", classement[0].ClubNom)
	assert.Equal(t, 30, classement[0].Points)
	assert.Equal(t, 1, classement[0].Rang)
	assert.Equal(t, "Échecs", classement[1].ClubNom)
	assert.Equal(t, 2, classement[1].Rang)
	assert.Equal(t, "Théâtre", classement[2].ClubNom)
	assert.Equal(t, 10, classement[2].Points)
	assert.Equal(t, 3, classement[2].Rang)
}
