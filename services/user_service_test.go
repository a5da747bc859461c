package services

import (
	"context"
	"errors"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testJWTSecret = "test-secret"

type userFixture struct {
	svc            *UserService
	users          *fakeUsers
	clubs          *fakeClubs
	participations *fakeParticipations
	reponses       *fakeReponses
	commentaires   *fakeCommentaires
	sondages       *fakeSondages
	evenements     *fakeEvenements
	inscriptions   *fakeInscriptions
	tokens         *fakeTokens
	mailer         *recordingMailer
}

func newUserFixture() *userFixture {
	f := &userFixture{
		users:          newFakeUsers(),
		clubs:          newFakeClubs(),
		participations: newFakeParticipations(),
		reponses:       newFakeReponses(),
		commentaires:   newFakeCommentaires(),
		sondages:       newFakeSondages(),
		evenements:     newFakeEvenements(),
		inscriptions:   &fakeInscriptions{},
		tokens:         newFakeTokens(),
		mailer:         newRecordingMailer(),
	}
	f.svc = NewUserService(UserServiceDeps{
		Users:          f.users,
		Clubs:          f.clubs,
		Participations: f.participations,
		Reponses:       f.reponses,
		Commentaires:   f.commentaires,
		Sondages:       f.sondages,
		Evenements:     f.evenements,
		Inscriptions:   f.inscriptions,
		Tokens:         f.tokens,
		Mailer:         f.mailer,
		JWTSecret:      testJWTSecret,
	})
	return f
}

func registerRequest() models.RegisterRequest {
	return models.RegisterRequest{
		Nom:      "Trabelsi",
		Prenom:   "Amira",
		Email:    "  Amira.Trabelsi@Univ.tn ",
		Password: "motdepasse123",
	}
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()

	resp, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "amira.trabelsi@univ.tn", resp.User.Email)
	assert.Equal(t, models.RoleMembre, resp.User.Role)
	assert.Equal(t, models.UserActif, resp.User.Statut)
	assert.NotEqual(t, "motdepasse123", resp.User.Password)

	claims, err := utils.ValidateToken(resp.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.Hex(), claims.UserID)

	select {
	case sent := <-f.mailer.sent:
		assert.Contains(t, sent, "amira.trabelsi@univ.tn")
	case <-time.After(time.Second):
		t.Fatal("email de bienvenue non envoyé")
	}

	_, err = f.svc.Register(ctx, registerRequest())
	assert.ErrorIs(t, err, ErrEmailTaken)

	for name, mutate := range map[string]func(*models.RegisterRequest){
		"email invalide":  func(r *models.RegisterRequest) { r.Email = "pas-un-email" },
		"mot de passe":    func(r *models.RegisterRequest) { r.Password = "court" },
		"nom manquant":    func(r *models.RegisterRequest) { r.Nom = " " },
		"téléphone faux":  func(r *models.RegisterRequest) { r.Telephone = "abc" },
		"prénom manquant": func(r *models.RegisterRequest) { r.Prenom = "" },
	} {
		req := registerRequest()
		req.Email = "autre@univ.tn"
		mutate(&req)
		_, err := f.svc.Register(ctx, req)
		_, isValidation := IsValidation(err)
		assert.True(t, isValidation, name)
	}
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	registered, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	resp, err := f.svc.Login(ctx, models.LoginRequest{Email: "AMIRA.TRABELSI@univ.tn", Password: "motdepasse123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotNil(t, resp.User.LastLogin)

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "amira.trabelsi@univ.tn", Password: "mauvais"})
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "inconnu@univ.tn", Password: "motdepasse123"})
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = f.svc.Login(ctx, models.LoginRequest{})
	assert.ErrorIs(t, err, ErrBadCredentials)

	f.users.users[registered.User.ID].Statut = models.UserBloque
	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "amira.trabelsi@univ.tn", Password: "motdepasse123"})
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	registered, err := f.svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	id := registered.User.ID

	tel := "+21698123456"
	user, err := f.svc.UpdateProfile(ctx, id, models.UpdateProfileRequest{Telephone: &tel})
	require.NoError(t, err)
	assert.Equal(t, tel, user.Telephone)

	_, err = f.svc.UpdateProfile(ctx, id, models.UpdateProfileRequest{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, id, models.ChangePasswordRequest{CurrentPassword: "faux", NewPassword: "nouveau-secret"}), ErrWrongPassword)
	require.NoError(t, f.svc.ChangePassword(ctx, id, models.ChangePasswordRequest{CurrentPassword: "motdepasse123", NewPassword: "nouveau-secret"}))
	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "amira.trabelsi@univ.tn", Password: "nouveau-secret"})
	assert.NoError(t, err)

	user, err = f.svc.SetPhoto(ctx, id, "/uploads/photos/a.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/photos/a.png", user.PhotoURL)

	_, err = f.svc.Get(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_AdminUpdate(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	admin := newUser(models.RoleAdmin)
	target := newUser(models.RoleMembre)
	target.Statut = models.UserBloque
	target.Avertissements = models.MaxAvertissements
	f.users.users[admin.ID] = admin
	f.users.users[target.ID] = target

	actif := models.UserActif
	updated, err := f.svc.AdminUpdate(ctx, target.ID, models.UpdateUserRequest{Statut: &actif}, admin)
	require.NoError(t, err)
	assert.Equal(t, models.UserActif, updated.Statut)
	assert.Zero(t, updated.Avertissements, "déblocage = remise à zéro des avertissements")

	president := models.RolePresident
	updated, err = f.svc.AdminUpdate(ctx, target.ID, models.UpdateUserRequest{Role: &president}, admin)
	require.NoError(t, err)
	assert.Equal(t, models.RolePresident, updated.Role)

	membre := models.RoleMembre
	_, err = f.svc.AdminUpdate(ctx, admin.ID, models.UpdateUserRequest{Role: &membre}, admin)
	assert.ErrorIs(t, err, ErrForbidden)

	bloque := models.UserBloque
	_, err = f.svc.AdminUpdate(ctx, admin.ID, models.UpdateUserRequest{Statut: &bloque}, admin)
	assert.ErrorIs(t, err, ErrForbidden)

	inconnu := "superadmin"
	_, err = f.svc.AdminUpdate(ctx, target.ID, models.UpdateUserRequest{Role: &inconnu}, admin)
	_, isValidation := IsValidation(err)
	assert.True(t, isValidation)

	_, err = f.svc.AdminUpdate(ctx, target.ID, models.UpdateUserRequest{}, admin)
	assert.ErrorIs(t, err, ErrNothingToUpdate)
}

func TestUserService_DeleteCascade(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	admin := newUser(models.RoleAdmin)
	target := newUser(models.RoleMembre)
	f.users.users[admin.ID] = admin
	f.users.users[target.ID] = target

	club := newClub(admin.ID)
	club.NombreMembres = 2
	f.clubs.clubs[club.ID] = club
	require.NoError(t, f.participations.Create(ctx, &models.ParticipationMembre{ClubID: club.ID, UserID: target.ID, Statut: models.ParticipationAccepte}))

	e := &models.Evenement{ID: primitive.NewObjectID(), ClubID: club.ID, Capacite: 1, Inscrits: 1, Statut: models.EvenementComplet}
	f.evenements.items[e.ID] = e
	require.NoError(t, f.inscriptions.Create(ctx, &models.Inscription{EvenementID: e.ID, UserID: target.ID}))

	sondageID := primitive.NewObjectID()
	require.NoError(t, f.reponses.Insert(ctx, &models.Reponse{SondageID: sondageID, UserID: target.ID, ChoixID: primitive.NewObjectID()}))
	require.NoError(t, f.commentaires.Create(ctx, &models.Commentaire{SondageID: sondageID, UserID: target.ID, Contenu: "Super"}))
	sondage := newSondage("Oui", "Non")
	sondage.ID = sondageID
	f.sondages.sondages[sondageID] = sondage
	require.NoError(t, f.sondages.SetResume(ctx, sondageID, "Avis unanimes", time.Now()))
	require.NoError(t, f.tokens.Upsert(ctx, &models.FCMToken{UserID: target.ID, Token: "tok-1"}))

	assert.ErrorIs(t, f.svc.Delete(ctx, admin.ID, admin), ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, target.ID, admin))

	_, err := f.svc.Get(ctx, target.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, 1, f.clubs.clubs[club.ID].NombreMembres)
	assert.Equal(t, 0, e.Inscrits)
	assert.Equal(t, models.EvenementOuvert, e.Statut)
	assert.Empty(t, f.participations.items)
	assert.Zero(t, f.inscriptions.count())
	assert.Empty(t, f.reponses.votes)
	assert.Empty(t, f.commentaires.items)
	assert.Empty(t, sondage.ResumeIA, "le résumé citant ses commentaires est invalidé")
	assert.Empty(t, f.tokens.tokens)

	assert.ErrorIs(t, f.svc.Delete(ctx, target.ID, admin), ErrUserNotFound)
}

func TestUserService_DeleteCascadeRetry(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	admin := newUser(models.RoleAdmin)
	target := newUser(models.RoleMembre)
	f.users.users[admin.ID] = admin
	f.users.users[target.ID] = target

	club := newClub(admin.ID)
	club.NombreMembres = 3
	f.clubs.clubs[club.ID] = club
	require.NoError(t, f.participations.Create(ctx, &models.ParticipationMembre{ClubID: club.ID, UserID: target.ID, Statut: models.ParticipationAccepte}))

	e := &models.Evenement{ID: primitive.NewObjectID(), ClubID: club.ID, Capacite: 10, Inscrits: 4, Statut: models.EvenementOuvert}
	f.evenements.items[e.ID] = e
	require.NoError(t, f.inscriptions.Create(ctx, &models.Inscription{EvenementID: e.ID, UserID: target.ID}))

	f.reponses.deleteErr = errors.New("mongo indisponible")
	require.Error(t, f.svc.Delete(ctx, target.ID, admin))
	assert.Equal(t, 2, f.clubs.clubs[club.ID].NombreMembres)
	assert.Equal(t, 3, e.Inscrits)

	require.NoError(t, f.svc.Delete(ctx, target.ID, admin))
	assert.Equal(t, 2, f.clubs.clubs[club.ID].NombreMembres, "la relance ne doit pas décrémenter une seconde fois")
	assert.Equal(t, 3, e.Inscrits)
}
