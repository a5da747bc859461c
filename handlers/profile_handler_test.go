package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/models"
	"espace-clubs-backend/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubProfile modifie l'utilisateur en place
type stubProfile struct {
	user     *models.User
	password string
}

func (s *stubProfile) UpdateProfile(_ context.Context, _ primitive.ObjectID, req models.UpdateProfileRequest) (*models.User, error) {
	if req.Nom == nil && req.Prenom == nil && req.Telephone == nil {
		return nil, services.ErrNothingToUpdate
	}
	if req.Nom != nil {
		s.user.Nom = *req.Nom
	}
	return s.user, nil
}

func (s *stubProfile) ChangePassword(_ context.Context, _ primitive.ObjectID, req models.ChangePasswordRequest) error {
	if req.CurrentPassword != s.password {
		return services.ErrWrongPassword
	}
	s.password = req.NewPassword
	return nil
}

func (s *stubProfile) SetPhoto(_ context.Context, _ primitive.ObjectID, url string) (*models.User, error) {
	s.user.PhotoURL = url
	return s.user, nil
}

type stubMemberships struct{}

func (stubMemberships) MyClubs(_ context.Context, user *models.User) ([]models.ClubMembership, error) {
	return []models.ClubMembership{{
		Club:          models.Club{Nom: "Robotique", Statut: models.ClubActif},
		Participation: models.ParticipationMembre{UserID: user.ID, Statut: models.ParticipationAccepte},
	}}, nil
}

type stubAgenda struct{}

func (stubAgenda) MyEvents(context.Context, *models.User) ([]models.MesEvenement, error) {
	return []models.MesEvenement{}, nil
}

func imageForm(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(imageField, "photo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestProfileHandler(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Email: "membre@univ.tn", Nom: "Ben Salah", Role: models.RoleMembre}
	profile := &stubProfile{user: user, password: "ancien-mdp"}
	dir := t.TempDir()
	storage, err := services.NewImageStorage(dir, 1)
	require.NoError(t, err)

	h := NewProfileHandler(profile, stubMemberships{}, stubAgenda{}, storage)
	router := mux.NewRouter()
	router.Use(withUser(user))
	router.HandleFunc("/api/me", h.Me).Methods(http.MethodGet)
	router.HandleFunc("/api/me", h.Update).Methods(http.MethodPut)
	router.HandleFunc("/api/me/password", h.ChangePassword).Methods(http.MethodPut)
	router.HandleFunc("/api/me/photo", h.UploadPhoto).Methods(http.MethodPost)
	router.HandleFunc("/api/me/clubs", h.MyClubs).Methods(http.MethodGet)
	router.HandleFunc("/api/me/evenements", h.MyEvents).Methods(http.MethodGet)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rr
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"profil courant", http.MethodGet, "/api/me", "", http.StatusOK},
		{"modification du nom", http.MethodPut, "/api/me", `{"nom":"Trabelsi"}`, http.StatusOK},
		{"modification vide", http.MethodPut, "/api/me", `{}`, http.StatusBadRequest},
		{"mot de passe actuel faux", http.MethodPut, "/api/me/password", `{"current_password":"faux","new_password":"nouveau-mdp"}`, http.StatusBadRequest},
		{"changement de mot de passe", http.MethodPut, "/api/me/password", `{"current_password":"ancien-mdp","new_password":"nouveau-mdp"}`, http.StatusOK},
		{"corps invalide", http.MethodPut, "/api/me/password", `{"current_password":`, http.StatusBadRequest},
		{"mes clubs", http.MethodGet, "/api/me/clubs", "", http.StatusOK},
		{"mes événements", http.MethodGet, "/api/me/evenements", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, do(tt.method, tt.path, tt.body).Code)
		})
	}

	assert.Equal(t, "Trabelsi", user.Nom)
	assert.Equal(t, "nouveau-mdp", profile.password)

	t.Run("message du mot de passe incorrect", func(t *testing.T) {
		rr := do(http.MethodPut, "/api/me/password", `{"current_password":"faux","new_password":"x"}`)
		assert.Contains(t, rr.Body.String(), constants.ErrWrongPassword)
	})

	t.Run("clubs avec leur participation", func(t *testing.T) {
		rr := do(http.MethodGet, "/api/me/clubs", "")
		assert.Contains(t, rr.Body.String(), `"statut":"accepte"`)
		assert.Contains(t, rr.Body.String(), `"total":1`)
	})

	t.Run("photo enregistrée", func(t *testing.T) {
		body, contentType := imageForm(t, pngSignature)
		req := httptest.NewRequest(http.MethodPost, "/api/me/photo", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, strings.HasPrefix(user.PhotoURL, "/uploads/profils/"))
		_, err := os.Stat(filepath.Join(dir, "profils", filepath.Base(user.PhotoURL)))
		assert.NoError(t, err)
	})

	t.Run("fichier qui n'est pas une image", func(t *testing.T) {
		body, contentType := imageForm(t, []byte("ceci n'est pas une image"))
		req := httptest.NewRequest(http.MethodPost, "/api/me/photo", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("formulaire sans image", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/api/me/photo", "").Code)
	})
}
