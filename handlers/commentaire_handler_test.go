package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"espace-clubs-backend/models"
	"espace-clubs-backend/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubCommentaires struct {
	reporters map[primitive.ObjectID]bool
	viewer    *models.User
}

func (s *stubCommentaires) List(_ context.Context, _ primitive.ObjectID, _ models.ListQuery, viewer *models.User) ([]models.CommentaireWithAuteur, int64, error) {
	s.viewer = viewer
	return []models.CommentaireWithAuteur{{AuteurNom: "Ben Salah"}}, 1, nil
}

func (s *stubCommentaires) Create(_ context.Context, sondageID primitive.ObjectID, author *models.User, contenu string) (*models.CommentaireWithAuteur, error) {
	if strings.Contains(contenu, "idiot") {
		return nil, &services.ToxicCommentError{Avertissements: 1}
	}
	return &models.CommentaireWithAuteur{Commentaire: models.Commentaire{SondageID: sondageID, Contenu: contenu}}, nil
}

func (s *stubCommentaires) Update(context.Context, primitive.ObjectID, *models.User, string) (*models.Commentaire, error) {
	return nil, services.ErrForbidden
}

func (s *stubCommentaires) Delete(context.Context, primitive.ObjectID, *models.User) error {
	return services.ErrCommentNotFound
}

func (s *stubCommentaires) Report(_ context.Context, id primitive.ObjectID, user *models.User) (*models.Commentaire, error) {
	if s.reporters[user.ID] {
		return nil, services.ErrAlreadyReported
	}
	s.reporters[user.ID] = true
	return &models.Commentaire{ID: id, Signalements: []primitive.ObjectID{user.ID}}, nil
}

func newCommentaireRouter(user *models.User, stub *stubCommentaires) *mux.Router {
	h := NewCommentaireHandler(stub)
	router := mux.NewRouter()
	router.Use(withUser(user))
	router.HandleFunc("/api/sondages/{id}/commentaires", h.List).Methods(http.MethodGet)
	router.HandleFunc("/api/sondages/{id}/commentaires", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/commentaires/{id}", h.Update).Methods(http.MethodPut)
	router.HandleFunc("/api/commentaires/{id}", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/api/commentaires/{id}/signaler", h.Report).Methods(http.MethodPost)
	return router
}

func TestCommentaireHandler(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleMembre}
	stub := &stubCommentaires{reporters: map[primitive.ObjectID]bool{}}
	router := newCommentaireRouter(user, stub)
	sondage := "/api/sondages/" + primitive.NewObjectID().Hex()
	commentaire := "/api/commentaires/" + primitive.NewObjectID().Hex()

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rr
	}

	t.Run("liste paginée", func(t *testing.T) {
		rr := do(http.MethodGet, sondage+"/commentaires?page=1&limit=5", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"pagination"`)
		assert.Equal(t, user, stub.viewer)
	})

	t.Run("publication", func(t *testing.T) {
		rr := do(http.MethodPost, sondage+"/commentaires", `{"contenu":"Bonne idée"}`)
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("commentaire toxique", func(t *testing.T) {
		rr := do(http.MethodPost, sondage+"/commentaires", `{"contenu":"quel idiot"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), `"avertissements":1`)
	})

	t.Run("modification refusée", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(http.MethodPut, commentaire, `{"contenu":"x"}`).Code)
	})

	t.Run("suppression introuvable", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, commentaire, "").Code)
	})

	t.Run("signalement unique", func(t *testing.T) {
		rr := do(http.MethodPost, commentaire+"/signaler", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"nombre_signalements":1`)
		assert.Equal(t, http.StatusConflict, do(http.MethodPost, commentaire+"/signaler", "").Code)
	})
}
