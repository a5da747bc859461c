package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"espace-clubs-backend/middleware"
	"espace-clubs-backend/models"
	"espace-clubs-backend/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubVotes rejoue le protocole de vote en mémoire pour un seul sondage ouvert
type stubVotes struct {
	choix  map[primitive.ObjectID]bool
	votes  map[primitive.ObjectID]primitive.ObjectID
	closed bool
}

func newStubVotes(choix ...primitive.ObjectID) *stubVotes {
	s := &stubVotes{choix: map[primitive.ObjectID]bool{}, votes: map[primitive.ObjectID]primitive.ObjectID{}}
	for _, c := range choix {
		s.choix[c] = true
	}
	return s
}

func (s *stubVotes) Current(_ context.Context, sondageID, userID primitive.ObjectID) (*models.Reponse, error) {
	choixID, ok := s.votes[userID]
	if !ok {
		return nil, nil
	}
	return &models.Reponse{SondageID: sondageID, UserID: userID, ChoixID: choixID}, nil
}

func (s *stubVotes) Submit(_ context.Context, sondageID, userID, choixID primitive.ObjectID) (*models.VoteResult, error) {
	if s.closed {
		return nil, services.ErrPollClosed
	}
	if !s.choix[choixID] {
		return nil, services.ErrOptionNotFound
	}
	if _, ok := s.votes[userID]; ok {
		return nil, services.ErrAlreadyVoted
	}
	s.votes[userID] = choixID
	return &models.VoteResult{Transition: models.VoteSoumis}, nil
}

func (s *stubVotes) Change(_ context.Context, sondageID, userID, choixID primitive.ObjectID, confirmed bool) (*models.VoteResult, error) {
	current, ok := s.votes[userID]
	switch {
	case s.closed:
		return nil, services.ErrPollClosed
	case !s.choix[choixID]:
		return nil, services.ErrOptionNotFound
	case !ok:
		return nil, services.ErrNoVote
	case current == choixID:
		return nil, services.ErrSameOption
	case !confirmed:
		return nil, services.ErrConfirmationRequired
	}
	s.votes[userID] = choixID
	return &models.VoteResult{Transition: models.VoteModifie}, nil
}

func (s *stubVotes) Delete(_ context.Context, sondageID, userID primitive.ObjectID) (*models.VoteResult, error) {
	if _, ok := s.votes[userID]; !ok {
		return nil, services.ErrNoVote
	}
	delete(s.votes, userID)
	return &models.VoteResult{Transition: models.VoteSupprime}, nil
}

type voteFixture struct {
	router    *mux.Router
	votes     *stubVotes
	user      *models.User
	sondageID primitive.ObjectID
	choixA    primitive.ObjectID
	choixB    primitive.ObjectID
}

// withUser simule le middleware Auth
func withUser(user *models.User) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user != nil {
				r = r.WithContext(middleware.WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newVoteFixture(t *testing.T) *voteFixture {
	t.Helper()
	f := &voteFixture{
		user:      &models.User{ID: primitive.NewObjectID(), Email: "membre@univ.tn", Role: models.RoleMembre},
		sondageID: primitive.NewObjectID(),
		choixA:    primitive.NewObjectID(),
		choixB:    primitive.NewObjectID(),
	}
	f.votes = newStubVotes(f.choixA, f.choixB)
	h := NewVoteHandler(f.votes)

	f.router = mux.NewRouter()
	f.router.Use(withUser(f.user))
	f.router.HandleFunc("/api/sondages/{id}/vote", h.Get).Methods(http.MethodGet)
	f.router.HandleFunc("/api/sondages/{id}/vote", h.Submit).Methods(http.MethodPost)
	f.router.HandleFunc("/api/sondages/{id}/vote", h.Change).Methods(http.MethodPut)
	f.router.HandleFunc("/api/sondages/{id}/vote", h.Delete).Methods(http.MethodDelete)
	return f
}

func (f *voteFixture) do(method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/sondages/"+f.sondageID.Hex()+"/vote", strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func voteBody(choixID primitive.ObjectID, confirmation bool) string {
	b, _ := json.Marshal(models.VoteRequest{ChoixID: choixID.Hex(), Confirmation: confirmation})
	return string(b)
}

func TestVoteHandlerLifecycle(t *testing.T) {
	f := newVoteFixture(t)

	rr := f.do(http.MethodGet, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"a_vote":false,"reponse":null}`, rr.Body.String())

	rr = f.do(http.MethodPost, voteBody(f.choixA, false))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"transition":"soumis"`)

	rr = f.do(http.MethodPost, voteBody(f.choixB, false))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(http.MethodPut, voteBody(f.choixB, false))
	assert.Equal(t, http.StatusPreconditionRequired, rr.Code)
	assert.Equal(t, f.choixA, f.votes.votes[f.user.ID])

	rr = f.do(http.MethodPut, voteBody(f.choixA, true))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPut, voteBody(f.choixB, true))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, f.choixB, f.votes.votes[f.user.ID])

	rr = f.do(http.MethodGet, "")
	assert.Contains(t, rr.Body.String(), `"a_vote":true`)

	rr = f.do(http.MethodDelete, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(http.MethodDelete, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(http.MethodPut, voteBody(f.choixA, true))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestVoteHandlerRejections(t *testing.T) {
	f := newVoteFixture(t)

	t.Run("choix étranger au sondage", func(t *testing.T) {
		rr := f.do(http.MethodPost, voteBody(primitive.NewObjectID(), false))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("choix_id mal formé", func(t *testing.T) {
		rr := f.do(http.MethodPost, `{"choix_id":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("corps invalide", func(t *testing.T) {
		rr := f.do(http.MethodPost, `{`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("sondage fermé", func(t *testing.T) {
		f.votes.closed = true
		defer func() { f.votes.closed = false }()
		rr := f.do(http.MethodPost, voteBody(f.choixA, false))
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "Sondage fermé")
	})

	t.Run("id de sondage invalide", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sondages/pas-un-id/vote", nil)
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestVoteHandlerRequiresUser(t *testing.T) {
	h := NewVoteHandler(newStubVotes())
	router := mux.NewRouter()
	router.HandleFunc("/api/sondages/{id}/vote", h.Submit).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/api/sondages/"+primitive.NewObjectID().Hex()+"/vote", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
