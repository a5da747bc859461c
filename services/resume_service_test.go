package services

import (
	"context"
	"encoding/json"
	"errors"
	"espace-clubs-backend/models"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizer struct {
	calls int32
	text  string
	err   error
}

func (s *stubSummarizer) Summarize(context.Context, string, []string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.text, s.err
}

func TestLocalSummary(t *testing.T) {
	assert.Equal(t, "Aucun commentaire pour ce sondage.", LocalSummary(nil))
	assert.Equal(t, "1 commentaire. Thèmes récurrents : plage (1).", LocalSummary([]string{"la plage"}))

	got := LocalSummary([]string{
		"La plage c'est top",
		"Plage plage plage !",
		"Je préfère la montagne, mais la plage aussi",
		"Montagne pour le budget",
	})
	assert.Equal(t, "4 commentaires. Thèmes récurrents : plage (3), montagne (2), budget (1), prefere (1).", got)
}

func TestResumeService(t *testing.T) {
	ctx := context.Background()

	setup := func(ai Summarizer) (*ResumeService, *fakeSondages, *fakeCommentaires, *models.Sondage) {
		sondage := newSondage("Plage", "Montagne")
		sondages := newFakeSondages(sondage)
		commentaires := newFakeCommentaires()
		return NewResumeService(sondages, commentaires, ai), sondages, commentaires, sondage
	}

	t.Run("sondage inconnu", func(t *testing.T) {
		svc, _, _, _ := setup(nil)
		_, err := svc.Resume(ctx, newSondage().ID)
		assert.ErrorIs(t, err, ErrPollNotFound)
	})

	t.Run("sans IA: résumé local non mis en cache", func(t *testing.T) {
		svc, sondages, commentaires, sondage := setup(nil)
		require.NoError(t, commentaires.Create(ctx, &models.Commentaire{SondageID: sondage.ID, Contenu: "Vive la plage"}))

		res, err := svc.Resume(ctx, sondage.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ResumeSourceLocal, res.Source)
		assert.Equal(t, 1, res.NombreCommentaires)
		assert.Empty(t, sondages.resumes)
	})

	t.Run("IA puis cache puis invalidation", func(t *testing.T) {
		ai := &stubSummarizer{text: "Les étudiants préfèrent la plage."}
		svc, _, commentaires, sondage := setup(ai)
		svc.now = func() time.Time { return time.Now().Add(time.Minute) }
		require.NoError(t, commentaires.Create(ctx, &models.Commentaire{SondageID: sondage.ID, Contenu: "Vive la plage"}))

		res, err := svc.Resume(ctx, sondage.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ResumeSourceIA, res.Source)
		assert.Equal(t, ai.text, res.Resume)

		res, err = svc.Resume(ctx, sondage.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ResumeSourceCache, res.Source)
		assert.Equal(t, 1, res.NombreCommentaires)
		assert.EqualValues(t, 1, atomic.LoadInt32(&ai.calls))

		c := &models.Commentaire{SondageID: sondage.ID, Contenu: "Montagne !"}
		require.NoError(t, commentaires.Create(ctx, c))
		commentaires.items[c.ID].UpdatedAt = time.Now().Add(2 * time.Minute)

		res, err = svc.Resume(ctx, sondage.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ResumeSourceIA, res.Source)
		assert.Equal(t, 2, res.NombreCommentaires)
		assert.EqualValues(t, 2, atomic.LoadInt32(&ai.calls))
	})

	t.Run("panne IA: repli local", func(t *testing.T) {
		svc, _, commentaires, sondage := setup(&stubSummarizer{err: errors.New("timeout")})
		require.NoError(t, commentaires.Create(ctx, &models.Commentaire{SondageID: sondage.ID, Contenu: "Vive la plage"}))

		res, err := svc.Resume(ctx, sondage.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ResumeSourceLocal, res.Source)
	})

	t.Run("aucun commentaire: pas d'appel IA", func(t *testing.T) {
		ai := &stubSummarizer{text: "x"}
		svc, _, _, sondage := setup(ai)
		res, err := svc.Resume(ctx, sondage.ID)
		require.NoError(t, err)
		assert.Equal(t, "Aucun commentaire pour ce sondage.", res.Resume)
		assert.Zero(t, atomic.LoadInt32(&ai.calls))
	})
}

func TestAISummarizer(t *testing.T) {
	assert.Nil(t, NewAISummarizer("", "", "m"))

	t.Run("requête chat-completions", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer cle", r.Header.Get("Authorization"))
			var req chatRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "gpt-test", req.Model)
			if assert.Len(t, req.Messages, 2) {
				assert.Contains(t, req.Messages[1].Content, "- Vive la plage")
			}
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Avis positif.  "}}]}`))
		}))
		defer srv.Close()

		text, err := NewAISummarizer(srv.URL, "cle", "gpt-test").Summarize(context.Background(), "Sortie ?", []string{"Vive la plage"})
		require.NoError(t, err)
		assert.Equal(t, "Avis positif.", text)
	})

	t.Run("réponse vide ou erreur HTTP", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/ko" {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := NewAISummarizer(srv.URL, "", "m").Summarize(context.Background(), "q", []string{"a"})
		assert.Error(t, err)
		_, err = NewAISummarizer(srv.URL+"/ko", "", "m").Summarize(context.Background(), "q", []string{"a"})
		assert.Error(t, err)
	})
}
