package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexiconChecker(t *testing.T) {
	checker := NewLexiconChecker()
	ctx := context.Background()

	tests := []struct {
		name  string
		text  string
		toxic bool
	}{
		{"texte poli", "Super idée, je vote pour la sortie à la plage !", false},
		{"insulte simple", "t'es un connard", true},
		{"majuscules et accents", "Quel CRÉTIN ce président", true},
		{"expression", "Ta   gueule, franchement.", true},
		{"mot contenu dans un autre", "La conférence était constructive", false},
		{"ponctuation collée", "imbécile!!!", true},
		{"anglais", "this is STUPID", true},
		{"vide", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := checker.Check(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.toxic, v.Toxic)
			assert.Equal(t, ModerationSourceLexique, v.Source)
		})
	}
}

func TestLexiconChecker_customWords(t *testing.T) {
	checker := NewLexiconChecker("Pastèque")
	v, err := checker.Check(context.Background(), "une PASTEQUE")
	require.NoError(t, err)
	assert.True(t, v.Toxic)

	v, err = checker.Check(context.Background(), "connard")
	require.NoError(t, err)
	assert.False(t, v.Toxic)
}

func TestNewToxicityChecker_lexiqueIndependantDuSeuil(t *testing.T) {
	for _, threshold := range []float64{0.3, 1, 1.5} {
		v, err := NewToxicityChecker("", "", threshold).Check(context.Background(), "espèce de crétin")
		require.NoError(t, err)
		assert.True(t, v.Toxic, "seuil %v", threshold)
	}
}

func TestAPIChecker(t *testing.T) {
	t.Run("score de l'API", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			var body toxicityRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			score := 0.1
			if body.Text == "méchant" {
				score = 0.92
			}
			_ = json.NewEncoder(w).Encode(map[string]float64{"toxicity": score})
		}))
		defer srv.Close()

		checker := NewAPIChecker(srv.URL, "secret", 0.7, NewLexiconChecker())
		v, err := checker.Check(context.Background(), "méchant")
		require.NoError(t, err)
		assert.True(t, v.Toxic)
		assert.InDelta(t, 0.92, v.Score, 1e-9)
		assert.Equal(t, ModerationSourceAPI, v.Source)

		v, err = checker.Check(context.Background(), "gentil")
		require.NoError(t, err)
		assert.False(t, v.Toxic)
	})

	t.Run("repli sur le lexique", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		checker := NewAPIChecker(srv.URL, "", 0.7, NewLexiconChecker())
		v, err := checker.Check(context.Background(), "espèce de salaud")
		require.NoError(t, err)
		assert.True(t, v.Toxic)
		assert.Equal(t, ModerationSourceLexique, v.Source)
	})

	t.Run("score hors bornes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"toxicity": 4}`))
		}))
		defer srv.Close()

		checker := NewAPIChecker(srv.URL, "", 0.7, nil)
		_, err := checker.Check(context.Background(), "texte")
		assert.Error(t, err)
	})
}

func TestNewToxicityChecker(t *testing.T) {
	_, isLexicon := NewToxicityChecker("", "", 0.7).(*LexiconChecker)
	assert.True(t, isLexicon)
	_, isAPI := NewToxicityChecker("http://moderation.local", "", 0.7).(*APIChecker)
	assert.True(t, isAPI)
}
