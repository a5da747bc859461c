package services

import (
	"context"
	"espace-clubs-backend/models"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComputeResultats calcule décomptes, pourcentages (une décimale) et gagnants.
// Les choix sont rendus dans l'ordre du sondage; un sondage sans vote n'a pas de gagnant.
func ComputeResultats(s models.Sondage, counts map[primitive.ObjectID]int) models.ResultatsSondage {
	res := models.ResultatsSondage{
		SondageID: s.ID,
		Question:  s.Question,
		Statut:    s.Statut,
		Choix:     make([]models.ResultatChoix, 0, len(s.Choix)),
		Gagnants:  []primitive.ObjectID{},
	}

	for _, c := range s.Choix {
		res.TotalVotes += counts[c.ID]
	}

	best := 0
	for _, c := range s.Choix {
		votes := counts[c.ID]
		pct := 0.0
		if res.TotalVotes > 0 {
			pct = math.Round(float64(votes)*1000/float64(res.TotalVotes)) / 10
		}
		res.Choix = append(res.Choix, models.ResultatChoix{
			ChoixID:     c.ID,
			Libelle:     c.Libelle,
			Votes:       votes,
			Pourcentage: pct,
		})
		if votes > best {
			best = votes
		}
	}

	if best > 0 {
		for _, c := range res.Choix {
			if c.Votes == best {
				res.Gagnants = append(res.Gagnants, c.ChoixID)
			}
		}
	}
	return res
}

// resultatsFor lit le décompte d'un sondage et calcule ses résultats
func resultatsFor(ctx context.Context, reponses ReponseStore, s models.Sondage) (models.ResultatsSondage, error) {
	counts, err := reponses.Tally(ctx, s.ID)
	if err != nil {
		return models.ResultatsSondage{}, fmt.Errorf("décompte du sondage %s: %w", s.ID.Hex(), err)
	}
	return ComputeResultats(s, counts), nil
}
