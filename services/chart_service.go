package services

import (
	"bytes"
	"espace-clubs-backend/models"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// maxLibelleChart tronque les libellés trop longs sous les barres
const maxLibelleChart = 18

var (
	chartBar        = drawing.ColorFromHex("2563eb")
	chartBarGagnant = drawing.ColorFromHex("16a34a")
	chartText       = drawing.ColorFromHex("1f2937")
)

func truncateLibelle(s string) string {
	r := []rune(s)
	if len(r) <= maxLibelleChart {
		return s
	}
	return string(r[:maxLibelleChart-1]) + "…"
}

// RenderResultatsPNG dessine les résultats d'un sondage en histogramme; les gagnants sont en vert
func RenderResultatsPNG(res models.ResultatsSondage) ([]byte, error) {
	gagnants := map[string]bool{}
	for _, id := range res.Gagnants {
		gagnants[id.Hex()] = true
	}

	maxVotes := 1
	bars := make([]chart.Value, 0, len(res.Choix))
	for _, c := range res.Choix {
		if c.Votes > maxVotes {
			maxVotes = c.Votes
		}
		color := chartBar
		if gagnants[c.ChoixID.Hex()] {
			color = chartBarGagnant
		}
		bars = append(bars, chart.Value{
			Value: float64(c.Votes),
			Label: fmt.Sprintf("%s (%.1f%%)", truncateLibelle(c.Libelle), c.Pourcentage),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}

	graph := chart.BarChart{
		Title:      fmt.Sprintf("%s (%d votes)", res.Question, res.TotalVotes),
		TitleStyle: chart.Style{FontColor: chartText},
		Width:      160*len(bars) + 120,
		Height:     420,
		BarWidth:   90,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.Style{FontColor: chartText},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: chartText},
			// Plage explicite: go-chart refuse une plage nulle quand toutes les barres sont égales
			Range:          &chart.ContinuousRange{Min: 0, Max: float64(maxVotes)},
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v) },
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("erreur lors du rendu du graphique: %w", err)
	}
	return buffer.Bytes(), nil
}
