package services

import (
	"bytes"
	"context"
	"encoding/json"
	"espace-clubs-backend/models"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxCommentairesPrompt limite le nombre de commentaires envoyés à l'IA
const maxCommentairesPrompt = 200

// Summarizer produit une synthèse des commentaires d'un sondage
type Summarizer interface {
	Summarize(ctx context.Context, question string, commentaires []string) (string, error)
}

// AISummarizer appelle une API compatible chat-completions
type AISummarizer struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

// NewAISummarizer crée le client IA, ou retourne nil si aucune URL n'est configurée
func NewAISummarizer(url, apiKey, model string) Summarizer {
	if url == "" {
		log.Println("⚠️  AI_API_URL non configuré - résumés calculés localement")
		return nil
	}
	return &AISummarizer{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize envoie les commentaires à l'API et retourne la synthèse
func (a *AISummarizer) Summarize(ctx context.Context, question string, commentaires []string) (string, error) {
	if len(commentaires) > maxCommentairesPrompt {
		commentaires = commentaires[len(commentaires)-maxCommentairesPrompt:]
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Sondage : %s\nCommentaires des étudiants :\n", question)
	for _, c := range commentaires {
		fmt.Fprintf(&prompt, "- %s\n", c)
	}

	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: "Tu résumes en français, en trois phrases maximum, l'avis général exprimé dans les commentaires d'un sondage étudiant."},
			{Role: "user", Content: prompt.String()},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("erreur lors de la création de la requête: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("erreur lors de l'appel à l'API IA: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("l'API IA a retourné %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("réponse IA illisible: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("réponse IA vide")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

var motsVides = map[string]struct{}{
	"alors": {}, "aussi": {}, "autre": {}, "avec": {}, "avoir": {}, "bien": {}, "cela": {},
	"cette": {}, "comme": {}, "dans": {}, "donc": {}, "elle": {}, "elles": {}, "encore": {},
	"etait": {}, "etre": {}, "faire": {}, "fait": {}, "leur": {}, "mais": {}, "meme": {},
	"nous": {}, "pour": {}, "plus": {}, "sans": {}, "sont": {}, "sous": {}, "tous": {},
	"tout": {}, "tres": {}, "vous": {}, "votre": {}, "quoi": {}, "quel": {}, "quelle": {},
	"that": {}, "this": {}, "with": {}, "have": {}, "from": {},
}

type motFrequent struct {
	mot   string
	count int
}

// motsFrequents retourne les n mots significatifs les plus fréquents
func motsFrequents(commentaires []string, n int) []motFrequent {
	counts := map[string]int{}
	for _, c := range commentaires {
		seen := map[string]bool{}
		for _, w := range tokenize(c) {
			if len([]rune(w)) < 4 || seen[w] {
				continue
			}
			if _, vide := motsVides[w]; vide {
				continue
			}
			seen[w] = true
			counts[w]++
		}
	}

	list := make([]motFrequent, 0, len(counts))
	for w, c := range counts {
		list = append(list, motFrequent{mot: w, count: c})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].mot < list[j].mot
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

// LocalSummary construit une synthèse extractive: volume et thèmes récurrents
func LocalSummary(commentaires []string) string {
	if len(commentaires) == 0 {
		return "Aucun commentaire pour ce sondage."
	}

	var b strings.Builder
	if len(commentaires) == 1 {
		b.WriteString("1 commentaire.")
	} else {
		fmt.Fprintf(&b, "%d commentaires.", len(commentaires))
	}

	mots := motsFrequents(commentaires, 5)
	if len(mots) > 0 {
		parts := make([]string, 0, len(mots))
		for _, m := range mots {
			parts = append(parts, fmt.Sprintf("%s (%d)", m.mot, m.count))
		}
		fmt.Fprintf(&b, " Thèmes récurrents : %s.", strings.Join(parts, ", "))
	}
	return b.String()
}

// ResumeService calcule et met en cache la synthèse des commentaires d'un sondage
type ResumeService struct {
	sondages     SondageStore
	commentaires CommentaireStore
	ai           Summarizer
	now          func() time.Time
}

// NewResumeService crée le service de synthèse; ai peut être nil
func NewResumeService(sondages SondageStore, commentaires CommentaireStore, ai Summarizer) *ResumeService {
	return &ResumeService{
		sondages:     sondages,
		commentaires: commentaires,
		ai:           ai,
		now:          time.Now,
	}
}

// Resume retourne la synthèse en cache si aucun commentaire n'a bougé depuis, sinon la recalcule
func (s *ResumeService) Resume(ctx context.Context, sondageID primitive.ObjectID) (*models.ResumeSondage, error) {
	sondage, err := s.sondages.FindByID(ctx, sondageID)
	if err != nil {
		return nil, err
	}
	if sondage == nil {
		return nil, ErrPollNotFound
	}

	latest, err := s.commentaires.LatestActivity(ctx, sondageID)
	if err != nil {
		return nil, err
	}

	if sondage.ResumeIA != "" && sondage.ResumeIAAt != nil && (latest == nil || !latest.After(*sondage.ResumeIAAt)) {
		count, err := s.commentaires.Count(ctx, bson.M{"sondage_id": sondageID, "masque": false})
		if err != nil {
			return nil, err
		}
		return &models.ResumeSondage{
			SondageID:          sondageID,
			Resume:             sondage.ResumeIA,
			NombreCommentaires: int(count),
			Source:             models.ResumeSourceCache,
			GenereLe:           *sondage.ResumeIAAt,
		}, nil
	}

	visibles, err := s.commentaires.ListVisibles(ctx, sondageID)
	if err != nil {
		return nil, err
	}
	textes := make([]string, 0, len(visibles))
	for _, c := range visibles {
		textes = append(textes, c.Contenu)
	}

	resume := &models.ResumeSondage{
		SondageID:          sondageID,
		NombreCommentaires: len(textes),
		GenereLe:           s.now(),
	}

	if s.ai != nil && len(textes) > 0 {
		text, err := s.ai.Summarize(ctx, sondage.Question, textes)
		if err == nil {
			resume.Resume = text
			resume.Source = models.ResumeSourceIA
			if err := s.sondages.SetResume(ctx, sondageID, text, resume.GenereLe); err != nil {
				log.WithError(err).Warn("⚠️  Impossible de mettre le résumé en cache")
			}
			return resume, nil
		}
		log.WithError(err).WithField("sondage_id", sondageID.Hex()).Warn("⚠️  API IA indisponible, résumé local")
	}

	resume.Resume = LocalSummary(textes)
	resume.Source = models.ResumeSourceLocal
	return resume, nil
}
