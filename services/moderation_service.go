package services

import (
	"bytes"
	"context"
	"encoding/json"
	"espace-clubs-backend/models"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sources d'un verdict de modération
const (
	ModerationSourceAPI     = "api"
	ModerationSourceLexique = "lexique"
)

// ToxicityChecker évalue la toxicité d'un texte
type ToxicityChecker interface {
	Check(ctx context.Context, text string) (models.Verdict, error)
}

// lexique par défaut (formes sans accents, en minuscules)
var defaultLexique = []string{
	"abruti", "batard", "chier", "conard", "connard", "connasse", "couillon",
	"cretin", "debile", "encule", "enculer", "fdp", "imbecile", "merde",
	"ntm", "pd", "pute", "putain", "salaud", "salop", "salope", "tg",
	"ta gueule", "ferme ta gueule", "nique", "niquer",
	"asshole", "bastard", "bitch", "fuck", "fucking", "moron", "shit", "stupid",
	"idiot", "idiote",
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeText retire accents et casse pour comparer les mots
func normalizeText(text string) string {
	out, _, err := transform.String(accentStripper, text)
	if err != nil {
		out = text
	}
	return strings.ToLower(out)
}

// tokenize découpe un texte normalisé en mots
func tokenize(text string) []string {
	return strings.FieldsFunc(normalizeText(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// LexiconChecker détecte les insultes d'une liste, mot entier, sans tenir compte des accents ni de la casse
type LexiconChecker struct {
	words   map[string]struct{}
	phrases [][]string
}

// NewLexiconChecker crée un détecteur à partir d'un lexique (le lexique par défaut si vide)
func NewLexiconChecker(words ...string) *LexiconChecker {
	if len(words) == 0 {
		words = defaultLexique
	}
	c := &LexiconChecker{words: map[string]struct{}{}}
	for _, w := range words {
		tokens := tokenize(w)
		switch len(tokens) {
		case 0:
		case 1:
			c.words[tokens[0]] = struct{}{}
		default:
			c.phrases = append(c.phrases, tokens)
		}
	}
	return c
}

// Check retourne un score de 1 si le texte contient un terme du lexique.
// Un terme trouvé est toujours toxique, quel que soit le seuil de l'API.
func (c *LexiconChecker) Check(_ context.Context, text string) (models.Verdict, error) {
	tokens := tokenize(text)
	verdict := models.Verdict{Source: ModerationSourceLexique}

	for i, tok := range tokens {
		if _, ok := c.words[tok]; ok {
			verdict.Score = 1
			break
		}
		for _, phrase := range c.phrases {
			if matchAt(tokens, i, phrase) {
				verdict.Score = 1
				break
			}
		}
		if verdict.Score > 0 {
			break
		}
	}

	verdict.Toxic = verdict.Score > 0
	return verdict, nil
}

func matchAt(tokens []string, i int, phrase []string) bool {
	if i+len(phrase) > len(tokens) {
		return false
	}
	for j, p := range phrase {
		if tokens[i+j] != p {
			return false
		}
	}
	return true
}

// APIChecker interroge un service de modération externe: POST {"text"} -> {"toxicity": 0..1}.
// En cas d'échec, le verdict du fallback est utilisé.
type APIChecker struct {
	url       string
	apiKey    string
	threshold float64
	client    *http.Client
	fallback  ToxicityChecker
}

// NewAPIChecker crée un client du service de modération externe
func NewAPIChecker(url, apiKey string, threshold float64, fallback ToxicityChecker) *APIChecker {
	return &APIChecker{
		url:       url,
		apiKey:    apiKey,
		threshold: threshold,
		client:    &http.Client{Timeout: 5 * time.Second},
		fallback:  fallback,
	}
}

type toxicityRequest struct {
	Text string `json:"text"`
}

type toxicityResponse struct {
	Toxicity *float64 `json:"toxicity"`
}

// Check évalue le texte via l'API, ou via le fallback si l'API ne répond pas correctement
func (c *APIChecker) Check(ctx context.Context, text string) (models.Verdict, error) {
	score, err := c.call(ctx, text)
	if err != nil {
		log.WithError(err).Warn("⚠️  API de modération indisponible, utilisation du lexique local")
		if c.fallback == nil {
			return models.Verdict{}, err
		}
		return c.fallback.Check(ctx, text)
	}
	return models.Verdict{Score: score, Toxic: score >= c.threshold, Source: ModerationSourceAPI}, nil
}

func (c *APIChecker) call(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(toxicityRequest{Text: text})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("erreur lors de la création de la requête: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("erreur lors de l'appel au service de modération: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("le service de modération a retourné %d", resp.StatusCode)
	}

	var out toxicityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("réponse de modération illisible: %w", err)
	}
	if out.Toxicity == nil || *out.Toxicity < 0 || *out.Toxicity > 1 {
		return 0, fmt.Errorf("score de toxicité absent ou hors bornes")
	}
	return *out.Toxicity, nil
}

// NewToxicityChecker choisit l'API externe si elle est configurée, le lexique sinon
func NewToxicityChecker(apiURL, apiKey string, threshold float64) ToxicityChecker {
	lexique := NewLexiconChecker()
	if apiURL == "" {
		log.Println("⚠️  MODERATION_API_URL non configuré - modération par lexique local")
		return lexique
	}
	return NewAPIChecker(apiURL, apiKey, threshold, lexique)
}
