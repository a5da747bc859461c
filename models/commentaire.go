package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Seuils de modération des commentaires
const (
	MaxCommentaireLength = 1000
	SeuilSignalements    = 3
)

// Commentaire représente un commentaire publié sous un sondage
type Commentaire struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	SondageID     primitive.ObjectID   `json:"sondage_id" bson:"sondage_id"`
	UserID        primitive.ObjectID   `json:"user_id" bson:"user_id"`
	Contenu       string               `json:"contenu" bson:"contenu"`
	Signalements  []primitive.ObjectID `json:"-" bson:"signalements"`
	Masque        bool                 `json:"masque" bson:"masque"`
	ScoreToxicite float64              `json:"score_toxicite" bson:"score_toxicite"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
}

// NombreSignalements retourne le nombre de signalements distincts
func (c Commentaire) NombreSignalements() int {
	return len(c.Signalements)
}

// CommentaireRequest représente la création ou la modification d'un commentaire
type CommentaireRequest struct {
	Contenu string `json:"contenu"`
}

// CommentaireWithAuteur enrichit un commentaire avec le nom de son auteur
type CommentaireWithAuteur struct {
	Commentaire        `bson:",inline"`
	NombreSignalements int    `json:"nombre_signalements" bson:"nombre_signalements"`
	AuteurNom          string `json:"auteur_nom" bson:"auteur_nom"`
	AuteurPrenom       string `json:"auteur_prenom" bson:"auteur_prenom"`
}

// CommentaireFilter regroupe les filtres de la liste des commentaires
type CommentaireFilter struct {
	ListQuery
	SondageID     *primitive.ObjectID
	InclureMasque bool
	SignalesSeuls bool
}

// ResumeSondage représente la synthèse des commentaires d'un sondage
type ResumeSondage struct {
	SondageID          primitive.ObjectID `json:"sondage_id"`
	Resume             string             `json:"resume"`
	NombreCommentaires int                `json:"nombre_commentaires"`
	Source             string             `json:"source"`
	GenereLe           time.Time          `json:"genere_le"`
}

// Sources possibles d'un résumé
const (
	ResumeSourceIA    = "ia"
	ResumeSourceLocal = "local"
	ResumeSourceCache = "cache"
)

// Verdict est le résultat de la modération d'un texte
type Verdict struct {
	Score  float64 `json:"score"`
	Toxic  bool    `json:"toxic"`
	Source string  `json:"source"`
}
