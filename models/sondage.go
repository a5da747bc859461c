package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts d'un sondage
const (
	SondageOuvert = "ouvert"
	SondageFerme  = "ferme"
)

// Bornes du nombre de choix d'un sondage
const (
	MinChoix = 2
	MaxChoix = 10
)

// ChoixSondage représente une option de réponse d'un sondage
type ChoixSondage struct {
	ID      primitive.ObjectID `json:"id" bson:"_id"`
	Libelle string             `json:"libelle" bson:"libelle"`
}

// Sondage représente un sondage publié dans un club
type Sondage struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ClubID      primitive.ObjectID `json:"club_id" bson:"club_id"`
	AuteurID    primitive.ObjectID `json:"auteur_id" bson:"auteur_id"`
	Question    string             `json:"question" bson:"question"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Choix       []ChoixSondage     `json:"choix" bson:"choix"`
	Statut      string             `json:"statut" bson:"statut"`
	DateFin     *time.Time         `json:"date_fin,omitempty" bson:"date_fin,omitempty"`
	ResumeIA    string             `json:"resume_ia,omitempty" bson:"resume_ia,omitempty"`
	ResumeIAAt  *time.Time         `json:"resume_ia_at,omitempty" bson:"resume_ia_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsOpenAt indique si le sondage accepte des votes à l'instant donné
func (s Sondage) IsOpenAt(now time.Time) bool {
	if s.Statut != SondageOuvert {
		return false
	}
	return s.DateFin == nil || now.Before(*s.DateFin)
}

// FindChoix retourne le choix correspondant à l'ID, ou nil
func (s Sondage) FindChoix(id primitive.ObjectID) *ChoixSondage {
	for i := range s.Choix {
		if s.Choix[i].ID == id {
			return &s.Choix[i]
		}
	}
	return nil
}

// CreateSondageRequest représente la création d'un sondage
type CreateSondageRequest struct {
	ClubID      string        `json:"club_id"`
	Question    string        `json:"question"`
	Description string        `json:"description"`
	Choix       []string      `json:"choix"`
	DateFin     *FlexibleTime `json:"date_fin,omitempty"`
}

// UpdateSondageRequest représente la modification d'un sondage
type UpdateSondageRequest struct {
	Question    *string       `json:"question,omitempty"`
	Description *string       `json:"description,omitempty"`
	Choix       []string      `json:"choix,omitempty"`
	DateFin     *FlexibleTime `json:"date_fin,omitempty"`
}

// SondageFilter regroupe les filtres de la liste des sondages
type SondageFilter struct {
	ListQuery
	ClubID *primitive.ObjectID
	Statut string
}

// ResultatChoix représente le décompte d'un choix
type ResultatChoix struct {
	ChoixID     primitive.ObjectID `json:"choix_id"`
	Libelle     string             `json:"libelle"`
	Votes       int                `json:"votes"`
	Pourcentage float64            `json:"pourcentage"`
}

// ResultatsSondage représente les résultats agrégés d'un sondage
type ResultatsSondage struct {
	SondageID  primitive.ObjectID   `json:"sondage_id"`
	Question   string               `json:"question"`
	Statut     string               `json:"statut"`
	TotalVotes int                  `json:"total_votes"`
	Choix      []ResultatChoix      `json:"choix"`
	Gagnants   []primitive.ObjectID `json:"gagnants"`
}

// SondageDetail associe un sondage à ses résultats
type SondageDetail struct {
	Sondage   Sondage          `json:"sondage"`
	Resultats ResultatsSondage `json:"resultats"`
}
