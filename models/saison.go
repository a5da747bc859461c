package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts dérivés d'une saison
const (
	SaisonAVenir  = "a_venir"
	SaisonEnCours = "en_cours"
	SaisonTermine = "terminee"
)

// Saison représente une saison de compétitions
type Saison struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Nom         string             `json:"nom" bson:"nom"`
	Description string             `json:"description" bson:"description"`
	DateDebut   time.Time          `json:"date_debut" bson:"date_debut"`
	DateFin     time.Time          `json:"date_fin" bson:"date_fin"`
	Statut      string             `json:"statut" bson:"-"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// StatutAt calcule le statut de la saison à un instant donné
func (s Saison) StatutAt(now time.Time) string {
	switch {
	case now.Before(s.DateDebut):
		return SaisonAVenir
	case now.After(s.DateFin):
		return SaisonTermine
	default:
		return SaisonEnCours
	}
}

// Contains indique si l'intervalle [debut, fin] est inclus dans la saison
func (s Saison) Contains(debut, fin time.Time) bool {
	return !debut.Before(s.DateDebut) && !fin.After(s.DateFin)
}

// SaisonRequest représente la création ou la modification d'une saison
type SaisonRequest struct {
	Nom         string       `json:"nom"`
	Description string       `json:"description"`
	DateDebut   FlexibleTime `json:"date_debut"`
	DateFin     FlexibleTime `json:"date_fin"`
}

// ClassementEntry représente une ligne du classement d'une saison
type ClassementEntry struct {
	Rang    int                `json:"rang"`
	ClubID  primitive.ObjectID `json:"club_id" bson:"_id"`
	ClubNom string             `json:"club_nom" bson:"club_nom"`
	Points  int                `json:"points" bson:"points"`
}
