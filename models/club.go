package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts d'un club
const (
	ClubEnAttente = "en_attente"
	ClubActif     = "actif"
	ClubRefuse    = "refuse"
)

// Club représente un club universitaire
type Club struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Nom           string             `json:"nom" bson:"nom"`
	Description   string             `json:"description" bson:"description"`
	Categorie     string             `json:"categorie" bson:"categorie"`
	PresidentID   primitive.ObjectID `json:"president_id" bson:"president_id"`
	LogoURL       string             `json:"logo_url,omitempty" bson:"logo_url,omitempty"`
	Statut        string             `json:"statut" bson:"statut"`
	NombreMembres int                `json:"nombre_membres" bson:"nombre_membres"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsActive indique si le club est validé
func (c Club) IsActive() bool {
	return c.Statut == ClubActif
}

// CreateClubRequest représente la création d'un club
type CreateClubRequest struct {
	Nom         string `json:"nom"`
	Description string `json:"description"`
	Categorie   string `json:"categorie"`
}

// UpdateClubRequest représente la modification d'un club
type UpdateClubRequest struct {
	Nom         *string `json:"nom,omitempty"`
	Description *string `json:"description,omitempty"`
	Categorie   *string `json:"categorie,omitempty"`
}

// ClubDecisionRequest représente la validation d'un club par un admin
type ClubDecisionRequest struct {
	Statut string `json:"statut"`
}

// ClubFilter regroupe les filtres de la liste des clubs
type ClubFilter struct {
	ListQuery
	Categorie string
	Statut    string
}
