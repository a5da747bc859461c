package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Types de compétition
const (
	CompetitionDefi    = "defi"
	CompetitionTournoi = "tournoi"
	CompetitionQuiz    = "quiz"
)

// Statuts d'une compétition
const (
	CompetitionActive   = "active"
	CompetitionInactive = "inactive"
)

// Competition représente une compétition rattachée à une saison
type Competition struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SaisonID    primitive.ObjectID `json:"saison_id" bson:"saison_id"`
	Titre       string             `json:"titre" bson:"titre"`
	Description string             `json:"description" bson:"description"`
	Type        string             `json:"type" bson:"type"`
	Objectif    string             `json:"objectif,omitempty" bson:"objectif,omitempty"`
	Points      int                `json:"points" bson:"points"`
	DateDebut   time.Time          `json:"date_debut" bson:"date_debut"`
	DateFin     time.Time          `json:"date_fin" bson:"date_fin"`
	Statut      string             `json:"statut" bson:"statut"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// CompetitionRequest représente la création ou la modification d'une compétition
type CompetitionRequest struct {
	SaisonID    string       `json:"saison_id"`
	Titre       string       `json:"titre"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	Objectif    string       `json:"objectif"`
	Points      int          `json:"points"`
	DateDebut   FlexibleTime `json:"date_debut"`
	DateFin     FlexibleTime `json:"date_fin"`
	Statut      string       `json:"statut"`
}

// CompetitionFilter regroupe les filtres de la liste des compétitions
type CompetitionFilter struct {
	ListQuery
	SaisonID *primitive.ObjectID
	Statut   string
}

// CompetitionResultat enregistre les points gagnés par un club
type CompetitionResultat struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CompetitionID primitive.ObjectID `json:"competition_id" bson:"competition_id"`
	SaisonID      primitive.ObjectID `json:"saison_id" bson:"saison_id"`
	ClubID        primitive.ObjectID `json:"club_id" bson:"club_id"`
	Points        int                `json:"points" bson:"points"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

// ResultatRequest représente l'attribution de points à un club
type ResultatRequest struct {
	ClubID string `json:"club_id"`
	Points *int   `json:"points,omitempty"`
}
