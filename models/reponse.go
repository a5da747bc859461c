package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reponse représente le vote d'un utilisateur à un sondage (au plus un par couple)
type Reponse struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SondageID primitive.ObjectID `json:"sondage_id" bson:"sondage_id"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	ChoixID   primitive.ObjectID `json:"choix_id" bson:"choix_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// VoteRequest représente la soumission ou la modification d'un vote
type VoteRequest struct {
	ChoixID      string `json:"choix_id"`
	Confirmation bool   `json:"confirmation"`
}

// Transitions du vote
const (
	VoteSoumis   = "soumis"
	VoteModifie  = "modifie"
	VoteSupprime = "supprime"
)

// VoteResult décrit l'état du vote après une transition
type VoteResult struct {
	Transition string            `json:"transition"`
	Reponse    *Reponse          `json:"reponse,omitempty"`
	Resultats  *ResultatsSondage `json:"resultats,omitempty"`
}
