package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts d'une participation à un club
const (
	ParticipationEnAttente = "en_attente"
	ParticipationAccepte   = "accepte"
	ParticipationRefuse    = "refuse"
)

// ParticipationMembre représente l'adhésion (ou la demande) d'un utilisateur à un club
type ParticipationMembre struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ClubID       primitive.ObjectID `json:"club_id" bson:"club_id"`
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id"`
	Statut       string             `json:"statut" bson:"statut"`
	Message      string             `json:"message,omitempty" bson:"message,omitempty"`
	DateDemande  time.Time          `json:"date_demande" bson:"date_demande"`
	DateDecision *time.Time         `json:"date_decision,omitempty" bson:"date_decision,omitempty"`
}

// ParticipationRequest représente une demande d'adhésion
type ParticipationRequest struct {
	Message string `json:"message"`
}

// ParticipationDecisionRequest représente la réponse du président
type ParticipationDecisionRequest struct {
	Statut string `json:"statut"`
}

// ParticipationWithUser contient les infos du membre pour le président
type ParticipationWithUser struct {
	ParticipationMembre `bson:",inline"`
	Nom                 string `json:"nom" bson:"nom"`
	Prenom              string `json:"prenom" bson:"prenom"`
	Email               string `json:"email" bson:"email"`
}

// ClubMembership associe un club à la participation de l'utilisateur courant
type ClubMembership struct {
	Club          Club                `json:"club"`
	Participation ParticipationMembre `json:"participation"`
}
