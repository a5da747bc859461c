package services

import (
	"context"
	"espace-clubs-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// canManageClub indique si l'utilisateur est admin ou président du club
func canManageClub(user *models.User, club *models.Club) bool {
	if user == nil || club == nil {
		return false
	}
	return user.IsAdmin() || club.PresidentID == user.ID
}

// loadManagedClub charge un club et vérifie que l'utilisateur peut le gérer
func loadManagedClub(ctx context.Context, clubs ClubStore, clubID primitive.ObjectID, user *models.User) (*models.Club, error) {
	club, err := clubs.FindByID(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	if !canManageClub(user, club) {
		return nil, ErrForbidden
	}
	return club, nil
}
