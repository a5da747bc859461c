package models

// AdminStatsResponse représente les statistiques du tableau de bord admin
type AdminStatsResponse struct {
	TotalUtilisateurs   int64 `json:"total_utilisateurs"`
	UtilisateursBloques int64 `json:"utilisateurs_bloques"`
	TotalClubs          int64 `json:"total_clubs"`
	ClubsEnAttente      int64 `json:"clubs_en_attente"`
	TotalSondages       int64 `json:"total_sondages"`
	SondagesOuverts     int64 `json:"sondages_ouverts"`
	TotalVotes          int64 `json:"total_votes"`
	TotalCommentaires   int64 `json:"total_commentaires"`
	CommentairesMasques int64 `json:"commentaires_masques"`
	EvenementsAVenir    int64 `json:"evenements_a_venir"`
	TotalInscriptions   int64 `json:"total_inscriptions"`
}
