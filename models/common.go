package models

// ErrorResponse représente une réponse d'erreur
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse représente une réponse de succès générique
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Page décrit la pagination d'une liste
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Pagination par défaut et maximale
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// NewPage calcule les métadonnées de pagination
func NewPage(page, limit int, total int64) Page {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// ListQuery regroupe les paramètres communs des listes paginées
type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

// Skip retourne le nombre de documents à sauter
func (q ListQuery) Skip() int64 {
	if q.Page <= 1 {
		return 0
	}
	return int64((q.Page - 1) * q.Limit)
}
