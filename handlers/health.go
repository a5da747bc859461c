package handlers

import (
	"net/http"
	"runtime"
	"time"

	"espace-clubs-backend/utils"
)

var startTime = time.Now()

// HealthHandler gère les endpoints de santé
type HealthHandler struct {
	environment string
	ping        func() error
}

// NewHealthHandler crée un nouveau HealthHandler; ping vérifie la base
func NewHealthHandler(environment string, ping func() error) *HealthHandler {
	return &HealthHandler{environment: environment, ping: ping}
}

// Health retourne l'état de santé du serveur avec métriques
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(startTime).String()

	// Vérifier la connexion MongoDB
	dbStatus := "ok"
	status, code := "ok", http.StatusOK
	if h.ping != nil {
		if err := h.ping(); err != nil {
			dbStatus = "error"
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	utils.RespondJSON(w, code, map[string]interface{}{
		"status":     status,
		"message":    "Le serveur fonctionne correctement",
		"env":        h.environment,
		"database":   "MongoDB",
		"db_status":  dbStatus,
		"uptime":     uptime,
		"go_version": runtime.Version(),
	})
}
