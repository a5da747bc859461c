package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"espace-clubs-backend/models"

	log "github.com/sirupsen/logrus"
)

// RespondJSON envoie une réponse JSON
func RespondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Les en-têtes sont déjà partis, on ne peut que journaliser
		log.Printf("Erreur lors de l'encodage JSON: %v", err)
	}
}

// RespondError envoie une réponse d'erreur JSON
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// RespondSuccess envoie une réponse de succès JSON
func RespondSuccess(w http.ResponseWriter, message string, data interface{}) {
	RespondJSON(w, http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondCreated envoie une réponse 201 avec la ressource créée
func RespondCreated(w http.ResponseWriter, message string, data interface{}) {
	RespondJSON(w, http.StatusCreated, models.SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondPage envoie une page de résultats avec ses métadonnées
func RespondPage(w http.ResponseWriter, key string, items interface{}, page models.Page) {
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		key:          items,
		"pagination": page,
	})
}

// RespondFile envoie un contenu binaire en pièce jointe ou en ligne
func RespondFile(w http.ResponseWriter, contentType, filename string, content []byte, attachment bool) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	if filename != "" {
		disposition := "inline"
		if attachment {
			disposition = "attachment"
		}
		w.Header().Set("Content-Disposition", disposition+`; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
