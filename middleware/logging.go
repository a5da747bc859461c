package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"espace-clubs-backend/metrics"
	"espace-clubs-backend/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// RequestIDHeader transporte l'identifiant de corrélation d'une requête
const RequestIDHeader = "X-Request-ID"

// responseWriter wrapper pour capturer le code de statut
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack laisse passer l'upgrade websocket
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack non supporté")
	}
	return h.Hijack()
}

// isCriticalError: erreurs serveur (5xx) et accès refusés (403, souvent un problème de CORS ou de droits)
func isCriticalError(statusCode int) bool {
	return statusCode >= http.StatusInternalServerError || statusCode == http.StatusForbidden
}

// routeTemplate retourne le motif de la route mux ("/api/sondages/{id}") pour borner la cardinalité des métriques
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "inconnue"
}

// Logging journalise les requêtes, alimente les métriques et envoie les erreurs critiques sur Slack
func Logging(slackService *services.SlackService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			statusCode := rw.statusCode
			metrics.HTTPDuration.WithLabelValues(r.Method, routeTemplate(r), strconv.Itoa(statusCode)).Observe(duration.Seconds())

			entry := log.WithFields(log.Fields{
				"method":     r.Method,
				"uri":        r.RequestURI,
				"status":     statusCode,
				"duration":   duration.String(),
				"request_id": requestID,
			})
			switch {
			case statusCode >= http.StatusInternalServerError:
				entry.Error("❌ Requête en erreur")
			case statusCode >= http.StatusBadRequest:
				entry.Warn("⚠️ Requête refusée")
			default:
				entry.Debug("Requête traitée")
			}

			if isCriticalError(statusCode) && slackService.Enabled() {
				slackService.NotifyAsync(services.Incident{
					Method:    r.Method,
					Path:      r.RequestURI,
					Status:    statusCode,
					Message:   http.StatusText(statusCode),
					Origin:    r.Header.Get("Origin"),
					UserAgent: r.Header.Get("User-Agent"),
					RequestID: requestID,
				})
			}
		})
	}
}
