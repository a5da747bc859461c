package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "espace_clubs"

var (
	// HTTPDuration mesure la durée des requêtes par route et statut
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Durée des requêtes HTTP",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// VoteTransitions compte les transitions de vote (soumis, modifie, supprime)
	VoteTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "votes",
			Name:      "transitions_total",
			Help:      "Nombre de transitions de vote appliquées",
		},
		[]string{"transition"},
	)

	// VoteRejections compte les tentatives de vote refusées par motif
	VoteRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "votes",
			Name:      "rejected_total",
			Help:      "Nombre de tentatives de vote refusées",
		},
		[]string{"reason"},
	)

	// CommentsModerated compte les décisions de modération par source (api, lexique)
	CommentsModerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commentaires",
			Name:      "moderated_total",
			Help:      "Commentaires passés en modération",
		},
		[]string{"source", "verdict"},
	)

	// Registrations compte les inscriptions: compte, adhesion (club), inscription (événement)
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inscriptions_total",
			Help:      "Créations de comptes, demandes d'adhésion et inscriptions aux événements",
		},
		[]string{"action"},
	)

	// SchedulerRuns compte les exécutions des tâches planifiées
	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Exécutions des tâches planifiées",
		},
		[]string{"job", "result"},
	)

	// WebsocketClients suit le nombre de connexions websocket ouvertes
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "clients",
			Help:      "Connexions websocket ouvertes",
		},
	)
)

// Handler expose les métriques au format Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}
