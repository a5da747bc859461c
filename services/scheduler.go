package services

import (
	"context"
	"espace-clubs-backend/metrics"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// PollCloser ferme les sondages échus
type PollCloser interface {
	CloseExpired(ctx context.Context) (int, error)
}

// EventMaintainer envoie les rappels et clôt les événements passés
type EventMaintainer interface {
	SendReminders(ctx context.Context) (int, error)
	MarkFinished(ctx context.Context) (int64, error)
}

// Scheduler exécute les tâches périodiques
type Scheduler struct {
	polls  PollCloser
	events EventMaintainer
	cron   *cron.Cron
}

// NewScheduler crée le planificateur
func NewScheduler(polls PollCloser, events EventMaintainer) *Scheduler {
	return &Scheduler{
		polls:  polls,
		events: events,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start enregistre les tâches et démarre le cron
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		fn   func()
	}{
		{"@every 1m", s.closeExpiredPolls},
		{"@every 10m", s.sendReminders},
		{"@every 15m", s.finishEvents},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return err
		}
	}
	s.cron.Start()
	log.Println("✓ Planificateur démarré (sondages échus, rappels, événements passés)")
	return nil
}

// Stop arrête le cron et attend la fin des tâches en cours
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// run exécute une tâche avec un timeout et enregistre son résultat
func run(job string, fn func(ctx context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := fn(ctx)
	if err != nil {
		metrics.SchedulerRuns.WithLabelValues(job, "erreur").Inc()
		log.WithError(err).WithField("job", job).Error("❌ Tâche planifiée en échec")
		return
	}
	metrics.SchedulerRuns.WithLabelValues(job, "ok").Inc()
	if n > 0 {
		log.WithFields(log.Fields{"job": job, "traites": n}).Info("🕒 Tâche planifiée exécutée")
	}
}

func (s *Scheduler) closeExpiredPolls() {
	run("fermeture_sondages", func(ctx context.Context) (int64, error) {
		n, err := s.polls.CloseExpired(ctx)
		return int64(n), err
	})
}

func (s *Scheduler) sendReminders() {
	run("rappels_evenements", func(ctx context.Context) (int64, error) {
		n, err := s.events.SendReminders(ctx)
		return int64(n), err
	})
}

func (s *Scheduler) finishEvents() {
	run("evenements_termines", s.events.MarkFinished)
}
