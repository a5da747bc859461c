package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// Types d'événements métier publiés sur le flux
const (
	EventVoteSoumis        = "vote.soumis"
	EventVoteModifie       = "vote.modifie"
	EventVoteSupprime      = "vote.supprime"
	EventSondageCree       = "sondage.cree"
	EventSondageFerme      = "sondage.ferme"
	EventCommentaireRejete = "commentaire.rejete"
	EventInscription       = "evenement.inscription"
)

// DomainEvent est un événement métier sérialisé en JSON
type DomainEvent struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// EventPublisher publie des événements métier
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	Close() error
}

// KafkaPublisher publie les événements sur un topic Kafka.
// La clé (ID du sondage ou de l'événement) choisit la partition; l'ordre
// n'est garanti que si les appels à Publish sont séquentiels (voir QueuedPublisher).
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher crée un publisher Kafka
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  5,
		Compression:  kafka.Snappy,
	}

	log.Printf("✓ Publication Kafka activée (topic %s)", topic)
	return &KafkaPublisher{writer: w}
}

// Publish écrit l'événement sur le topic
func (p *KafkaPublisher) Publish(ctx context.Context, event DomainEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("erreur lors de la sérialisation de l'événement: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("erreur lors de l'écriture sur Kafka: %w", err)
	}
	return nil
}

// Close vide et ferme le writer
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("erreur lors de la fermeture du writer Kafka: %w", err)
	}
	return nil
}

// NoopPublisher ignore les événements quand aucun broker n'est configuré
type NoopPublisher struct{}

// Publish journalise l'événement au niveau debug
func (NoopPublisher) Publish(_ context.Context, event DomainEvent) error {
	log.WithFields(log.Fields{"type": event.Type, "key": event.Key}).Debug("événement non publié (Kafka désactivé)")
	return nil
}

// Close ne fait rien
func (NoopPublisher) Close() error { return nil }

// ErrPublisherClosed est retournée après Close
var ErrPublisherClosed = errors.New("publisher fermé")

// ErrPublisherFull est retournée quand la file d'attente est pleine
var ErrPublisherFull = errors.New("file de publication pleine")

const publishTimeout = 10 * time.Second

// QueuedPublisher découple la publication des requêtes HTTP: Publish met
// l'événement en file sans bloquer, un unique worker l'écrit ensuite.
// Les événements sortent dans l'ordre d'arrivée.
type QueuedPublisher struct {
	next   EventPublisher
	queue  chan DomainEvent
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewQueuedPublisher démarre le worker devant next
func NewQueuedPublisher(next EventPublisher, size int) *QueuedPublisher {
	if size <= 0 {
		size = 1
	}
	q := &QueuedPublisher{
		next:  next,
		queue: make(chan DomainEvent, size),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *QueuedPublisher) run() {
	defer close(q.done)
	for event := range q.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := q.next.Publish(ctx, event); err != nil {
			log.WithError(err).WithFields(log.Fields{"type": event.Type, "key": event.Key}).Warn("publication de l'événement impossible")
		}
		cancel()
	}
}

// Publish met l'événement en file
func (q *QueuedPublisher) Publish(_ context.Context, event DomainEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrPublisherClosed
	}
	select {
	case q.queue <- event:
		return nil
	default:
		return ErrPublisherFull
	}
}

// Close vide la file, attend le worker puis ferme le publisher sous-jacent
func (q *QueuedPublisher) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	<-q.done
	return q.next.Close()
}

// NewEventPublisher choisit Kafka si des brokers sont configurés
func NewEventPublisher(brokers []string, topic string) EventPublisher {
	if len(brokers) == 0 {
		log.Println("⚠️  KAFKA_BROKERS non configuré - événements métier non publiés")
		return NoopPublisher{}
	}
	return NewQueuedPublisher(NewKafkaPublisher(brokers, topic), 1024)
}

// publishEvent publie sans faire échouer la requête; un échec est seulement journalisé
func publishEvent(p EventPublisher, event DomainEvent) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := p.Publish(context.Background(), event); err != nil {
		log.WithError(err).WithField("type", event.Type).Warn("publication de l'événement impossible")
	}
}
