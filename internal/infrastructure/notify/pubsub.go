// Package notify sinks de notificaciones de flujo: Pub/Sub para producción y log para entornos sin GCP.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/pkg/config"
	"github.com/jhoicas/bodega-api/pkg/logger"
)

// resultTimeout espera máxima por la confirmación del servidor de cada publicación.
const resultTimeout = 30 * time.Second

// Message cuerpo JSON publicado en el tópico.
type Message struct {
	ID              string    `json:"id"`
	Event           string    `json:"event"`
	Kind            string    `json:"kind"`
	DocumentID      int64     `json:"document_id"`
	Number          string    `json:"number"`
	Status          string    `json:"status"`
	RecipientUserID int64     `json:"recipient_user_id"`
	ActorUserID     int64     `json:"actor_user_id"`
	Notes           string    `json:"notes,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NewMessage arma el mensaje con un id de correlación nuevo.
func NewMessage(n entity.Notification) Message {
	return Message{
		ID:              uuid.NewString(),
		Event:           n.Event,
		Kind:            string(n.Kind),
		DocumentID:      n.DocumentID,
		Number:          n.Number,
		Status:          string(n.Status),
		RecipientUserID: n.RecipientUserID,
		ActorUserID:     n.ActorUserID,
		Notes:           n.Notes,
		OccurredAt:      n.OccurredAt,
	}
}

// PubSubNotifier publica cada notificación en un tópico de Google Cloud Pub/Sub. Notify no espera
// la confirmación del servidor; el resultado se revisa en segundo plano y un fallo solo se registra.
type PubSubNotifier struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	log     *logger.Logger
	pending sync.WaitGroup
}

// NewPubSubNotifier crea el cliente con PUBSUB_CREDENTIALS_JSON o, si está vacío, con las credenciales por defecto.
func NewPubSubNotifier(ctx context.Context, cfg config.PubSubConfig, log *logger.Logger) (*PubSubNotifier, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client (project_id=%s): %w", cfg.ProjectID, err)
	}
	return newPubSubNotifier(client, cfg.Topic, log), nil
}

func newPubSubNotifier(client *pubsub.Client, topic string, log *logger.Logger) *PubSubNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &PubSubNotifier{client: client, topic: client.Topic(topic), log: log.Component("notify")}
}

// Notify encola el mensaje y regresa sin esperar el id asignado por el servidor.
func (p *PubSubNotifier) Notify(ctx context.Context, n entity.Notification) error {
	msg := NewMessage(n)
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	res := p.topic.Publish(context.WithoutCancel(ctx), &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event":             n.Event,
			"kind":              string(n.Kind),
			"recipient_user_id": strconv.FormatInt(n.RecipientUserID, 10),
			"correlation_id":    msg.ID,
		},
	})

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		rctx, cancel := context.WithTimeout(context.Background(), resultTimeout)
		defer cancel()
		if _, err := res.Get(rctx); err != nil {
			p.log.Warn().Err(err).
				Str("event", n.Event).
				Int64("document_id", n.DocumentID).
				Str("correlation_id", msg.ID).
				Msg("publicación rechazada")
		}
	}()
	return nil
}

// Close vacía los mensajes pendientes, espera sus resultados y cierra el cliente.
func (p *PubSubNotifier) Close() error {
	p.topic.Stop()
	p.pending.Wait()
	return p.client.Close()
}
