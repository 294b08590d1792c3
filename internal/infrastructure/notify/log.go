package notify

import (
	"context"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/pkg/logger"
)

// LogNotifier escribe la notificación en el log estructurado. Nunca falla.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el sink de log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.Component("notify")}
}

// Notify registra el evento a nivel info.
func (n *LogNotifier) Notify(_ context.Context, ev entity.Notification) error {
	n.log.Info().
		Str("event", ev.Event).
		Str("kind", string(ev.Kind)).
		Int64("document_id", ev.DocumentID).
		Str("number", ev.Number).
		Str("status", string(ev.Status)).
		Int64("recipient_user_id", ev.RecipientUserID).
		Int64("actor_user_id", ev.ActorUserID).
		Msg("notificación de flujo")
	return nil
}
