package entity

import "time"

// Eventos notificados al creador del documento.
const (
	EventApproved  = "movement.approved"
	EventRejected  = "movement.rejected"
	EventCompleted = "movement.completed"
)

// Notification evento de flujo para el sink de notificaciones (fire-and-forget).
type Notification struct {
	Event           string
	Kind            Kind
	DocumentID      int64
	Number          string
	Status          Status
	RecipientUserID int64
	ActorUserID     int64
	Notes           string
	OccurredAt      time.Time
}
