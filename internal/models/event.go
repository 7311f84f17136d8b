package models

import "time"

// Типы событий жизненного цикла пользователя, они же routing key в RabbitMQ.
const (
	EventUserRegistered = "user.registered"
	EventUserUpdated    = "user.updated"
	EventUserDeleted    = "user.deleted"
)

// UserEvent описывает сообщение о изменении учётной записи.
type UserEvent struct {
	Type       string    `json:"type"`
	UserUID    string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
