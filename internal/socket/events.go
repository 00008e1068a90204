package socket

import (
	"github.com/google/uuid"
)

const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

// UserChannel names the per-user push channel.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// TaskEvent builds a hub message for a task mutation on the owner's channel.
func TaskEvent(userID uuid.UUID, event string, data interface{}) Message {
	return Message{
		Channel: UserChannel(userID),
		Payload: map[string]interface{}{
			"event": event,
			"data":  data,
		},
	}
}
