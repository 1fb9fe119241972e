package messages

import (
	"time"

	"github.com/google/uuid"
)

// Message is a contact form submission.
type Message struct {
	ID        int64     `json:"id"`
	Reference uuid.UUID `json:"reference"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
