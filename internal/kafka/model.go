package kafka

import (
	"time"

	"github.com/google/uuid"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"

	EventTypeUserRegistered = "user.registered"
)

// UserRegisteredEvent announces a completed registration to downstream services.
type UserRegisteredEvent struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
	BirthDate   string `json:"birthDate"`
}

// Envelope carries an event with the metadata that goes into message headers.
type Envelope struct {
	ID      string
	Type    string
	Key     string
	Payload any
	Time    time.Time
}

func NewUserRegistered(event UserRegisteredEvent) Envelope {
	return Envelope{
		ID:      uuid.NewString(),
		Type:    EventTypeUserRegistered,
		Key:     event.UserID,
		Payload: event,
		Time:    time.Now().UTC(),
	}
}
