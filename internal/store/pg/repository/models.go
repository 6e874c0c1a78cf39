package repository

import (
	"time"

	"github.com/sqlc-dev/pqtype"
)

type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	PhoneNumber string    `json:"phone_number"`
	BirthDate   time.Time `json:"birth_date"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuditLog struct {
	ID        int64                 `json:"id"`
	UserID    *string               `json:"user_id"`
	EventType string                `json:"event_type"`
	Ip        pqtype.Inet           `json:"ip"`
	Ua        *string               `json:"ua"`
	Payload   pqtype.NullRawMessage `json:"payload"`
	CreatedAt time.Time             `json:"created_at"`
}
