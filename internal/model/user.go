package model

import (
	"time"

	"github.com/google/uuid"
)

// User carries the minimal identity the circulation core needs. Account
// management and credentials live outside this service.
type User struct {
	ID               uuid.UUID `json:"id" db:"user_id"`
	Username         string    `json:"username" db:"username"`
	Email            string    `json:"email" db:"email"`
	RegistrationDate time.Time `json:"registration_date" db:"registration_date"`
}
