package model

import (
	"time"

	"github.com/google/uuid"
)

// Messages used for the two notification kinds the system produces itself.
const (
	BorrowReminderMessage = "Don't forget to return the book!"
	FineNoticeMessage     = "A fine was added to your account. Don't forget to pay it!"
)

// Notification is a reminder recorded for a user about a book, optionally
// referencing a fine. FineID is set only for fine notices.
type Notification struct {
	ID           uuid.UUID     `json:"id" db:"notification_id"`
	UserID       uuid.UUID     `json:"user_id" db:"user_id"`
	BookID       uuid.UUID     `json:"book_id" db:"book_id"`
	FineID       uuid.NullUUID `json:"fine_id,omitempty" db:"fine_id"`
	Message      string        `json:"message" db:"message"`
	ReminderDate time.Time     `json:"reminder_date" db:"reminder_date"`
}
