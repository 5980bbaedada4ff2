package model

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one loan of one book copy to one user.
//
// A transaction is open while ReturnDate is nil and terminal once it is set;
// ReturnDate is written exactly once. DueDate is fixed at creation time to
// IssueDate plus one calendar month.
type Transaction struct {
	ID         uuid.UUID  `json:"id" db:"transaction_id"`
	BookID     uuid.UUID  `json:"book_id" db:"book_id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	IssueDate  time.Time  `json:"issue_date" db:"issue_date"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" db:"return_date"`
}

// Open reports whether the book has not been returned yet.
func (t *Transaction) Open() bool {
	return t.ReturnDate == nil
}

// NewTransaction creates an open loan issued at the given time.
func NewTransaction(bookID, userID uuid.UUID, issuedAt time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		BookID:    bookID,
		UserID:    userID,
		IssueDate: issuedAt,
		DueDate:   issuedAt.AddDate(0, 1, 0),
	}
}
