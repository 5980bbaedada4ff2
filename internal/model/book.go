package model

import (
	"time"

	"github.com/google/uuid"
)

// BookStatus marks whether at least one copy of a book can be lent out.
type BookStatus string

const (
	BookStatusAvailable   BookStatus = "available"
	BookStatusUnavailable BookStatus = "unavailable"
)

// Book is a catalog entry together with its copy inventory.
//
// Quantity and Status are owned by the inventory ledger and must only be
// changed through it; the invariant is Status == available iff Quantity > 0.
type Book struct {
	ID            uuid.UUID  `json:"id" db:"book_id"`
	Title         string     `json:"title" db:"title"`
	Author        string     `json:"author" db:"author"`
	ISBN          string     `json:"isbn" db:"isbn"`
	Quantity      int        `json:"quantity" db:"quantity"`
	Status        BookStatus `json:"status" db:"status"`
	PublishedYear int        `json:"published_year" db:"published_year"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// Available reports whether a copy of the book can currently be borrowed.
func (b *Book) Available() bool {
	return b.Status == BookStatusAvailable && b.Quantity > 0
}
