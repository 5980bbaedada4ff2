// Package inventory owns the copy counts and availability flags of books.
//
// All quantity and status changes in the system go through the Ledger, which
// keeps the invariant that a book is available exactly when its quantity is
// positive. Callers run ledger operations inside a unit of work, so the
// underlying book row is locked and concurrent mutations of the same book
// are serialized by the store.
package inventory

import (
	"context"

	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store"
)

const (
	logMsgCopyReserved = "book copy reserved"
	logMsgCopyReleased = "book copy released"
	logAttrBookID      = "book_id"
	logAttrQuantity    = "quantity"
)

// Ledger mutates book inventory. It is stateless; the store view of the
// surrounding unit of work is passed into every operation.
type Ledger struct {
	logger store.Logger
}

// Option defines a functional option for configuring the Ledger.
type Option func(*Ledger)

// WithLogger sets the logger for the ledger.
func WithLogger(logger store.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// NewLedger creates a Ledger with the given options.
func NewLedger(options ...Option) *Ledger {
	l := &Ledger{}

	for _, option := range options {
		option(l)
	}

	return l
}

// ReserveCopy takes one copy of the book out of the available stock. When
// the last copy goes out the book flips to unavailable. Fails with an
// OutOfStock invalid-state error if the book has no copies left or is
// already marked unavailable.
func (l *Ledger) ReserveCopy(ctx context.Context, books store.Books, bookID uuid.UUID) (*model.Book, error) {
	book, err := books.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if book.Quantity <= 0 || book.Status == model.BookStatusUnavailable {
		return nil, model.NewInvalidState(model.ReasonOutOfStock, "the book is out of stock")
	}

	book.Quantity--
	if book.Quantity == 0 {
		book.Status = model.BookStatusUnavailable
	}

	if err := books.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	if l.logger != nil {
		l.logger.Debug(logMsgCopyReserved, logAttrBookID, book.ID.String(), logAttrQuantity, book.Quantity)
	}

	return book, nil
}

// ReleaseCopy puts one copy of the book back into the available stock and
// always marks the book available, regardless of its prior status. The
// quantity has no upper bound.
func (l *Ledger) ReleaseCopy(ctx context.Context, books store.Books, bookID uuid.UUID) (*model.Book, error) {
	book, err := books.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	book.Quantity++
	book.Status = model.BookStatusAvailable

	if err := books.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	if l.logger != nil {
		l.logger.Debug(logMsgCopyReleased, logAttrBookID, book.ID.String(), logAttrQuantity, book.Quantity)
	}

	return book, nil
}
