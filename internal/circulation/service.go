// Package circulation orchestrates borrowing and returning books.
//
// Each operation runs as one unit of work: the loan record, the inventory
// mutation, and (for borrows) the reminder notification commit together or
// not at all. The store serializes concurrent units of work touching the
// same book, so two borrows racing for the last copy resolve to exactly one
// success and one out-of-stock failure.
package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store"
)

const (
	logMsgBookBorrowed = "book borrowed"
	logMsgBookReturned = "book returned"
	logAttrBookID      = "book_id"
	logAttrUsername    = "username"
	logAttrTxnID       = "transaction_id"
)

// InventoryLedger is the slice of the inventory ledger the service needs.
type InventoryLedger interface {
	ReserveCopy(ctx context.Context, books store.Books, bookID uuid.UUID) (*model.Book, error)
	ReleaseCopy(ctx context.Context, books store.Books, bookID uuid.UUID) (*model.Book, error)
}

// Notifier is the slice of the notification dispatcher the service needs:
// recording the borrow reminder inside the borrow unit of work.
type Notifier interface {
	RecordBorrowReminder(ctx context.Context, s store.Store, bookID uuid.UUID, username string) (*model.Notification, error)
}

// Service is the entry point for borrow and return operations.
type Service struct {
	uow      store.UnitOfWork
	ledger   InventoryLedger
	notifier Notifier
	logger   store.Logger
	now      func() time.Time
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger store.Logger) Option {
	return func(svc *Service) {
		svc.logger = logger
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		svc.now = now
	}
}

// NewService creates a Service running against the given unit of work.
func NewService(uow store.UnitOfWork, ledger InventoryLedger, notifier Notifier, options ...Option) *Service {
	svc := &Service{uow: uow, ledger: ledger, notifier: notifier, now: time.Now}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Borrow lends one copy of a book to a user.
//
// Preconditions checked in order: the book and user exist (NotFound), the
// book is marked available (BookUnavailable), it has stock (OutOfStock),
// and the user holds no open loan for it (AlreadyBorrowed) - a user may
// borrow at most one copy of a given book at a time. On success the loan is
// created with a due date one month out, a copy is reserved, and a return
// reminder is recorded, all in one unit of work.
func (svc *Service) Borrow(ctx context.Context, bookID uuid.UUID, username string) (*model.Transaction, error) {
	var txn *model.Transaction

	err := svc.uow.Execute(ctx, func(ctx context.Context, s store.Store) error {
		book, err := s.BookByID(ctx, bookID)
		if err != nil {
			return err
		}

		user, err := s.UserByUsername(ctx, username)
		if err != nil {
			return err
		}

		if book.Status != model.BookStatusAvailable {
			return model.NewInvalidState(model.ReasonBookUnavailable, "the book is not available for borrowing")
		}

		if book.Quantity <= 0 {
			return model.NewInvalidState(model.ReasonOutOfStock, "the book is out of stock")
		}

		existing, err := s.TransactionByBookAndUser(ctx, book.ID, user.ID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Open() {
			return model.NewInvalidState(model.ReasonAlreadyBorrowed, "you have already borrowed this book")
		}

		txn = model.NewTransaction(book.ID, user.ID, svc.now())
		if err := s.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		if _, err := svc.ledger.ReserveCopy(ctx, s, book.ID); err != nil {
			return err
		}

		_, err = svc.notifier.RecordBorrowReminder(ctx, s, book.ID, user.Username)

		return err
	})
	if err != nil {
		return nil, err
	}

	if svc.logger != nil {
		svc.logger.Info(logMsgBookBorrowed, logAttrBookID, bookID.String(), logAttrUsername, username, logAttrTxnID, txn.ID.String())
	}

	return txn, nil
}

// Return takes a borrowed book back from a user.
//
// Fails with NotFound when the book or user is missing, NotBorrowed when the
// pair has no loan at all, and AlreadyReturned when the loan is already
// closed. On success the return date is stamped exactly once and the copy
// goes back into stock, in one unit of work.
func (svc *Service) Return(ctx context.Context, bookID uuid.UUID, username string) (*model.Transaction, error) {
	var txn *model.Transaction

	err := svc.uow.Execute(ctx, func(ctx context.Context, s store.Store) error {
		book, err := s.BookByID(ctx, bookID)
		if err != nil {
			return err
		}

		user, err := s.UserByUsername(ctx, username)
		if err != nil {
			return err
		}

		var loadErr error
		txn, loadErr = s.TransactionByBookAndUser(ctx, book.ID, user.ID)
		if loadErr != nil {
			return loadErr
		}
		if txn == nil {
			return model.NewInvalidState(model.ReasonNotBorrowed, "the user has not borrowed this book")
		}
		if !txn.Open() {
			return model.NewInvalidState(model.ReasonAlreadyReturned, "the user has already returned this book")
		}

		returnedAt := svc.now()
		txn.ReturnDate = &returnedAt

		if err := s.UpdateTransaction(ctx, txn); err != nil {
			return err
		}

		_, err = svc.ledger.ReleaseCopy(ctx, s, book.ID)

		return err
	})
	if err != nil {
		return nil, err
	}

	if svc.logger != nil {
		svc.logger.Info(logMsgBookReturned, logAttrBookID, bookID.String(), logAttrUsername, username, logAttrTxnID, txn.ID.String())
	}

	return txn, nil
}
