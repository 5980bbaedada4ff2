// Package store defines the persistence contracts the circulation core is
// written against: one small CRUD contract per entity type, a handful of
// typed lookups, and a unit-of-work contract for multi-entity writes.
//
// Engines implementing these contracts live in the subpackages postgres and
// memory. Both guarantee that within UnitOfWork.Execute, reads of a book row
// are exclusive against concurrent units of work touching the same book, so
// check-then-act sequences on inventory are race free.
package store

import (
	"context"

	"github.com/google/uuid"

	"library-circulation/internal/model"
)

// Logger receives operational messages from engines and services. The
// signature is log/slog compatible; a nil logger disables logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Books is the CRUD contract for the book catalog and inventory counts.
// ByID lookups return a model.NotFoundError when the row is missing.
type Books interface {
	CreateBook(ctx context.Context, book *model.Book) error
	BookByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	Books(ctx context.Context) ([]*model.Book, error)
	UpdateBook(ctx context.Context, book *model.Book) error
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// Users is the lookup contract for borrowers. Account management is handled
// elsewhere; circulation only ever resolves and seeds users.
type Users interface {
	CreateUser(ctx context.Context, user *model.User) error
	UserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UserByUsername(ctx context.Context, username string) (*model.User, error)
}

// Transactions is the CRUD contract for loan records.
//
// TransactionByBookAndUser returns the loan that governs the pair: the open
// one if any exists, otherwise the most recently issued. It returns
// (nil, nil) when the pair has no loan at all.
type Transactions interface {
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	TransactionByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	Transactions(ctx context.Context) ([]*model.Transaction, error)
	TransactionByBookAndUser(ctx context.Context, bookID, userID uuid.UUID) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// Fines is the CRUD contract for fines. FineByTransaction returns (nil, nil)
// when the transaction carries no fine.
type Fines interface {
	CreateFine(ctx context.Context, fine *model.Fine) error
	FineByID(ctx context.Context, id uuid.UUID) (*model.Fine, error)
	Fines(ctx context.Context) ([]*model.Fine, error)
	FineByTransaction(ctx context.Context, transactionID uuid.UUID) (*model.Fine, error)
	UpdateFine(ctx context.Context, fine *model.Fine) error
	DeleteFine(ctx context.Context, id uuid.UUID) error
}

// Notifications is the CRUD contract for reminder records.
type Notifications interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	NotificationByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	Notifications(ctx context.Context) ([]*model.Notification, error)
	UpdateNotification(ctx context.Context, n *model.Notification) error
	DeleteNotification(ctx context.Context, id uuid.UUID) error
}

// Store bundles the per-entity contracts. An engine hands out two flavors:
// itself for plain reads, and a transaction-bound view inside Execute.
type Store interface {
	Books
	Users
	Transactions
	Fines
	Notifications
}

// UnitOfWork executes fn against a transaction-bound Store. Every write fn
// performs is committed atomically when fn returns nil and rolled back
// entirely when fn returns an error; partial writes are never observable
// to other units of work.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
