// Package fines computes and tracks fines against loan transactions.
//
// Fine policy is deliberately flat: every late return owes the same fixed
// amount, independent of how many days overdue it was. A return made
// exactly on the due date still owes the fine; only a return strictly
// before the due date is exempt.
package fines

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store"
)

const (
	logMsgFineCreated = "fine created"
	logMsgFinePaid    = "fine paid"
	logAttrFineID     = "fine_id"
	logAttrTxnID      = "transaction_id"
	logAttrAmount     = "amount"
)

// Notifier is the slice of the notification dispatcher the engine needs:
// recording a fine notice inside the engine's own unit of work.
type Notifier interface {
	RecordFineNotice(ctx context.Context, s store.Store, fineID, bookID uuid.UUID, username string) (*model.Notification, error)
}

// Engine creates and settles fines.
type Engine struct {
	uow      store.UnitOfWork
	notifier Notifier
	logger   store.Logger
	now      func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(logger store.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine running against the given unit of work.
func NewEngine(uow store.UnitOfWork, notifier Notifier, options ...Option) *Engine {
	e := &Engine{uow: uow, notifier: notifier, now: time.Now}

	for _, option := range options {
		option(e)
	}

	return e
}

// CreateFine creates the fine for a transaction and records the fine notice,
// both in one unit of work.
//
// Fails with NotFound when the transaction is missing, with ErrNoFineRequired
// when the book came back strictly before its due date, and with
// ErrFineExists when the transaction already carries a fine. An open
// transaction (no return date) can be fined, matching overdue reminders for
// books that were never brought back.
func (e *Engine) CreateFine(ctx context.Context, transactionID uuid.UUID) (*model.Fine, error) {
	var fine *model.Fine

	err := e.uow.Execute(ctx, func(ctx context.Context, s store.Store) error {
		txn, err := s.TransactionByID(ctx, transactionID)
		if err != nil {
			return err
		}

		if txn.ReturnDate != nil && txn.ReturnDate.Before(txn.DueDate) {
			return model.ErrNoFineRequired
		}

		existing, err := s.FineByTransaction(ctx, txn.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.ErrFineExists
		}

		fine = model.NewFine(txn.ID)
		if err := s.CreateFine(ctx, fine); err != nil {
			return err
		}

		user, err := s.UserByID(ctx, txn.UserID)
		if err != nil {
			return err
		}

		_, err = e.notifier.RecordFineNotice(ctx, s, fine.ID, txn.BookID, user.Username)

		return err
	})
	if err != nil {
		return nil, err
	}

	if e.logger != nil {
		e.logger.Info(logMsgFineCreated, logAttrFineID, fine.ID.String(), logAttrTxnID, transactionID.String(), logAttrAmount, fine.Amount)
	}

	return fine, nil
}

// PayFine settles an unpaid fine by stamping the paid date once. Fails with
// NotFound when the fine is missing and with ErrAlreadyPaid when the paid
// date is already set.
func (e *Engine) PayFine(ctx context.Context, fineID uuid.UUID) (*model.Fine, error) {
	var fine *model.Fine

	err := e.uow.Execute(ctx, func(ctx context.Context, s store.Store) error {
		var loadErr error
		fine, loadErr = s.FineByID(ctx, fineID)
		if loadErr != nil {
			return loadErr
		}

		if fine.Paid() {
			return model.ErrAlreadyPaid
		}

		paidAt := e.now()
		fine.PaidDate = &paidAt
		fine.Status = model.FineStatusPaid

		return s.UpdateFine(ctx, fine)
	})
	if err != nil {
		return nil, err
	}

	if e.logger != nil {
		e.logger.Info(logMsgFinePaid, logAttrFineID, fine.ID.String())
	}

	return fine, nil
}

// CheckAndCreateFine attempts CreateFine and reports whether a fine was
// created. The expected business outcomes - missing transaction, return in
// time, fine already present - collapse into false. Unexpected failures are
// returned to the caller instead of being swallowed.
func (e *Engine) CheckAndCreateFine(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	_, err := e.CreateFine(ctx, transactionID)
	if err == nil {
		return true, nil
	}

	if model.IsNotFound(err) || errors.Is(err, model.ErrNoFineRequired) || errors.Is(err, model.ErrFineExists) {
		return false, nil
	}

	return false, err
}
