// Package notify records reminder and fine notices for users.
//
// The dispatcher offers each operation in two shapes: a public method that
// runs in its own unit of work (backing the notification endpoints), and a
// Record variant that writes through the store view of a surrounding unit
// of work, so borrow and fine flows can include the notification write in
// their own atomic commit.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store"
)

const (
	logMsgNotificationRecorded = "notification recorded"
	logAttrNotificationID      = "notification_id"
	logAttrMessage             = "message"

	borrowReminderLead = 14 * 24 * time.Hour
)

// Dispatcher creates, rewrites and deletes notifications.
type Dispatcher struct {
	uow    store.UnitOfWork
	logger store.Logger
	now    func() time.Time
}

// Option defines a functional option for configuring the Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for the dispatcher.
func WithLogger(logger store.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a Dispatcher running against the given unit of work.
func NewDispatcher(uow store.UnitOfWork, options ...Option) *Dispatcher {
	d := &Dispatcher{uow: uow, now: time.Now}

	for _, option := range options {
		option(d)
	}

	return d
}

// BorrowReminder records a return reminder in its own unit of work.
func (d *Dispatcher) BorrowReminder(ctx context.Context, bookID uuid.UUID, username string) (*model.Notification, error) {
	var notification *model.Notification

	err := d.uow.Execute(ctx, func(ctx context.Context, s store.Store) error {
		var recordErr error
		notification, recordErr = d.RecordBorrowReminder(ctx, s, bookID, username)
		return recordErr
	})
	if err != nil {
		return nil, err
	}

	return notification, nil
}

// RecordBorrowReminder writes a return reminder through the store view of a
// surrounding unit of work. The reminder is dated two weeks out. Fails with
// NotFound when the book or user is missing.
func (d *Dispatcher) RecordBorrowReminder(ctx context.Context, s store.Store, bookID uuid.UUID, username string) (*model.Notification, error) {
	book, err := s.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	user, err := s.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	notification := &model.Notification{
		ID:           uuid.New(),
		UserID:       user.ID,
		BookID:       book.ID,
		Message:      model.BorrowReminderMessage,
		ReminderDate: d.now().Add(borrowReminderLead),
	}

	if err := s.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}

	d.logRecorded(notification)

	return notification, nil
}

// FineNotice records a fine notice in its own unit of work.
func (d *Dispatcher) FineNotice(ctx context.Context, fineID, bookID uuid.UUID, username string) (*model.Notification, error) {
	var notification *model.Notification

	err := d.uow.Execute(ctx, func(ctx context.Context, s store.Store) error {
		var recordErr error
		notification, recordErr = d.RecordFineNotice(ctx, s, fineID, bookID, username)
		return recordErr
	})
	if err != nil {
		return nil, err
	}

	return notification, nil
}

// RecordFineNotice writes a fine notice through the store view of a
// surrounding unit of work. The reminder is dated now. Fails with NotFound
// when the book, user or fine is missing.
func (d *Dispatcher) RecordFineNotice(ctx context.Context, s store.Store, fineID, bookID uuid.UUID, username string) (*model.Notification, error) {
	book, err := s.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	user, err := s.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	fine, err := s.FineByID(ctx, fineID)
	if err != nil {
		return nil, err
	}

	notification := &model.Notification{
		ID:           uuid.New(),
		UserID:       user.ID,
		BookID:       book.ID,
		FineID:       uuid.NullUUID{UUID: fine.ID, Valid: true},
		Message:      model.FineNoticeMessage,
		ReminderDate: d.now(),
	}

	if err := s.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}

	d.logRecorded(notification)

	return notification, nil
}

// Update re-resolves all references and overwrites every field of the
// notification; this is a full replace, not a partial patch. Fails with
// NotFound when any of the four references is missing.
func (d *Dispatcher) Update(ctx context.Context, notificationID, fineID, bookID uuid.UUID, username, message string) (*model.Notification, error) {
	var notification *model.Notification

	err := d.uow.Execute(ctx, func(ctx context.Context, s store.Store) error {
		existing, err := s.NotificationByID(ctx, notificationID)
		if err != nil {
			return err
		}

		book, err := s.BookByID(ctx, bookID)
		if err != nil {
			return err
		}

		user, err := s.UserByUsername(ctx, username)
		if err != nil {
			return err
		}

		fine, err := s.FineByID(ctx, fineID)
		if err != nil {
			return err
		}

		notification = &model.Notification{
			ID:           existing.ID,
			UserID:       user.ID,
			BookID:       book.ID,
			FineID:       uuid.NullUUID{UUID: fine.ID, Valid: true},
			Message:      message,
			ReminderDate: existing.ReminderDate,
		}

		return s.UpdateNotification(ctx, notification)
	})
	if err != nil {
		return nil, err
	}

	return notification, nil
}

// Delete removes a notification. Fails with NotFound when it is absent.
func (d *Dispatcher) Delete(ctx context.Context, notificationID uuid.UUID) error {
	return d.uow.Execute(ctx, func(ctx context.Context, s store.Store) error {
		return s.DeleteNotification(ctx, notificationID)
	})
}

func (d *Dispatcher) logRecorded(n *model.Notification) {
	if d.logger != nil {
		d.logger.Info(logMsgNotificationRecorded, logAttrNotificationID, n.ID.String(), logAttrMessage, n.Message)
	}
}
