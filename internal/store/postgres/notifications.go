package postgres

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store/postgres/internal/adapters"
)

const colNotificationID = "notification_id"

var notificationColumns = []any{colNotificationID, colUserID, colBookID, colFineID, "message", "reminder_date"}

// CreateNotification inserts a new notification row.
func (s *session) CreateNotification(ctx context.Context, n *model.Notification) error {
	insertStmt := builder().
		Insert(tableNotifications).
		Rows(goqu.Record{
			colNotificationID: n.ID,
			colUserID:         n.UserID,
			colBookID:         n.BookID,
			colFineID:         nullableUUID(n.FineID),
			"message":         n.Message,
			"reminder_date":   n.ReminderDate,
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.runExec(ctx, sqlQuery)

	return err
}

// NotificationByID loads one notification by primary key.
func (s *session) NotificationByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	selectStmt := builder().
		From(tableNotifications).
		Select(notificationColumns...).
		Where(goqu.Ex{colNotificationID: id})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := s.runQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return nil, model.NewNotFound("Notification", id)
	}

	return s.scanNotification(rows)
}

// Notifications loads all notifications, newest reminder first.
func (s *session) Notifications(ctx context.Context) ([]*model.Notification, error) {
	selectStmt := builder().
		From(tableNotifications).
		Select(notificationColumns...).
		Order(goqu.I("reminder_date").Desc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := s.runQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	notifications := make([]*model.Notification, 0)

	for rows.Next() {
		n, scanErr := s.scanNotification(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		notifications = append(notifications, n)
	}

	return notifications, nil
}

// UpdateNotification overwrites all fields of a notification row.
func (s *session) UpdateNotification(ctx context.Context, n *model.Notification) error {
	updateStmt := builder().
		Update(tableNotifications).
		Set(goqu.Record{
			colUserID:       n.UserID,
			colBookID:       n.BookID,
			colFineID:       nullableUUID(n.FineID),
			"message":       n.Message,
			"reminder_date": n.ReminderDate,
		}).
		Where(goqu.Ex{colNotificationID: n.ID})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.runExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return model.NewNotFound("Notification", n.ID)
	}

	return nil
}

// DeleteNotification removes a notification row.
func (s *session) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	deleteStmt := builder().
		Delete(tableNotifications).
		Where(goqu.Ex{colNotificationID: id})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.runExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return model.NewNotFound("Notification", id)
	}

	return nil
}

func (s *session) scanNotification(rows adapters.DBRows) (*model.Notification, error) {
	var n model.Notification

	scanErr := rows.Scan(&n.ID, &n.UserID, &n.BookID, &n.FineID, &n.Message, &n.ReminderDate)
	if scanErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return nil, errors.Join(ErrScanningRowFailed, scanErr)
	}

	return &n, nil
}
