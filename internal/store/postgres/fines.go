package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store/postgres/internal/adapters"
)

const (
	colFineID   = "fine_id"
	colPaidDate = "paid_date"
)

var fineColumns = []any{colFineID, colTransactionID, "amount", "status", colPaidDate}

// CreateFine inserts a new fine row. The table carries a unique constraint
// on transaction_id, backing the one-fine-per-transaction invariant.
func (s *session) CreateFine(ctx context.Context, fine *model.Fine) error {
	insertStmt := builder().
		Insert(tableFines).
		Rows(goqu.Record{
			colFineID:        fine.ID,
			colTransactionID: fine.TransactionID,
			"amount":         fine.Amount,
			"status":         string(fine.Status),
			colPaidDate:      nullableTime(fine.PaidDate),
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.runExec(ctx, sqlQuery)

	return err
}

// FineByID loads one fine by primary key.
func (s *session) FineByID(ctx context.Context, id uuid.UUID) (*model.Fine, error) {
	selectStmt := builder().
		From(tableFines).
		Select(fineColumns...).
		Where(goqu.Ex{colFineID: id})

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
		return nil, model.NewNotFound("Fine", id)
	}

	return s.scanFine(rows)
}

// Fines loads all fines.
func (s *session) Fines(ctx context.Context) ([]*model.Fine, error) {
	selectStmt := builder().
		From(tableFines).
		Select(fineColumns...)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := s.runQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	fines := make([]*model.Fine, 0)

	for rows.Next() {
		fine, scanErr := s.scanFine(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		fines = append(fines, fine)
	}

	return fines, nil
}

// FineByTransaction returns the fine attached to a transaction, or
// (nil, nil) when the transaction carries none.
func (s *session) FineByTransaction(ctx context.Context, transactionID uuid.UUID) (*model.Fine, error) {
	selectStmt := builder().
		From(tableFines).
		Select(fineColumns...).
		Where(goqu.Ex{colTransactionID: transactionID}).
		Limit(1)

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
		return nil, nil
	}

	return s.scanFine(rows)
}

// UpdateFine overwrites the mutable fields of a fine row.
func (s *session) UpdateFine(ctx context.Context, fine *model.Fine) error {
	updateStmt := builder().
		Update(tableFines).
		Set(goqu.Record{
			"status":    string(fine.Status),
			colPaidDate: nullableTime(fine.PaidDate),
		}).
		Where(goqu.Ex{colFineID: fine.ID})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.runExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return model.NewNotFound("Fine", fine.ID)
	}

	return nil
}

// DeleteFine removes a fine row.
func (s *session) DeleteFine(ctx context.Context, id uuid.UUID) error {
	deleteStmt := builder().
		Delete(tableFines).
		Where(goqu.Ex{colFineID: id})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.runExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return model.NewNotFound("Fine", id)
	}

	return nil
}

func (s *session) scanFine(rows adapters.DBRows) (*model.Fine, error) {
	var fine model.Fine
	var status string
	var paidDate sql.NullTime

	scanErr := rows.Scan(&fine.ID, &fine.TransactionID, &fine.Amount, &status, &paidDate)
	if scanErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return nil, errors.Join(ErrScanningRowFailed, scanErr)
	}

	fine.Status = model.FineStatus(status)
	if paidDate.Valid {
		fine.PaidDate = &paidDate.Time
	}

	return &fine, nil
}
