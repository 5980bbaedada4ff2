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
	colTransactionID = "transaction_id"
	colReturnDate    = "return_date"
)

var transactionColumns = []any{colTransactionID, colBookID, colUserID, "issue_date", "due_date", colReturnDate}

// CreateTransaction inserts a new loan row.
func (s *session) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	insertStmt := builder().
		Insert(tableTransactions).
		Rows(goqu.Record{
			colTransactionID: txn.ID,
			colBookID:        txn.BookID,
			colUserID:        txn.UserID,
			"issue_date":     txn.IssueDate,
			"due_date":       txn.DueDate,
			colReturnDate:    nullableTime(txn.ReturnDate),
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.runExec(ctx, sqlQuery)

	return err
}

// TransactionByID loads one loan by primary key.
func (s *session) TransactionByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	selectStmt := builder().
		From(tableTransactions).
		Select(transactionColumns...).
		Where(goqu.Ex{colTransactionID: id})

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
		return nil, model.NewNotFound("Transaction", id)
	}

	return s.scanTransaction(rows)
}

// Transactions loads all loans, newest first.
func (s *session) Transactions(ctx context.Context) ([]*model.Transaction, error) {
	selectStmt := builder().
		From(tableTransactions).
		Select(transactionColumns...).
		Order(goqu.I("issue_date").Desc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := s.runQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	txns := make([]*model.Transaction, 0)

	for rows.Next() {
		txn, scanErr := s.scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		txns = append(txns, txn)
	}

	return txns, nil
}

// TransactionByBookAndUser returns the loan that governs the (book, user)
// pair: an open loan takes precedence over returned ones, otherwise the most
// recently issued loan wins. Returns (nil, nil) when the pair has no loan.
func (s *session) TransactionByBookAndUser(ctx context.Context, bookID, userID uuid.UUID) (*model.Transaction, error) {
	selectStmt := builder().
		From(tableTransactions).
		Select(transactionColumns...).
		Where(goqu.Ex{colBookID: bookID, colUserID: userID}).
		Order(goqu.L("return_date IS NULL").Desc(), goqu.I("issue_date").Desc()).
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

	return s.scanTransaction(rows)
}

// UpdateTransaction overwrites the mutable fields of a loan row.
func (s *session) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	updateStmt := builder().
		Update(tableTransactions).
		Set(goqu.Record{
			colReturnDate: nullableTime(txn.ReturnDate),
		}).
		Where(goqu.Ex{colTransactionID: txn.ID})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.runExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return model.NewNotFound("Transaction", txn.ID)
	}

	return nil
}

// DeleteTransaction removes a loan row.
func (s *session) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	deleteStmt := builder().
		Delete(tableTransactions).
		Where(goqu.Ex{colTransactionID: id})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.runExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return model.NewNotFound("Transaction", id)
	}

	return nil
}

func (s *session) scanTransaction(rows adapters.DBRows) (*model.Transaction, error) {
	var txn model.Transaction
	var returnDate sql.NullTime

	scanErr := rows.Scan(&txn.ID, &txn.BookID, &txn.UserID, &txn.IssueDate, &txn.DueDate, &returnDate)
	if scanErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return nil, errors.Join(ErrScanningRowFailed, scanErr)
	}

	if returnDate.Valid {
		txn.ReturnDate = &returnDate.Time
	}

	return &txn, nil
}
