package postgres

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store/postgres/internal/adapters"
)

const (
	colBookID = "book_id"
)

var bookColumns = []any{colBookID, "title", "author", "isbn", "quantity", "status", "published_year", "created_at"}

// CreateBook inserts a new book row.
func (s *session) CreateBook(ctx context.Context, book *model.Book) error {
	insertStmt := builder().
		Insert(tableBooks).
		Rows(goqu.Record{
			colBookID:        book.ID,
			"title":          book.Title,
			"author":         book.Author,
			"isbn":           book.ISBN,
			"quantity":       book.Quantity,
			"status":         string(book.Status),
			"published_year": book.PublishedYear,
			"created_at":     book.CreatedAt,
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.runExec(ctx, sqlQuery)

	return err
}

// BookByID loads one book. Inside a unit of work the row is read with
// FOR UPDATE so that concurrent inventory mutations on the same book are
// serialized by the database.
func (s *session) BookByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	selectStmt := builder().
		From(tableBooks).
		Select(bookColumns...).
		Where(goqu.Ex{colBookID: id})

	if s.locking {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

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
		return nil, model.NewNotFound("Book", id)
	}

	return s.scanBook(rows)
}

// Books loads the whole catalog ordered by title.
func (s *session) Books(ctx context.Context) ([]*model.Book, error) {
	selectStmt := builder().
		From(tableBooks).
		Select(bookColumns...).
		Order(goqu.I("title").Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := s.runQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	books := make([]*model.Book, 0)

	for rows.Next() {
		book, scanErr := s.scanBook(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		books = append(books, book)
	}

	return books, nil
}

// UpdateBook overwrites all mutable fields of a book row.
func (s *session) UpdateBook(ctx context.Context, book *model.Book) error {
	updateStmt := builder().
		Update(tableBooks).
		Set(goqu.Record{
			"title":          book.Title,
			"author":         book.Author,
			"isbn":           book.ISBN,
			"quantity":       book.Quantity,
			"status":         string(book.Status),
			"published_year": book.PublishedYear,
		}).
		Where(goqu.Ex{colBookID: book.ID})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.runExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return model.NewNotFound("Book", book.ID)
	}

	return nil
}

// DeleteBook removes a book row.
func (s *session) DeleteBook(ctx context.Context, id uuid.UUID) error {
	deleteStmt := builder().
		Delete(tableBooks).
		Where(goqu.Ex{colBookID: id})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.runExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return model.NewNotFound("Book", id)
	}

	return nil
}

func (s *session) scanBook(rows adapters.DBRows) (*model.Book, error) {
	var book model.Book
	var status string

	scanErr := rows.Scan(
		&book.ID, &book.Title, &book.Author, &book.ISBN,
		&book.Quantity, &status, &book.PublishedYear, &book.CreatedAt,
	)
	if scanErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return nil, errors.Join(ErrScanningRowFailed, scanErr)
	}

	book.Status = model.BookStatus(status)

	return &book, nil
}
