package postgres

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store/postgres/internal/adapters"
)

const (
	colUserID   = "user_id"
	colUsername = "username"
)

var userColumns = []any{colUserID, colUsername, "email", "registration_date"}

// CreateUser inserts a new user row.
func (s *session) CreateUser(ctx context.Context, user *model.User) error {
	insertStmt := builder().
		Insert(tableUsers).
		Rows(goqu.Record{
			colUserID:           user.ID,
			colUsername:         user.Username,
			"email":             user.Email,
			"registration_date": user.RegistrationDate,
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.runExec(ctx, sqlQuery)

	return err
}

// UserByID loads one user by primary key.
func (s *session) UserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.userWhere(ctx, goqu.Ex{colUserID: id}, id.String())
}

// UserByUsername loads one user by their unique username.
func (s *session) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.userWhere(ctx, goqu.Ex{colUsername: username}, username)
}

func (s *session) userWhere(ctx context.Context, where goqu.Ex, key string) (*model.User, error) {
	selectStmt := builder().
		From(tableUsers).
		Select(userColumns...).
		Where(where)

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
		return nil, &model.NotFoundError{Entity: "User", ID: key}
	}

	return s.scanUser(rows)
}

func (s *session) scanUser(rows adapters.DBRows) (*model.User, error) {
	var user model.User

	scanErr := rows.Scan(&user.ID, &user.Username, &user.Email, &user.RegistrationDate)
	if scanErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return nil, errors.Join(ErrScanningRowFailed, scanErr)
	}

	return &user, nil
}
