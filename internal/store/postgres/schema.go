package postgres

import (
	"context"
	"errors"
)

// schemaStatements creates the circulation tables. Statements are idempotent
// so EnsureSchema can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS books (
		book_id        UUID PRIMARY KEY,
		title          TEXT NOT NULL,
		author         TEXT NOT NULL DEFAULT '',
		isbn           TEXT NOT NULL DEFAULT '',
		quantity       INTEGER NOT NULL CHECK (quantity >= 0),
		status         TEXT NOT NULL,
		published_year INTEGER NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id           UUID PRIMARY KEY,
		username          TEXT NOT NULL UNIQUE,
		email             TEXT NOT NULL DEFAULT '',
		registration_date TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id UUID PRIMARY KEY,
		book_id        UUID NOT NULL REFERENCES books (book_id),
		user_id        UUID NOT NULL REFERENCES users (user_id),
		issue_date     TIMESTAMPTZ NOT NULL,
		due_date       TIMESTAMPTZ NOT NULL,
		return_date    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_book_user ON transactions (book_id, user_id)`,
	`CREATE TABLE IF NOT EXISTS fines (
		fine_id        UUID PRIMARY KEY,
		transaction_id UUID NOT NULL UNIQUE REFERENCES transactions (transaction_id),
		amount         DOUBLE PRECISION NOT NULL,
		status         TEXT NOT NULL,
		paid_date      TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		notification_id UUID PRIMARY KEY,
		user_id         UUID NOT NULL REFERENCES users (user_id),
		book_id         UUID NOT NULL REFERENCES books (book_id),
		fine_id         UUID REFERENCES fines (fine_id),
		message         TEXT NOT NULL,
		reminder_date   TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema applies the table definitions. Safe to call on every startup.
func (e *Engine) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := e.db.Exec(ctx, stmt); err != nil {
			return errors.Join(ErrExecFailed, err)
		}
	}

	return nil
}
