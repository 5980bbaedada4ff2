// Command seed fills the database with a small catalog and a few borrower
// accounts, for demos and manual testing. It is idempotent on users by
// username but will happily add the catalog again on a second run.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"library-circulation/internal/config"
	"library-circulation/internal/model"
	"library-circulation/internal/store"
	"library-circulation/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := config.PostgresSQLXConfig(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	engine, err := postgres.NewEngineFromSQLX(db, postgres.WithLogger(logger))
	if err != nil {
		return err
	}

	if err := engine.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	return engine.Execute(ctx, func(ctx context.Context, s store.Store) error {
		if err := seedUsers(ctx, s, logger); err != nil {
			return err
		}

		return seedBooks(ctx, s, logger)
	})
}

func seedUsers(ctx context.Context, s store.Store, logger store.Logger) error {
	usernames := []struct {
		username string
		email    string
	}{
		{"alice", "alice@example.com"},
		{"bob", "bob@example.com"},
		{"carol", "carol@example.com"},
	}

	for _, u := range usernames {
		existing, err := s.UserByUsername(ctx, u.username)
		if err == nil {
			logger.Info("user exists, skipping", "username", existing.Username)
			continue
		}
		if !model.IsNotFound(err) {
			return err
		}

		user := &model.User{
			ID:               uuid.New(),
			Username:         u.username,
			Email:            u.email,
			RegistrationDate: time.Now().UTC(),
		}

		if err := s.CreateUser(ctx, user); err != nil {
			return err
		}

		logger.Info("user created", "username", user.Username)
	}

	return nil
}

func seedBooks(ctx context.Context, s store.Store, logger store.Logger) error {
	books := []*model.Book{
		{Title: "The Go Programming Language", Author: "Alan A. A. Donovan", ISBN: "978-0134190440", Quantity: 3, PublishedYear: 2015},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: "978-1449373320", Quantity: 2, PublishedYear: 2017},
		{Title: "Domain-Driven Design", Author: "Eric Evans", ISBN: "978-0321125217", Quantity: 1, PublishedYear: 2003},
		{Title: "The Pragmatic Programmer", Author: "David Thomas", ISBN: "978-0135957059", Quantity: 4, PublishedYear: 2019},
	}

	for _, book := range books {
		book.ID = uuid.New()
		book.Status = model.BookStatusAvailable
		if book.Quantity == 0 {
			book.Status = model.BookStatusUnavailable
		}
		book.CreatedAt = time.Now().UTC()

		if err := s.CreateBook(ctx, book); err != nil {
			return err
		}

		logger.Info("book created", "title", book.Title, "quantity", book.Quantity)
	}

	return nil
}
