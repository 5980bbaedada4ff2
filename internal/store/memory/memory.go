// Package memory implements the store contracts with plain maps guarded by
// a single mutex. It backs the unit tests and the no-database development
// mode of the server.
//
// A unit of work stages all writes on a deep copy of the state and swaps it
// in only on success, so partial writes are never observable. The store
// mutex is held for the whole unit of work, which trivially serializes
// concurrent mutations of the same book.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store"
)

// state is the complete entity state of the store. Units of work operate on
// a copy and commit by replacing the live state.
type state struct {
	books         map[uuid.UUID]*model.Book
	users         map[uuid.UUID]*model.User
	transactions  map[uuid.UUID]*model.Transaction
	fines         map[uuid.UUID]*model.Fine
	notifications map[uuid.UUID]*model.Notification
}

func newState() *state {
	return &state{
		books:         make(map[uuid.UUID]*model.Book),
		users:         make(map[uuid.UUID]*model.User),
		transactions:  make(map[uuid.UUID]*model.Transaction),
		fines:         make(map[uuid.UUID]*model.Fine),
		notifications: make(map[uuid.UUID]*model.Notification),
	}
}

// clone deep-copies the state so staged writes cannot leak into live data.
func (st *state) clone() *state {
	cp := newState()

	for id, b := range st.books {
		book := *b
		cp.books[id] = &book
	}

	for id, u := range st.users {
		user := *u
		cp.users[id] = &user
	}

	for id, t := range st.transactions {
		txn := *t
		if t.ReturnDate != nil {
			rd := *t.ReturnDate
			txn.ReturnDate = &rd
		}
		cp.transactions[id] = &txn
	}

	for id, f := range st.fines {
		fine := *f
		if f.PaidDate != nil {
			pd := *f.PaidDate
			fine.PaidDate = &pd
		}
		cp.fines[id] = &fine
	}

	for id, n := range st.notifications {
		notification := *n
		cp.notifications[id] = &notification
	}

	return cp
}

// Store implements store.Store and store.UnitOfWork in memory.
type Store struct {
	mu     sync.Mutex
	state  *state
	logger store.Logger
}

// Option defines a functional option for configuring the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger store.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty in-memory store.
func NewStore(options ...Option) *Store {
	s := &Store{state: newState()}

	for _, option := range options {
		option(s)
	}

	return s
}

// Execute runs fn against a staged copy of the state. The copy replaces the
// live state only when fn succeeds; the store mutex is held throughout, so
// units of work are fully serialized.
func (s *Store) Execute(ctx context.Context, fn func(ctx context.Context, view store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &view{state: s.state.clone()}

	if err := fn(ctx, staged); err != nil {
		return err
	}

	s.state = staged.state

	return nil
}

// view exposes the entity state of one unit of work.
type view struct {
	state *state
}

// Plain reads and writes outside a unit of work lock briefly and operate on
// the live state through a single-shot view.

func (s *Store) run(fn func(v *view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(&view{state: s.state})
}

// --- Books ---

func (s *Store) CreateBook(ctx context.Context, book *model.Book) error {
	return s.run(func(v *view) error { return v.CreateBook(ctx, book) })
}

func (s *Store) BookByID(ctx context.Context, id uuid.UUID) (book *model.Book, err error) {
	err = s.run(func(v *view) error { book, err = v.BookByID(ctx, id); return err })
	return book, err
}

func (s *Store) Books(ctx context.Context) (books []*model.Book, err error) {
	err = s.run(func(v *view) error { books, err = v.Books(ctx); return err })
	return books, err
}

func (s *Store) UpdateBook(ctx context.Context, book *model.Book) error {
	return s.run(func(v *view) error { return v.UpdateBook(ctx, book) })
}

func (s *Store) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return s.run(func(v *view) error { return v.DeleteBook(ctx, id) })
}

func (v *view) CreateBook(_ context.Context, book *model.Book) error {
	stored := *book
	v.state.books[book.ID] = &stored
	return nil
}

func (v *view) BookByID(_ context.Context, id uuid.UUID) (*model.Book, error) {
	book, ok := v.state.books[id]
	if !ok {
		return nil, model.NewNotFound("Book", id)
	}

	cp := *book
	return &cp, nil
}

func (v *view) Books(_ context.Context) ([]*model.Book, error) {
	books := make([]*model.Book, 0, len(v.state.books))
	for _, b := range v.state.books {
		cp := *b
		books = append(books, &cp)
	}

	return books, nil
}

func (v *view) UpdateBook(_ context.Context, book *model.Book) error {
	if _, ok := v.state.books[book.ID]; !ok {
		return model.NewNotFound("Book", book.ID)
	}

	stored := *book
	v.state.books[book.ID] = &stored
	return nil
}

func (v *view) DeleteBook(_ context.Context, id uuid.UUID) error {
	if _, ok := v.state.books[id]; !ok {
		return model.NewNotFound("Book", id)
	}

	delete(v.state.books, id)
	return nil
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return s.run(func(v *view) error { return v.CreateUser(ctx, user) })
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (user *model.User, err error) {
	err = s.run(func(v *view) error { user, err = v.UserByID(ctx, id); return err })
	return user, err
}

func (s *Store) UserByUsername(ctx context.Context, username string) (user *model.User, err error) {
	err = s.run(func(v *view) error { user, err = v.UserByUsername(ctx, username); return err })
	return user, err
}

func (v *view) CreateUser(_ context.Context, user *model.User) error {
	stored := *user
	v.state.users[user.ID] = &stored
	return nil
}

func (v *view) UserByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := v.state.users[id]
	if !ok {
		return nil, model.NewNotFound("User", id)
	}

	cp := *user
	return &cp, nil
}

func (v *view) UserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range v.state.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}

	return nil, &model.NotFoundError{Entity: "User", ID: username}
}

// --- Transactions ---

func (s *Store) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	return s.run(func(v *view) error { return v.CreateTransaction(ctx, txn) })
}

func (s *Store) TransactionByID(ctx context.Context, id uuid.UUID) (txn *model.Transaction, err error) {
	err = s.run(func(v *view) error { txn, err = v.TransactionByID(ctx, id); return err })
	return txn, err
}

func (s *Store) Transactions(ctx context.Context) (txns []*model.Transaction, err error) {
	err = s.run(func(v *view) error { txns, err = v.Transactions(ctx); return err })
	return txns, err
}

func (s *Store) TransactionByBookAndUser(ctx context.Context, bookID, userID uuid.UUID) (txn *model.Transaction, err error) {
	err = s.run(func(v *view) error { txn, err = v.TransactionByBookAndUser(ctx, bookID, userID); return err })
	return txn, err
}

func (s *Store) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	return s.run(func(v *view) error { return v.UpdateTransaction(ctx, txn) })
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return s.run(func(v *view) error { return v.DeleteTransaction(ctx, id) })
}

func (v *view) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	stored := copyTransaction(txn)
	v.state.transactions[txn.ID] = stored
	return nil
}

func (v *view) TransactionByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	txn, ok := v.state.transactions[id]
	if !ok {
		return nil, model.NewNotFound("Transaction", id)
	}

	return copyTransaction(txn), nil
}

func (v *view) Transactions(_ context.Context) ([]*model.Transaction, error) {
	txns := make([]*model.Transaction, 0, len(v.state.transactions))
	for _, t := range v.state.transactions {
		txns = append(txns, copyTransaction(t))
	}

	return txns, nil
}

// TransactionByBookAndUser mirrors the postgres lookup: an open loan takes
// precedence, otherwise the most recently issued one; (nil, nil) if none.
func (v *view) TransactionByBookAndUser(_ context.Context, bookID, userID uuid.UUID) (*model.Transaction, error) {
	var best *model.Transaction

	for _, t := range v.state.transactions {
		if t.BookID != bookID || t.UserID != userID {
			continue
		}

		if best == nil || betterMatch(t, best) {
			best = t
		}
	}

	if best == nil {
		return nil, nil
	}

	return copyTransaction(best), nil
}

// betterMatch ranks open loans above returned ones, then newer issue dates.
func betterMatch(candidate, current *model.Transaction) bool {
	if candidate.Open() != current.Open() {
		return candidate.Open()
	}

	return candidate.IssueDate.After(current.IssueDate)
}

func (v *view) UpdateTransaction(_ context.Context, txn *model.Transaction) error {
	if _, ok := v.state.transactions[txn.ID]; !ok {
		return model.NewNotFound("Transaction", txn.ID)
	}

	v.state.transactions[txn.ID] = copyTransaction(txn)
	return nil
}

func (v *view) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	if _, ok := v.state.transactions[id]; !ok {
		return model.NewNotFound("Transaction", id)
	}

	delete(v.state.transactions, id)
	return nil
}

func copyTransaction(t *model.Transaction) *model.Transaction {
	cp := *t
	if t.ReturnDate != nil {
		rd := *t.ReturnDate
		cp.ReturnDate = &rd
	}

	return &cp
}

// --- Fines ---

func (s *Store) CreateFine(ctx context.Context, fine *model.Fine) error {
	return s.run(func(v *view) error { return v.CreateFine(ctx, fine) })
}

func (s *Store) FineByID(ctx context.Context, id uuid.UUID) (fine *model.Fine, err error) {
	err = s.run(func(v *view) error { fine, err = v.FineByID(ctx, id); return err })
	return fine, err
}

func (s *Store) Fines(ctx context.Context) (fines []*model.Fine, err error) {
	err = s.run(func(v *view) error { fines, err = v.Fines(ctx); return err })
	return fines, err
}

func (s *Store) FineByTransaction(ctx context.Context, transactionID uuid.UUID) (fine *model.Fine, err error) {
	err = s.run(func(v *view) error { fine, err = v.FineByTransaction(ctx, transactionID); return err })
	return fine, err
}

func (s *Store) UpdateFine(ctx context.Context, fine *model.Fine) error {
	return s.run(func(v *view) error { return v.UpdateFine(ctx, fine) })
}

func (s *Store) DeleteFine(ctx context.Context, id uuid.UUID) error {
	return s.run(func(v *view) error { return v.DeleteFine(ctx, id) })
}

func (v *view) CreateFine(_ context.Context, fine *model.Fine) error {
	v.state.fines[fine.ID] = copyFine(fine)
	return nil
}

func (v *view) FineByID(_ context.Context, id uuid.UUID) (*model.Fine, error) {
	fine, ok := v.state.fines[id]
	if !ok {
		return nil, model.NewNotFound("Fine", id)
	}

	return copyFine(fine), nil
}

func (v *view) Fines(_ context.Context) ([]*model.Fine, error) {
	fines := make([]*model.Fine, 0, len(v.state.fines))
	for _, f := range v.state.fines {
		fines = append(fines, copyFine(f))
	}

	return fines, nil
}

func (v *view) FineByTransaction(_ context.Context, transactionID uuid.UUID) (*model.Fine, error) {
	for _, f := range v.state.fines {
		if f.TransactionID == transactionID {
			return copyFine(f), nil
		}
	}

	return nil, nil
}

func (v *view) UpdateFine(_ context.Context, fine *model.Fine) error {
	if _, ok := v.state.fines[fine.ID]; !ok {
		return model.NewNotFound("Fine", fine.ID)
	}

	v.state.fines[fine.ID] = copyFine(fine)
	return nil
}

func (v *view) DeleteFine(_ context.Context, id uuid.UUID) error {
	if _, ok := v.state.fines[id]; !ok {
		return model.NewNotFound("Fine", id)
	}

	delete(v.state.fines, id)
	return nil
}

func copyFine(f *model.Fine) *model.Fine {
	cp := *f
	if f.PaidDate != nil {
		pd := *f.PaidDate
		cp.PaidDate = &pd
	}

	return &cp
}

// --- Notifications ---

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	return s.run(func(v *view) error { return v.CreateNotification(ctx, n) })
}

func (s *Store) NotificationByID(ctx context.Context, id uuid.UUID) (n *model.Notification, err error) {
	err = s.run(func(v *view) error { n, err = v.NotificationByID(ctx, id); return err })
	return n, err
}

func (s *Store) Notifications(ctx context.Context) (ns []*model.Notification, err error) {
	err = s.run(func(v *view) error { ns, err = v.Notifications(ctx); return err })
	return ns, err
}

func (s *Store) UpdateNotification(ctx context.Context, n *model.Notification) error {
	return s.run(func(v *view) error { return v.UpdateNotification(ctx, n) })
}

func (s *Store) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	return s.run(func(v *view) error { return v.DeleteNotification(ctx, id) })
}

func (v *view) CreateNotification(_ context.Context, n *model.Notification) error {
	stored := *n
	v.state.notifications[n.ID] = &stored
	return nil
}

func (v *view) NotificationByID(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	n, ok := v.state.notifications[id]
	if !ok {
		return nil, model.NewNotFound("Notification", id)
	}

	cp := *n
	return &cp, nil
}

func (v *view) Notifications(_ context.Context) ([]*model.Notification, error) {
	ns := make([]*model.Notification, 0, len(v.state.notifications))
	for _, n := range v.state.notifications {
		cp := *n
		ns = append(ns, &cp)
	}

	return ns, nil
}

func (v *view) UpdateNotification(_ context.Context, n *model.Notification) error {
	if _, ok := v.state.notifications[n.ID]; !ok {
		return model.NewNotFound("Notification", n.ID)
	}

	stored := *n
	v.state.notifications[n.ID] = &stored
	return nil
}

func (v *view) DeleteNotification(_ context.Context, id uuid.UUID) error {
	if _, ok := v.state.notifications[id]; !ok {
		return model.NewNotFound("Notification", id)
	}

	delete(v.state.notifications, id)
	return nil
}

var (
	_ store.Store      = (*Store)(nil)
	_ store.UnitOfWork = (*Store)(nil)
	_ store.Store      = (*view)(nil)
)
