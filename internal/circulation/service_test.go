package circulation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/internal/inventory"
	"library-circulation/internal/model"
	"library-circulation/internal/notify"
	"library-circulation/internal/store"
	"library-circulation/internal/store/memory"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *memory.Store
	service *Service
	book    *model.Book
	user    *model.User
}

func newTestEnv(t *testing.T, quantity int) *testEnv {
	t.Helper()

	memStore := memory.NewStore()

	status := model.BookStatusAvailable
	if quantity == 0 {
		status = model.BookStatusUnavailable
	}

	book := &model.Book{
		ID:       uuid.New(),
		Title:    "The Go Programming Language",
		Author:   "Alan A. A. Donovan",
		Quantity: quantity,
		Status:   status,
	}
	require.NoError(t, memStore.CreateBook(context.Background(), book))

	user := &model.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
	}
	require.NoError(t, memStore.CreateUser(context.Background(), user))

	clock := func() time.Time { return fixedNow }
	ledger := inventory.NewLedger()
	dispatcher := notify.NewDispatcher(memStore, notify.WithClock(clock))
	service := NewService(memStore, ledger, dispatcher, WithClock(clock))

	return &testEnv{store: memStore, service: service, book: book, user: user}
}

func Test_Borrow_Success(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	txn, err := env.service.Borrow(ctx, env.book.ID, env.user.Username)

	require.NoError(t, err)
	assert.Equal(t, env.book.ID, txn.BookID)
	assert.Equal(t, env.user.ID, txn.UserID)
	assert.Equal(t, fixedNow, txn.IssueDate)
	assert.Equal(t, fixedNow.AddDate(0, 1, 0), txn.DueDate)
	assert.Nil(t, txn.ReturnDate)

	book, err := env.store.BookByID(ctx, env.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.Quantity)
	assert.Equal(t, model.BookStatusAvailable, book.Status)
}

func Test_Borrow_RecordsReminderTwoWeeksOut(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	_, err := env.service.Borrow(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	notifications, err := env.store.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.BorrowReminderMessage, notifications[0].Message)
	assert.Equal(t, env.user.ID, notifications[0].UserID)
	assert.Equal(t, env.book.ID, notifications[0].BookID)
	assert.Equal(t, fixedNow.Add(14*24*time.Hour), notifications[0].ReminderDate)
}

func Test_Borrow_LastCopyFlipsStatusToUnavailable(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	_, err := env.service.Borrow(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	book, err := env.store.BookByID(ctx, env.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, book.Quantity)
	assert.Equal(t, model.BookStatusUnavailable, book.Status)
}

func Test_Borrow_UnknownBook(t *testing.T) {
	env := newTestEnv(t, 1)

	_, err := env.service.Borrow(context.Background(), uuid.New(), env.user.Username)

	assert.True(t, model.IsNotFound(err))
}

func Test_Borrow_UnknownUser(t *testing.T) {
	env := newTestEnv(t, 1)

	_, err := env.service.Borrow(context.Background(), env.book.ID, "nobody")

	assert.True(t, model.IsNotFound(err))
}

func Test_Borrow_BookUnavailable(t *testing.T) {
	env := newTestEnv(t, 0)

	_, err := env.service.Borrow(context.Background(), env.book.ID, env.user.Username)

	var stateErr *model.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.ReasonBookUnavailable, stateErr.Reason)
}

func Test_Borrow_AlreadyBorrowed(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()

	_, err := env.service.Borrow(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	_, err = env.service.Borrow(ctx, env.book.ID, env.user.Username)

	var stateErr *model.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.ReasonAlreadyBorrowed, stateErr.Reason)
}

func Test_Borrow_AgainAfterReturnIsAllowed(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	_, err := env.service.Borrow(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	_, err = env.service.Return(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	txn, err := env.service.Borrow(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)
	assert.Nil(t, txn.ReturnDate)
}

func Test_Borrow_RollsBackWhenReminderFails(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	failing := &failingNotifier{err: errors.New("notification storage broken")}
	service := NewService(env.store, inventory.NewLedger(), failing, WithClock(func() time.Time { return fixedNow }))

	_, err := service.Borrow(ctx, env.book.ID, env.user.Username)
	require.Error(t, err)

	// The whole unit of work must have rolled back: no loan, full stock.
	txns, err := env.store.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txns)

	book, err := env.store.BookByID(ctx, env.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.Quantity)
	assert.Equal(t, model.BookStatusAvailable, book.Status)
}

func Test_Borrow_TwoUsersRaceForLastCopy(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	second := &model.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}
	require.NoError(t, env.store.CreateUser(ctx, second))

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for _, username := range []string{env.user.Username, second.Username} {
		wg.Add(1)
		go func(username string) {
			defer wg.Done()
			_, err := env.service.Borrow(ctx, env.book.ID, username)
			results <- err
		}(username)
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			// The loser sees the book either drained or already flipped to
			// unavailable, depending on which check it hits first.
			var stateErr *model.InvalidStateError
			require.ErrorAs(t, err, &stateErr)
			assert.Contains(t, []model.InvalidStateReason{model.ReasonOutOfStock, model.ReasonBookUnavailable}, stateErr.Reason)
			failures++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)

	book, err := env.store.BookByID(ctx, env.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, book.Quantity)
}

func Test_Return_Success(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	_, err := env.service.Borrow(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	txn, err := env.service.Return(ctx, env.book.ID, env.user.Username)

	require.NoError(t, err)
	require.NotNil(t, txn.ReturnDate)
	assert.Equal(t, fixedNow, *txn.ReturnDate)

	book, err := env.store.BookByID(ctx, env.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.Quantity)
	assert.Equal(t, model.BookStatusAvailable, book.Status)
}

func Test_Return_NotBorrowed(t *testing.T) {
	env := newTestEnv(t, 1)

	_, err := env.service.Return(context.Background(), env.book.ID, env.user.Username)

	var stateErr *model.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.ReasonNotBorrowed, stateErr.Reason)
}

func Test_Return_AlreadyReturned(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	_, err := env.service.Borrow(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	_, err = env.service.Return(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	_, err = env.service.Return(ctx, env.book.ID, env.user.Username)

	var stateErr *model.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.ReasonAlreadyReturned, stateErr.Reason)
}

func Test_Return_UnknownBook(t *testing.T) {
	env := newTestEnv(t, 1)

	_, err := env.service.Return(context.Background(), uuid.New(), env.user.Username)

	assert.True(t, model.IsNotFound(err))
}

// A full borrow-and-return round trip on a single-copy book: stock drains to
// zero and flips unavailable on borrow, then refills and flips back on return.
func Test_BorrowReturn_RoundTripOnSingleCopy(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	_, err := env.service.Borrow(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	book, err := env.store.BookByID(ctx, env.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, book.Quantity)
	assert.Equal(t, model.BookStatusUnavailable, book.Status)

	_, err = env.service.Return(ctx, env.book.ID, env.user.Username)
	require.NoError(t, err)

	book, err = env.store.BookByID(ctx, env.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.Quantity)
	assert.Equal(t, model.BookStatusAvailable, book.Status)
}

type failingNotifier struct {
	err error
}

func (f *failingNotifier) RecordBorrowReminder(_ context.Context, _ store.Store, _ uuid.UUID, _ string) (*model.Notification, error) {
	return nil, f.err
}
