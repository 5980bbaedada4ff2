package fines

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/internal/model"
	"library-circulation/internal/notify"
	"library-circulation/internal/store/memory"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store  *memory.Store
	engine *Engine
	book   *model.Book
	user   *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	memStore := memory.NewStore()

	book := &model.Book{
		ID:       uuid.New(),
		Title:    "Domain-Driven Design",
		Author:   "Eric Evans",
		Quantity: 1,
		Status:   model.BookStatusAvailable,
	}
	require.NoError(t, memStore.CreateBook(context.Background(), book))

	user := &model.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
	}
	require.NoError(t, memStore.CreateUser(context.Background(), user))

	clock := func() time.Time { return fixedNow }
	dispatcher := notify.NewDispatcher(memStore, notify.WithClock(clock))
	engine := NewEngine(memStore, dispatcher, WithClock(clock))

	return &testEnv{store: memStore, engine: engine, book: book, user: user}
}

// seedTransaction creates a loan issued a month before fixedNow, so its due
// date is exactly fixedNow. returnedAt nil keeps the loan open.
func (env *testEnv) seedTransaction(t *testing.T, returnedAt *time.Time) *model.Transaction {
	t.Helper()

	txn := model.NewTransaction(env.book.ID, env.user.ID, fixedNow.AddDate(0, -1, 0))
	txn.ReturnDate = returnedAt
	require.NoError(t, env.store.CreateTransaction(context.Background(), txn))

	return txn
}

func Test_CreateFine_LateReturn(t *testing.T) {
	env := newTestEnv(t)
	lateReturn := fixedNow.Add(24 * time.Hour)
	txn := env.seedTransaction(t, &lateReturn)

	fine, err := env.engine.CreateFine(context.Background(), txn.ID)

	require.NoError(t, err)
	assert.Equal(t, txn.ID, fine.TransactionID)
	assert.Equal(t, model.FlatFineAmount, fine.Amount)
	assert.Equal(t, model.FineStatusUnpaid, fine.Status)
	assert.Nil(t, fine.PaidDate)
}

func Test_CreateFine_ReturnOnDueDateStillOwes(t *testing.T) {
	env := newTestEnv(t)
	onDueDate := fixedNow
	txn := env.seedTransaction(t, &onDueDate)

	fine, err := env.engine.CreateFine(context.Background(), txn.ID)

	require.NoError(t, err)
	assert.Equal(t, model.FlatFineAmount, fine.Amount)
}

func Test_CreateFine_ReturnBeforeDueDate(t *testing.T) {
	env := newTestEnv(t)
	earlyReturn := fixedNow.Add(-24 * time.Hour)
	txn := env.seedTransaction(t, &earlyReturn)

	_, err := env.engine.CreateFine(context.Background(), txn.ID)

	assert.ErrorIs(t, err, model.ErrNoFineRequired)
}

func Test_CreateFine_OpenLoanCanBeFined(t *testing.T) {
	env := newTestEnv(t)
	txn := env.seedTransaction(t, nil)

	fine, err := env.engine.CreateFine(context.Background(), txn.ID)

	require.NoError(t, err)
	assert.Equal(t, txn.ID, fine.TransactionID)
}

func Test_CreateFine_UnknownTransaction(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.CreateFine(context.Background(), uuid.New())

	assert.True(t, model.IsNotFound(err))
}

func Test_CreateFine_SecondFineRejected(t *testing.T) {
	env := newTestEnv(t)
	lateReturn := fixedNow.Add(24 * time.Hour)
	txn := env.seedTransaction(t, &lateReturn)

	_, err := env.engine.CreateFine(context.Background(), txn.ID)
	require.NoError(t, err)

	_, err = env.engine.CreateFine(context.Background(), txn.ID)

	assert.ErrorIs(t, err, model.ErrFineExists)
}

func Test_CreateFine_RecordsFineNotice(t *testing.T) {
	env := newTestEnv(t)
	lateReturn := fixedNow.Add(24 * time.Hour)
	txn := env.seedTransaction(t, &lateReturn)
	ctx := context.Background()

	fine, err := env.engine.CreateFine(ctx, txn.ID)
	require.NoError(t, err)

	notifications, err := env.store.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.FineNoticeMessage, notifications[0].Message)
	assert.Equal(t, env.user.ID, notifications[0].UserID)
	assert.Equal(t, env.book.ID, notifications[0].BookID)
	require.True(t, notifications[0].FineID.Valid)
	assert.Equal(t, fine.ID, notifications[0].FineID.UUID)
	assert.Equal(t, fixedNow, notifications[0].ReminderDate)
}

func Test_PayFine_Success(t *testing.T) {
	env := newTestEnv(t)
	lateReturn := fixedNow.Add(24 * time.Hour)
	txn := env.seedTransaction(t, &lateReturn)
	ctx := context.Background()

	fine, err := env.engine.CreateFine(ctx, txn.ID)
	require.NoError(t, err)

	paid, err := env.engine.PayFine(ctx, fine.ID)

	require.NoError(t, err)
	assert.Equal(t, model.FineStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, fixedNow, *paid.PaidDate)
}

func Test_PayFine_Twice(t *testing.T) {
	env := newTestEnv(t)
	lateReturn := fixedNow.Add(24 * time.Hour)
	txn := env.seedTransaction(t, &lateReturn)
	ctx := context.Background()

	fine, err := env.engine.CreateFine(ctx, txn.ID)
	require.NoError(t, err)

	_, err = env.engine.PayFine(ctx, fine.ID)
	require.NoError(t, err)

	_, err = env.engine.PayFine(ctx, fine.ID)

	assert.ErrorIs(t, err, model.ErrAlreadyPaid)
}

func Test_PayFine_UnknownFine(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.PayFine(context.Background(), uuid.New())

	assert.True(t, model.IsNotFound(err))
}

func Test_CheckAndCreateFine_CreatesForLateReturn(t *testing.T) {
	env := newTestEnv(t)
	lateReturn := fixedNow.Add(24 * time.Hour)
	txn := env.seedTransaction(t, &lateReturn)
	ctx := context.Background()

	created, err := env.engine.CheckAndCreateFine(ctx, txn.ID)

	require.NoError(t, err)
	assert.True(t, created)

	fine, err := env.store.FineByTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, fine)
	assert.Equal(t, model.FlatFineAmount, fine.Amount)
}

func Test_CheckAndCreateFine_FalseForTimelyReturn(t *testing.T) {
	env := newTestEnv(t)
	earlyReturn := fixedNow.Add(-24 * time.Hour)
	txn := env.seedTransaction(t, &earlyReturn)

	created, err := env.engine.CheckAndCreateFine(context.Background(), txn.ID)

	require.NoError(t, err)
	assert.False(t, created)
}

func Test_CheckAndCreateFine_FalseForUnknownTransaction(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.engine.CheckAndCreateFine(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.False(t, created)
}

func Test_CheckAndCreateFine_FalseWhenFineExists(t *testing.T) {
	env := newTestEnv(t)
	lateReturn := fixedNow.Add(24 * time.Hour)
	txn := env.seedTransaction(t, &lateReturn)
	ctx := context.Background()

	created, err := env.engine.CheckAndCreateFine(ctx, txn.ID)
	require.NoError(t, err)
	require.True(t, created)

	created, err = env.engine.CheckAndCreateFine(ctx, txn.ID)

	require.NoError(t, err)
	assert.False(t, created)

	fines, err := env.store.Fines(ctx)
	require.NoError(t, err)
	assert.Len(t, fines, 1)
}
