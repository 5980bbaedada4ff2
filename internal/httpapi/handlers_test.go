package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/internal/circulation"
	"library-circulation/internal/fines"
	"library-circulation/internal/inventory"
	"library-circulation/internal/model"
	"library-circulation/internal/notify"
	"library-circulation/internal/store/memory"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type apiEnv struct {
	store  *memory.Store
	server *httptest.Server
	book   *model.Book
	user   *model.User
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	memStore := memory.NewStore()

	book := &model.Book{
		ID:       uuid.New(),
		Title:    "The Go Programming Language",
		Author:   "Alan A. A. Donovan",
		Quantity: 2,
		Status:   model.BookStatusAvailable,
	}
	require.NoError(t, memStore.CreateBook(context.Background(), book))

	user := &model.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	require.NoError(t, memStore.CreateUser(context.Background(), user))

	clock := func() time.Time { return fixedNow }
	ledger := inventory.NewLedger()
	dispatcher := notify.NewDispatcher(memStore, notify.WithClock(clock))
	fineEngine := fines.NewEngine(memStore, dispatcher, fines.WithClock(clock))
	service := circulation.NewService(memStore, ledger, dispatcher, circulation.WithClock(clock))

	router := NewRouter(Deps{
		Circulation: service,
		Fines:       fineEngine,
		Notify:      dispatcher,
		Store:       memStore,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &apiEnv{store: memStore, server: server, book: book, user: user}
}

func (env *apiEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req, err := http.NewRequest(method, env.server.URL+path, &reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp, decoded
}

func (env *apiEnv) borrow(t *testing.T) uuid.UUID {
	t.Helper()

	resp, body := env.do(t, http.MethodPost, "/api/transactions/borrow", map[string]any{
		"book_id":  env.book.ID,
		"username": env.user.Username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	txnID, err := uuid.Parse(body["id"].(string))
	require.NoError(t, err)

	return txnID
}

func Test_Healthz(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func Test_BorrowEndpoint_Success(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/transactions/borrow", map[string]any{
		"book_id":  env.book.ID,
		"username": env.user.Username,
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, env.book.ID.String(), body["book_id"])
	assert.Equal(t, env.user.ID.String(), body["user_id"])
}

func Test_BorrowEndpoint_UnknownBookIs404(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/transactions/borrow", map[string]any{
		"book_id":  uuid.New(),
		"username": env.user.Username,
	})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NotFound", body["error"])
}

func Test_BorrowEndpoint_DoubleBorrowIs400(t *testing.T) {
	env := newAPIEnv(t)
	env.borrow(t)

	resp, body := env.do(t, http.MethodPost, "/api/transactions/borrow", map[string]any{
		"book_id":  env.book.ID,
		"username": env.user.Username,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidState:AlreadyBorrowed", body["error"])
}

func Test_BorrowEndpoint_MissingUsernameIs400(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/transactions/borrow", map[string]any{
		"book_id": env.book.ID,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation", body["error"])
}

func Test_ReturnEndpoint_Success(t *testing.T) {
	env := newAPIEnv(t)
	env.borrow(t)

	resp, body := env.do(t, http.MethodPut, "/api/transactions/return", map[string]any{
		"book_id":  env.book.ID,
		"username": env.user.Username,
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["return_date"])
}

func Test_ReturnEndpoint_NotBorrowedIs400(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodPut, "/api/transactions/return", map[string]any{
		"book_id":  env.book.ID,
		"username": env.user.Username,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidState:NotBorrowed", body["error"])
}

func Test_TransactionsEndpoint_GetAndList(t *testing.T) {
	env := newAPIEnv(t)
	txnID := env.borrow(t)

	resp, body := env.do(t, http.MethodGet, "/api/transactions/"+txnID.String(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, txnID.String(), body["id"])

	resp, _ = env.do(t, http.MethodGet, "/api/transactions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_TransactionsEndpoint_MalformedIDIs400(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/transactions/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation", body["error"])
}

func Test_FinesEndpoint_CreateAndPay(t *testing.T) {
	env := newAPIEnv(t)
	txnID := env.borrow(t)
	// An open loan can be fined, no need to simulate a late return here.

	resp, body := env.do(t, http.MethodPost, "/api/fines/", map[string]any{
		"transaction_id": txnID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, model.FlatFineAmount, body["amount"])
	assert.Equal(t, string(model.FineStatusUnpaid), body["status"])

	fineID := body["id"].(string)

	resp, body = env.do(t, http.MethodPut, "/api/fines/", map[string]any{
		"fine_id": fineID,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(model.FineStatusPaid), body["status"])

	resp, body = env.do(t, http.MethodPut, "/api/fines/", map[string]any{
		"fine_id": fineID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "AlreadyPaid", body["error"])
}

func Test_FinesEndpoint_SecondCreateIs400(t *testing.T) {
	env := newAPIEnv(t)
	txnID := env.borrow(t)

	resp, _ := env.do(t, http.MethodPost, "/api/fines/", map[string]any{"transaction_id": txnID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/fines/", map[string]any{"transaction_id": txnID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "FineExists", body["error"])
}

func Test_FinesCheckEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	txnID := env.borrow(t)

	// First check creates the fine.
	resp, body := env.do(t, http.MethodGet, fmt.Sprintf("/api/fines/check/%s", txnID), nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["fine_created"])

	// Second check finds it existing and reports false with 200.
	resp, body = env.do(t, http.MethodGet, fmt.Sprintf("/api/fines/check/%s", txnID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["fine_created"])

	// A missing transaction is an expected outcome, not an error.
	resp, body = env.do(t, http.MethodGet, "/api/fines/check/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["fine_created"])
}

func Test_NotificationsEndpoint_CreateAndDelete(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/notifications/", map[string]any{
		"book_id":  env.book.ID,
		"username": env.user.Username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, model.BorrowReminderMessage, body["message"])

	notificationID := body["id"].(string)

	resp, body = env.do(t, http.MethodDelete, "/api/notifications/"+notificationID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["deleted"])

	resp, _ = env.do(t, http.MethodGet, "/api/notifications/"+notificationID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_BooksEndpoint_CreateDerivesStatus(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/books/", map[string]any{
		"title":    "Clean Architecture",
		"author":   "Robert C. Martin",
		"quantity": 0,
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, string(model.BookStatusUnavailable), body["status"])

	resp, body = env.do(t, http.MethodPost, "/api/books/", map[string]any{
		"title":    "Refactoring",
		"author":   "Martin Fowler",
		"quantity": 2,
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, string(model.BookStatusAvailable), body["status"])
}

// Walks a full circulation lifecycle over the API: borrow drains one of two
// copies, a repeat borrow by the same user is rejected, the return restores
// stock, and a fine is owed because the return lands exactly on the due date.
func Test_CirculationLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	resp, body := env.do(t, http.MethodPost, "/api/transactions/borrow", map[string]any{
		"book_id":  env.book.ID,
		"username": env.user.Username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	txnID := body["id"].(string)

	book, err := env.store.BookByID(ctx, env.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.Quantity)

	resp, body = env.do(t, http.MethodPost, "/api/transactions/borrow", map[string]any{
		"book_id":  env.book.ID,
		"username": env.user.Username,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidState:AlreadyBorrowed", body["error"])

	resp, _ = env.do(t, http.MethodPut, "/api/transactions/return", map[string]any{
		"book_id":  env.book.ID,
		"username": env.user.Username,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	book, err = env.store.BookByID(ctx, env.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, book.Quantity)

	// The fixed clock never advances, so issue and return land one month
	// apart only in the stored due date; force the on-due-date case.
	loaded, err := env.store.TransactionByID(ctx, uuid.MustParse(txnID))
	require.NoError(t, err)
	onDueDate := loaded.DueDate
	loaded.ReturnDate = &onDueDate
	require.NoError(t, env.store.UpdateTransaction(ctx, loaded))

	resp, body = env.do(t, http.MethodPost, "/api/fines/", map[string]any{
		"transaction_id": txnID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, model.FlatFineAmount, body["amount"])
}

func Test_BooksEndpoint_ValidationErrors(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/books/", map[string]any{
		"author":   "Anonymous",
		"quantity": 1,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation", body["error"])

	resp, body = env.do(t, http.MethodPost, "/api/books/", map[string]any{
		"title":    "Untitled",
		"author":   "Anonymous",
		"quantity": -1,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation", body["error"])
}
