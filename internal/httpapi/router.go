// Package httpapi exposes the circulation core over a JSON REST interface.
//
// Routing, decoding and status mapping live here; all business rules stay
// in the circulation, fines, notify and inventory packages.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"library-circulation/internal/circulation"
	"library-circulation/internal/fines"
	"library-circulation/internal/model"
	"library-circulation/internal/notify"
	"library-circulation/internal/store"
)

// Deps carries the collaborators the HTTP layer dispatches into.
type Deps struct {
	Circulation *circulation.Service
	Fines       *fines.Engine
	Notify      *notify.Dispatcher
	Store       store.Store
	Logger      store.Logger
}

// NewRouter builds the chi router with all API routes mounted.
func NewRouter(deps Deps) *chi.Mux {
	transactionsHandler := NewTransactionsHandler(deps.Circulation, deps.Store)
	finesHandler := NewFinesHandler(deps.Fines, deps.Store)
	notificationsHandler := NewNotificationsHandler(deps.Notify, deps.Store)
	booksHandler := NewBooksHandler(deps.Store)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", transactionsHandler.List)
			r.Get("/{id}", transactionsHandler.Get)
			r.Post("/borrow", transactionsHandler.Borrow)
			r.Put("/return", transactionsHandler.Return)
			r.Delete("/{id}", transactionsHandler.Delete)
		})

		r.Route("/fines", func(r chi.Router) {
			r.Get("/", finesHandler.List)
			r.Get("/{id}", finesHandler.Get)
			r.Post("/", finesHandler.Create)
			r.Put("/", finesHandler.Pay)
			r.Get("/check/{transactionId}", finesHandler.Check)
			r.Delete("/{id}", finesHandler.Delete)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationsHandler.List)
			r.Get("/{id}", notificationsHandler.Get)
			r.Post("/", notificationsHandler.Create)
			r.Put("/{id}", notificationsHandler.Update)
			r.Delete("/{id}", notificationsHandler.Delete)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", booksHandler.List)
			r.Get("/{id}", booksHandler.Get)
			r.Post("/", booksHandler.Create)
		})
	})

	return r
}

// pathID parses a uuid URL parameter, reporting a validation error on junk.
func pathID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &model.ValidationError{Field: param, Message: "must be a valid uuid"}
	}

	return id, nil
}
