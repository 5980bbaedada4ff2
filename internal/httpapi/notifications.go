package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/notify"
	"library-circulation/internal/store"
)

// NotificationsHandler serves the notification endpoints.
type NotificationsHandler struct {
	notify *notify.Dispatcher
	store  store.Store
}

// NewNotificationsHandler creates the handler for notification endpoints.
func NewNotificationsHandler(dispatcher *notify.Dispatcher, s store.Store) *NotificationsHandler {
	return &NotificationsHandler{notify: dispatcher, store: s}
}

type createNotificationRequest struct {
	BookID   uuid.UUID `json:"book_id"`
	Username string    `json:"username"`
}

func (req createNotificationRequest) validate() error {
	if req.BookID == uuid.Nil {
		return &model.ValidationError{Field: "book_id", Message: "must not be empty"}
	}
	if req.Username == "" {
		return &model.ValidationError{Field: "username", Message: "must not be empty"}
	}

	return nil
}

type updateNotificationRequest struct {
	FineID   uuid.UUID `json:"fine_id"`
	BookID   uuid.UUID `json:"book_id"`
	Username string    `json:"username"`
	Message  string    `json:"message"`
}

func (req updateNotificationRequest) validate() error {
	if req.FineID == uuid.Nil {
		return &model.ValidationError{Field: "fine_id", Message: "must not be empty"}
	}
	if req.BookID == uuid.Nil {
		return &model.ValidationError{Field: "book_id", Message: "must not be empty"}
	}
	if req.Username == "" {
		return &model.ValidationError{Field: "username", Message: "must not be empty"}
	}
	if req.Message == "" {
		return &model.ValidationError{Field: "message", Message: "must not be empty"}
	}

	return nil
}

// Create handles POST /api/notifications by recording a return reminder.
func (h *NotificationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Message: "malformed json"})
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	notification, err := h.notify.BorrowReminder(r.Context(), req.BookID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, notification)
}

// Update handles PUT /api/notifications/{id} as a full replace.
func (h *NotificationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Message: "malformed json"})
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	notification, err := h.notify.Update(r.Context(), id, req.FineID, req.BookID, req.Username, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notification)
}

// List handles GET /api/notifications.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.store.Notifications(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

// Get handles GET /api/notifications/{id}.
func (h *NotificationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	notification, err := h.store.NotificationByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notification)
}

// Delete handles DELETE /api/notifications/{id}.
func (h *NotificationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.notify.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
