package notify

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mydesiresalon/salon-api/pkg/logging"
)

// Handler exposes the notification inbox over HTTP.
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// ListResponse is the response for listing a user's notifications.
type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	Count         int            `json:"count"`
}

// List handles GET /notifications?user_id=… requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	records, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err, "user_id", userID)
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Notifications: records, Count: len(records)})
}

// MarkRead handles POST /notifications/{notificationID}/read requests.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "notificationID")
	if id == "" {
		http.Error(w, "missing notification id", http.StatusBadRequest)
		return
	}

	if err := h.store.MarkRead(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to mark notification read", "error", err, "id", id)
		http.Error(w, "failed to mark notification read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
