package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newInboxRouter(store Store) *chi.Mux {
	h := NewHandler(store, nil)
	r := chi.NewRouter()
	r.Get("/notifications", h.List)
	r.Post("/notifications/{notificationID}/read", h.MarkRead)
	return r
}

func TestHandlerList(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Insert(context.Background(), "u1", "hello"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := newInboxRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications?user_id=u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Notifications[0].Message != "hello" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandlerListMissingUser(t *testing.T) {
	r := newInboxRouter(NewMemoryStore())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerListEmpty(t *testing.T) {
	r := newInboxRouter(NewMemoryStore())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications?user_id=u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 0 || resp.Notifications == nil {
		t.Fatalf("expected empty array, got %+v", resp)
	}
}

func TestHandlerMarkRead(t *testing.T) {
	store := NewMemoryStore()
	n, err := store.Insert(context.Background(), "u1", "hello")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := newInboxRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/"+n.ID+"/read", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/missing/read", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
