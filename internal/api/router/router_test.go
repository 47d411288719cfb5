package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mydesiresalon/salon-api/internal/appointments"
	"github.com/mydesiresalon/salon-api/internal/attendants"
	"github.com/mydesiresalon/salon-api/internal/notify"
	"github.com/mydesiresalon/salon-api/internal/users"
	"github.com/mydesiresalon/salon-api/pkg/logging"
)

type fixture struct {
	handler     http.Handler
	userID      string
	attendantID string
}

const adminSecret = "admin-secret"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := logging.Default()

	userRepo := users.NewInMemoryRepository()
	user, err := userRepo.Create(ctx, &users.SignupRequest{
		Name: "Ada", Email: "ada@example.com", Password: "password123",
	}, "hash")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	attendantRepo := attendants.NewInMemoryRepository()
	attendant, err := attendantRepo.Create(ctx, &attendants.CreateRequest{
		Name: "Bola", Email: "bola@salon.example",
	})
	if err != nil {
		t.Fatalf("seed attendant: %v", err)
	}

	store := notify.NewMemoryStore()
	dispatcher := notify.NewDispatcher(store, []notify.Channel{
		notify.NewEmailChannel(notify.NewStubEmailSender(logger), ""),
	}, logger, nil)

	svc := appointments.NewService(
		appointments.NewInMemoryRepository(),
		appointments.NewUserDirectory(userRepo),
		appointments.NewAttendantDirectory(attendantRepo),
		dispatcher,
		logger,
	)

	handler := New(&Config{
		Logger:              logger,
		UsersHandler:        users.NewHandler(userRepo, "auth-secret", time.Minute, logger),
		AttendantsHandler:   attendants.NewHandler(attendantRepo, logger),
		AppointmentsHandler: appointments.NewHandler(svc, logger),
		NotifyHandler:       notify.NewHandler(store, logger),
		AdminAuthSecret:     adminSecret,
	})

	return &fixture{handler: handler, userID: user.ID, attendantID: attendant.ID}
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(adminSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBookingFlowThroughRouter(t *testing.T) {
	f := newFixture(t)

	body, _ := json.Marshal(appointments.BookingRequest{
		UserID:        f.userID,
		AttendantID:   f.attendantID,
		Service:       "braiding",
		ScheduledTime: time.Now().Add(48 * time.Hour).UTC(),
	})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var appt appointments.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Confirming without the admin token is rejected.
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/"+appt.ID+"/confirm", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated confirm: expected 401, got %d", rec.Code)
	}

	// With the token it succeeds.
	req := httptest.NewRequest(http.MethodPost, "/appointments/"+appt.ID+"/confirm", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Lifecycle notifications landed in the inbox.
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications?user_id="+f.userID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("notifications: expected 200, got %d", rec.Code)
	}
	var inbox notify.ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &inbox); err != nil {
		t.Fatalf("decode inbox: %v", err)
	}
	if inbox.Count < 2 {
		t.Fatalf("expected booking + confirmation notifications, got %d", inbox.Count)
	}
}

func TestAttendantCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	body, _ := json.Marshal(attendants.CreateRequest{Name: "New", Email: "new@salon.example"})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attendants", bytes.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/attendants", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}
