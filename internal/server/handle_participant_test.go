package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playcadiz/pokeruta/internal/database"
	"github.com/playcadiz/pokeruta/internal/migrations"
	"github.com/playcadiz/pokeruta/internal/ratelimit"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A pooled second connection would see its own empty in-memory database.
	db.SetMaxOpenConns(1)

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	store := NewSQLiteStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := SeedCatalog(ctx, logger, store); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return store
}

func participantRouter(t *testing.T) (*chi.Mux, *SQLiteStore) {
	t.Helper()
	store := setupStore(t)
	broker := NewBroker()

	r := chi.NewRouter()
	r.Get("/api/stops", handleListStops(store))
	r.Post("/api/register", handleRegister(store, broker))
	r.Post("/api/capture", handleCapture(store, broker))
	r.Post("/api/finish", handleFinish(store, broker))
	r.Get("/api/profile", handleProfile(store))
	return r, store
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r http.Handler, nick, email string) string {
	t.Helper()
	w := postJSON(t, r, "/api/register", RegisterRequest{Nick: nick, Email: email, Consent: true})
	if w.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp RegisterResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp.ParticipantID
}

func capture(t *testing.T, r http.Handler, email, code string) CaptureResponse {
	t.Helper()
	w := postJSON(t, r, "/api/capture", CaptureRequest{Email: email, Code: code})
	if w.Code != http.StatusOK {
		t.Fatalf("capture %s: expected 200, got %d: %s", code, w.Code, w.Body.String())
	}
	var resp CaptureResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

func TestRegisterUpsert(t *testing.T) {
	r, _ := participantRouter(t)

	first := register(t, r, "Ash", "ash@gmail.com")
	if first == "" {
		t.Fatal("expected a participant id")
	}

	// Same email registers again with a new nick: same row, nick updated.
	second := register(t, r, "Ketchum", "Ash@Gmail.com ")
	if second != first {
		t.Errorf("repeat register created a new participant: %q != %q", second, first)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/profile?email=ash@gmail.com", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var profile ProfileResponse
	json.NewDecoder(w.Body).Decode(&profile)
	if profile.Participant.Nick != "Ketchum" {
		t.Errorf("expected updated nick Ketchum, got %q", profile.Participant.Nick)
	}
}

func TestRegisterValidation(t *testing.T) {
	r, _ := participantRouter(t)

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing nick", RegisterRequest{Email: "ash@gmail.com", Consent: true}},
		{"malformed email", RegisterRequest{Nick: "Ash", Email: "not-an-email", Consent: true}},
		{"disallowed domain", RegisterRequest{Nick: "Ash", Email: "ash@unknownmail.xyz", Consent: true}},
		{"missing consent", RegisterRequest{Nick: "Ash", Email: "ash@gmail.com"}},
	}

	for _, tc := range cases {
		if w := postJSON(t, r, "/api/register", tc.req); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestCaptureIdempotent(t *testing.T) {
	r, store := participantRouter(t)
	register(t, r, "Ash", "ash@gmail.com")

	first := capture(t, r, "ash@gmail.com", "stop-1")
	if first.AlreadyCaptured {
		t.Error("first scan should not report alreadyCaptured")
	}
	if first.Progress != 1 {
		t.Errorf("expected progress 1, got %d", first.Progress)
	}
	if first.Pokemon.Name != "Tortillita" {
		t.Errorf("expected Tortillita at stop-1, got %q", first.Pokemon.Name)
	}

	participant, err := store.ParticipantByEmail(context.Background(), "ash@gmail.com")
	if err != nil {
		t.Fatalf("participant lookup: %v", err)
	}
	before, _ := store.ListCaptures(context.Background(), participant.ID)

	second := capture(t, r, "ash@gmail.com", "stop-1")
	if !second.AlreadyCaptured {
		t.Error("re-scan should report alreadyCaptured")
	}
	if second.Progress != 1 {
		t.Errorf("re-scan should not change progress, got %d", second.Progress)
	}

	after, _ := store.ListCaptures(context.Background(), participant.ID)
	if len(after) != 1 || after[0].CapturedAt != before[0].CapturedAt {
		t.Error("re-scan must not change the stored capture row")
	}
}

func TestCaptureErrors(t *testing.T) {
	r, store := participantRouter(t)
	register(t, r, "Ash", "ash@gmail.com")

	// Unregistered email.
	w := postJSON(t, r, "/api/capture", CaptureRequest{Email: "misty@gmail.com", Code: "stop-1"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unregistered: expected 404, got %d", w.Code)
	}

	// Unknown QR token.
	w = postJSON(t, r, "/api/capture", CaptureRequest{Email: "ash@gmail.com", Code: "stop-99"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown token: expected 404, got %d", w.Code)
	}

	// Inactive stop.
	if err := store.SetStopActive(context.Background(), 2, false); err != nil {
		t.Fatalf("deactivate stop: %v", err)
	}
	w = postJSON(t, r, "/api/capture", CaptureRequest{Email: "ash@gmail.com", Code: "stop-2"})
	if w.Code != http.StatusForbidden {
		t.Errorf("inactive stop: expected 403, got %d", w.Code)
	}
}

func TestFinishFlow(t *testing.T) {
	r, _ := participantRouter(t)
	register(t, r, "Ash", "ash@gmail.com")

	for i, code := range []string{"stop-1", "stop-2", "stop-3", "stop-4"} {
		resp := capture(t, r, "ash@gmail.com", code)
		if resp.AlreadyCaptured || resp.Progress != i+1 {
			t.Fatalf("capture %s: alreadyCaptured=%v progress=%d", code, resp.AlreadyCaptured, resp.Progress)
		}
	}

	// One capture short.
	w := postJSON(t, r, "/api/finish", FinishRequest{Email: "ash@gmail.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("early finish: expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var early struct {
		Error    string `json:"error"`
		Progress int    `json:"progress"`
	}
	json.NewDecoder(w.Body).Decode(&early)
	if early.Progress != 4 {
		t.Errorf("expected progress 4 in failure body, got %d", early.Progress)
	}

	capture(t, r, "ash@gmail.com", "stop-5")

	w = postJSON(t, r, "/api/finish", FinishRequest{Email: "ash@gmail.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("finish: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var finish FinishResponse
	json.NewDecoder(w.Body).Decode(&finish)

	if !regexp.MustCompile(`^[0-9A-F]{8}$`).MatchString(finish.FinishCode) {
		t.Errorf("expected 8-char uppercase code, got %q", finish.FinishCode)
	}

	// Repeat finish returns the same record unchanged.
	w = postJSON(t, r, "/api/finish", FinishRequest{Email: "ash@gmail.com"})
	var again FinishResponse
	json.NewDecoder(w.Body).Decode(&again)
	if again.FinishCode != finish.FinishCode || again.IssuedAt != finish.IssuedAt {
		t.Errorf("repeat finish changed the record: %+v != %+v", again, finish)
	}
}

func TestProfilePokedex(t *testing.T) {
	r, _ := participantRouter(t)
	register(t, r, "Ash", "ash@gmail.com")
	capture(t, r, "ash@gmail.com", "stop-1")
	capture(t, r, "ash@gmail.com", "stop-3")

	req := httptest.NewRequest(http.MethodGet, "/api/profile?email=ash@gmail.com", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var profile ProfileResponse
	json.NewDecoder(w.Body).Decode(&profile)

	if profile.Progress != 2 || len(profile.Captures) != 2 {
		t.Errorf("expected progress 2 with 2 captures, got %d/%d", profile.Progress, len(profile.Captures))
	}
	if len(profile.Pokedex) != 5 {
		t.Fatalf("expected 5 pokedex entries, got %d", len(profile.Pokedex))
	}

	capturedIDs := map[int64]bool{}
	for _, entry := range profile.Pokedex {
		capturedIDs[entry.ID] = entry.Captured
	}
	if !capturedIDs[1] || !capturedIDs[3] || capturedIDs[2] {
		t.Errorf("captured flags wrong: %v", capturedIDs)
	}

	if profile.Pokedex[0].ThumbPath != "/pokemon-local/001-tortillita-thumb.jpg" {
		t.Errorf("unexpected thumb path %q", profile.Pokedex[0].ThumbPath)
	}
	if profile.Finished {
		t.Error("participant should not be finished with 2 captures")
	}
}

func TestListStopsExcludesInactive(t *testing.T) {
	r, store := participantRouter(t)

	if err := store.SetStopActive(context.Background(), 5, false); err != nil {
		t.Fatalf("deactivate stop: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stops", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp StopsResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if len(resp.Stops) != 4 {
		t.Fatalf("expected 4 active stops, got %d", len(resp.Stops))
	}
	for i, st := range resp.Stops {
		if st.Position != i+1 {
			t.Errorf("stops out of route order: %+v", resp.Stops)
			break
		}
	}
}

func TestRegisterRateLimited(t *testing.T) {
	store := setupStore(t)
	broker := NewBroker()
	limiter := ratelimit.New(time.Minute)
	t.Cleanup(limiter.Stop)

	r := chi.NewRouter()
	r.With(rateLimitMiddleware(limiter, 3, time.Minute)).
		Post("/api/register", handleRegister(store, broker))

	for i := 0; i < 3; i++ {
		w := postJSON(t, r, "/api/register", RegisterRequest{Nick: "Ash", Email: "ash@gmail.com", Consent: true})
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := postJSON(t, r, "/api/register", RegisterRequest{Nick: "Ash", Email: "ash@gmail.com", Consent: true})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header on 429")
	}
}
