package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wayfarerhq/wayfarer/backend/internal/auth"
	"github.com/wayfarerhq/wayfarer/backend/internal/database"
	"github.com/wayfarerhq/wayfarer/backend/internal/ids"
	"github.com/wayfarerhq/wayfarer/backend/internal/planner"
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"github.com/wayfarerhq/wayfarer/backend/internal/trips"
	"github.com/wayfarerhq/wayfarer/backend/internal/users"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := store.NewMemoryStore()
	if err := database.Bootstrap(backend, nil); err != nil {
		t.Fatalf("failed to bootstrap sheets: %v", err)
	}
	provider := ids.NewUUIDProvider()
	userRepo, err := users.NewRepository(users.RepositoryConfig{Store: backend, IDProvider: provider})
	if err != nil {
		t.Fatalf("failed to construct user repository: %v", err)
	}
	tripCfg := trips.RepositoryConfig{Store: backend, IDProvider: provider}
	tripRepo, err := trips.NewRepository(tripCfg)
	if err != nil {
		t.Fatalf("failed to construct trip repository: %v", err)
	}
	itemRepo, err := trips.NewItemRepository(tripCfg)
	if err != nil {
		t.Fatalf("failed to construct item repository: %v", err)
	}
	authService, err := auth.NewService(auth.ServiceConfig{Users: userRepo, Salt: "test-salt", IDProvider: provider})
	if err != nil {
		t.Fatalf("failed to construct auth service: %v", err)
	}
	command, err := planner.NewService(planner.ServiceConfig{
		Trips: tripRepo,
		Items: itemRepo,
		Auth:  authService,
	})
	if err != nil {
		t.Fatalf("failed to construct planner service: %v", err)
	}
	handler, err := NewHTTPHandler(Dependencies{
		Planner: command,
		Clock:   func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("failed to construct handler: %v", err)
	}
	return handler
}

func doAction(t *testing.T, handler http.Handler, action, token string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var request *http.Request
	if payload == nil {
		request = httptest.NewRequest(http.MethodGet, "/api?action="+action, http.NoBody)
	} else {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
		request = httptest.NewRequest(http.MethodPost, "/api?action="+action, bytes.NewReader(encoded))
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	envelope := map[string]any{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not a JSON envelope: %v (%s)", err, recorder.Body.String())
	}
	return recorder, envelope
}

func registerAndLogin(t *testing.T, handler http.Handler, email string) string {
	t.Helper()
	recorder, _ := doAction(t, handler, "register", "", map[string]any{"email": email, "password": "pw", "display_name": "Tester"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("registration failed: %s", recorder.Body.String())
	}
	recorder, envelope := doAction(t, handler, "login", "", map[string]any{"email": email, "password": "pw"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("login failed: %s", recorder.Body.String())
	}
	data := envelope["data"].(map[string]any)
	token, _ := data["auth_token"].(string)
	if token == "" {
		t.Fatalf("login response missing auth_token: %v", envelope)
	}
	return token
}

func TestPingRequiresNoSession(t *testing.T) {
	handler := newTestHandler(t)
	recorder, envelope := doAction(t, handler, "ping", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if envelope["status"] != "success" {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
	data := envelope["data"].(map[string]any)
	if data["message"] != "pong" {
		t.Fatalf("unexpected ping payload: %v", data)
	}
}

func TestProtectedActionWithoutTokenReturnsUnauthorizedEnvelope(t *testing.T) {
	handler := newTestHandler(t)
	recorder, envelope := doAction(t, handler, "getTrips", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if envelope["status"] != "error" || envelope["code"] != float64(401) {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
}

func TestLoginFailureEnvelopeMatchesLegacyShape(t *testing.T) {
	handler := newTestHandler(t)
	recorder, envelope := doAction(t, handler, "login", "", map[string]any{"email": "nobody@example.com", "password": "pw"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if envelope["message"] != "Invalid credentials" || envelope["code"] != float64(401) {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
}

func TestLoginResponseOmitsPasswordHash(t *testing.T) {
	handler := newTestHandler(t)
	token := registerAndLogin(t, handler, "alice@example.com")
	if token == "" {
		t.Fatalf("expected token")
	}
	_, envelope := doAction(t, handler, "login", "", map[string]any{"email": "alice@example.com", "password": "pw"})
	data := envelope["data"].(map[string]any)
	if _, leaked := data["password_hash"]; leaked {
		t.Fatalf("password hash must never serialize: %v", data)
	}
}

func TestTripLifecycleOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	token := registerAndLogin(t, handler, "alice@example.com")

	recorder, envelope := doAction(t, handler, "createTrip", token, map[string]any{
		"title":    "Tokyo",
		"owner_id": "bob@example.com",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("createTrip failed: %s", recorder.Body.String())
	}
	created := envelope["data"].(map[string]any)
	if created["owner_id"] != "alice@example.com" {
		t.Fatalf("owner must be forced to the caller: %v", created)
	}
	tripID := created["id"].(string)

	// JSON numbers for the index fields must land as integer cells.
	recorder, _ = doAction(t, handler, "addItineraryItem", token, map[string]any{
		"trip_id":     tripID,
		"day_index":   1,
		"order_index": 2,
		"name":        "lunch",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("addItineraryItem failed: %s", recorder.Body.String())
	}
	recorder, _ = doAction(t, handler, "addItineraryItem", token, map[string]any{
		"trip_id":     tripID,
		"day_index":   1,
		"order_index": 1,
		"name":        "breakfast",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("addItineraryItem failed: %s", recorder.Body.String())
	}

	recorder, envelope = doAction(t, handler, "getTripDetails", token, map[string]any{"trip_id": tripID})
	if recorder.Code != http.StatusOK {
		t.Fatalf("getTripDetails failed: %s", recorder.Body.String())
	}
	details := envelope["data"].(map[string]any)
	items := details["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %v", items)
	}
	first := items[0].(map[string]any)
	second := items[1].(map[string]any)
	if first["name"] != "breakfast" || second["name"] != "lunch" {
		t.Fatalf("items out of order: %v", items)
	}

	recorder, _ = doAction(t, handler, "deleteTrip", token, map[string]any{"trip_id": tripID})
	if recorder.Code != http.StatusOK {
		t.Fatalf("deleteTrip failed: %s", recorder.Body.String())
	}
	recorder, envelope = doAction(t, handler, "getTripDetails", token, map[string]any{"trip_id": tripID})
	if recorder.Code != http.StatusNotFound || envelope["message"] != "Trip not found" {
		t.Fatalf("deleted trip should be gone: %d %v", recorder.Code, envelope)
	}
}

func TestObjectValuedColumnsRoundTripAsJSON(t *testing.T) {
	handler := newTestHandler(t)
	token := registerAndLogin(t, handler, "alice@example.com")

	_, envelope := doAction(t, handler, "createTrip", token, map[string]any{"title": "Tokyo"})
	tripID := envelope["data"].(map[string]any)["id"].(string)

	recorder, _ := doAction(t, handler, "addItineraryItem", token, map[string]any{
		"trip_id":       tripID,
		"name":          "shrine",
		"location_json": map[string]any{"lat": 35.68, "lng": 139.69},
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("addItineraryItem failed: %s", recorder.Body.String())
	}

	_, envelope = doAction(t, handler, "getTripDetails", token, map[string]any{"trip_id": tripID})
	items := envelope["data"].(map[string]any)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", items)
	}
	stored := items[0].(map[string]any)["location_json"].(string)
	if stored != `{"lat":35.68,"lng":139.69}` {
		t.Fatalf("object payload did not round-trip as a JSON cell: %q", stored)
	}
}

func TestForeignTripReadIsForbidden(t *testing.T) {
	handler := newTestHandler(t)
	aliceToken := registerAndLogin(t, handler, "alice@example.com")
	bobToken := registerAndLogin(t, handler, "bob@example.com")

	_, envelope := doAction(t, handler, "createTrip", aliceToken, map[string]any{"title": "Tokyo"})
	tripID := envelope["data"].(map[string]any)["id"].(string)

	recorder, envelope := doAction(t, handler, "getTripDetails", bobToken, map[string]any{"trip_id": tripID})
	if recorder.Code != http.StatusForbidden || envelope["code"] != float64(403) {
		t.Fatalf("expected forbidden envelope, got %d %v", recorder.Code, envelope)
	}
}

func TestUnknownActionReturnsNotFoundEnvelope(t *testing.T) {
	handler := newTestHandler(t)
	token := registerAndLogin(t, handler, "alice@example.com")
	recorder, envelope := doAction(t, handler, "teleport", token, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if envelope["message"] != "Unknown action: teleport" {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
}

func TestSupersededTokenIsRejectedOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	firstToken := registerAndLogin(t, handler, "alice@example.com")
	_, envelope := doAction(t, handler, "login", "", map[string]any{"email": "alice@example.com", "password": "pw"})
	secondToken := envelope["data"].(map[string]any)["auth_token"].(string)
	if firstToken == secondToken {
		t.Fatalf("tokens must differ between logins")
	}

	recorder, _ := doAction(t, handler, "getTrips", firstToken, nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("superseded token must be rejected, got %d", recorder.Code)
	}
	recorder, _ = doAction(t, handler, "getTrips", secondToken, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("current token must be accepted, got %d", recorder.Code)
	}
}

func TestNewHTTPHandlerRequiresPlanner(t *testing.T) {
	if _, err := NewHTTPHandler(Dependencies{}); err == nil {
		t.Fatalf("expected dependency error")
	}
}
