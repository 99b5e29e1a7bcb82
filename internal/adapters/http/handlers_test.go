package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	handler "github.com/Andreo9078/orgdirectory/internal/adapters/http"
	"github.com/Andreo9078/orgdirectory/internal/adapters/memory"
	"github.com/Andreo9078/orgdirectory/internal/core/domain"
	"github.com/Andreo9078/orgdirectory/internal/core/usecases"
)

// newTestApp wires a Fiber app against the in-memory store.
func newTestApp(t *testing.T, apiKey string) (*fiber.App, map[string]uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	ids := map[string]uuid.UUID{}

	moscow := &domain.Building{
		ID:       uuid.New(),
		Name:     "Tverskaya 1",
		Location: domain.GeoPoint{Latitude: 55.7558, Longitude: 37.6173},
	}
	kazan := &domain.Building{
		ID:       uuid.New(),
		Name:     "Bauman 5",
		Location: domain.GeoPoint{Latitude: 55.7963, Longitude: 49.1088},
	}
	ids["moscow"] = moscow.ID

	food := &domain.Activity{ID: uuid.New(), Name: "Food", Depth: 1}
	meat := &domain.Activity{ID: uuid.New(), Name: "Meat", Depth: 2}
	if err := food.AddChild(meat); err != nil {
		t.Fatal(err)
	}
	steaks := &domain.Activity{ID: uuid.New(), Name: "Steaks", Depth: 3}
	if err := meat.AddChild(steaks); err != nil {
		t.Fatal(err)
	}
	ids["food"] = food.ID
	ids["meat"] = meat.ID
	ids["steaks"] = steaks.ID

	bakery := &domain.Organization{
		ID:     uuid.New(),
		Name:   "Bakery",
		Phones: []domain.Phone{{Number: "2-222-222"}},
	}
	bakery.AddActivity(food)
	moscow.AddOrganization(bakery)

	garage := &domain.Organization{ID: uuid.New(), Name: "Garage"}
	kazan.AddOrganization(garage)

	ids["bakery"] = bakery.ID
	ids["garage"] = garage.ID

	for _, org := range []*domain.Organization{bakery, garage} {
		if err := store.Organizations().Create(ctx, org); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	deps := &handler.Dependencies{
		Organizations: usecases.NewOrganizationService(store.Organizations()),
		Buildings:     usecases.NewBuildingService(store.Buildings()),
		Activities:    usecases.NewActivityService(store.Activities()),
		APIKey:        apiKey,
		ResponseTTL:   300,
	}

	app := fiber.New()
	handler.SetupRoutes(app, deps)
	return app, ids
}

func doJSON(t *testing.T, app *fiber.App, method, target, apiKey, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func TestAPIKey_Required(t *testing.T) {
	app, _ := newTestApp(t, "secret")

	status, _ := doJSON(t, app, "GET", "/v1/organizations", "", "")
	if status != 401 {
		t.Errorf("expected 401 without key, got %d", status)
	}

	status, _ = doJSON(t, app, "GET", "/v1/organizations", "wrong", "")
	if status != 401 {
		t.Errorf("expected 401 with wrong key, got %d", status)
	}

	status, _ = doJSON(t, app, "GET", "/v1/organizations", "secret", "")
	if status != 200 {
		t.Errorf("expected 200 with valid key, got %d", status)
	}
}

func TestAPIKey_HealthUnauthenticated(t *testing.T) {
	app, _ := newTestApp(t, "secret")
	status, _ := doJSON(t, app, "GET", "/v1/health", "", "")
	if status != 200 {
		t.Errorf("health must not require the key, got %d", status)
	}
}

func TestListOrganizations(t *testing.T) {
	app, _ := newTestApp(t, "")

	status, raw := doJSON(t, app, "GET", "/v1/organizations", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, raw)
	}

	var resp struct {
		Data       []handler.OrganizationResponse `json:"data"`
		Pagination handler.Pagination             `json:"pagination"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 organizations, got %d", len(resp.Data))
	}
	if resp.Data[0].Name != "Bakery" {
		t.Errorf("expected Bakery first, got %s", resp.Data[0].Name)
	}
	if resp.Data[0].Building == nil || resp.Data[0].Building.Address != "Tverskaya 1" {
		t.Error("expected a building summary on the card")
	}
	if len(resp.Data[0].Phones) != 1 || resp.Data[0].Phones[0] != "2-222-222" {
		t.Errorf("expected phone list, got %v", resp.Data[0].Phones)
	}
	if resp.Pagination.Limit != 10 || resp.Pagination.Count != 2 {
		t.Errorf("unexpected pagination echo: %+v", resp.Pagination)
	}
}

func TestListOrganizations_FilterByName(t *testing.T) {
	app, _ := newTestApp(t, "")

	_, raw := doJSON(t, app, "GET", "/v1/organizations?name=bak", "", "")
	var resp struct {
		Data []handler.OrganizationResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "Bakery" {
		t.Errorf("case-insensitive name filter failed: %+v", resp.Data)
	}
}

func TestListOrganizations_LimitClamp(t *testing.T) {
	app, _ := newTestApp(t, "")

	_, raw := doJSON(t, app, "GET", "/v1/organizations?limit=999", "", "")
	var resp struct {
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Pagination.Limit != 50 {
		t.Errorf("expected limit clamped to 50, got %d", resp.Pagination.Limit)
	}

	status, _ := doJSON(t, app, "GET", "/v1/organizations?offset=-1", "", "")
	if status != 400 {
		t.Errorf("expected 400 for negative offset, got %d", status)
	}
}

func TestListOrganizations_BadUUIDFilter(t *testing.T) {
	app, _ := newTestApp(t, "")
	status, _ := doJSON(t, app, "GET", "/v1/organizations?activity_id=not-a-uuid", "", "")
	if status != 400 {
		t.Errorf("expected 400 for malformed activity_id, got %d", status)
	}
}

func TestGetOrganization(t *testing.T) {
	app, ids := newTestApp(t, "")

	status, raw := doJSON(t, app, "GET", "/v1/organizations/"+ids["bakery"].String(), "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var org handler.OrganizationResponse
	if err := json.Unmarshal(raw, &org); err != nil {
		t.Fatal(err)
	}
	if org.Name != "Bakery" {
		t.Errorf("expected Bakery, got %s", org.Name)
	}

	status, _ = doJSON(t, app, "GET", "/v1/organizations/"+uuid.NewString(), "", "")
	if status != 404 {
		t.Errorf("expected 404 for missing id, got %d", status)
	}

	status, _ = doJSON(t, app, "GET", "/v1/organizations/nope", "", "")
	if status != 400 {
		t.Errorf("expected 400 for malformed id, got %d", status)
	}
}

func TestOrganizationsInRadius(t *testing.T) {
	app, _ := newTestApp(t, "")

	// Moscow center, 1 km: only the bakery.
	target := "/v1/organizations/in_radius?lat=55.7558&lon=37.6173&radius=1000"
	status, raw := doJSON(t, app, "GET", target, "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, raw)
	}
	var resp struct {
		Data []handler.OrganizationResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "Bakery" {
		t.Errorf("1km Moscow radius: got %+v", resp.Data)
	}

	status, _ = doJSON(t, app, "GET", "/v1/organizations/in_radius?lat=55.75&lon=37.61", "", "")
	if status != 400 {
		t.Errorf("expected 400 without radius, got %d", status)
	}

	status, _ = doJSON(t, app, "GET", "/v1/organizations/in_radius?radius=100", "", "")
	if status != 400 {
		t.Errorf("expected 400 without lat/lon, got %d", status)
	}
}

func TestOrganizationsInBBox(t *testing.T) {
	app, _ := newTestApp(t, "")

	target := "/v1/organizations/in_bbox?sw_lat=55.5&sw_lon=37.3&ne_lat=56.0&ne_lon=38.0"
	status, raw := doJSON(t, app, "GET", target, "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, raw)
	}
	var resp struct {
		Data []handler.OrganizationResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "Bakery" {
		t.Errorf("Moscow box: got %+v", resp.Data)
	}

	// Inverted corners are rejected.
	inverted := "/v1/organizations/in_bbox?sw_lat=56.0&sw_lon=38.0&ne_lat=55.5&ne_lon=37.3"
	status, _ = doJSON(t, app, "GET", inverted, "", "")
	if status != 400 {
		t.Errorf("expected 400 for inverted box, got %d", status)
	}
}

func TestOrganizationsByActivity(t *testing.T) {
	app, ids := newTestApp(t, "")

	// Subtree search from the Food root finds the bakery linked to it.
	status, raw := doJSON(t, app, "GET", "/v1/organizations/by_activity/"+ids["food"].String(), "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var resp struct {
		Data []handler.OrganizationResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "Bakery" {
		t.Errorf("Food subtree: got %+v", resp.Data)
	}

	status, raw = doJSON(t, app, "GET", "/v1/organizations/by_activity/"+uuid.NewString(), "", "")
	if status != 200 {
		t.Fatalf("unknown root should yield an empty 200, got %d", status)
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 0 {
		t.Errorf("unknown root matched organizations: %+v", resp.Data)
	}
}

func TestGetBuilding(t *testing.T) {
	app, ids := newTestApp(t, "")

	status, raw := doJSON(t, app, "GET", "/v1/buildings/"+ids["moscow"].String(), "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var b handler.BuildingResponse
	if err := json.Unmarshal(raw, &b); err != nil {
		t.Fatal(err)
	}
	if b.Address != "Tverskaya 1" || len(b.Organizations) != 1 {
		t.Errorf("unexpected building payload: %+v", b)
	}
}

func TestCreateChildActivity(t *testing.T) {
	app, ids := newTestApp(t, "")

	status, raw := doJSON(t, app, "POST",
		"/v1/activities/"+ids["food"].String()+"/children", "", `{"name":"Dairy"}`)
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, raw)
	}
	var created handler.ActivityResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatal(err)
	}
	if created.Depth != 2 || created.ParentID == nil || *created.ParentID != ids["food"] {
		t.Errorf("child not wired under Food: %+v", created)
	}
}

func TestCreateChildActivity_DepthLimit(t *testing.T) {
	app, ids := newTestApp(t, "")

	// Steaks sits at the depth cap; a fourth level is rejected.
	status, _ := doJSON(t, app, "POST",
		"/v1/activities/"+ids["steaks"].String()+"/children", "", `{"name":"Ribeye"}`)
	if status != 422 {
		t.Errorf("expected 422 at the depth cap, got %d", status)
	}
}

func TestCreateChildActivity_MissingParent(t *testing.T) {
	app, _ := newTestApp(t, "")
	status, _ := doJSON(t, app, "POST",
		"/v1/activities/"+uuid.NewString()+"/children", "", `{"name":"Orphan"}`)
	if status != 404 {
		t.Errorf("expected 404 for a missing parent, got %d", status)
	}
}

func TestCreateChildActivity_EmptyName(t *testing.T) {
	app, ids := newTestApp(t, "")
	status, _ := doJSON(t, app, "POST",
		"/v1/activities/"+ids["food"].String()+"/children", "", `{"name":""}`)
	if status != 400 {
		t.Errorf("expected 400 for empty name, got %d", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, "secret")

	// Generate at least one observed request before scraping.
	doJSON(t, app, "GET", "/v1/health", "", "")

	// Metrics are outside the authenticated group.
	status, raw := doJSON(t, app, "GET", "/metrics", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(raw), "orgdir_http_requests_total") {
		t.Error("expected orgdir metrics in scrape output")
	}
}
