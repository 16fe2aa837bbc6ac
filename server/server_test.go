package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"

	"map-editor/models"
	"map-editor/repositories"
	"map-editor/services"
)

// fakeService keeps records in memory and remembers the last actor that wrote
type fakeService struct {
	mu        sync.Mutex
	areas     []models.AreaRecord
	landmarks []models.LandmarkRecord
	nextID    int
	lastActor string
	lastBatch models.BatchUpdateRequest
	images    map[string]string
	failWith  error
}

func newFakeService() *fakeService {
	return &fakeService{nextID: 10, images: map[string]string{}}
}

func (f *fakeService) ListAreas(ctx context.Context) ([]models.AreaRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.areas, nil
}

func (f *fakeService) ListLandmarks(ctx context.Context) ([]models.LandmarkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.landmarks, nil
}

func (f *fakeService) CreateArea(ctx context.Context, area models.AreaRecord) (models.AreaRecord, error) {
	if err := services.ValidateArea(area); err != nil {
		return models.AreaRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	area.ID = fmt.Sprint(f.nextID)
	f.lastActor = services.ActorFrom(ctx)
	f.areas = append(f.areas, area)
	return area, nil
}

func (f *fakeService) CreateLandmark(ctx context.Context, landmark models.LandmarkRecord) (models.LandmarkRecord, error) {
	if err := services.ValidateLandmark(landmark); err != nil {
		return models.LandmarkRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	landmark.ID = fmt.Sprint(f.nextID)
	f.lastActor = services.ActorFrom(ctx)
	f.landmarks = append(f.landmarks, landmark)
	return landmark, nil
}

func (f *fakeService) BatchUpdate(ctx context.Context, req models.BatchUpdateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBatch = req
	f.lastActor = services.ActorFrom(ctx)
	return nil
}

func (f *fakeService) DeleteArea(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.areas {
		if a.ID == id {
			f.areas = append(f.areas[:i], f.areas[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("area %s: %w", id, repositories.ErrNotFound)
}

func (f *fakeService) DeleteLandmark(ctx context.Context, id string) error {
	return fmt.Errorf("landmark %s: %w", id, repositories.ErrNotFound)
}

func (f *fakeService) UploadLandmarkImage(ctx context.Context, id, fileName string, data []byte) (models.LandmarkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.landmarks {
		if l.ID == id {
			f.landmarks[i].ImageURL = "http://images/" + fileName
			f.images[id] = string(data)
			return f.landmarks[i], nil
		}
	}
	return models.LandmarkRecord{}, repositories.ErrNotFound
}

func (f *fakeService) SearchAreas(ctx context.Context, query string) ([]models.AreaRecord, error) {
	var out []models.AreaRecord
	for _, a := range f.areas {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(query)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeService) AreasAt(ctx context.Context, lat, lon float64) ([]models.AreaRecord, error) {
	if lat > 90 {
		return nil, &services.ValidationError{Field: "location", Message: "is out of range"}
	}
	return nil, nil
}

func testArea(name string) models.AreaRecord {
	return models.AreaRecord{
		Name:        name,
		Boundary:    models.Ring{{55.25, 25.18}, {55.29, 25.18}, {55.29, 25.20}, {55.25, 25.18}},
		Color:       "#3388ff",
		FillOpacity: 0.4,
	}
}

func newTestServer(t *testing.T, secret string) (*httptest.Server, *fakeService) {
	t.Helper()
	svc := newFakeService()
	ts := httptest.NewServer(New(svc, secret).Routes("/api"))
	t.Cleanup(ts.Close)
	return ts, svc
}

func TestClientRoundTrip(t *testing.T) {
	ts, svc := newTestServer(t, "")
	client := models.NewMapApiClient(ts.URL+"/api", "")
	ctx := context.Background()

	areas, err := client.ListAreas(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(areas), 0)

	created, err := client.CreateArea(ctx, testArea("Downtown"))
	assert.Equal(t, err, nil)
	assert.Equal(t, created.ID, "11")
	assert.Equal(t, svc.lastActor, "system")

	marker, err := client.CreateLandmark(ctx, models.LandmarkRecord{Lat: 25.19, Lng: 55.27, Color: "#f00", IconSize: models.IconSmall})
	assert.Equal(t, err, nil)

	created.Color = "#000"
	err = client.BatchUpdate(ctx, models.BatchUpdateRequest{Areas: []models.AreaRecord{created}})
	assert.Equal(t, err, nil)
	assert.Equal(t, len(svc.lastBatch.Areas), 1)
	assert.Equal(t, len(svc.lastBatch.Landmarks), 0)

	updated, err := client.UploadLandmarkImage(ctx, marker.ID, "tower.png", []byte("png-bytes"))
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.ImageURL, "http://images/tower.png")
	assert.Equal(t, svc.images[marker.ID], "png-bytes")

	assert.Equal(t, client.DeleteArea(ctx, created.ID), nil)

	err = client.DeleteArea(ctx, created.ID)
	var apiErr *models.APIError
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.StatusCode, http.StatusNotFound)
}

func TestCreateAreaValidationIs422(t *testing.T) {
	ts, _ := newTestServer(t, "")
	client := models.NewMapApiClient(ts.URL+"/api", "")

	bad := testArea("Downtown")
	bad.Color = "blue"
	_, err := client.CreateArea(context.Background(), bad)

	var apiErr *models.APIError
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.StatusCode, http.StatusUnprocessableEntity)
	assert.Equal(t, strings.Contains(apiErr.Message, "color"), true)
}

func TestUnknownFieldIs400(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/areas", "application/json", strings.NewReader(`{"name":"x","shape":"circle"}`))
	assert.Equal(t, err, nil)
	defer resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusBadRequest)
	assert.Equal(t, resp.Header.Get("cache-control"), "no-store")
}

func TestInternalErrorsAreHidden(t *testing.T) {
	ts, svc := newTestServer(t, "")
	svc.failWith = errors.New("pq: connection refused")

	resp, err := http.Get(ts.URL + "/api/areas")
	assert.Equal(t, err, nil)
	defer resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusInternalServerError)

	var body map[string]string
	assert.Equal(t, json.NewDecoder(resp.Body).Decode(&body), nil)
	assert.Equal(t, body["error"], "internal server error")
}

func TestAreasAtQuery(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/areas/at?lat=abc&lng=1")
	assert.Equal(t, err, nil)
	resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusBadRequest)

	resp, err = http.Get(ts.URL + "/api/areas/at?lat=95&lng=1")
	assert.Equal(t, err, nil)
	resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusUnprocessableEntity)

	resp, err = http.Get(ts.URL + "/api/areas/at?lat=25.19&lng=55.27")
	assert.Equal(t, err, nil)
	defer resp.Body.Close()
	var areas []models.AreaRecord
	assert.Equal(t, json.NewDecoder(resp.Body).Decode(&areas), nil)
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	assert.Equal(t, areas != nil, true)
}

func TestSearchRequiresQuery(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/areas/search")
	assert.Equal(t, err, nil)
	resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusBadRequest)
}

func TestAuthOnMutatingRoutes(t *testing.T) {
	const secret = "test-secret"
	ts, svc := newTestServer(t, secret)
	auth := NewAuthenticator(secret)
	ctx := context.Background()

	// reads stay public
	_, err := models.NewMapApiClient(ts.URL+"/api", "").ListAreas(ctx)
	assert.Equal(t, err, nil)

	var apiErr *models.APIError
	_, err = models.NewMapApiClient(ts.URL+"/api", "").CreateArea(ctx, testArea("A"))
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.StatusCode, http.StatusUnauthorized)

	forged, err := NewAuthenticator("other-secret").Sign("mallory", adminRole)
	assert.Equal(t, err, nil)
	_, err = models.NewMapApiClient(ts.URL+"/api", forged).CreateArea(ctx, testArea("A"))
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.StatusCode, http.StatusUnauthorized)

	viewer, err := auth.Sign("viewer@example.com", "viewer")
	assert.Equal(t, err, nil)
	_, err = models.NewMapApiClient(ts.URL+"/api", viewer).CreateArea(ctx, testArea("A"))
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.StatusCode, http.StatusForbidden)

	admin, err := auth.Sign("admin@example.com", adminRole)
	assert.Equal(t, err, nil)
	_, err = models.NewMapApiClient(ts.URL+"/api", admin).CreateArea(ctx, testArea("A"))
	assert.Equal(t, err, nil)
	assert.Equal(t, svc.lastActor, "admin@example.com")
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/healthz")
	assert.Equal(t, err, nil)
	resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusOK)

	resp, err = http.Get(ts.URL + "/api/metrics")
	assert.Equal(t, err, nil)
	resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusOK)
}
