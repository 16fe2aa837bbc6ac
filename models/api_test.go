package models

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestListAreas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, http.MethodGet)
		assert.Equal(t, r.URL.Path, "/api/areas")
		_, _ = w.Write([]byte(`[{"id":"1","name":"Marina","boundary":[[55.1,25.0],[55.2,25.0],[55.2,25.1],[55.1,25.0]],"color":"#fff","fillOpacity":0.3,"centerLat":25.03,"centerLon":55.16}]`))
	}))
	defer server.Close()

	client := NewMapApiClient(server.URL+"/api/", "")
	areas, err := client.ListAreas(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, len(areas), 1)
	assert.Equal(t, areas[0].Name, "Marina")
	assert.Equal(t, areas[0].Boundary.Closed(), true)
}

func TestCreateAreaStripsID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, http.MethodPost)
		assert.Equal(t, r.Header.Get("Authorization"), "Bearer secret")

		var sent AreaRecord
		assert.Equal(t, json.NewDecoder(r.Body).Decode(&sent), nil)
		assert.Equal(t, sent.ID, "")

		sent.ID = "srv-9"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(sent)
	}))
	defer server.Close()

	client := NewMapApiClient(server.URL, "secret")
	created, err := client.CreateArea(context.Background(), AreaRecord{
		ID:       "temp-123",
		Name:     "JVC",
		Boundary: Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}},
		Color:    "#000",
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, created.ID, "srv-9")
	assert.Equal(t, created.Name, "JVC")
}

func TestBatchUpdateSendsEmptyArrays(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, http.MethodPut)
		assert.Equal(t, r.URL.Path, "/batch-update")
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, string(body), `{"areas":[],"landmarks":[{"id":"4","lat":1,"lng":2,"color":"#fff","iconSize":"small"}]}`)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewMapApiClient(server.URL, "")
	err := client.BatchUpdate(context.Background(), BatchUpdateRequest{
		Landmarks: []LandmarkRecord{{ID: "4", Lat: 1, Lng: 2, Color: "#fff", IconSize: IconSmall}},
	})
	assert.Equal(t, err, nil)
}

func TestAPIErrorFromResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"boundary must be a closed ring"}`))
	}))
	defer server.Close()

	client := NewMapApiClient(server.URL, "")
	err := client.DeleteArea(context.Background(), "5")

	var apiErr *APIError
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.StatusCode, http.StatusUnprocessableEntity)
	assert.Equal(t, apiErr.Message, "boundary must be a closed ring")
}

func TestUploadLandmarkImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/landmarks/8/image")
		file, header, err := r.FormFile("image")
		assert.Equal(t, err, nil)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, header.Filename, "burj.png")
		assert.Equal(t, string(data), "png-bytes")

		_, _ = w.Write([]byte(`{"id":"8","lat":25.19,"lng":55.27,"color":"#fff","iconSize":"large","imageUrl":"http://img/burj.png"}`))
	}))
	defer server.Close()

	client := NewMapApiClient(server.URL, "")
	landmark, err := client.UploadLandmarkImage(context.Background(), "8", "burj.png", []byte("png-bytes"))
	assert.Equal(t, err, nil)
	assert.Equal(t, landmark.ImageURL, "http://img/burj.png")
}
