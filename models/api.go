package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIBaseURL = "http://localhost:8080/api"
)

// ApiInterface is the set of backend operations the map editor depends on
type ApiInterface interface {
	ListAreas(ctx context.Context) ([]AreaRecord, error)
	ListLandmarks(ctx context.Context) ([]LandmarkRecord, error)
	CreateArea(ctx context.Context, area AreaRecord) (AreaRecord, error)
	CreateLandmark(ctx context.Context, landmark LandmarkRecord) (LandmarkRecord, error)
	BatchUpdate(ctx context.Context, req BatchUpdateRequest) error
	DeleteArea(ctx context.Context, id string) error
	DeleteLandmark(ctx context.Context, id string) error
	UploadLandmarkImage(ctx context.Context, id, fileName string, data []byte) (LandmarkRecord, error)
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// MapApiClient talks to the map backend REST API
type MapApiClient struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Token      string
}

// NewMapApiClient creates a new map API client. An empty baseURL falls back to DefaultAPIBaseURL.
func NewMapApiClient(baseURL, token string) *MapApiClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &MapApiClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: "map-editor/1.0",
		Token:     token,
	}
}

// ListAreas fetches every area
func (client *MapApiClient) ListAreas(ctx context.Context) ([]AreaRecord, error) {
	body, err := client.do(ctx, http.MethodGet, "/areas", nil, "")
	if err != nil {
		return nil, err
	}
	return DecodeAreas(body)
}

// ListLandmarks fetches every landmark
func (client *MapApiClient) ListLandmarks(ctx context.Context) ([]LandmarkRecord, error) {
	body, err := client.do(ctx, http.MethodGet, "/landmarks", nil, "")
	if err != nil {
		return nil, err
	}
	return DecodeLandmarks(body)
}

// CreateArea posts the area without its id and returns the stored record
func (client *MapApiClient) CreateArea(ctx context.Context, area AreaRecord) (AreaRecord, error) {
	area.ID = ""
	payload, err := json.Marshal(area)
	if err != nil {
		return AreaRecord{}, fmt.Errorf("failed to marshal area: %w", err)
	}
	body, err := client.do(ctx, http.MethodPost, "/areas", bytes.NewReader(payload), "application/json")
	if err != nil {
		return AreaRecord{}, err
	}

	var created AreaRecord
	if err := DecodeStrict(bytes.NewReader(body), &created); err != nil {
		return AreaRecord{}, fmt.Errorf("failed to decode created area: %w", err)
	}
	if created.ID == "" {
		return AreaRecord{}, fmt.Errorf("server returned area without id")
	}
	return created, nil
}

// CreateLandmark posts the landmark without its id and returns the stored record
func (client *MapApiClient) CreateLandmark(ctx context.Context, landmark LandmarkRecord) (LandmarkRecord, error) {
	landmark.ID = ""
	payload, err := json.Marshal(landmark)
	if err != nil {
		return LandmarkRecord{}, fmt.Errorf("failed to marshal landmark: %w", err)
	}
	body, err := client.do(ctx, http.MethodPost, "/landmarks", bytes.NewReader(payload), "application/json")
	if err != nil {
		return LandmarkRecord{}, err
	}

	var created LandmarkRecord
	if err := DecodeStrict(bytes.NewReader(body), &created); err != nil {
		return LandmarkRecord{}, fmt.Errorf("failed to decode created landmark: %w", err)
	}
	if created.ID == "" {
		return LandmarkRecord{}, fmt.Errorf("server returned landmark without id")
	}
	return created, nil
}

// BatchUpdate sends every modified record in one request
func (client *MapApiClient) BatchUpdate(ctx context.Context, req BatchUpdateRequest) error {
	if req.Areas == nil {
		req.Areas = []AreaRecord{}
	}
	if req.Landmarks == nil {
		req.Landmarks = []LandmarkRecord{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal batch update: %w", err)
	}
	_, err = client.do(ctx, http.MethodPut, "/batch-update", bytes.NewReader(payload), "application/json")
	return err
}

// DeleteArea removes an area by its permanent id
func (client *MapApiClient) DeleteArea(ctx context.Context, id string) error {
	_, err := client.do(ctx, http.MethodDelete, "/areas/"+url.PathEscape(id), nil, "")
	return err
}

// DeleteLandmark removes a landmark by its permanent id
func (client *MapApiClient) DeleteLandmark(ctx context.Context, id string) error {
	_, err := client.do(ctx, http.MethodDelete, "/landmarks/"+url.PathEscape(id), nil, "")
	return err
}

// UploadLandmarkImage uploads an image for a landmark and returns the updated record
func (client *MapApiClient) UploadLandmarkImage(ctx context.Context, id, fileName string, data []byte) (LandmarkRecord, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", fileName)
	if err != nil {
		return LandmarkRecord{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return LandmarkRecord{}, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return LandmarkRecord{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	body, err := client.do(ctx, http.MethodPost, "/landmarks/"+url.PathEscape(id)+"/image", &buf, writer.FormDataContentType())
	if err != nil {
		return LandmarkRecord{}, err
	}
	var updated LandmarkRecord
	if err := DecodeStrict(bytes.NewReader(body), &updated); err != nil {
		return LandmarkRecord{}, fmt.Errorf("failed to decode landmark: %w", err)
	}
	return updated, nil
}

// do sends one request and returns the response body of a 2xx response
func (client *MapApiClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, client.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", client.UserAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if client.Token != "" {
		req.Header.Set("Authorization", "Bearer "+client.Token)
	}

	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return nil, apiErr
	}
	return respBody, nil
}
