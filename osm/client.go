package osm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"map-editor/models"
)

const (
	OSMBaseURL = "https://www.openstreetmap.org/api/0.6"
)

// Client represents an OSM API client
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// NewClient creates a new OSM API client
func NewClient() *Client {
	return &Client{
		BaseURL: OSMBaseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: "map-editor/1.0",
	}
}

// FetchRelationFull fetches a relation with all its members (nodes, ways, and sub-relations)
func (client *Client) FetchRelationFull(ctx context.Context, relationID int64) (*OSM, error) {
	url := fmt.Sprintf("%s/relation/%d/full", client.BaseURL, relationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// required by the OSM API usage policy
	req.Header.Set("User-Agent", client.UserAgent)

	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSM request failed with status %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	osm, err := ParseOSMFromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OSM data: %w", err)
	}
	return osm, nil
}

// Boundary is the outline of one relation ready to become an area
type Boundary struct {
	RelationID int64
	Name       string
	AdminLevel int
	Ring       models.Ring
}

// FetchBoundary fetches a relation and assembles its closed outer ring
func (client *Client) FetchBoundary(ctx context.Context, relationID int64) (*Boundary, error) {
	osm, err := client.FetchRelationFull(ctx, relationID)
	if err != nil {
		return nil, err
	}
	relation, ok := osm.FindRelationByID(relationID)
	if !ok {
		return nil, fmt.Errorf("relation %d missing from response", relationID)
	}
	ring, err := osm.RelationBoundary(relation)
	if err != nil {
		return nil, err
	}
	name := relation.GetName()
	if name == "" {
		name = fmt.Sprintf("relation %d", relationID)
	}
	return &Boundary{
		RelationID: relationID,
		Name:       name,
		AdminLevel: relation.GetAdminLevel(),
		Ring:       ring,
	}, nil
}
