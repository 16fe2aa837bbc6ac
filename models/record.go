package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// TemporaryIDPrefix marks ids generated on the client for records the server has not created yet.
const TemporaryIDPrefix = "temp-"

// NewTemporaryID returns a fresh client-side placeholder id
func NewTemporaryID() string {
	return TemporaryIDPrefix + uuid.NewString()
}

// IsTemporaryID reports whether id was generated by NewTemporaryID
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TemporaryIDPrefix)
}

// IconSize is the marker size class of a landmark
type IconSize string

const (
	IconSmall  IconSize = "small"
	IconMedium IconSize = "medium"
	IconLarge  IconSize = "large"
)

// Valid reports whether s is one of the known size classes
func (s IconSize) Valid() bool {
	switch s {
	case IconSmall, IconMedium, IconLarge:
		return true
	}
	return false
}

// AreaRecord is a polygon drawn on the map together with its display attributes
// and optional market statistics.
type AreaRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Boundary    Ring    `json:"boundary"`
	Color       string  `json:"color"`
	FillOpacity float64 `json:"fillOpacity"`

	AveragePrice *float64 `json:"averagePrice,omitempty"`
	SalesVolume  *int64   `json:"salesVolume,omitempty"`
	CapitalGain  *float64 `json:"capitalGain,omitempty"` // percent
	RentalYield  *float64 `json:"rentalYield,omitempty"` // percent

	// computed by the server from the boundary
	CenterLat float64 `json:"centerLat,omitempty"`
	CenterLon float64 `json:"centerLon,omitempty"`
}

// Clone deep-copies the record so the copy shares no memory with the original
func (a AreaRecord) Clone() AreaRecord {
	out := a
	out.Boundary = a.Boundary.Clone()
	out.AveragePrice = cloneFloat(a.AveragePrice)
	out.SalesVolume = cloneInt(a.SalesVolume)
	out.CapitalGain = cloneFloat(a.CapitalGain)
	out.RentalYield = cloneFloat(a.RentalYield)
	return out
}

// Equal compares geometry and displayed attributes. Server-computed centers are ignored.
func (a AreaRecord) Equal(b AreaRecord) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.Color == b.Color &&
		a.FillOpacity == b.FillOpacity &&
		a.Boundary.Equal(b.Boundary) &&
		equalFloat(a.AveragePrice, b.AveragePrice) &&
		equalInt(a.SalesVolume, b.SalesVolume) &&
		equalFloat(a.CapitalGain, b.CapitalGain) &&
		equalFloat(a.RentalYield, b.RentalYield)
}

// Validate checks that the required fields are present. Geometry shape is left to the server.
func (a AreaRecord) Validate() error {
	var missing []string
	if a.Boundary == nil {
		missing = append(missing, "boundary")
	}
	if a.Color == "" {
		missing = append(missing, "color")
	}
	if a.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("area %q missing required fields: %s", a.ID, strings.Join(missing, ", "))
	}
	return nil
}

// LandmarkRecord is a single point of interest on the map
type LandmarkRecord struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Color    string   `json:"color"`
	IconSize IconSize `json:"iconSize"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Clone returns a copy of the record. LandmarkRecord holds no references, the method exists
// so both record kinds can be handled the same way.
func (l LandmarkRecord) Clone() LandmarkRecord {
	return l
}

// Equal compares location and displayed attributes
func (l LandmarkRecord) Equal(o LandmarkRecord) bool {
	return l == o
}

// Validate checks that the required fields are present
func (l LandmarkRecord) Validate() error {
	var missing []string
	if l.Color == "" {
		missing = append(missing, "color")
	}
	if l.IconSize == "" {
		missing = append(missing, "iconSize")
	}
	if len(missing) > 0 {
		return fmt.Errorf("landmark %q missing required fields: %s", l.ID, strings.Join(missing, ", "))
	}
	return nil
}

// AreaPatch lists the area fields to change. A nil field means "leave unchanged".
type AreaPatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Color       *string  `json:"color,omitempty"`
	FillOpacity *float64 `json:"fillOpacity,omitempty"`

	AveragePrice *float64 `json:"averagePrice,omitempty"`
	SalesVolume  *int64   `json:"salesVolume,omitempty"`
	CapitalGain  *float64 `json:"capitalGain,omitempty"`
	RentalYield  *float64 `json:"rentalYield,omitempty"`
}

// Apply returns a copy of a with the patch merged in
func (p AreaPatch) Apply(a AreaRecord) AreaRecord {
	out := a.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.FillOpacity != nil {
		out.FillOpacity = *p.FillOpacity
	}
	if p.AveragePrice != nil {
		out.AveragePrice = cloneFloat(p.AveragePrice)
	}
	if p.SalesVolume != nil {
		out.SalesVolume = cloneInt(p.SalesVolume)
	}
	if p.CapitalGain != nil {
		out.CapitalGain = cloneFloat(p.CapitalGain)
	}
	if p.RentalYield != nil {
		out.RentalYield = cloneFloat(p.RentalYield)
	}
	return out
}

// LandmarkPatch lists the landmark fields to change. A nil field means "leave unchanged".
type LandmarkPatch struct {
	Name     *string   `json:"name,omitempty"`
	Color    *string   `json:"color,omitempty"`
	IconSize *IconSize `json:"iconSize,omitempty"`
	ImageURL *string   `json:"imageUrl,omitempty"`
	Category *string   `json:"category,omitempty"`
}

// Apply returns a copy of l with the patch merged in
func (p LandmarkPatch) Apply(l LandmarkRecord) LandmarkRecord {
	out := l
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.IconSize != nil {
		out.IconSize = *p.IconSize
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	return out
}

// BatchUpdateRequest carries the modified records of one save
type BatchUpdateRequest struct {
	Areas     []AreaRecord     `json:"areas"`
	Landmarks []LandmarkRecord `json:"landmarks"`
}

// Empty reports whether the request carries no records
func (r BatchUpdateRequest) Empty() bool {
	return len(r.Areas) == 0 && len(r.Landmarks) == 0
}

// DecodeStrict decodes exactly one JSON value from r into v, rejecting unknown fields
// and trailing data.
func DecodeStrict(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// DecodeAreas strictly decodes a JSON array of areas and checks required fields
func DecodeAreas(data []byte) ([]AreaRecord, error) {
	var areas []AreaRecord
	if err := DecodeStrict(bytes.NewReader(data), &areas); err != nil {
		return nil, fmt.Errorf("failed to decode areas: %w", err)
	}
	for _, a := range areas {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	return areas, nil
}

// DecodeLandmarks strictly decodes a JSON array of landmarks and checks required fields
func DecodeLandmarks(data []byte) ([]LandmarkRecord, error) {
	var landmarks []LandmarkRecord
	if err := DecodeStrict(bytes.NewReader(data), &landmarks); err != nil {
		return nil, fmt.Errorf("failed to decode landmarks: %w", err)
	}
	for _, l := range landmarks {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}
	return landmarks, nil
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
