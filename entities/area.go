package entities

import (
	"fmt"
	"strconv"

	"map-editor/models"
)

type Area struct {
	ID             uint64   `json:"id" gorm:"column:ID;primaryKey;autoIncrement"`
	Name           string   `json:"name" gorm:"column:NAME"`
	NameNormalized string   `json:"-" gorm:"column:NAME_NORMALIZED;index"`
	Description    string   `json:"description" gorm:"column:DESCRIPTION"`
	Color          string   `json:"color" gorm:"column:COLOR"`
	FillOpacity    float64  `json:"fillOpacity" gorm:"column:FILL_OPACITY"`
	BoundaryJSON   string   `json:"-" gorm:"column:BOUNDARY_JSON"`
	AveragePrice   *float64 `json:"averagePrice" gorm:"column:AVERAGE_PRICE"`
	SalesVolume    *int64   `json:"salesVolume" gorm:"column:SALES_VOLUME"`
	CapitalGain    *float64 `json:"capitalGain" gorm:"column:CAPITAL_GAIN"`
	RentalYield    *float64 `json:"rentalYield" gorm:"column:RENTAL_YIELD"`
	Center         `gorm:"embedded" json:",inline"`
	BoundingBox    `gorm:"embedded" json:",inline"`
	AuditBase      `gorm:"embedded" json:",inline"`
}

func (Area) TableName() string {
	return "MAP_AREA"
}

// ToRecord converts the row into the wire record
func (a *Area) ToRecord() (models.AreaRecord, error) {
	ring, err := models.DecodeRingFromJSON(a.BoundaryJSON)
	if err != nil {
		return models.AreaRecord{}, fmt.Errorf("area %d: %w", a.ID, err)
	}
	if ring == nil {
		ring = models.Ring{}
	}
	return models.AreaRecord{
		ID:           strconv.FormatUint(a.ID, 10),
		Name:         a.Name,
		Description:  a.Description,
		Boundary:     ring,
		Color:        a.Color,
		FillOpacity:  a.FillOpacity,
		AveragePrice: a.AveragePrice,
		SalesVolume:  a.SalesVolume,
		CapitalGain:  a.CapitalGain,
		RentalYield:  a.RentalYield,
		CenterLat:    a.LatCenter,
		CenterLon:    a.LonCenter,
	}, nil
}

// ApplyRecord copies the editable fields of rec onto the row. Id, center and audit columns are left alone.
func (a *Area) ApplyRecord(rec models.AreaRecord) error {
	boundary, err := models.EncodeRingToJSON(rec.Boundary)
	if err != nil {
		return err
	}
	a.Name = rec.Name
	a.Description = rec.Description
	a.Color = rec.Color
	a.FillOpacity = rec.FillOpacity
	a.BoundaryJSON = boundary
	a.AveragePrice = rec.AveragePrice
	a.SalesVolume = rec.SalesVolume
	a.CapitalGain = rec.CapitalGain
	a.RentalYield = rec.RentalYield

	if minLat, maxLat, minLon, maxLon, ok := rec.Boundary.Bounds(); ok {
		a.BoundingBox = BoundingBox{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
	}
	return nil
}

// Ring decodes the stored boundary
func (a *Area) Ring() (models.Ring, error) {
	return models.DecodeRingFromJSON(a.BoundaryJSON)
}
