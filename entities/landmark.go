package entities

import (
	"strconv"

	"map-editor/models"
)

type Landmark struct {
	ID        uint64  `json:"id" gorm:"column:ID;primaryKey;autoIncrement"`
	Name      string  `json:"name" gorm:"column:NAME"`
	Lat       float64 `json:"lat" gorm:"column:LAT"`
	Lon       float64 `json:"lon" gorm:"column:LON"`
	Color     string  `json:"color" gorm:"column:COLOR"`
	IconSize  string  `json:"iconSize" gorm:"column:ICON_SIZE"`
	ImageURL  string  `json:"imageUrl" gorm:"column:IMAGE_URL"`
	Category  string  `json:"category" gorm:"column:CATEGORY;index"`
	AuditBase `gorm:"embedded" json:",inline"`
}

func (Landmark) TableName() string {
	return "MAP_LANDMARK"
}

func (l *Landmark) ToRecord() models.LandmarkRecord {
	return models.LandmarkRecord{
		ID:       strconv.FormatUint(l.ID, 10),
		Name:     l.Name,
		Lat:      l.Lat,
		Lng:      l.Lon,
		Color:    l.Color,
		IconSize: models.IconSize(l.IconSize),
		ImageURL: l.ImageURL,
		Category: l.Category,
	}
}

// ApplyRecord copies the editable fields of rec onto the row
func (l *Landmark) ApplyRecord(rec models.LandmarkRecord) {
	l.Name = rec.Name
	l.Lat = rec.Lat
	l.Lon = rec.Lng
	l.Color = rec.Color
	l.IconSize = string(rec.IconSize)
	l.ImageURL = rec.ImageURL
	l.Category = rec.Category
}
