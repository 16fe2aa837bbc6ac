package entities

import (
	"time"
)

type AuditBase struct {
	RegDate      time.Time  `json:"regDate" gorm:"column:REG_DATE;<-:create"`
	RegBy        string     `json:"regBy" gorm:"column:REG_BY;<-:create"`
	LastUpdate   *time.Time `json:"lastUpdate" gorm:"column:LAST_UPDATE"`
	LastUpdateBy string     `json:"lastUpdateBy" gorm:"column:LAST_UPDATE_BY"`
}

// Touch stamps the audit columns for a write by actor
func (b *AuditBase) Touch(actor string, now time.Time, creating bool) {
	if creating {
		b.RegDate = now
		b.RegBy = actor
	}
	b.LastUpdate = &now
	b.LastUpdateBy = actor
}

type Center struct {
	LatCenter float64 `json:"latCenter" gorm:"column:LAT_CENTER"`
	LonCenter float64 `json:"lonCenter" gorm:"column:LON_CENTER"`
}

// BoundingBox is stored next to polygons so point lookups can filter without parsing geometry
type BoundingBox struct {
	MinLat float64 `json:"minLat" gorm:"column:MIN_LAT;index"`
	MaxLat float64 `json:"maxLat" gorm:"column:MAX_LAT;index"`
	MinLon float64 `json:"minLon" gorm:"column:MIN_LON;index"`
	MaxLon float64 `json:"maxLon" gorm:"column:MAX_LON;index"`
}
