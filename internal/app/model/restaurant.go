package model

import (
	"sort"
	"time"
)

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OperatingHours maps a day name to its opening hours, e.g. "Monday" -> "5:30 pm - 11:00 pm".
type OperatingHours map[string]string

// DayHours is one row of the hours table.
type DayHours struct {
	Day   string
	Hours string
}

var weekdayOrder = map[string]int{
	"Monday":    0,
	"Tuesday":   1,
	"Wednesday": 2,
	"Thursday":  3,
	"Friday":    4,
	"Saturday":  5,
	"Sunday":    6,
}

// Rows returns the hours in calendar order. Unknown day names follow the
// week, alphabetically.
func (h OperatingHours) Rows() []DayHours {
	rows := make([]DayHours, 0, len(h))
	for day, hours := range h {
		rows = append(rows, DayHours{Day: day, Hours: hours})
	}
	sort.Slice(rows, func(i, j int) bool {
		oi, iKnown := weekdayOrder[rows[i].Day]
		oj, jKnown := weekdayOrder[rows[j].Day]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return rows[i].Day < rows[j].Day
		}
	})
	return rows
}

// Restaurant 식당 정보 (로컬 캐시)
type Restaurant struct {
	ID             uint           `gorm:"primarykey;autoIncrement:false" json:"id"`
	Name           string         `gorm:"not null" json:"name"`
	Neighborhood   string         `json:"neighborhood,omitempty"`
	Photograph     string         `json:"photograph,omitempty"` // 사진 키 (확장자 제외)
	Address        string         `json:"address"`
	LatLng         LatLng         `gorm:"embedded;embeddedPrefix:latlng_" json:"latlng"`
	CuisineType    string         `json:"cuisine_type"`
	OperatingHours OperatingHours `gorm:"serializer:json" json:"operating_hours,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime:false" json:"updatedAt"`
	CachedAt       time.Time      `json:"-"`
}

func (Restaurant) TableName() string {
	return "restaurants"
}
