package reviewsapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FlexInt accepts both 3 and "3"; the backend is not consistent about it.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", s, err)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// FlexTime accepts RFC 3339 strings and epoch milliseconds.
type FlexTime struct {
	time.Time
}

func (f *FlexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		f.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return f.Time.UnmarshalJSON(data)
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	f.Time = time.UnixMilli(ms).UTC()
	return nil
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Restaurant is the backend's restaurant document
type Restaurant struct {
	ID             FlexInt           `json:"id"`
	Name           string            `json:"name"`
	Neighborhood   string            `json:"neighborhood"`
	Photograph     string            `json:"photograph"`
	Address        string            `json:"address"`
	LatLng         LatLng            `json:"latlng"`
	CuisineType    string            `json:"cuisine_type"`
	OperatingHours map[string]string `json:"operating_hours"`
	CreatedAt      FlexTime          `json:"createdAt"`
	UpdatedAt      FlexTime          `json:"updatedAt"`
}

// Review is the backend's review document
type Review struct {
	ID           FlexInt  `json:"id"`
	RestaurantID FlexInt  `json:"restaurant_id"`
	Name         string   `json:"name"`
	Rating       FlexInt  `json:"rating"`
	Comments     string   `json:"comments"`
	CreatedAt    FlexTime `json:"createdAt"`
	UpdatedAt    FlexTime `json:"updatedAt"`
}

// CreateReviewRequest is the POST /reviews/ body
type CreateReviewRequest struct {
	RestaurantID uint   `json:"restaurant_id"`
	Name         string `json:"name"`
	Rating       int    `json:"rating"`
	Comments     string `json:"comments"`
}

// ErrorResponse is the body the backend sends with 4xx/5xx, when it sends one
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
