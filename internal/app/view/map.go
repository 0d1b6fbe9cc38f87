package view

import (
	"fmt"

	"github.com/ikkim/restaurant-reviews/config"
	"github.com/ikkim/restaurant-reviews/internal/app/model"
)

// MapMarker is what the page script hands to the map library for one
// restaurant.
type MapMarker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Title string  `json:"title"`
	URL   string  `json:"url"`
}

// MapSettings centers the map on the restaurant and configures the tile
// layer.
type MapSettings struct {
	Center          model.LatLng `json:"center"`
	Zoom            int          `json:"zoom"`
	MaxZoom         int          `json:"maxZoom"`
	ScrollWheelZoom bool         `json:"scrollWheelZoom"`
	TileURL         string       `json:"tileUrl"`
	TileID          string       `json:"id"`
	AccessToken     string       `json:"mapboxToken"`
	Attribution     string       `json:"attribution"`
	Marker          MapMarker    `json:"marker"`
}

// RestaurantURL is the detail page link for a restaurant.
func RestaurantURL(id uint) string {
	return fmt.Sprintf("/restaurant.html?id=%d", id)
}

func MarkerFor(r *model.Restaurant) MapMarker {
	return MapMarker{
		Lat:   r.LatLng.Lat,
		Lng:   r.LatLng.Lng,
		Title: r.Name,
		URL:   RestaurantURL(r.ID),
	}
}

func MapFor(r *model.Restaurant, cfg config.MapConfig) *MapSettings {
	return &MapSettings{
		Center:      r.LatLng,
		Zoom:        cfg.Zoom,
		MaxZoom:     cfg.MaxZoom,
		TileURL:     cfg.TileURL,
		TileID:      cfg.TileID,
		AccessToken: cfg.AccessToken,
		Attribution: cfg.Attribution,
		Marker:      MarkerFor(r),
	}
}
