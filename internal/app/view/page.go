package view

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/restaurant-reviews/config"
	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/internal/app/service"
	"github.com/ikkim/restaurant-reviews/internal/storage"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
)

const (
	DateLayout       = "Mon, Jan 2, 2006"
	NoReviewsMessage = "No reviews yet!"
	PageTemplate     = "restaurant.html"
)

type Breadcrumb struct {
	Name string
	URL  string
}

type ImageView struct {
	Src    string
	SrcSet string
	Alt    string
}

type ReviewView struct {
	ID          uint
	Name        string
	Date        string
	Rating      int
	RatingLabel string
	Comments    string
}

type PendingView struct {
	CorrelationID string
	Name          string
	Rating        int
	RatingLabel   string
	Comments      string
	Rejected      bool
	LastError     string
}

type RatingOption struct {
	Value   int
	Checked bool
}

// DetailPage is everything the restaurant template reads.
type DetailPage struct {
	Title         string
	SessionID     string
	RestaurantID  uint
	Restaurant    *model.Restaurant
	Image         *ImageView
	Hours         []model.DayHours
	Breadcrumbs   []Breadcrumb
	Reviews       []ReviewView
	Pending       []PendingView
	NoReviews     bool
	FromCache     bool
	Form          service.ReviewForm
	RatingOptions []RatingOption
	Notices       []service.Notice
	Busy          bool
	Map           *MapSettings
}

// PhotoResolver turns a photograph key into image URLs.
type PhotoResolver interface {
	ImageFor(ctx context.Context, photograph string) (*storage.Image, error)
}

type Builder struct {
	photos PhotoResolver
	mapCfg config.MapConfig
}

func NewBuilder(photos PhotoResolver, mapCfg config.MapConfig) *Builder {
	return &Builder{photos: photos, mapCfg: mapCfg}
}

func (b *Builder) Build(ctx context.Context, snap service.SessionSnapshot) *DetailPage {
	page := &DetailPage{
		Title:         "Restaurant Info",
		SessionID:     snap.ID,
		RestaurantID:  snap.RestaurantID,
		Restaurant:    snap.Restaurant,
		Breadcrumbs:   []Breadcrumb{{Name: "Home", URL: "/"}},
		Form:          snap.Form,
		RatingOptions: ratingOptions(snap.Form.Rating),
		Notices:       snap.Notices,
		Busy:          snap.Busy,
		NoReviews:     true,
	}

	if r := snap.Restaurant; r != nil {
		page.Title = r.Name
		page.Breadcrumbs = append(page.Breadcrumbs, Breadcrumb{Name: r.Name})
		page.Hours = r.OperatingHours.Rows()
		page.Map = MapFor(r, b.mapCfg)
		page.Image = b.image(ctx, r)
	}

	if list := snap.Reviews; list != nil {
		page.NoReviews = list.Empty()
		page.FromCache = list.Source == service.SourceCache
		for _, r := range list.Reviews {
			page.Reviews = append(page.Reviews, reviewView(r))
		}
		for _, p := range list.Pending {
			page.Pending = append(page.Pending, PendingView{
				CorrelationID: p.CorrelationID,
				Name:          p.Name,
				Rating:        p.Rating,
				RatingLabel:   ratingLabel(p.Rating),
				Comments:      p.Comments,
				Rejected:      p.Status == model.PendingStatusRejected,
				LastError:     p.LastError,
			})
		}
	}
	return page
}

func (b *Builder) image(ctx context.Context, r *model.Restaurant) *ImageView {
	alt := r.Name + " Restaurant"
	if b.photos == nil || r.Photograph == "" {
		return &ImageView{Alt: alt}
	}
	img, err := b.photos.ImageFor(ctx, r.Photograph)
	if err != nil {
		logger.Warn("Failed to resolve restaurant photo", map[string]interface{}{
			"restaurant_id": r.ID,
			"photograph":    r.Photograph,
			"error":         err.Error(),
		})
		return &ImageView{Alt: alt}
	}
	return &ImageView{Src: img.Src, SrcSet: img.SrcSet, Alt: alt}
}

func reviewView(r model.Review) ReviewView {
	return ReviewView{
		ID:          r.ID,
		Name:        r.Name,
		Date:        FormatDate(r.UpdatedAt),
		Rating:      r.Rating,
		RatingLabel: ratingLabel(r.Rating),
		Comments:    r.Comments,
	}
}

func ratingLabel(rating int) string {
	return fmt.Sprintf("Rating: %d", rating)
}

// FormatDate renders a review timestamp like "Tue, Oct 1, 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func ratingOptions(selected int) []RatingOption {
	if !model.ValidRating(selected) {
		selected = model.DefaultRating()
	}
	options := make([]RatingOption, 0, len(model.RatingOptions))
	for _, v := range model.RatingOptions {
		options = append(options, RatingOption{Value: v, Checked: v == selected})
	}
	return options
}
