package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-reviews/internal/app/service"
	"github.com/ikkim/restaurant-reviews/internal/app/view"
	"github.com/ikkim/restaurant-reviews/internal/middleware"
)

// PageController serves the server-rendered restaurant detail page.
type PageController struct {
	pages   service.DetailPageService
	reviews service.ReviewSyncService
	builder *view.Builder
}

func NewPageController(pages service.DetailPageService, reviews service.ReviewSyncService, builder *view.Builder) *PageController {
	return &PageController{
		pages:   pages,
		reviews: reviews,
		builder: builder,
	}
}

// ShowRestaurant 식당 상세 페이지
// @Summary 식당 상세 페이지 (HTML)
// @Tags Pages
// @Produce html
// @Param id query int false "식당 ID (기본값 1)"
// @Router /restaurant.html [get]
func (ctrl *PageController) ShowRestaurant(c *gin.Context) {
	session := ctrl.pages.Open(c.Request.Context(), c.Query("id"))
	ctrl.render(c, http.StatusOK, session)
}

type reviewForm struct {
	SessionID    string `form:"session_id"`
	RestaurantID string `form:"restaurant_id"`
	Name         string `form:"name"`
	Review       string `form:"review"`
	Ratings      string `form:"ratings"`
}

// SubmitReviewForm 리뷰 폼 제출
// @Summary 리뷰 작성 (HTML form)
// @Tags Pages
// @Accept x-www-form-urlencoded
// @Produce html
// @Router /restaurant/reviews [post]
func (ctrl *PageController) SubmitReviewForm(c *gin.Context) {
	var form reviewForm
	if err := c.ShouldBind(&form); err != nil {
		c.Redirect(http.StatusSeeOther, "/restaurant.html")
		return
	}

	ctx := c.Request.Context()
	session, ok := ctrl.pages.Session(form.SessionID)
	if !ok {
		// the page sat open past the session TTL; start over on the same restaurant
		middleware.GetLoggerFromContext(c).Info("Page session expired, reopening", map[string]interface{}{
			"session_id": form.SessionID,
		})
		session = ctrl.pages.Open(ctx, form.RestaurantID)
	}

	// an unparsable rating becomes 0 and fails validation
	rating, _ := strconv.Atoi(form.Ratings)

	_, err := ctrl.reviews.Submit(ctx, session, service.SubmitReviewInput{
		RestaurantID: session.RestaurantID,
		Name:         form.Name,
		Comment:      form.Review,
		Rating:       rating,
	})
	ctrl.render(c, statusFor(err), session)
}

func (ctrl *PageController) render(c *gin.Context, status int, session *service.PageSession) {
	page := ctrl.builder.Build(c.Request.Context(), session.Snapshot())
	c.HTML(status, view.PageTemplate, page)
}

func statusFor(err error) int {
	var validationErr *service.ValidationError
	var storageErr *service.StorageError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSubmissionInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrReviewRejected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
