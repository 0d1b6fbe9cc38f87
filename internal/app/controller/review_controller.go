package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-reviews/internal/app/service"
	apperrors "github.com/ikkim/restaurant-reviews/internal/errors"
	"github.com/ikkim/restaurant-reviews/internal/middleware"
)

type ReviewController struct {
	pages   service.DetailPageService
	reviews service.ReviewSyncService
}

func NewReviewController(pages service.DetailPageService, reviews service.ReviewSyncService) *ReviewController {
	return &ReviewController{
		pages:   pages,
		reviews: reviews,
	}
}

func parseRestaurantID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid restaurant id.")
		return 0, false
	}
	return uint(id), true
}

// GetRestaurant 식당 정보 조회
// @Summary 식당 정보 (백엔드 우선, 캐시 대체)
// @Tags Restaurants
// @Produce json
// @Param id path int true "식당 ID"
// @Success 200 {object} model.Restaurant
// @Router /restaurants/{id} [get]
func (ctrl *ReviewController) GetRestaurant(c *gin.Context) {
	id, ok := parseRestaurantID(c)
	if !ok {
		return
	}

	restaurant, err := ctrl.pages.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to get restaurant", err, map[string]interface{}{
			"restaurant_id": id,
		})
		apperrors.RespondWithInfo(c, apperrors.ParseError(err, "restaurant"))
		return
	}

	c.JSON(http.StatusOK, restaurant)
}

// GetReviews 식당 리뷰 목록
// @Summary 리뷰 목록 (최신순, 대기 중인 리뷰 포함)
// @Tags Reviews
// @Produce json
// @Param id path int true "식당 ID"
// @Success 200 {object} service.ReviewList
// @Router /restaurants/{id}/reviews [get]
func (ctrl *ReviewController) GetReviews(c *gin.Context) {
	id, ok := parseRestaurantID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ctrl.reviews.LoadReviews(c.Request.Context(), id))
}

type createReviewRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Comments  string `json:"comments"`
	Rating    int    `json:"rating"`
}

// CreateReview 리뷰 작성
// @Summary 리뷰 작성 (오프라인이면 대기열에 저장)
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "식당 ID"
// @Success 201 {object} service.SubmitResult "전송 완료"
// @Success 202 {object} service.SubmitResult "대기열 저장"
// @Router /restaurants/{id}/reviews [post]
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	id, ok := parseRestaurantID(c)
	if !ok {
		return
	}

	var input createReviewRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body.")
		return
	}

	session, found := ctrl.pages.Session(input.SessionID)
	if !found || session.RestaurantID != id {
		session = service.NewPageSession(id)
	}

	result, err := ctrl.reviews.Submit(c.Request.Context(), session, service.SubmitReviewInput{
		RestaurantID: id,
		Name:         input.Name,
		Comment:      input.Comments,
		Rating:       input.Rating,
	})
	if err != nil {
		info := apperrors.ParseError(err, "review")
		if info.Fields != nil {
			apperrors.RespondWithValidationError(c, info.Code, info.Fields)
			return
		}
		apperrors.RespondWithInfo(c, info)
		return
	}

	status := http.StatusCreated
	if result.Outcome == service.OutcomeQueued {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}
