package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-reviews/internal/app/service"
	apperrors "github.com/ikkim/restaurant-reviews/internal/errors"
	"github.com/ikkim/restaurant-reviews/internal/middleware"
)

type OutboxController struct {
	reviews service.ReviewSyncService
}

func NewOutboxController(reviews service.ReviewSyncService) *OutboxController {
	return &OutboxController{reviews: reviews}
}

// ListOutbox 대기 중인 리뷰 목록
// @Summary 아웃박스 상태
// @Tags Outbox
// @Produce json
// @Param limit query int false "최대 개수" default(100)
// @Success 200 {object} service.OutboxSummary
// @Router /outbox [get]
func (ctrl *OutboxController) ListOutbox(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid limit.")
		return
	}

	summary, err := ctrl.reviews.OutboxStatus(c.Request.Context(), limit)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to list outbox", err)
		apperrors.RespondWithInfo(c, apperrors.ParseError(err, "outbox"))
		return
	}

	c.JSON(http.StatusOK, summary)
}

// FlushOutbox 즉시 동기화
// @Summary 대기 중인 리뷰 전송
// @Tags Outbox
// @Produce json
// @Success 200 {object} service.FlushReport
// @Router /outbox/flush [post]
func (ctrl *OutboxController) FlushOutbox(c *gin.Context) {
	report, err := ctrl.reviews.FlushOutbox(c.Request.Context())
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Manual outbox flush failed", err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.OutboxFlushFailed, "Queued reviews could not be synced. Please try again later.")
		return
	}

	c.JSON(http.StatusOK, report)
}

// DiscardRejected 거절된 리뷰 삭제
// @Summary 백엔드가 거절한 리뷰 삭제
// @Tags Outbox
// @Param correlation_id path string true "Correlation ID"
// @Success 204
// @Router /outbox/{correlation_id} [delete]
func (ctrl *OutboxController) DiscardRejected(c *gin.Context) {
	if err := ctrl.reviews.DiscardRejected(c.Request.Context(), c.Param("correlation_id")); err != nil {
		apperrors.RespondWithInfo(c, apperrors.ParseError(err, "outbox"))
		return
	}

	c.Status(http.StatusNoContent)
}
