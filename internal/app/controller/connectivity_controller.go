package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/restaurant-reviews/internal/errors"
	"github.com/ikkim/restaurant-reviews/internal/middleware"
	"github.com/ikkim/restaurant-reviews/internal/websocket"
)

// ConnectivityStatus reports what the last backend probe saw.
type ConnectivityStatus interface {
	IsOnline() bool
	LastChecked() time.Time
	Check(ctx context.Context) bool
}

type ConnectivityController struct {
	status ConnectivityStatus
}

func NewConnectivityController(status ConnectivityStatus) *ConnectivityController {
	return &ConnectivityController{status: status}
}

// GetConnectivity 백엔드 연결 상태
// @Summary 백엔드 연결 상태 (probe=true 이면 즉시 확인)
// @Tags Connectivity
// @Produce json
// @Router /connectivity [get]
func (ctrl *ConnectivityController) GetConnectivity(c *gin.Context) {
	online := ctrl.status.IsOnline()
	if probe, _ := strconv.ParseBool(c.Query("probe")); probe {
		online = ctrl.status.Check(c.Request.Context())
	}

	resp := gin.H{"online": online}
	if checked := ctrl.status.LastChecked(); !checked.IsZero() {
		resp["last_checked"] = checked
	}
	c.JSON(http.StatusOK, resp)
}

type WebSocketController struct {
	hub         *websocket.Hub
	checkOrigin func(*http.Request) bool
}

func NewWebSocketController(hub *websocket.Hub, allowedOrigins []string) *WebSocketController {
	return &WebSocketController{
		hub:         hub,
		checkOrigin: originChecker(allowedOrigins),
	}
}

// HandleWebSocket 리뷰 실시간 갱신
// @Summary 식당 리뷰 변경 알림 (WebSocket)
// @Tags WebSocket
// @Param restaurant_id query int true "식당 ID"
// @Router /ws [get]
func (ctrl *WebSocketController) HandleWebSocket(c *gin.Context) {
	restaurantID, err := strconv.ParseUint(c.Query("restaurant_id"), 10, 32)
	if err != nil || restaurantID == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid restaurant id.")
		return
	}

	conn, err := websocket.Upgrade(c.Writer, c.Request, ctrl.checkOrigin)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := websocket.NewClient(ctrl.hub, conn, uint(restaurantID))
	client.Serve()
}

// originChecker accepts same-host pages and the configured origins.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
