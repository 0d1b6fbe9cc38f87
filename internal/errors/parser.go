package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ikkim/restaurant-reviews/internal/app/service"
	"github.com/ikkim/restaurant-reviews/pkg/reviewsapi"
	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

// ParseError maps an error from the service, cache or backend client to a
// response. Storage and driver details never reach the message.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: getDefaultErrorMessage(context),
		}
	}

	// 1. 서비스 계층 에러
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    validationCode(validationErr.Field),
			Message: validationErr.Message,
			Fields:  map[string]string{validationErr.Field: validationErr.Message},
		}
	}

	var storageErr *service.StorageError
	if errors.As(err, &storageErr) {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    ReviewQueueFailed,
			Message: service.MsgQueueFailed,
		}
	}

	switch {
	case errors.Is(err, service.ErrSubmissionInProgress):
		return ErrorInfo{Status: http.StatusConflict, Code: ReviewInProgress, Message: service.MsgBusy}
	case errors.Is(err, service.ErrReviewRejected):
		return ErrorInfo{Status: http.StatusUnprocessableEntity, Code: ReviewRejected, Message: service.MsgRejected}
	case errors.Is(err, service.ErrRestaurantNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: RestaurantNotFound, Message: "Restaurant not found."}
	case errors.Is(err, service.ErrRestaurantUnavailable):
		return ErrorInfo{Status: http.StatusServiceUnavailable, Code: RestaurantUnavailable, Message: service.MsgRestaurantUnavailable}
	case errors.Is(err, service.ErrPendingNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: OutboxEntryNotFound, Message: "Queued review not found."}
	case errors.Is(err, service.ErrPendingNotRejected):
		return ErrorInfo{Status: http.StatusConflict, Code: OutboxEntryNotRejected, Message: "Queued review is still waiting to be sent."}
	}

	// 2. GORM 기본 에러
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    notFoundCode(context),
			Message: getNotFoundMessage(context),
		}
	}

	// 3. 백엔드 클라이언트 에러
	if errors.Is(err, reviewsapi.ErrNetwork) {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    InternalExternalAPI,
			Message: "The reviews service is unreachable. Please try again later.",
		}
	}

	// 4. 드라이버 에러 (SQLite / PostgreSQL)
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "database is locked") ||
		strings.Contains(errLower, "sql:") ||
		strings.Contains(errLower, "constraint") {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalDatabaseError,
			Message: getDefaultErrorMessage(context),
		}
	}

	// 5. 기본 내부 서버 오류
	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func validationCode(field string) string {
	switch field {
	case "name":
		return ReviewNameRequired
	case "comment":
		return ReviewCommentRequired
	case "rating":
		return ReviewInvalidRating
	default:
		return ValidationInvalidInput
	}
}

func notFoundCode(context string) string {
	switch context {
	case "restaurant":
		return RestaurantNotFound
	case "outbox":
		return OutboxEntryNotFound
	default:
		return RestaurantNotFound
	}
}

func getNotFoundMessage(context string) string {
	switch context {
	case "restaurant":
		return "Restaurant not found."
	case "outbox":
		return "Queued review not found."
	default:
		return "Not found."
	}
}

func getDefaultErrorMessage(context string) string {
	switch context {
	case "review":
		return "Your review could not be processed. Please try again."
	case "outbox":
		return "Queued reviews could not be synced. Please try again later."
	case "restaurant":
		return service.MsgRestaurantUnavailable
	default:
		return "Something went wrong. Please try again later."
	}
}
