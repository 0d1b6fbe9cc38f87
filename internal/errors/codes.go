package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 페이지 스크립트와 API 클라이언트는 이 코드로 분기함

const (
	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // 잘못된 ID
	ValidationRequired     = "VALIDATION_REQUIRED"      // 필수 항목

	// ==================== 식당 (RESTAURANT_) ====================
	RestaurantNotFound    = "RESTAURANT_NOT_FOUND"   // 식당 없음
	RestaurantUnavailable = "RESTAURANT_UNAVAILABLE" // 백엔드와 캐시 모두 없음

	// ==================== 리뷰 (REVIEW_) ====================
	ReviewNameRequired     = "REVIEW_NAME_REQUIRED"     // 이름 누락
	ReviewCommentRequired  = "REVIEW_COMMENT_REQUIRED"  // 내용 누락
	ReviewInvalidRating    = "REVIEW_INVALID_RATING"    // 잘못된 평점
	ReviewInProgress       = "REVIEW_IN_PROGRESS"       // 제출 중복
	ReviewRejected         = "REVIEW_REJECTED"          // 백엔드가 거절
	ReviewSessionNotFound  = "REVIEW_SESSION_NOT_FOUND" // 페이지 세션 만료
	ReviewQueueFailed      = "REVIEW_QUEUE_FAILED"      // 로컬 저장 실패

	// ==================== 아웃박스 (OUTBOX_) ====================
	OutboxEntryNotFound    = "OUTBOX_ENTRY_NOT_FOUND"    // 대기 항목 없음
	OutboxEntryNotRejected = "OUTBOX_ENTRY_NOT_REJECTED" // 전송 대기 중인 항목
	OutboxFlushFailed      = "OUTBOX_FLUSH_FAILED"       // 동기화 실패

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
)
