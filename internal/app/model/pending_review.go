package model

import "time"

type PendingStatus string

const (
	PendingStatusPending   PendingStatus = "pending"
	PendingStatusRejected  PendingStatus = "rejected"  // 서버가 거절함, 사용자 확인 필요
	PendingStatusDelivered PendingStatus = "delivered" // 서버 수신 완료, 삭제 대기
)

// PendingReview 서버 전송 대기 중인 리뷰 (outbox)
type PendingReview struct {
	ID            uint          `gorm:"primarykey" json:"-"`
	CorrelationID string        `gorm:"size:36;not null;uniqueIndex" json:"correlation_id"` // 멱등성 키
	RestaurantID  uint          `gorm:"not null;index" json:"restaurant_id"`
	Name          string        `gorm:"not null" json:"name"`
	Rating        int           `gorm:"not null" json:"rating"`
	Comments      string        `gorm:"type:text;not null" json:"comments"`
	Status        PendingStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	Attempts      int           `gorm:"default:0" json:"attempts"`
	LastError     string        `json:"last_error,omitempty"`
	NextAttemptAt time.Time     `gorm:"index" json:"next_attempt_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (PendingReview) TableName() string {
	return "pending_reviews"
}
