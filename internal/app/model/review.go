package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// RatingOptions is the order of the rating control on the page; the first
// entry is the default selection.
var RatingOptions = []int{1, 2, 3, 4, 5}

// DefaultRating is the rating selected on an empty form.
func DefaultRating() int {
	return RatingOptions[0]
}

// ValidRating reports whether r is one of the selectable ratings.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Review 리뷰 (서버 확인 완료)
type Review struct {
	ID           uint      `gorm:"primarykey;autoIncrement:false" json:"id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	Name         string    `gorm:"not null" json:"name"`
	Rating       int       `gorm:"not null" json:"rating"`                // 평점 (1-5)
	Comments     string    `gorm:"type:text;not null" json:"comments"`    // 리뷰 내용
	CreatedAt    time.Time `gorm:"autoCreateTime:false" json:"createdAt"` // 서버 시각 그대로 보존
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false;index" json:"updatedAt"`
}

func (Review) TableName() string {
	return "reviews"
}
