package models

import "time"

type Master struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`

	CategoryID uint     `json:"category_id"`
	Category   Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category"`

	Specialization  string  `gorm:"size:100" json:"specialization"`
	ExperienceYears int     `json:"experience_years"`
	Description     string  `gorm:"size:1000" json:"description"`
	BasePrice       float64 `json:"base_price"`

	Rating       float64 `gorm:"default:0" json:"rating"`
	TotalReviews int     `gorm:"default:0" json:"total_reviews"`
	TotalOrders  int     `gorm:"default:0" json:"total_orders"`

	IsAvailable bool `gorm:"default:true" json:"is_available"`
	IsVerified  bool `gorm:"default:false" json:"is_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
