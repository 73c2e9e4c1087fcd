package models

import "time"

type Service struct {
	ID uint `gorm:"primaryKey" json:"id"`

	MasterID uint   `gorm:"not null" json:"master_id"`
	Master   Master `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"master"`

	CategoryID uint     `json:"category_id"`
	Category   Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category"`

	Name          string  `gorm:"size:100;not null" json:"name"`
	Description   string  `gorm:"size:1000" json:"description"`
	Price         float64 `gorm:"not null" json:"price"`
	DurationHours int     `gorm:"default:1" json:"duration_hours"`
	IsActive      bool    `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}
