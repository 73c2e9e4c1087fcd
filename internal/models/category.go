package models

import "time"

type Category struct {
	ID uint `gorm:"primaryKey" json:"id"`

	NameUz string `gorm:"size:100;not null" json:"name_uz"`
	NameRu string `gorm:"size:100;not null" json:"name_ru"`
	NameEn string `gorm:"size:100;not null" json:"name_en"`

	Description string `gorm:"size:255" json:"description"`
	IconURL     string `gorm:"size:255" json:"icon_url"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}
