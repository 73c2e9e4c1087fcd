package models

import "time"

type Review struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OrderID uint  `gorm:"uniqueIndex;not null" json:"order_id"`
	Order   Order `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	ClientID uint `gorm:"not null" json:"client_id"`
	Client   User `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`

	MasterID uint `gorm:"not null;index" json:"master_id"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `gorm:"size:1000" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
}
