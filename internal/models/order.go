package models

import "time"

type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint `gorm:"not null;index" json:"client_id"`
	Client   User `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`

	ServiceID uint    `gorm:"not null" json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"service"`

	// Snapshot of the owning master at creation time. A later service
	// reassignment must not move existing orders.
	MasterID uint   `gorm:"not null;index" json:"master_id"`
	Master   Master `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"master"`

	Status string `gorm:"size:20;default:'pending';index" json:"status"`

	Price         float64    `json:"price"`
	Description   string     `gorm:"size:1000" json:"description"`
	Address       string     `gorm:"size:255" json:"address"`
	ScheduledDate *time.Time `json:"scheduled_date"`

	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
