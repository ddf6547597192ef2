package models

import "time"

// Payment is a successfully verified transaction. Records are written exactly
// once per reference (unique index) and are never updated or deleted.
type Payment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(191)" json:"name"`
	Email     string     `gorm:"type:varchar(191);index" json:"email"`
	Amount    float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Reference string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"reference"`
	Status    string     `gorm:"type:varchar(16);not null;default:'success'" json:"status"`
	Currency  string     `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}
