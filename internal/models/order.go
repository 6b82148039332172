package models

import (
	"github.com/jinzhu/gorm"
)

// Order statuses.
const (
	OrderStatusDraft     = "draft"
	OrderStatusConfirmed = "confirmed"
)

// Order represents one customer order. A user has at most one draft at
// a time; the chat engine reads and writes the two JSON blobs on every
// turn, and confirmation freezes the summary and clears the state.
type Order struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null"`
	Status      string `gorm:"default:'draft'"`
	SummaryText string `gorm:"type:text"`
	ItemsJSON   string `gorm:"type:text"`
	StateJSON   string `gorm:"type:text"`
}

// IsDraft reports whether the order is still being built.
func (o *Order) IsDraft() bool {
	return o.Status == OrderStatusDraft
}
