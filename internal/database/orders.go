package database

import (
	"github.com/jinzhu/gorm"

	"takeaway/internal/models"
)

// LatestDraft returns the user's newest draft order, if any.
func LatestDraft(db *gorm.DB, userID uint) (*models.Order, bool) {
	var order models.Order
	err := db.Where("user_id = ? AND status = ?", userID, models.OrderStatusDraft).
		Order("id desc").
		First(&order).Error
	if err != nil {
		return nil, false
	}
	return &order, true
}

// GetOrCreateDraft returns the user's draft order, creating an empty
// one when none exists. The JSON blobs are always non-empty strings so
// the chat engine never sees SQL nulls.
func GetOrCreateDraft(db *gorm.DB, userID uint) (*models.Order, error) {
	if order, ok := LatestDraft(db, userID); ok {
		if order.ItemsJSON == "" {
			order.ItemsJSON = "[]"
		}
		if order.StateJSON == "" {
			order.StateJSON = "{}"
		}
		return order, nil
	}

	order := &models.Order{
		UserID:    userID,
		Status:    models.OrderStatusDraft,
		ItemsJSON: "[]",
		StateJSON: "{}",
	}
	if err := db.Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}
