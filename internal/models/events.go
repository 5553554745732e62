package models

import "time"

// Purchase event types
const (
	EventTypePurchaseSubmitted = "PURCHASE_SUBMITTED"
	EventTypePurchaseFailed    = "PURCHASE_FAILED"
	EventTypePurchaseCancelled = "PURCHASE_CANCELLED"
	EventTypePurchaseAborted   = "PURCHASE_ABORTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PurchaseEvent is published when a purchase flow terminates.
// It never carries card number, expiration or CVV.
type PurchaseEvent struct {
	BaseEvent
	ConversationID string `json:"conversation_id"`
	UserID         int64  `json:"user_id,omitempty"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Price          string `json:"price"`
	MaskedCard     string `json:"masked_card,omitempty"`
	OrderID        string `json:"order_id,omitempty"`
	TotalAmount    string `json:"total_amount,omitempty"`
	Reason         string `json:"reason,omitempty"`
}
