package store

import (
	"context"
	"database/sql"
	"fmt"

	"mall-bot/internal/models"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

// RecordPurchaseEvent appends an event to the ledger. It reports false
// when the event id was already recorded.
func (s *Store) RecordPurchaseEvent(ctx context.Context, event *models.PurchaseEvent) (bool, error) {
	query := `
		INSERT INTO purchase_events (
			event_id, event_type, conversation_id, user_id, product_id, product_name,
			price, masked_card, order_id, total_amount, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (event_id) DO NOTHING`

	price := event.Price
	if price == "" {
		price = "0"
	}

	res, err := s.db.ExecContext(ctx, query,
		event.EventID,
		event.EventType,
		event.ConversationID,
		nullInt64(event.UserID),
		event.ProductID,
		event.ProductName,
		price,
		nullString(event.MaskedCard),
		nullString(event.OrderID),
		nullString(event.TotalAmount),
		nullString(event.Reason),
		event.Timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record purchase event %s: %w", event.EventID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
