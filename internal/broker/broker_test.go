package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"mall-bot/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func purchaseEvent(eventType string) *models.PurchaseEvent {
	return &models.PurchaseEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: eventType,
			Timestamp: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
		ConversationID: "conv-9",
		UserID:         7,
		ProductID:      "p-1",
		ProductName:    "Notebook",
		Price:          "42.50",
		MaskedCard:     "****-****-****-1111",
		OrderID:        "X",
		TotalAmount:    "42.50",
	}
}

func TestPublishPurchaseEvent(t *testing.T) {
	w := &recordingWriter{}
	pub := NewEventPublisher(newProducer(w, "purchase-events"))

	err := pub.PublishPurchaseEvent(context.Background(), purchaseEvent(models.EventTypePurchaseSubmitted))
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "conversation-conv-9", string(w.msgs[0].Key))

	var got models.PurchaseEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, models.EventTypePurchaseSubmitted, got.EventType)
	assert.Equal(t, "X", got.OrderID)
}

func TestPublishPurchaseEvent_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	pub := NewEventPublisher(newProducer(w, "purchase-events"))

	err := pub.PublishPurchaseEvent(context.Background(), purchaseEvent(models.EventTypePurchaseFailed))
	assert.ErrorContains(t, err, "leader not available")
}

func TestProducerClose(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, newProducer(w, "t").Close())
	assert.True(t, w.closed)
}

func TestEventHandler_RoutesPurchaseEvents(t *testing.T) {
	for _, eventType := range []string{
		models.EventTypePurchaseSubmitted,
		models.EventTypePurchaseFailed,
		models.EventTypePurchaseCancelled,
		models.EventTypePurchaseAborted,
	} {
		t.Run(eventType, func(t *testing.T) {
			var got *models.PurchaseEvent
			h := NewEventHandler()
			h.OnPurchaseEvent(func(ctx context.Context, e *models.PurchaseEvent) error {
				got = e
				return nil
			})

			raw, _ := json.Marshal(purchaseEvent(eventType))
			require.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: raw}))

			require.NotNil(t, got)
			assert.Equal(t, eventType, got.EventType)
			assert.Equal(t, "conv-9", got.ConversationID)
		})
	}
}

func TestEventHandler_UnknownTypeIgnored(t *testing.T) {
	called := false
	h := NewEventHandler()
	h.OnPurchaseEvent(func(ctx context.Context, e *models.PurchaseEvent) error {
		called = true
		return nil
	})

	err := h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"ORDER_SHIPPED"}`)})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestEventHandler_InvalidPayload(t *testing.T) {
	h := NewEventHandler()

	err := h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)})
	assert.Error(t, err)
}

func TestEventHandler_PropagatesHandlerError(t *testing.T) {
	h := NewEventHandler()
	h.OnPurchaseEvent(func(ctx context.Context, e *models.PurchaseEvent) error {
		return errors.New("db down")
	})

	raw, _ := json.Marshal(purchaseEvent(models.EventTypePurchaseAborted))
	assert.Error(t, h.HandleMessage(context.Background(), kafka.Message{Value: raw}))
}
