package worker

import (
	"context"

	"mall-bot/internal/broker"
	"mall-bot/internal/models"
	"mall-bot/internal/util"

	"go.uber.org/zap"
)

// Ledger records purchase events.
type Ledger interface {
	RecordPurchaseEvent(ctx context.Context, event *models.PurchaseEvent) (bool, error)
}

// LedgerWorker copies purchase events from Kafka into the ledger
type LedgerWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	ledger       Ledger
	logger       *zap.Logger
}

// NewLedgerWorker creates a new ledger worker
func NewLedgerWorker(consumer *broker.Consumer, ledger Ledger) *LedgerWorker {
	w := &LedgerWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		ledger:       ledger,
		logger:       util.GetLogger().Named("ledger"),
	}
	w.eventHandler.OnPurchaseEvent(w.record)
	return w
}

// Start starts the worker
func (w *LedgerWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting ledger worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *LedgerWorker) Stop() error {
	w.logger.Info("Stopping ledger worker")
	return w.consumer.Close()
}

func (w *LedgerWorker) record(ctx context.Context, event *models.PurchaseEvent) error {
	inserted, err := w.ledger.RecordPurchaseEvent(ctx, event)
	if err != nil {
		return err
	}

	log := w.logger.With(
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("conversation_id", event.ConversationID))
	if !inserted {
		log.Debug("Duplicate purchase event skipped")
		return nil
	}

	util.LedgerEventsTotal.WithLabelValues(event.EventType).Inc()
	log.Info("Purchase event recorded")
	return nil
}
