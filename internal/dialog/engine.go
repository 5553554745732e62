package dialog

import (
	"context"
	"time"

	"mall-bot/internal/apiclient"
	"mall-bot/internal/models"
	"mall-bot/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Backend is the slice of the e-commerce API the dialogs use.
type Backend interface {
	Ping(ctx context.Context) bool
	ListProducts(ctx context.Context) apiclient.Result[[]models.Product]
	SearchProducts(ctx context.Context, name string) apiclient.Result[[]models.Product]
	ListUserOrders(ctx context.Context, userID int64) apiclient.Result[[]models.Order]
	GetCardStatement(ctx context.Context, userID, cardID int64) apiclient.Result[[]models.Transaction]
	SubmitOrder(ctx context.Context, submission *models.OrderSubmission) apiclient.Result[*models.OrderConfirmation]
}

// EventPublisher receives purchase outcomes.
type EventPublisher interface {
	PublishPurchaseEvent(ctx context.Context, event *models.PurchaseEvent) error
}

// Flow outcomes used in metrics and logs
const (
	OutcomeCompleted = "completed"
	OutcomeEmpty     = "empty"
	OutcomeAborted   = "aborted"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
	OutcomeError     = "error"
)

// Engine drives the menu and every flow, one turn at a time.
type Engine struct {
	backend        Backend
	events         EventPublisher
	cardAccountRef string
	now            func() time.Time
	logger         *zap.Logger
}

type Option func(*Engine)

// WithClock overrides the clock used for expiration checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithEventPublisher sets where purchase outcomes are published.
func WithEventPublisher(p EventPublisher) Option {
	return func(e *Engine) { e.events = p }
}

// WithLogger overrides the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a dialog engine. cardAccountRef is the fixed card
// account sent with every order submission.
func NewEngine(backend Backend, cardAccountRef string, opts ...Option) *Engine {
	e := &Engine{
		backend:        backend,
		cardAccountRef: cardAccountRef,
		now:            time.Now,
		logger:         util.GetLogger().Named("dialog"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle advances the conversation by one turn and returns the state to
// persist. The returned state is zero when no dialog remains active.
func (e *Engine) Handle(ctx context.Context, turn *Turn, state State) State {
	ctx, span := util.StartSpan(ctx, "dialog.Handle",
		attribute.String("conversation_id", turn.ConversationID),
		attribute.String("flow", string(state.Flow)),
		attribute.String("step", string(state.Step)))
	defer span.End()

	switch state.Flow {
	case FlowNone:
		return e.beginMenu(turn)
	case FlowMenu:
		return e.continueMenu(ctx, turn, state)
	case FlowProducts:
		return e.continueProducts(ctx, turn, state)
	case FlowPurchase:
		return e.continuePurchase(ctx, turn, state)
	case FlowOrders:
		return e.continueOrders(ctx, turn, state)
	case FlowStatement:
		return e.continueStatement(ctx, turn, state)
	}

	e.log(turn).Warn("Unknown dialog state, restarting menu",
		zap.String("flow", string(state.Flow)),
		zap.String("step", string(state.Step)))
	return e.beginMenu(turn)
}

func (e *Engine) log(turn *Turn) *zap.Logger {
	return e.logger.With(zap.String("conversation_id", turn.ConversationID))
}

func (e *Engine) started(flow Flow) {
	util.FlowsStartedTotal.WithLabelValues(string(flow)).Inc()
}

// finish closes the active flow and hands control back to the menu, which
// waits for the next message before showing itself again.
func (e *Engine) finish(turn *Turn, flow Flow, outcome string) State {
	util.FlowsCompletedTotal.WithLabelValues(string(flow), outcome).Inc()
	e.log(turn).Info("Flow finished", zap.String("flow", string(flow)), zap.String("outcome", outcome))

	turn.SendText("✅ Operação concluída!\n\n" +
		"💬 Digite qualquer mensagem para voltar ao menu principal.")
	return State{}
}

// finishQuiet records a flow end that hands over to another flow.
func (e *Engine) finishQuiet(flow Flow, outcome string) {
	util.FlowsCompletedTotal.WithLabelValues(string(flow), outcome).Inc()
}

func (e *Engine) unknownStep(turn *Turn, state State) State {
	e.log(turn).Warn("Unknown step for flow",
		zap.String("flow", string(state.Flow)),
		zap.String("step", string(state.Step)))
	return e.finish(turn, state.Flow, OutcomeError)
}

// probe checks connectivity before a listing; on failure it reports and
// the caller ends the flow.
func (e *Engine) probe(ctx context.Context, turn *Turn, system string) bool {
	if e.backend.Ping(ctx) {
		return true
	}
	e.log(turn).Warn("Backend unreachable", zap.String("system", system))
	turn.SendText("❌ **Erro de Conexão**\n\n" +
		"Não foi possível conectar com o sistema de " + system + ". " +
		"Tente novamente em alguns instantes.")
	return false
}
