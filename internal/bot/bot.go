package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mall-bot/internal/dialog"
	"mall-bot/internal/models"
	"mall-bot/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	// ErrConversationBusy is returned while another turn of the same
	// conversation is still running.
	ErrConversationBusy = errors.New("conversation turn already in progress")

	ErrMissingConversation = errors.New("activity has no conversation id")
)

const welcomeMessage = "🛍️ Seja bem-vindo(a) ao **IBMEC MALL**! " +
	"\n\nSou seu assistente virtual e posso te ajudar com:" +
	"\n• 🔍 Consultar produtos" +
	"\n• 🛒 Fazer compras" +
	"\n• 📦 Verificar pedidos" +
	"\n• 💳 Ver extrato de compras" +
	"\n\nDigite qualquer mensagem para começar!"

// Bot runs one inbound activity at a time against the dialog engine.
type Bot struct {
	engine *dialog.Engine
	store  StateStore
	appID  string
	now    func() time.Time
	logger *zap.Logger
}

func New(engine *dialog.Engine, store StateStore, appID string) *Bot {
	return &Bot{
		engine: engine,
		store:  store,
		appID:  appID,
		now:    time.Now,
		logger: util.GetLogger().Named("bot"),
	}
}

// Ready reports whether the state store is reachable.
func (b *Bot) Ready(ctx context.Context) error {
	return b.store.Ping(ctx)
}

// HandleActivity processes one inbound activity and returns the replies,
// already addressed back to the sender.
func (b *Bot) HandleActivity(ctx context.Context, activity *models.Activity) (replies []models.Activity, err error) {
	convID := activity.Conversation.ID
	if convID == "" {
		return nil, ErrMissingConversation
	}

	ctx, span := util.StartSpan(ctx, "bot.HandleActivity",
		attribute.String("conversation_id", convID),
		attribute.String("activity_type", activity.Type))
	defer func() { util.EndSpan(span, err) }()

	util.TurnsTotal.WithLabelValues(activity.Type).Inc()
	log := b.logger.With(zap.String("conversation_id", convID), zap.String("activity_type", activity.Type))

	locked, err := b.store.Lock(ctx, convID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock conversation: %w", err)
	}
	if !locked {
		log.Warn("Turn rejected, conversation busy")
		return nil, ErrConversationBusy
	}
	defer func() {
		if err := b.store.Unlock(context.WithoutCancel(ctx), convID); err != nil {
			log.Error("Failed to release conversation lock", zap.Error(err))
		}
	}()

	var turn *dialog.Turn
	switch activity.Type {
	case models.ActivityTypeMessage:
		turn = b.runDialog(ctx, log, activity)
	case models.ActivityTypeConversationUpdate:
		turn = b.welcome(activity)
	default:
		log.Debug("Ignoring activity")
		return nil, nil
	}

	return b.address(activity, turn.Replies()), nil
}

// runDialog loads state, advances the engine and persists the result.
// A panic anywhere in the dialog resets the conversation.
func (b *Bot) runDialog(ctx context.Context, log *zap.Logger, activity *models.Activity) (turn *dialog.Turn) {
	convID := activity.Conversation.ID
	turn = dialog.NewTurn(convID, activity.Text, activity.Value)

	defer func() {
		if r := recover(); r != nil {
			util.TurnErrorsTotal.Inc()
			log.Error("Unhandled error in turn", zap.Any("panic", r), zap.Stack("stack"))

			turn = dialog.NewTurn(convID, activity.Text, activity.Value)
			turn.SendText("O bot encontrou um erro ou bug.")
			turn.SendText("Para continuar usando este bot, por favor reporte o problema.")

			if err := b.store.Delete(ctx, convID); err != nil {
				log.Error("Failed to reset conversation state", zap.Error(err))
			}
		}
	}()

	state, err := b.store.Load(ctx, convID)
	if err != nil {
		log.Error("Failed to load conversation state, starting over", zap.Error(err))
		state = dialog.State{}
	}

	next := b.engine.Handle(ctx, turn, state)

	if next.IsZero() {
		err = b.store.Delete(ctx, convID)
	} else {
		err = b.store.Save(ctx, convID, next)
	}
	if err != nil {
		util.TurnErrorsTotal.Inc()
		log.Error("Failed to persist conversation state", zap.Error(err))
	}
	return turn
}

func (b *Bot) welcome(activity *models.Activity) *dialog.Turn {
	turn := dialog.NewTurn(activity.Conversation.ID, "", nil)
	for _, member := range activity.MembersAdded {
		if member.ID != activity.Recipient.ID {
			turn.SendText(welcomeMessage)
		}
	}
	return turn
}

func (b *Bot) address(inbound *models.Activity, replies []models.Activity) []models.Activity {
	from := inbound.Recipient
	if from.ID == "" {
		from.ID = b.appID
	}

	now := b.now().UTC()
	for i := range replies {
		replies[i].ID = uuid.New().String()
		replies[i].Timestamp = now
		replies[i].ChannelID = inbound.ChannelID
		replies[i].From = from
		replies[i].Recipient = inbound.From
		replies[i].Conversation = inbound.Conversation
		replies[i].ReplyToID = inbound.ID
	}
	return replies
}
