package dialog

import (
	"context"
	"fmt"
	"time"

	"mall-bot/internal/models"
	"mall-bot/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Abort reasons carried by PURCHASE_ABORTED events
const (
	AbortInvalidUserID     = "invalid_user_id"
	AbortInvalidCardNumber = "invalid_card_number"
	AbortInvalidExpiration = "invalid_expiration"
	AbortInvalidCVV        = "invalid_cvv"
)

// The purchase flow collects user id, card number, expiration and CVV,
// asks for confirmation and submits a single-item order. Any invalid
// input ends the flow immediately; there is no re-prompt.

func (e *Engine) beginPurchase(turn *Turn, product models.ProductRef) State {
	e.started(FlowPurchase)

	turn.SendText(fmt.Sprintf("🛒 **Comprando: %s**\n\n", product.Name) +
		"Para processar sua compra, precisamos de algumas informações.\n\n" +
		"⚠️ **Importante:** Em um sistema real, você já estaria logado. " +
		"Para demonstração, por favor informe seu ID de usuário.")
	turn.SendText("👤 **ID do Usuário:** Digite seu ID de usuário (número):")

	return State{
		Flow:     FlowPurchase,
		Step:     StepAwaitUserID,
		Purchase: &models.PendingPurchase{Product: product},
	}
}

func (e *Engine) continuePurchase(ctx context.Context, turn *Turn, state State) State {
	if state.Purchase == nil {
		e.log(turn).Error("Purchase state without pending purchase")
		return e.finish(turn, FlowPurchase, OutcomeError)
	}

	switch state.Step {
	case StepAwaitUserID:
		return e.collectUserID(ctx, turn, state)
	case StepAwaitCardNumber:
		return e.collectCardNumber(ctx, turn, state)
	case StepAwaitExpiration:
		return e.collectExpiration(ctx, turn, state)
	case StepAwaitCVV:
		return e.collectCVV(ctx, turn, state)
	case StepAwaitConfirmation:
		return e.confirmPurchase(ctx, turn, state)
	}
	return e.unknownStep(turn, state)
}

func (e *Engine) collectUserID(ctx context.Context, turn *Turn, state State) State {
	userID, ok := ParseNumericID(turn.Text)
	if !ok {
		turn.SendText("❌ ID do usuário deve ser um número válido.")
		return e.abortPurchase(ctx, turn, state, AbortInvalidUserID)
	}

	state.Purchase.UserID = userID
	state.Step = StepAwaitCardNumber

	turn.SendText("💳 **Cartão de Crédito**\n\n" +
		"Digite o número do seu cartão de crédito:\n\n" +
		"💡 **Formato:** 1234567890123456 (16 dígitos)")
	return state
}

func (e *Engine) collectCardNumber(ctx context.Context, turn *Turn, state State) State {
	number := NormalizeCardNumber(turn.Text)
	if !ValidCardNumber(number) {
		turn.SendText("❌ **Número do cartão inválido**\n\nO número deve ter exatamente 16 dígitos.")
		return e.abortPurchase(ctx, turn, state, AbortInvalidCardNumber)
	}

	state.Purchase.CardNumber = number
	state.Step = StepAwaitExpiration

	turn.SendText("📅 **Data de Expiração**\n\n" +
		"Digite a data de expiração do cartão:\n\n" +
		"💡 **Formato:** MM/AA (exemplo: 12/26)")
	return state
}

func (e *Engine) collectExpiration(ctx context.Context, turn *Turn, state State) State {
	expiration := trimmed(turn.Text)
	if !ValidExpiration(expiration, e.now()) {
		turn.SendText("❌ **Data de expiração inválida**\n\n" +
			"Use o formato MM/AA (exemplo: 12/26) e certifique-se que o cartão não está expirado.")
		return e.abortPurchase(ctx, turn, state, AbortInvalidExpiration)
	}

	state.Purchase.Expiration = expiration
	state.Step = StepAwaitCVV

	turn.SendText("🔒 **Código de Segurança**\n\n" +
		"Digite o código CVV do cartão:\n\n" +
		"💡 **CVV:** 3 dígitos no verso do cartão")
	return state
}

func (e *Engine) collectCVV(ctx context.Context, turn *Turn, state State) State {
	cvv := trimmed(turn.Text)
	if !ValidCVV(cvv) {
		turn.SendText("❌ **CVV inválido**\n\nO CVV deve ter exatamente 3 dígitos.")
		return e.abortPurchase(ctx, turn, state, AbortInvalidCVV)
	}

	state.Purchase.CVV = cvv
	state.Step = StepAwaitConfirmation

	p := state.Purchase
	turn.SendText("🛒 **RESUMO DA COMPRA**\n\n" +
		fmt.Sprintf("📦 **Produto:** %s\n", p.Product.Name) +
		fmt.Sprintf("💰 **Valor:** %s\n", FormatBRL(p.Product.Price)) +
		fmt.Sprintf("💳 **Cartão:** %s\n\n", util.MaskCard(p.CardNumber)) +
		"❓ **Confirma a compra?**\n\n" +
		"Digite **'sim'** para confirmar ou **'não'** para cancelar.")
	return state
}

func (e *Engine) confirmPurchase(ctx context.Context, turn *Turn, state State) State {
	if !IsAffirmative(turn.Text) {
		turn.SendText("❌ **Compra Cancelada**\n\nSua compra foi cancelada com sucesso.")
		util.PurchasesTotal.WithLabelValues(OutcomeCancelled).Inc()
		e.publish(ctx, turn, models.EventTypePurchaseCancelled, state.Purchase, nil, "user_declined")
		return e.finish(turn, FlowPurchase, OutcomeCancelled)
	}

	turn.SendText("🔄 **Processando compra...**\n\nPor favor, aguarde...")
	outcome := e.submitPurchase(ctx, turn, state.Purchase)
	return e.finish(turn, FlowPurchase, outcome)
}

// submitPurchase is the flow boundary for the order call: panics and
// unexpected errors become a generic apology.
func (e *Engine) submitPurchase(ctx context.Context, turn *Turn, p *models.PendingPurchase) (outcome string) {
	log := e.log(turn).With(
		zap.Int64("user_id", p.UserID),
		zap.String("product_id", p.Product.ID),
		zap.String("card", util.MaskCard(p.CardNumber)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while submitting order", zap.Any("panic", r))
			e.sendUnexpected(turn)
			util.PurchasesTotal.WithLabelValues(OutcomeError).Inc()
			e.publish(ctx, turn, models.EventTypePurchaseFailed, p, nil, "unexpected_error")
			outcome = OutcomeError
		}
	}()

	submission, err := p.ToSubmission(e.cardAccountRef)
	if err != nil {
		log.Error("Failed to build order submission", zap.Error(err))
		e.sendUnexpected(turn)
		util.PurchasesTotal.WithLabelValues(OutcomeError).Inc()
		e.publish(ctx, turn, models.EventTypePurchaseFailed, p, nil, "unexpected_error")
		return OutcomeError
	}

	log.Info("Submitting order")
	res := e.backend.SubmitOrder(ctx, submission)
	if !res.IsData() || res.Value == nil {
		log.Warn("Order submission failed", zap.Error(res.Err))
		turn.SendText("❌ **ERRO NO PROCESSAMENTO**\n\n" +
			"Não foi possível processar sua compra no momento.\n\n" +
			"🔄 **Possíveis causas:**\n" +
			"• Saldo insuficiente no cartão\n" +
			"• Cartão expirado ou bloqueado\n" +
			"• Produto fora de estoque\n" +
			"• Erro temporário no sistema\n\n" +
			"💡 **Tente novamente em alguns minutos.**")
		util.PurchasesTotal.WithLabelValues(OutcomeFailed).Inc()
		e.publish(ctx, turn, models.EventTypePurchaseFailed, p, nil, "submission_failed")
		return OutcomeFailed
	}

	confirmation := res.Value
	log.Info("Order submitted", zap.String("order_id", confirmation.OrderID))
	turn.SendText("✅ **COMPRA REALIZADA COM SUCESSO!**\n\n" +
		fmt.Sprintf("🎫 **Número do Pedido:** %s\n", orEmpty(confirmation.OrderID, "N/A")) +
		fmt.Sprintf("💰 **Valor Total:** %s\n", FormatBRL(confirmation.TotalAmount)) +
		fmt.Sprintf("📦 **Produto:** %s\n\n", orEmpty(p.Product.Name, "N/A")) +
		"🚚 **Próximos passos:**\n" +
		"• Você receberá uma confirmação por email\n" +
		"• O produto será enviado em até 5 dias úteis\n" +
		"• Acompanhe seu pedido no menu 'Consultar Pedidos'\n\n" +
		"🎉 **Obrigado pela sua compra!**")
	util.PurchasesTotal.WithLabelValues(OutcomeCompleted).Inc()
	e.publish(ctx, turn, models.EventTypePurchaseSubmitted, p, confirmation, "")
	return OutcomeCompleted
}

func (e *Engine) sendUnexpected(turn *Turn) {
	turn.SendText("❌ **ERRO INESPERADO**\n\n" +
		"Ocorreu um erro inesperado ao processar sua compra.\n\n" +
		"🛠️ **Nossa equipe foi notificada do problema.**\n" +
		"Por favor, tente novamente em alguns minutos.")
}

func (e *Engine) abortPurchase(ctx context.Context, turn *Turn, state State, reason string) State {
	e.log(turn).Info("Purchase aborted on invalid input",
		zap.String("step", string(state.Step)),
		zap.String("reason", reason))
	util.PurchasesTotal.WithLabelValues(OutcomeAborted).Inc()
	e.publish(ctx, turn, models.EventTypePurchaseAborted, state.Purchase, nil, reason)
	return e.finish(turn, FlowPurchase, OutcomeAborted)
}

// publish emits a purchase event; failures are logged and never surface
// to the user.
func (e *Engine) publish(
	ctx context.Context,
	turn *Turn,
	eventType string,
	p *models.PendingPurchase,
	confirmation *models.OrderConfirmation,
	reason string,
) {
	if e.events == nil || p == nil {
		return
	}

	event := &models.PurchaseEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: e.now().UTC().Truncate(time.Millisecond),
		},
		ConversationID: turn.ConversationID,
		UserID:         p.UserID,
		ProductID:      p.Product.ID,
		ProductName:    p.Product.Name,
		Price:          p.Product.Price.StringFixed(2),
		Reason:         reason,
	}
	if p.CardNumber != "" {
		event.MaskedCard = util.MaskCard(p.CardNumber)
	}
	if confirmation != nil {
		event.OrderID = confirmation.OrderID
		event.TotalAmount = confirmation.TotalAmount.StringFixed(2)
	}

	if err := e.events.PublishPurchaseEvent(ctx, event); err != nil {
		e.log(turn).Error("Failed to publish purchase event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
