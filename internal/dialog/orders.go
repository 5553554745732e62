package dialog

import (
	"context"
	"fmt"
	"strings"

	"mall-bot/internal/models"

	"go.uber.org/zap"
)

func (e *Engine) beginOrders(turn *Turn) State {
	e.started(FlowOrders)

	turn.SendText("📦 **Consulta de Pedidos**\n\n" +
		"Para consultar seus pedidos, preciso do seu ID de usuário.\n\n" +
		"💡 **Em um sistema real, você já estaria logado automaticamente.**")
	turn.SendText("👤 Digite seu ID de usuário (número):")
	return at(FlowOrders, StepOrdersUserID)
}

func (e *Engine) continueOrders(ctx context.Context, turn *Turn, state State) State {
	if state.Step != StepOrdersUserID {
		return e.unknownStep(turn, state)
	}

	userID, ok := ParseNumericID(turn.Text)
	if !ok {
		turn.SendText("❌ ID do usuário deve ser um número válido.")
		return e.finish(turn, FlowOrders, OutcomeAborted)
	}

	if !e.probe(ctx, turn, "pedidos") {
		return e.finish(turn, FlowOrders, OutcomeFailed)
	}

	turn.SendText(fmt.Sprintf("🔄 Buscando pedidos do usuário %d...", userID))

	res := e.backend.ListUserOrders(ctx, userID)
	switch {
	case res.IsFailure():
		e.log(turn).Warn("Failed to list orders", zap.Int64("user_id", userID), zap.Error(res.Err))
		turn.SendText("❌ **Erro na Consulta**\n\nOcorreu um erro ao buscar seus pedidos. Tente novamente.")
		return e.finish(turn, FlowOrders, OutcomeFailed)
	case res.IsEmpty():
		turn.SendText("📭 **Nenhum pedido encontrado**\n\n" +
			fmt.Sprintf("O usuário %d ainda não possui pedidos realizados.\n\n", userID) +
			"🛍️ **Que tal fazer sua primeira compra?**\n" +
			"Use a opção 'Consultar Produtos' no menu principal!")
		return e.finish(turn, FlowOrders, OutcomeEmpty)
	}

	turn.SendText(fmt.Sprintf("✅ **%d pedido(s) encontrado(s)!**\n\n📋 Aqui estão seus pedidos:", len(res.Value)))
	for i, order := range res.Value {
		turn.SendText(RenderOrder(i+1, order))
	}
	return e.finish(turn, FlowOrders, OutcomeCompleted)
}

// RenderOrder formats one order with its ordinal position in the listing.
func RenderOrder(ordinal int, order models.Order) string {
	var items strings.Builder
	for _, item := range order.Items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		fmt.Fprintf(&items, "   • **%s**\n     Qtd: %d | Preço: %s | Subtotal: %s\n",
			orEmpty(item.ProductName, "Produto"), qty, FormatBRL(item.UnitPrice), FormatBRL(item.SubTotal))
	}

	return fmt.Sprintf("🛍️ **PEDIDO #%d**\n", ordinal) +
		"━━━━━━━━━━━━━━━━━━━━\n" +
		fmt.Sprintf("🎫 **ID:** %s\n", orEmpty(order.ID, "N/A")) +
		fmt.Sprintf("📅 **Data:** %s\n", FormatDate(order.OrderDate)) +
		fmt.Sprintf("%s **Status:** %s\n", orderStatusIcon(order.Status), orderStatusLabel(order.Status)) +
		fmt.Sprintf("💰 **Total:** %s\n", FormatBRL(order.TotalAmount)) +
		fmt.Sprintf("🏠 **Entrega:** %s\n", orEmpty(order.ShippingAddress, "Não informado")) +
		fmt.Sprintf("🔑 **Transação:** %s\n\n", shortRef(order.TransactionID)) +
		"📦 **Itens:**\n" + items.String()
}
