package dialog

import (
	"context"
	"strings"
)

// Main menu labels. A choice is recognised by exact label or by its
// 1-based position.
const (
	MenuProducts  = "🔍 Consultar Produtos"
	MenuOrders    = "📦 Consultar Pedidos"
	MenuStatement = "💳 Extrato de Compras"
)

var menuChoices = []string{MenuProducts, MenuOrders, MenuStatement}

func (e *Engine) beginMenu(turn *Turn) State {
	turn.SendChoices("🛍️ **IBMEC MALL - Menu Principal**\n\nEscolha uma das opções abaixo:", menuChoices)
	return at(FlowMenu, StepMenuChoice)
}

func (e *Engine) continueMenu(ctx context.Context, turn *Turn, state State) State {
	if state.Step != StepMenuChoice {
		return e.beginMenu(turn)
	}

	switch menuChoice(turn.Text) {
	case MenuProducts:
		return e.beginProducts(turn)
	case MenuOrders:
		return e.beginOrders(turn)
	case MenuStatement:
		return e.beginStatement(turn)
	}

	turn.SendText("❌ Opção não reconhecida. Tente novamente.")
	return e.beginMenu(turn)
}

func menuChoice(input string) string {
	input = strings.TrimSpace(input)
	for i, label := range menuChoices {
		if input == label || input == string(rune('1'+i)) {
			return label
		}
	}
	return ""
}
