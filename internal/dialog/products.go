package dialog

import (
	"context"
	"fmt"
	"strings"

	"mall-bot/internal/apiclient"
	"mall-bot/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	queryAll  = "todos"
	queryBack = "voltar"

	placeholderImage = "https://via.placeholder.com/300x200?text=Produto"
)

func (e *Engine) beginProducts(turn *Turn) State {
	e.started(FlowProducts)
	turn.SendText("🔍 **Consulta de Produtos**\n\n" +
		"Como você gostaria de buscar?\n\n" +
		"• Digite **'todos'** para ver todos os produtos\n" +
		"• Digite **o nome** do produto que você procura\n" +
		"• Digite **'voltar'** para retornar ao menu principal")
	return at(FlowProducts, StepProductQuery)
}

func (e *Engine) continueProducts(ctx context.Context, turn *Turn, state State) State {
	switch state.Step {
	case StepProductQuery:
		return e.searchProducts(ctx, turn, state)
	case StepProductAction:
		return e.productAction(turn)
	}
	return e.unknownStep(turn, state)
}

func (e *Engine) searchProducts(ctx context.Context, turn *Turn, state State) State {
	query := strings.TrimSpace(turn.Text)
	if query == "" {
		turn.SendText("❌ Por favor, digite 'todos', o nome de um produto, ou 'voltar'.")
		return state
	}

	keyword := strings.ToLower(query)
	if keyword == queryBack {
		turn.SendText("↩️ Voltando ao menu principal...")
		return e.finish(turn, FlowProducts, OutcomeCancelled)
	}

	if !e.probe(ctx, turn, "produtos") {
		return e.finish(turn, FlowProducts, OutcomeFailed)
	}

	var res apiclient.Result[[]models.Product]
	if keyword == queryAll {
		turn.SendText("🔄 Buscando todos os produtos disponíveis...")
		res = e.backend.ListProducts(ctx)
	} else {
		turn.SendText(fmt.Sprintf("🔄 Buscando produtos com '%s'...", query))
		res = e.backend.SearchProducts(ctx, query)
	}

	switch res.Outcome {
	case apiclient.OutcomeFailure:
		e.log(turn).Error("Product lookup failed", zap.String("query", query), zap.Error(res.Err))
		turn.SendText("❌ **Erro na Busca**\n\nOcorreu um erro ao buscar produtos. Tente novamente.")
		return e.finish(turn, FlowProducts, OutcomeFailed)

	case apiclient.OutcomeEmpty:
		scope := "disponíveis"
		if keyword != queryAll {
			scope = fmt.Sprintf("com o nome \"%s\"", query)
		}
		turn.SendText("😔 **Nenhum produto encontrado**\n\n" +
			"Não encontramos produtos " + scope + ".\n\n" +
			"💡 **Dicas:**\n" +
			"• Tente usar palavras-chave diferentes\n" +
			"• Verifique a ortografia\n" +
			"• Use termos mais gerais (ex: 'notebook' em vez de 'notebook gamer')")
		return e.finish(turn, FlowProducts, OutcomeEmpty)
	}

	products := res.Value
	turn.SendText(fmt.Sprintf("✅ **%d produto(s) encontrado(s)!**\n\n"+
		"📱 Clique em **'Comprar'** para adquirir o produto desejado:", len(products)))
	for _, p := range products {
		turn.SendCard(productCard(p))
	}
	return at(FlowProducts, StepProductAction)
}

// productAction waits for a buy button; anything else ends the listing.
func (e *Engine) productAction(turn *Turn) State {
	action, ok := turn.buyAction()
	if !ok {
		turn.SendText("ℹ️ Consulta de produtos finalizada.")
		return e.finish(turn, FlowProducts, OutcomeCompleted)
	}

	e.log(turn).Info("Buy action received", zap.String("product_id", action.ProductID))
	e.finishQuiet(FlowProducts, OutcomeCompleted)

	name := orEmpty(action.ProductName, "produto")
	turn.SendText(fmt.Sprintf("🛒 Iniciando compra do produto: **%s**", name))
	return e.beginPurchase(turn, models.ProductRef{
		ID:    action.ProductID,
		Name:  name,
		Price: decimal.NewFromFloat(action.Price),
	})
}

func productCard(p models.Product) models.HeroCard {
	name := orEmpty(p.Name, "Produto sem nome")
	description := orEmpty(p.Description, "Sem descrição")

	image := placeholderImage
	if len(p.ImageURLs) > 0 && p.ImageURLs[0] != "" {
		image = p.ImageURLs[0]
	}

	return models.HeroCard{
		Title:    name,
		Subtitle: "💰 " + FormatBRL(p.Price),
		Text:     truncate(description, 100),
		Images:   []models.CardImage{{URL: image}},
		Buttons: []models.CardAction{
			{
				Type:  models.ActionTypePostBack,
				Title: "🛒 Comprar " + truncate(name, 20),
				Value: models.BuyAction{
					Action:      models.BuyActionName,
					ProductID:   p.ID,
					ProductName: name,
					Price:       p.Price.InexactFloat64(),
					Description: description,
				},
			},
		},
	}
}
