package dialog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mall-bot/internal/apiclient"
	"mall-bot/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxStatementEntries caps how many transactions are shown in detail.
const MaxStatementEntries = 10

// StatementSummary totals a card statement. Reversals count in neither
// column.
type StatementSummary struct {
	Credits   decimal.Decimal
	Purchases decimal.Decimal
	Balance   decimal.Decimal
}

func SummarizeStatement(txs []models.Transaction) StatementSummary {
	var s StatementSummary
	for _, tx := range txs {
		switch {
		case tx.IsCredit():
			s.Credits = s.Credits.Add(tx.Amount)
		case tx.NormalizedType() == models.TransactionPurchase:
			s.Purchases = s.Purchases.Add(tx.Amount)
		}
	}
	s.Balance = s.Credits.Sub(s.Purchases)
	return s
}

// RecentTransactions returns at most limit entries, most recent first.
// Entries with unparseable dates keep their relative API order after the
// dated ones.
func RecentTransactions(txs []models.Transaction, limit int) []models.Transaction {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := parseTimestamp(sorted[i].Date)
		tj, okJ := parseTimestamp(sorted[j].Date)
		if okI != okJ {
			return okI
		}
		return okI && ti.After(tj)
	})

	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func (e *Engine) beginStatement(turn *Turn) State {
	e.started(FlowStatement)

	turn.SendText("💳 **Extrato de Compras**\n\n" +
		"Para consultar seu extrato de transações, preciso de algumas informações.\n\n" +
		"💡 **Em um sistema real, você já estaria logado automaticamente.**")
	turn.SendText("👤 Digite seu ID de usuário (número):")
	return at(FlowStatement, StepStatementUserID)
}

func (e *Engine) continueStatement(ctx context.Context, turn *Turn, state State) State {
	switch state.Step {
	case StepStatementUserID:
		userID, ok := ParseNumericID(turn.Text)
		if !ok {
			turn.SendText("❌ ID do usuário deve ser um número válido.")
			return e.finish(turn, FlowStatement, OutcomeAborted)
		}
		turn.SendText("💳 **ID do Cartão**\n\n" +
			"Digite o ID do cartão para consultar o extrato:\n\n" +
			"💡 **Dica:** Normalmente é 1, 2, 3... conforme a ordem que você cadastrou os cartões.")
		next := at(FlowStatement, StepStatementCardID)
		next.UserID = userID
		return next

	case StepStatementCardID:
		cardID, ok := ParseNumericID(turn.Text)
		if !ok {
			turn.SendText("❌ ID do cartão deve ser um número válido.")
			return e.finish(turn, FlowStatement, OutcomeAborted)
		}
		return e.showStatement(ctx, turn, state.UserID, cardID)
	}
	return e.unknownStep(turn, state)
}

func (e *Engine) showStatement(ctx context.Context, turn *Turn, userID, cardID int64) State {
	if !e.probe(ctx, turn, "extratos") {
		return e.finish(turn, FlowStatement, OutcomeFailed)
	}

	turn.SendText(fmt.Sprintf("🔄 Buscando extrato do cartão %d para usuário %d...", cardID, userID))

	res := e.backend.GetCardStatement(ctx, userID, cardID)
	switch {
	case res.IsFailure():
		log := e.log(turn).With(zap.Int64("user_id", userID), zap.Int64("card_id", cardID))
		if errors.Is(res.Err, apiclient.ErrAccessDenied) {
			log.Info("Statement access denied")
			turn.SendText("🚫 **Acesso Negado**\n\n" +
				fmt.Sprintf("O cartão %d não pertence ao usuário %d.\n\n", cardID, userID) +
				"🔄 **Verifique os dados e tente novamente.**")
			return e.finish(turn, FlowStatement, OutcomeFailed)
		}
		log.Warn("Failed to fetch statement", zap.Error(res.Err))
		turn.SendText("❌ **Erro na Consulta**\n\n" +
			"Possíveis causas:\n" +
			"• Cartão não encontrado\n" +
			"• Erro temporário no sistema\n\n" +
			"🔄 **Verifique os dados e tente novamente.**")
		return e.finish(turn, FlowStatement, OutcomeFailed)
	case res.IsEmpty():
		turn.SendText("📄 **Extrato Vazio**\n\n" +
			fmt.Sprintf("O cartão %d ainda não possui transações registradas.\n\n", cardID) +
			"💡 **As transações aparecerão aqui quando você:**\n" +
			"• Realizar compras\n" +
			"• Adicionar créditos ao cartão\n" +
			"• Fazer outras operações financeiras")
		return e.finish(turn, FlowStatement, OutcomeEmpty)
	}

	txs := res.Value
	turn.SendText("✅ **Extrato encontrado!**\n\n" +
		fmt.Sprintf("💳 **Cartão:** %d\n", cardID) +
		fmt.Sprintf("📊 **Total de transações:** %d\n\n", len(txs)) +
		"📋 **Histórico de transações:**")

	turn.SendText(RenderStatementSummary(SummarizeStatement(txs)))
	for i, tx := range RecentTransactions(txs, MaxStatementEntries) {
		turn.SendText(RenderTransaction(i+1, tx))
	}
	if len(txs) > MaxStatementEntries {
		turn.SendText(fmt.Sprintf("ℹ️ **Exibindo as %d transações mais recentes.**\n", MaxStatementEntries) +
			fmt.Sprintf("Total de %d transações no histórico.", len(txs)))
	}
	return e.finish(turn, FlowStatement, OutcomeCompleted)
}

func RenderStatementSummary(s StatementSummary) string {
	return "💰 **RESUMO FINANCEIRO**\n" +
		"━━━━━━━━━━━━━━━━━━━━\n" +
		fmt.Sprintf("💳 **Total Créditos:** %s\n", FormatBRL(s.Credits)) +
		fmt.Sprintf("🛒 **Total Compras:** %s\n", FormatBRL(s.Purchases)) +
		fmt.Sprintf("💵 **Saldo Atual:** %s\n", FormatBRL(s.Balance))
}

// RenderTransaction formats one statement entry. Credit types are signed
// "+", everything else "-".
func RenderTransaction(ordinal int, tx models.Transaction) string {
	sign := "-"
	if tx.IsCredit() {
		sign = "+"
	}

	return fmt.Sprintf("%s **TRANSAÇÃO #%d**\n", transactionTypeIcon(tx), ordinal) +
		"━━━━━━━━━━━━━━━━━━━━\n" +
		fmt.Sprintf("📅 **Data:** %s\n", FormatDate(tx.Date)) +
		fmt.Sprintf("🏷️ **Tipo:** %s\n", transactionTypeLabel(tx)) +
		fmt.Sprintf("💰 **Valor:** %s%s\n", sign, FormatBRL(tx.Amount.Abs())) +
		fmt.Sprintf("📝 **Descrição:** %s\n", orEmpty(tx.Description, "Sem descrição")) +
		fmt.Sprintf("🔑 **Autorização:** %s\n", shortRef(tx.AuthorizationCode))
}
