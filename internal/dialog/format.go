package dialog

import (
	"strings"
	"time"

	"mall-bot/internal/models"

	"github.com/shopspring/decimal"
)

const displayDateLayout = "02/01/2006 às 15:04"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatBRL renders an amount as Brazilian reais, e.g. R$ 1.234,50.
func FormatBRL(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "R$ " + b.String() + "," + frac
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders an API timestamp for display; unparseable input is
// returned unchanged.
func FormatDate(raw string) string {
	t, ok := parseTimestamp(raw)
	if !ok {
		return raw
	}
	return t.Format(displayDateLayout)
}

// truncate cuts s to max runes, appending an ellipsis when it did.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// shortRef shows the first 8 characters of a long reference.
func shortRef(ref string) string {
	if ref == "" {
		return "N/A"
	}
	return truncate(ref, 8)
}

func orEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

var orderStatusLabels = map[string]string{
	models.OrderStatusPending:   "Pendente",
	models.OrderStatusPaid:      "Pago",
	models.OrderStatusShipped:   "Enviado",
	models.OrderStatusDelivered: "Entregue",
	models.OrderStatusCancelled: "Cancelado",
}

var orderStatusIcons = map[string]string{
	models.OrderStatusPending:   "⏳",
	models.OrderStatusPaid:      "✅",
	models.OrderStatusShipped:   "🚚",
	models.OrderStatusDelivered: "📦",
	models.OrderStatusCancelled: "❌",
}

func orderStatusLabel(status string) string {
	if label, ok := orderStatusLabels[strings.ToUpper(status)]; ok {
		return label
	}
	return status
}

func orderStatusIcon(status string) string {
	if icon, ok := orderStatusIcons[strings.ToUpper(status)]; ok {
		return icon
	}
	return "❓"
}

var transactionTypeLabels = map[string]string{
	models.TransactionPurchase: "Compra",
	models.TransactionLoad:     "Recarga de Crédito",
	models.TransactionCredit:   "Crédito",
	models.TransactionReversal: "Estorno",
}

var transactionTypeIcons = map[string]string{
	models.TransactionPurchase: "🛒",
	models.TransactionLoad:     "💳",
	models.TransactionCredit:   "💰",
	models.TransactionReversal: "↩️",
}

func transactionTypeLabel(tx models.Transaction) string {
	if label, ok := transactionTypeLabels[tx.NormalizedType()]; ok {
		return label
	}
	return tx.Type
}

func transactionTypeIcon(tx models.Transaction) string {
	if icon, ok := transactionTypeIcons[tx.NormalizedType()]; ok {
		return icon
	}
	return "💸"
}
