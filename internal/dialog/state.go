package dialog

import "mall-bot/internal/models"

// Flow identifies the dialog a conversation is in.
type Flow string

const (
	FlowNone      Flow = ""
	FlowMenu      Flow = "menu"
	FlowProducts  Flow = "products"
	FlowPurchase  Flow = "purchase"
	FlowOrders    Flow = "orders"
	FlowStatement Flow = "statement"
)

// Step names the input a flow is waiting for.
type Step string

const (
	StepMenuChoice Step = "menu_choice"

	StepProductQuery  Step = "product_query"
	StepProductAction Step = "product_action"

	StepAwaitUserID       Step = "await_user_id"
	StepAwaitCardNumber   Step = "await_card_number"
	StepAwaitExpiration   Step = "await_expiration"
	StepAwaitCVV          Step = "await_cvv"
	StepAwaitConfirmation Step = "await_confirmation"

	StepOrdersUserID Step = "orders_user_id"

	StepStatementUserID Step = "statement_user_id"
	StepStatementCardID Step = "statement_card_id"
)

// State is everything a conversation carries between turns.
// The zero value means no dialog is active.
type State struct {
	Flow     Flow                    `json:"flow,omitempty"`
	Step     Step                    `json:"step,omitempty"`
	Purchase *models.PendingPurchase `json:"purchase,omitempty"`
	UserID   int64                   `json:"userId,omitempty"`
}

// IsZero reports whether no dialog is active.
func (s State) IsZero() bool {
	return s.Flow == FlowNone
}

func at(flow Flow, step Step) State {
	return State{Flow: flow, Step: step}
}
