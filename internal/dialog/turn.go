package dialog

import (
	"encoding/json"

	"mall-bot/internal/models"
)

// Turn is one inbound user message plus the replies produced for it.
type Turn struct {
	ConversationID string
	Text           string
	Value          json.RawMessage

	replies []models.Activity
}

func NewTurn(conversationID, text string, value json.RawMessage) *Turn {
	return &Turn{
		ConversationID: conversationID,
		Text:           text,
		Value:          value,
	}
}

// SendText queues a markdown text reply.
func (t *Turn) SendText(text string) {
	t.replies = append(t.replies, models.Activity{
		Type:       models.ActivityTypeMessage,
		Text:       text,
		TextFormat: "markdown",
	})
}

// SendChoices queues a prompt with one suggested action per choice.
func (t *Turn) SendChoices(text string, choices []string) {
	actions := make([]models.CardAction, 0, len(choices))
	for _, c := range choices {
		actions = append(actions, models.CardAction{Type: models.ActionTypeImBack, Title: c, Value: c})
	}
	t.replies = append(t.replies, models.Activity{
		Type:             models.ActivityTypeMessage,
		Text:             text,
		TextFormat:       "markdown",
		SuggestedActions: &models.SuggestedActions{Actions: actions},
	})
}

// SendCard queues a hero card attachment.
func (t *Turn) SendCard(card models.HeroCard) {
	t.replies = append(t.replies, models.Activity{
		Type: models.ActivityTypeMessage,
		Attachments: []models.Attachment{
			{ContentType: models.HeroCardContentType, Content: card},
		},
	})
}

// Replies returns the queued replies in send order.
func (t *Turn) Replies() []models.Activity {
	return t.replies
}

// buyAction decodes a buy-button postBack, if the turn carries one.
func (t *Turn) buyAction() (models.BuyAction, bool) {
	var action models.BuyAction
	if len(t.Value) == 0 {
		return action, false
	}
	if err := json.Unmarshal(t.Value, &action); err != nil {
		return action, false
	}
	return action, action.Action == models.BuyActionName && action.ProductID != ""
}
