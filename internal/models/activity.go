package models

import (
	"encoding/json"
	"time"
)

// Activity types
const (
	ActivityTypeMessage            = "message"
	ActivityTypeConversationUpdate = "conversationUpdate"
)

const (
	HeroCardContentType = "application/vnd.microsoft.card.hero"
	ActionTypePostBack  = "postBack"
	ActionTypeImBack    = "imBack"
)

// Activity is one inbound or outbound conversation event.
type Activity struct {
	Type             string              `json:"type"`
	ID               string              `json:"id,omitempty"`
	Timestamp        time.Time           `json:"timestamp,omitempty"`
	ChannelID        string              `json:"channelId,omitempty"`
	From             ChannelAccount      `json:"from"`
	Recipient        ChannelAccount      `json:"recipient"`
	Conversation     ConversationAccount `json:"conversation"`
	Text             string              `json:"text,omitempty"`
	TextFormat       string              `json:"textFormat,omitempty"`
	Value            json.RawMessage     `json:"value,omitempty"`
	MembersAdded     []ChannelAccount    `json:"membersAdded,omitempty"`
	Attachments      []Attachment        `json:"attachments,omitempty"`
	SuggestedActions *SuggestedActions   `json:"suggestedActions,omitempty"`
	ReplyToID        string              `json:"replyToId,omitempty"`
}

type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type ConversationAccount struct {
	ID string `json:"id"`
}

type Attachment struct {
	ContentType string `json:"contentType"`
	Content     any    `json:"content"`
}

type SuggestedActions struct {
	Actions []CardAction `json:"actions"`
}

type HeroCard struct {
	Title    string       `json:"title,omitempty"`
	Subtitle string       `json:"subtitle,omitempty"`
	Text     string       `json:"text,omitempty"`
	Images   []CardImage  `json:"images,omitempty"`
	Buttons  []CardAction `json:"buttons,omitempty"`
}

type CardImage struct {
	URL string `json:"url"`
}

type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value any    `json:"value"`
}

// BuyAction is the postBack value attached to a product's buy button.
type BuyAction struct {
	Action      string  `json:"acao"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

const BuyActionName = "comprar"
