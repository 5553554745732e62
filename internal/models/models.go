package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry owned by the e-commerce API.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"productDescription"`
	ImageURLs   []string        `json:"imageUrl"`
}

// Order represents a customer order as returned by GET /orders/user/{id}
type Order struct {
	ID              string          `json:"id"`
	UserID          int64           `json:"userId"`
	OrderDate       string          `json:"orderDate"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress string          `json:"shippingAddress"`
	TransactionID   string          `json:"transactionId"`
}

// OrderItem represents a line of an order
type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	SubTotal    decimal.Decimal `json:"subTotal"`
}

// Order statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Transaction is one card statement entry.
type Transaction struct {
	Date              string          `json:"dataTransacao"`
	Amount            decimal.Decimal `json:"valor"`
	Type              string          `json:"tipoTransacao"`
	Description       string          `json:"descricao"`
	AuthorizationCode string          `json:"codigoAutorizacao"`
}

// Transaction types as sent by the statement endpoint
const (
	TransactionPurchase = "COMPRA"
	TransactionLoad     = "CARGA"
	TransactionCredit   = "CREDITO"
	TransactionReversal = "ESTORNO"
)

// NormalizedType returns the upper-cased transaction type.
func (t Transaction) NormalizedType() string {
	return strings.ToUpper(strings.TrimSpace(t.Type))
}

// IsCredit reports whether the entry adds to the card balance.
func (t Transaction) IsCredit() bool {
	switch t.NormalizedType() {
	case TransactionLoad, TransactionCredit:
		return true
	}
	return false
}

// OrderSubmission is the POST /orders payload.
type OrderSubmission struct {
	UserID         int64                 `json:"userId"`
	Items          []OrderSubmissionItem `json:"items"`
	CardAccountRef string                `json:"cartaoId"`
}

type OrderSubmissionItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// OrderConfirmation is the 201 body of POST /orders.
type OrderConfirmation struct {
	OrderID     string          `json:"orderId"`
	Status      string          `json:"status"`
	OrderDate   string          `json:"orderDate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Message     string          `json:"message"`
}

// ProductRef is the slice of a product the purchase flow needs.
type ProductRef struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ErrIncompletePurchase is returned when a purchase is converted before
// every field was collected.
var ErrIncompletePurchase = errors.New("pending purchase is incomplete")

// PendingPurchase accumulates purchase-flow input for one conversation.
type PendingPurchase struct {
	Product    ProductRef `json:"product"`
	UserID     int64      `json:"userId,omitempty"`
	CardNumber string     `json:"cardNumber,omitempty"`
	Expiration string     `json:"expiration,omitempty"`
	CVV        string     `json:"cvv,omitempty"`
}

// Complete reports whether all five fields have been collected.
func (p *PendingPurchase) Complete() bool {
	return p.Product.ID != "" &&
		p.UserID != 0 &&
		p.CardNumber != "" &&
		p.Expiration != "" &&
		p.CVV != ""
}

// ToSubmission builds the single-item order payload.
func (p *PendingPurchase) ToSubmission(cardAccountRef string) (*OrderSubmission, error) {
	if !p.Complete() {
		return nil, ErrIncompletePurchase
	}

	name := p.Product.Name
	if name == "" {
		name = "Produto"
	}

	return &OrderSubmission{
		UserID: p.UserID,
		Items: []OrderSubmissionItem{
			{
				ProductID:   p.Product.ID,
				ProductName: name,
				Price:       p.Product.Price.InexactFloat64(),
				Quantity:    1,
			},
		},
		CardAccountRef: cardAccountRef,
	}, nil
}
