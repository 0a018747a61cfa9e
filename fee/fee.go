package fee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies what a Fee is charging for
type Kind string

// Defining constants
const (
	KindSubscription Kind = "subscription"
	KindCharge       Kind = "charge"
)

var hundred = decimal.NewFromInt(100)

// Fee is one line of an invoice. At most one subscription Fee exists per invoice,
// enforced by the partial unique index below.
type Fee struct {
	ID                string    `json:"id" gorm:"primaryKey" validate:"required,uuid"`
	InvoiceID         string    `json:"invoiceId" gorm:"not null;uniqueIndex:idx_fees_invoice_subscription,where:kind = 'subscription'" validate:"required"`
	SubscriptionID    string    `json:"subscriptionId" gorm:"not null;index" validate:"required"`
	Kind              Kind      `json:"kind" gorm:"not null;uniqueIndex:idx_fees_invoice_subscription,where:kind = 'subscription'" validate:"oneof=subscription charge"`
	AmountCents       int64     `json:"amountCents" validate:"gte=0"`
	AmountCurrency    string    `json:"amountCurrency" validate:"required,iso4217"`
	VATRate           float64   `json:"vatRate" validate:"gte=0,lte=100"`
	VATAmountCents    int64     `json:"vatAmountCents" validate:"gte=0"`
	VATAmountCurrency string    `json:"vatAmountCurrency" validate:"required,iso4217"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ComputeVAT sets the VAT amount from the amount and rate, rounded up to the next minor unit
func (f *Fee) ComputeVAT() {
	vat := decimal.NewFromInt(f.AmountCents).
		Mul(decimal.NewFromFloat(f.VATRate)).
		Div(hundred).
		Ceil()
	f.VATAmountCents = vat.IntPart()
	f.VATAmountCurrency = f.AmountCurrency
}

// TotalAmountCents is the amount including VAT
func (f *Fee) TotalAmountCents() int64 {
	return f.AmountCents + f.VATAmountCents
}
