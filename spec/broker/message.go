package broker

import "time"

// FeeCreated is published once a fee has been persisted
type FeeCreated struct {
	FeeID          string    `json:"feeId"`
	InvoiceID      string    `json:"invoiceId"`
	SubscriptionID string    `json:"subscriptionId"`
	Kind           string    `json:"kind"`
	AmountCents    int64     `json:"amountCents"`
	AmountCurrency string    `json:"amountCurrency"`
	VATAmountCents int64     `json:"vatAmountCents"`
	CreatedAt      time.Time `json:"createdAt"`
}

// InvoiceReady asks for the subscription fee of an invoice to be created
type InvoiceReady struct {
	InvoiceID string `json:"invoiceId"`
}
