package invoice

import (
	"time"

	"github.com/zllovesuki/rmc-fees/proration"
)

// Status is the custom type to define the current status of an invoice
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusFinalized Status = "Finalized"
)

// Invoice describes the billing window of one period of a subscription
type Invoice struct {
	ID             string    `json:"id" gorm:"primaryKey" validate:"required"`
	SubscriptionID string    `json:"subscriptionId" gorm:"index" validate:"required"`
	FromDate       time.Time `json:"fromDate" validate:"required"`
	ToDate         time.Time `json:"toDate" validate:"required,gtefield=FromDate"`
	Status         Status    `json:"status" validate:"oneof=Draft Finalized"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Window returns the proration window of the Invoice. renewal must report whether
// the subscription was already charged a subscription fee.
func (i *Invoice) Window(renewal bool) proration.Window {
	return proration.Window{
		From:    i.FromDate,
		To:      i.ToDate,
		Renewal: renewal,
	}
}
