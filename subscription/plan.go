package subscription

import (
	"encoding/json"
	"os"

	"github.com/zllovesuki/rmc-fees/proration"
	"github.com/zllovesuki/rmc-fees/spec"

	"github.com/go-playground/validator/v10"
	extErrors "github.com/pkg/errors"
)

var validate *validator.Validate = validator.New()

// BillingPeriod defines how a Plan aligns its billing periods
type BillingPeriod string

// Defining constants
const (
	BeginningOfPeriod BillingPeriod = "beginning_of_period" // Billed on calendar month/year boundaries
	SubscriptionDate  BillingPeriod = "subscription_date"   // Billed on the anniversary of the subscription
)

// Plan describes what a Subscription is charged every period
type Plan struct {
	ID             string             `json:"id" gorm:"primaryKey" validate:"required"`
	Name           string             `json:"name" validate:"required"`                                          // Represent the name shown to the customer
	Description    string             `json:"description"`                                                       // Shown to the customer
	AmountCents    int64              `json:"amountCents" validate:"gte=0"`                                      // Full-period charge in minor units
	AmountCurrency string             `json:"amountCurrency" validate:"required,iso4217"`                        // The ISO currency code (e.g. EUR)
	VATRate        float64            `json:"vatRate" validate:"gte=0,lte=100"`                                  // Percentage applied on top of the fee
	Interval       proration.Interval `json:"interval" validate:"oneof=monthly yearly"`                          // Billing Frequency
	PayInAdvance   bool               `json:"payInAdvance"`                                                      // Charged at the start of the period instead of the end
	ProRata        bool               `json:"proRata"`                                                           // Charge the first partial period by the day
	BillingPeriod  BillingPeriod      `json:"billingPeriod" validate:"oneof=beginning_of_period subscription_date"` // See BillingPeriod
	Parameters     spec.Parameters    `json:"parameters"`                                                        // Describes what this Plan will have (e.g. {Seats: 5})
}

// BeginningOfPeriod reports whether the Plan is billed on calendar boundaries
func (p *Plan) BeginningOfPeriod() bool {
	return p.BillingPeriod == BeginningOfPeriod
}

// Terms projects the Plan into what the proration needs
func (p *Plan) Terms() proration.Terms {
	return proration.Terms{
		AmountCents:       p.AmountCents,
		Interval:          p.Interval,
		PayInAdvance:      p.PayInAdvance,
		ProRata:           p.ProRata,
		BeginningOfPeriod: p.BeginningOfPeriod(),
	}
}

// Validate checks the Plan against its constraints
func (p *Plan) Validate() error {
	return validate.Struct(p)
}

// LoadPlansFromFile will read from the plan JSON file to define what plans are available.
// Every plan is validated, and duplicated IDs are rejected.
func LoadPlansFromFile(filename string) ([]Plan, error) {
	jsonBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot open plans JSON file")
	}
	plans := make([]Plan, 0, 1)
	if err := json.Unmarshal(jsonBytes, &plans); err != nil {
		return nil, extErrors.Wrap(err, "Invalid plan JSON file")
	}
	seen := make(map[string]bool)
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			return nil, extErrors.Wrapf(err, "Invalid plan %q", p.ID)
		}
		if seen[p.ID] {
			return nil, extErrors.Errorf("Duplicated plan %q", p.ID)
		}
		seen[p.ID] = true
	}
	return plans, nil
}
