package subscription

import "time"

// State is the custom type to define the current state of a subscription
type State string

// Defining different States for a Subscription
const (
	StateActive     State = "Active"
	StatePending    State = "Pending"
	StateTerminated State = "Terminated"
)

// Subscription binds a customer to a Plan
type Subscription struct {
	ID         string    `json:"id" gorm:"primaryKey" validate:"required"`
	CustomerID string    `json:"customerId" gorm:"index" validate:"required"`
	PlanID     string    `json:"planId" gorm:"index" validate:"required"`
	Plan       Plan      `json:"plan" validate:"-"`
	State      State     `json:"state" validate:"oneof=Active Pending Terminated"`
	StartedAt  time.Time `json:"startedAt"`
	CreatedAt  time.Time `json:"createdAt"`
}
