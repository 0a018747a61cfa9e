package spec

// Defining routing keys on the billing exchange
const (
	BillingExchange string = "billing"

	FeeCreatedKey   string = "fee.created"
	InvoiceReadyKey string = "invoice.ready"
)

type TaskType string

const (
	FeeTask TaskType = "fee"
)
