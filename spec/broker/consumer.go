package broker

import "context"

// Consumer defines a consumer receiving billing events via message broker
type Consumer interface {
	Close()
	ReceiveInvoiceReady(ctx context.Context) (<-chan *InvoiceReady, error)
}
