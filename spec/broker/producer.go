package broker

// Producer defines a producer publishing billing events via message broker
type Producer interface {
	Close()
	PublishFeeCreated(p *FeeCreated) error
	PublishInvoiceReady(p *InvoiceReady) error
}
