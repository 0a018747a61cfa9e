package broker

import (
	"context"
	"encoding/json"

	"github.com/zllovesuki/rmc-fees/spec"
	"github.com/zllovesuki/rmc-fees/spec/broker"

	extErrors "github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

var _ broker.Producer = &AMQPBroker{}
var _ broker.Consumer = &AMQPBroker{}

const invoiceReadyQueue string = "fee_invoice_ready"

// AMQPBroker describes a message broker via RabbitMQ
type AMQPBroker struct {
	logger     *zap.Logger
	connection *amqp.Connection
	channel    *amqp.Channel
}

// NewAMQPBroker returns a Message Broker over RabbitMQ
func NewAMQPBroker(logger *zap.Logger, amqpURI string) (*AMQPBroker, error) {
	amqpConn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot connect to Message Broker")
	}
	amqpChan, err := amqpConn.Channel()
	if err != nil {
		amqpConn.Close()
		return nil, extErrors.Wrap(err, "Cannot create broker channel")
	}
	broker := &AMQPBroker{
		logger:     logger,
		connection: amqpConn,
		channel:    amqpChan,
	}
	if err := broker.setupBillingExchange(); err != nil {
		broker.Close()
		return nil, extErrors.Wrap(err, "Cannot declare exchange for billing events")
	}

	return broker, nil
}

func (a *AMQPBroker) setupBillingExchange() error {
	return a.channel.ExchangeDeclare(
		spec.BillingExchange, // name
		"direct",             // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
}

// Close will close the channel and connection to release resources
func (a *AMQPBroker) Close() {
	a.channel.Close()
	a.connection.Close()
}

func (a *AMQPBroker) publishViaRoutingKey(routingKey string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return extErrors.Wrap(err, "Cannot encode message into bytes")
	}
	return a.channel.Publish(
		spec.BillingExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// PublishFeeCreated announces a stored fee
func (a *AMQPBroker) PublishFeeCreated(p *broker.FeeCreated) error {
	if err := a.publishViaRoutingKey(spec.FeeCreatedKey, p); err != nil {
		return extErrors.Wrap(err, "Cannot publish fee created event")
	}
	return nil
}

// PublishInvoiceReady asks the fee workers to bill an invoice
func (a *AMQPBroker) PublishInvoiceReady(p *broker.InvoiceReady) error {
	if err := a.publishViaRoutingKey(spec.InvoiceReadyKey, p); err != nil {
		return extErrors.Wrap(err, "Cannot publish invoice ready event")
	}
	return nil
}

func (a *AMQPBroker) bindAndGetMsgChan(qName, routingKey string) (<-chan amqp.Delivery, error) {
	if _, err := a.channel.QueueDeclare(
		qName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return nil, err
	}
	if err := a.channel.QueueBind(
		qName,
		routingKey,
		spec.BillingExchange,
		false,
		nil,
	); err != nil {
		return nil, err
	}
	return a.channel.Consume(
		qName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

// ReceiveInvoiceReady returns a channel of decoded InvoiceReady requests. Undecodable messages are dropped
func (a *AMQPBroker) ReceiveInvoiceReady(ctx context.Context) (<-chan *broker.InvoiceReady, error) {
	msgChan, err := a.bindAndGetMsgChan(invoiceReadyQueue, spec.InvoiceReadyKey)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot setup consumer")
	}
	rChan := make(chan *broker.InvoiceReady)
	go func() {
		defer close(rChan)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgChan:
				if !ok {
					return
				}
				var req broker.InvoiceReady
				if err := json.Unmarshal(d.Body, &req); err != nil || len(req.InvoiceID) == 0 {
					a.logger.Error("Dropping undecodable invoice ready message",
						zap.Error(err),
					)
					d.Nack(false, false)
					continue
				}
				select {
				case rChan <- &req:
					d.Ack(false)
				case <-ctx.Done():
					d.Nack(false, true)
					return
				}
			}
		}
	}()
	return rChan, nil
}
