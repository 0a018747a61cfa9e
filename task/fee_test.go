package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zllovesuki/rmc-fees/fee"
	"github.com/zllovesuki/rmc-fees/spec/broker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type fakeConsumer struct {
	ch  chan *broker.InvoiceReady
	err error
}

func (c *fakeConsumer) Close() {}

func (c *fakeConsumer) ReceiveInvoiceReady(ctx context.Context) (<-chan *broker.InvoiceReady, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.ch, nil
}

type fakeCreator struct {
	mu       sync.Mutex
	invoices []string
	results  map[string]*fee.Result
	done     chan struct{}
}

func (c *fakeCreator) CreateSubscriptionFee(ctx context.Context, invoiceID string) (*fee.Result, error) {
	c.mu.Lock()
	c.invoices = append(c.invoices, invoiceID)
	result, ok := c.results[invoiceID]
	c.mu.Unlock()

	defer func() { c.done <- struct{}{} }()

	if !ok {
		return nil, fee.ErrInvoiceNotFound
	}
	return result, nil
}

func TestNewFeeTaskRequiresOptions(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewFeeTask(FeeOptions{Consumer: &fakeConsumer{}, Logger: logger})
	assert.Error(t, err)

	_, err = NewFeeTask(FeeOptions{Creator: &fakeCreator{}, Logger: logger})
	assert.Error(t, err)

	_, err = NewFeeTask(FeeOptions{Creator: &fakeCreator{}, Consumer: &fakeConsumer{}})
	assert.Error(t, err)
}

func TestHandleInvoiceReady(t *testing.T) {
	consumer := &fakeConsumer{ch: make(chan *broker.InvoiceReady)}
	creator := &fakeCreator{
		results: map[string]*fee.Result{
			"inv_1": {Fee: &fee.Fee{ID: "fee_1"}},
			"inv_2": {Fee: &fee.Fee{ID: "fee_2"}, AlreadyBilled: true},
			"inv_3": {Failure: &fee.ValidationFailure{Messages: map[string][]string{"amountCurrency": {"value_is_mandatory"}}}},
		},
		done: make(chan struct{}),
	}

	task, err := NewFeeTask(FeeOptions{
		Creator:  creator,
		Consumer: consumer,
		// the worker logs after the last handoff, possibly once the test has returned
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, task.HandleInvoiceReady(ctx))

	ids := []string{"inv_1", "inv_2", "inv_3", "inv_missing"}
	for _, id := range ids {
		consumer.ch <- &broker.InvoiceReady{InvoiceID: id}
		select {
		case <-creator.done:
		case <-time.After(time.Second):
			t.Fatalf("invoice %s was not processed", id)
		}
	}

	creator.mu.Lock()
	defer creator.mu.Unlock()
	assert.Equal(t, ids, creator.invoices)
}

func TestHandleInvoiceReadyConsumerError(t *testing.T) {
	task, err := NewFeeTask(FeeOptions{
		Creator:  &fakeCreator{},
		Consumer: &fakeConsumer{err: errors.New("channel closed")},
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	assert.Error(t, task.HandleInvoiceReady(context.Background()))
}
