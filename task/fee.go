package task

import (
	"context"
	"fmt"

	"github.com/zllovesuki/rmc-fees/fee"
	"github.com/zllovesuki/rmc-fees/spec/broker"

	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// FeeCreator is the part of fee.Creator used by the task
type FeeCreator interface {
	CreateSubscriptionFee(ctx context.Context, invoiceID string) (*fee.Result, error)
}

type FeeOptions struct {
	Creator  FeeCreator
	Consumer broker.Consumer
	Logger   *zap.Logger
}

// FeeTask bills the subscription fee of every invoice announced as ready
type FeeTask struct {
	FeeOptions
}

func NewFeeTask(option FeeOptions) (*FeeTask, error) {
	if option.Creator == nil {
		return nil, fmt.Errorf("nil Creator is invalid")
	}
	if option.Consumer == nil {
		return nil, fmt.Errorf("nil Consumer is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &FeeTask{
		FeeOptions: option,
	}, nil
}

func (t *FeeTask) handleInvoiceReady(ctx context.Context, iChan <-chan *broker.InvoiceReady) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-iChan:
			if !ok {
				return
			}
			t.process(ctx, req)
		}
	}
}

func (t *FeeTask) process(ctx context.Context, req *broker.InvoiceReady) {
	logger := t.Logger.With(zap.String("InvoiceID", req.InvoiceID))

	result, err := t.Creator.CreateSubscriptionFee(ctx, req.InvoiceID)
	if err != nil {
		logger.Error("Cannot create subscription fee",
			zap.Error(err),
		)
		return
	}
	if !result.Success() {
		logger.Error("Subscription fee failed validation",
			zap.Error(result.Failure),
		)
		return
	}
	if result.AlreadyBilled {
		logger.Info("Invoice already billed",
			zap.String("FeeID", result.Fee.ID),
		)
	}
}

// HandleInvoiceReady starts consuming in the background until ctx is done
func (t *FeeTask) HandleInvoiceReady(ctx context.Context) error {
	iChan, err := t.Consumer.ReceiveInvoiceReady(ctx)
	if err != nil {
		return extErrors.Wrap(err, "Cannot get invoice ready channel")
	}
	go t.handleInvoiceReady(ctx, iChan)
	return nil
}
