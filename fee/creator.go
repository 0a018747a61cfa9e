package fee

import (
	"context"
	"errors"
	"fmt"

	"github.com/zllovesuki/rmc-fees/invoice"
	"github.com/zllovesuki/rmc-fees/proration"
	"github.com/zllovesuki/rmc-fees/spec/broker"
	"github.com/zllovesuki/rmc-fees/subscription"

	"github.com/google/uuid"
	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Result is the outcome of creating a subscription Fee. Exactly one of Fee or Failure is set
type Result struct {
	Fee           *Fee               `json:"fee,omitempty"`
	AlreadyBilled bool               `json:"alreadyBilled"` // Fee was found instead of created
	Failure       *ValidationFailure `json:"failure,omitempty"`
}

// Success reports whether the Result holds a Fee
func (r *Result) Success() bool {
	return r.Failure == nil
}

type CreatorOptions struct {
	InvoiceManager      *invoice.Manager
	SubscriptionManager *subscription.Manager
	FeeManager          *Manager
	Producer            broker.Producer // Optional, FeeCreated is published when set
	Logger              *zap.Logger
}

// Creator charges the subscription fee of invoices
type Creator struct {
	CreatorOptions
}

func NewCreator(option CreatorOptions) (*Creator, error) {
	if option.InvoiceManager == nil {
		return nil, fmt.Errorf("nil InvoiceManager is invalid")
	}
	if option.SubscriptionManager == nil {
		return nil, fmt.Errorf("nil SubscriptionManager is invalid")
	}
	if option.FeeManager == nil {
		return nil, fmt.Errorf("nil FeeManager is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Creator{
		CreatorOptions: option,
	}, nil
}

// CreateSubscriptionFee looks up the invoice with its subscription and plan, then calls Create
func (c *Creator) CreateSubscriptionFee(ctx context.Context, invoiceID string) (*Result, error) {
	inv, sub, err := c.lookup(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return c.Create(ctx, inv, sub, &sub.Plan)
}

// Create charges the subscription fee of the invoice at most once. An invoice already
// billed returns its existing Fee. An invalid Fee is reported in Result.Failure, not as an error.
func (c *Creator) Create(ctx context.Context, inv *invoice.Invoice, sub *subscription.Subscription, plan *subscription.Plan) (*Result, error) {
	logger := c.Logger.With(
		zap.String("InvoiceID", inv.ID),
		zap.String("SubscriptionID", sub.ID),
		zap.String("PlanID", plan.ID),
	)

	existing, err := c.FeeManager.SubscriptionFeeForInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Result{Fee: existing, AlreadyBilled: true}, nil
	}

	renewal, err := c.FeeManager.SubscriptionHasFee(ctx, sub.ID, inv.ID)
	if err != nil {
		return nil, err
	}

	amount, err := proration.Compute(plan.Terms(), inv.Window(renewal))
	if err != nil {
		logger.Error("Unable to compute subscription fee",
			zap.Error(err),
		)
		return nil, extErrors.Wrap(err, "Cannot compute subscription fee")
	}

	newFee := &Fee{
		ID:             uuid.NewString(),
		InvoiceID:      inv.ID,
		SubscriptionID: sub.ID,
		Kind:           KindSubscription,
		AmountCents:    amount,
		AmountCurrency: plan.AmountCurrency,
		VATRate:        plan.VATRate,
	}
	newFee.ComputeVAT()

	if err := c.FeeManager.Create(ctx, newFee); err != nil {
		var failure *ValidationFailure
		if errors.As(err, &failure) {
			logger.Warn("Subscription fee is invalid",
				zap.Any("Messages", failure.Messages),
			)
			return &Result{Failure: failure}, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race against a concurrent creation
			winner, lookupErr := c.FeeManager.SubscriptionFeeForInvoice(ctx, inv.ID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if winner != nil {
				return &Result{Fee: winner, AlreadyBilled: true}, nil
			}
		}
		return nil, err
	}

	logger.Info("Subscription fee created",
		zap.String("FeeID", newFee.ID),
		zap.Int64("AmountCents", newFee.AmountCents),
		zap.Bool("Renewal", renewal),
	)

	c.publish(logger, newFee)

	return &Result{Fee: newFee}, nil
}

// Preview returns how the subscription fee of the invoice would be computed, without storing anything
func (c *Creator) Preview(ctx context.Context, invoiceID string) (*proration.Detail, error) {
	inv, sub, err := c.lookup(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	renewal, err := c.FeeManager.SubscriptionHasFee(ctx, sub.ID, inv.ID)
	if err != nil {
		return nil, err
	}
	detail, err := proration.Breakdown(sub.Plan.Terms(), inv.Window(renewal))
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot compute subscription fee")
	}
	return &detail, nil
}

func (c *Creator) lookup(ctx context.Context, invoiceID string) (*invoice.Invoice, *subscription.Subscription, error) {
	inv, err := c.InvoiceManager.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if inv == nil {
		return nil, nil, ErrInvoiceNotFound
	}
	sub, err := c.SubscriptionManager.Get(ctx, inv.SubscriptionID)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, ErrSubscriptionNotFound
	}
	return inv, sub, nil
}

func (c *Creator) publish(logger *zap.Logger, f *Fee) {
	if c.Producer == nil {
		return
	}
	if err := c.Producer.PublishFeeCreated(&broker.FeeCreated{
		FeeID:          f.ID,
		InvoiceID:      f.InvoiceID,
		SubscriptionID: f.SubscriptionID,
		Kind:           string(f.Kind),
		AmountCents:    f.AmountCents,
		AmountCurrency: f.AmountCurrency,
		VATAmountCents: f.VATAmountCents,
		CreatedAt:      f.CreatedAt,
	}); err != nil {
		// the fee is stored, the event is best effort
		logger.Error("Unable to publish fee created event",
			zap.String("FeeID", f.ID),
			zap.Error(err),
		)
	}
}
