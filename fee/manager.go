package fee

import (
	"context"
	"errors"

	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Manager handles the database operations relating to Fees
type Manager struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewManager returns a new Manager for fees
func NewManager(logger *zap.Logger, db *gorm.DB) (*Manager, error) {
	if err := db.AutoMigrate(&Fee{}); err != nil {
		return nil, extErrors.Wrap(err, "Cannot initialize fee.Manager")
	}
	return &Manager{
		db:     db,
		logger: logger,
	}, nil
}

// SubscriptionFeeForInvoice returns the subscription Fee of the invoice, or nil if there is none
func (m *Manager) SubscriptionFeeForInvoice(ctx context.Context, invoiceID string) (*Fee, error) {
	var f Fee

	result := m.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Where("kind = ?", KindSubscription).
		First(&f)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, extErrors.Wrap(result.Error, "Cannot get subscription fee of invoice")
	}

	return &f, nil
}

// SubscriptionHasFee reports whether the subscription was charged a subscription Fee on an invoice other than exceptInvoiceID
func (m *Manager) SubscriptionHasFee(ctx context.Context, subscriptionID, exceptInvoiceID string) (bool, error) {
	var count int64

	result := m.db.WithContext(ctx).
		Model(&Fee{}).
		Where("subscription_id = ?", subscriptionID).
		Where("kind = ?", KindSubscription).
		Where("invoice_id <> ?", exceptInvoiceID).
		Count(&count)

	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return false, extErrors.Wrap(result.Error, "Cannot count subscription fees")
	}

	return count > 0, nil
}

// Create validates and stores the Fee. An invalid Fee yields a *ValidationFailure;
// a second subscription Fee on the same invoice yields gorm.ErrDuplicatedKey.
func (m *Manager) Create(ctx context.Context, f *Fee) error {
	if err := validateFee(f); err != nil {
		return err
	}
	result := m.db.WithContext(ctx).Create(f)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return extErrors.Wrap(result.Error, "Fee already exists")
	}
	if result.Error != nil {
		m.logger.Error("Unable to create new fee in database",
			zap.Error(result.Error),
		)
		return extErrors.Wrap(result.Error, "Cannot create fee")
	}
	return nil
}

// ListByInvoice returns every Fee of the invoice, oldest first
func (m *Manager) ListByInvoice(ctx context.Context, invoiceID string) ([]Fee, error) {
	results := make([]Fee, 0, 1)
	result := m.db.WithContext(ctx).
		Order("created_at asc").
		Find(&results, "invoice_id = ?", invoiceID)
	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, extErrors.Wrap(result.Error, "Cannot list fees of invoice")
	}
	return results, nil
}
