package invoice

import (
	"context"
	"errors"

	"github.com/zllovesuki/rmc-fees/proration"

	"github.com/go-playground/validator/v10"
	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var validate *validator.Validate = validator.New()

// Manager handles the database operations relating to Invoices
type Manager struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewManager returns a new Manager for invoices
func NewManager(logger *zap.Logger, db *gorm.DB) (*Manager, error) {
	if err := db.AutoMigrate(&Invoice{}); err != nil {
		return nil, extErrors.Wrap(err, "Cannot initialize invoice.Manager")
	}
	return &Manager{
		db:     db,
		logger: logger,
	}, nil
}

func (m *Manager) Create(ctx context.Context, inv *Invoice) error {
	if len(inv.Status) == 0 {
		inv.Status = StatusDraft
	}
	// stored as calendar dates, a timestamptz read back in another zone must not shift the day
	inv.FromDate = proration.Date(inv.FromDate)
	inv.ToDate = proration.Date(inv.ToDate)
	if err := validate.Struct(inv); err != nil {
		return extErrors.Wrap(err, "Invalid invoice")
	}
	result := m.db.WithContext(ctx).Create(inv)
	if result.Error != nil {
		m.logger.Error("Unable to create new invoice in database",
			zap.Error(result.Error),
		)
		return extErrors.Wrap(result.Error, "Cannot create invoice")
	}
	return nil
}

// GetByID will try to return the invoice in the database by id
func (m *Manager) GetByID(ctx context.Context, id string) (*Invoice, error) {
	var inv Invoice

	result := m.db.WithContext(ctx).First(&inv, "id = ?", id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, extErrors.Wrap(result.Error, "Cannot get invoice by id")
	}

	return &inv, nil
}
