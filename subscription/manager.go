package subscription

import (
	"context"
	"errors"
	"fmt"

	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ManagerOptions struct {
	DB             *gorm.DB
	Logger         *zap.Logger
	PathToPlanJSON string // Optional plan catalog synchronized on startup
}

// Manager handles the database operations relating to Plans and Subscriptions
type Manager struct {
	ManagerOptions
	planArray      []Plan
	planIDIndexMap map[string]int
}

func NewManager(option ManagerOptions) (*Manager, error) {
	if option.DB == nil {
		return nil, fmt.Errorf("nil DB is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if err := option.DB.AutoMigrate(&Plan{}, &Subscription{}); err != nil {
		return nil, extErrors.Wrap(err, "Cannot initialize subscription.Manager")
	}

	m := &Manager{
		ManagerOptions: option,
		planIDIndexMap: make(map[string]int),
	}

	if len(option.PathToPlanJSON) > 0 {
		plans, err := LoadPlansFromFile(option.PathToPlanJSON)
		if err != nil {
			return nil, extErrors.Wrap(err, "Cannot populate defined Plans")
		}
		if err := m.SyncPlans(context.Background(), plans); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// SyncPlans upserts the given Plans and makes them the defined Plans
func (m *Manager) SyncPlans(ctx context.Context, plans []Plan) error {
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			return extErrors.Wrapf(err, "Invalid plan %q", p.ID)
		}
	}
	if len(plans) > 0 {
		result := m.DB.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&plans)
		if result.Error != nil {
			m.Logger.Error("Unable to synchronize plans in database",
				zap.Error(result.Error),
			)
			return extErrors.Wrap(result.Error, "Cannot synchronize plans")
		}
	}

	planMap := make(map[string]int)
	for index, p := range plans {
		planMap[p.ID] = index + 1
	}
	m.planArray = plans
	m.planIDIndexMap = planMap

	m.Logger.Info("Plans synchronized",
		zap.Int("count", len(plans)),
	)
	return nil
}

func (m *Manager) ListDefinedPlans() []Plan {
	return m.planArray
}

func (m *Manager) GetDefinedPlanByID(planID string) (Plan, bool) {
	index := m.planIDIndexMap[planID]
	if index == 0 {
		return Plan{}, false
	}

	plan := m.planArray[index-1]

	plan.Parameters = plan.Parameters.Clone()
	return plan, true
}

// GetPlan returns the stored Plan, or nil if there is none
func (m *Manager) GetPlan(ctx context.Context, planID string) (*Plan, error) {
	var plan Plan
	result := m.DB.WithContext(ctx).First(&plan, "id = ?", planID)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		m.Logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, extErrors.Wrap(result.Error, "Cannot get plan by id")
	}

	return &plan, nil
}

func (m *Manager) Create(ctx context.Context, sub *Subscription) error {
	if err := validate.Struct(sub); err != nil {
		return extErrors.Wrap(err, "Invalid subscription")
	}
	result := m.DB.WithContext(ctx).Omit("Plan").Create(sub)
	if result.Error != nil {
		m.Logger.Error("Unable to create new subscription in database",
			zap.Error(result.Error),
		)
		return extErrors.Wrap(result.Error, "Cannot create subscription")
	}
	return nil
}

// Get returns the Subscription with its Plan, or nil if there is none
func (m *Manager) Get(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if len(subscriptionID) == 0 {
		return nil, fmt.Errorf("SubscriptionID is required")
	}
	var sub Subscription
	result := m.DB.WithContext(ctx).
		Preload("Plan").
		Where("id = ?", subscriptionID).
		First(&sub)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		m.Logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, extErrors.Wrap(result.Error, "Cannot get subscription by id")
	}

	return &sub, nil
}
