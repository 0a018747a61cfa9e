package subscription

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zllovesuki/rmc-fees/db/dbtest"
	"github.com/zllovesuki/rmc-fees/proration"
	"github.com/zllovesuki/rmc-fees/spec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalog = `[
	{
		"id": "starter-monthly",
		"name": "Starter",
		"amountCents": 3000,
		"amountCurrency": "EUR",
		"vatRate": 20,
		"interval": "monthly",
		"payInAdvance": true,
		"proRata": true,
		"billingPeriod": "beginning_of_period",
		"parameters": {"Seats": "5"}
	},
	{
		"id": "business-yearly",
		"name": "Business",
		"amountCents": 12000,
		"amountCurrency": "USD",
		"vatRate": 0,
		"interval": "yearly",
		"payInAdvance": false,
		"proRata": false,
		"billingPeriod": "subscription_date"
	}
]`

func writeCatalog(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "plans.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPlansFromFile(t *testing.T) {
	plans, err := LoadPlansFromFile(writeCatalog(t, catalog))
	require.NoError(t, err)
	require.Len(t, plans, 2)

	starter := plans[0]
	assert.Equal(t, "starter-monthly", starter.ID)
	assert.True(t, starter.BeginningOfPeriod())
	assert.Equal(t, proration.Terms{
		AmountCents:       3000,
		Interval:          proration.Monthly,
		PayInAdvance:      true,
		ProRata:           true,
		BeginningOfPeriod: true,
	}, starter.Terms())
	assert.Equal(t, spec.Parameters{"Seats": "5"}, starter.Parameters)

	assert.False(t, plans[1].BeginningOfPeriod())
}

func TestLoadPlansFromFileRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing file", ""},
		{"malformed json", `[{"id": }]`},
		{"unsupported interval", `[{"id": "w", "name": "Weekly", "amountCurrency": "EUR", "interval": "weekly", "billingPeriod": "beginning_of_period"}]`},
		{"invalid currency", `[{"id": "c", "name": "Bad", "amountCurrency": "EURO", "interval": "monthly", "billingPeriod": "beginning_of_period"}]`},
		{"vat above 100", `[{"id": "v", "name": "Bad", "amountCurrency": "EUR", "vatRate": 120, "interval": "monthly", "billingPeriod": "beginning_of_period"}]`},
		{"duplicated id", `[
			{"id": "d", "name": "One", "amountCurrency": "EUR", "interval": "monthly", "billingPeriod": "beginning_of_period"},
			{"id": "d", "name": "Two", "amountCurrency": "EUR", "interval": "yearly", "billingPeriod": "beginning_of_period"}
		]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.json")
			if len(tt.content) > 0 {
				path = writeCatalog(t, tt.content)
			}
			_, err := LoadPlansFromFile(path)
			assert.Error(t, err)
		})
	}
}

func TestNewManagerRequiresOptions(t *testing.T) {
	gdb, logger := dbtest.New(t)

	_, err := NewManager(ManagerOptions{Logger: logger})
	assert.Error(t, err)

	_, err = NewManager(ManagerOptions{DB: gdb})
	assert.Error(t, err)
}

func TestManagerSyncsCatalog(t *testing.T) {
	gdb, logger := dbtest.New(t)
	ctx := context.Background()

	m, err := NewManager(ManagerOptions{
		DB:             gdb,
		Logger:         logger,
		PathToPlanJSON: writeCatalog(t, catalog),
	})
	require.NoError(t, err)

	assert.Len(t, m.ListDefinedPlans(), 2)

	plan, ok := m.GetDefinedPlanByID("starter-monthly")
	require.True(t, ok)
	plan.Parameters["Seats"] = "99"
	again, _ := m.GetDefinedPlanByID("starter-monthly")
	assert.Equal(t, "5", again.Parameters["Seats"])

	_, ok = m.GetDefinedPlanByID("unknown")
	assert.False(t, ok)

	stored, err := m.GetPlan(ctx, "business-yearly")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(12000), stored.AmountCents)
	assert.Equal(t, proration.Yearly, stored.Interval)

	// a second synchronization updates in place
	updated := again
	updated.AmountCents = 3500
	require.NoError(t, m.SyncPlans(ctx, []Plan{updated}))
	stored, err = m.GetPlan(ctx, "starter-monthly")
	require.NoError(t, err)
	assert.Equal(t, int64(3500), stored.AmountCents)
	assert.Len(t, m.ListDefinedPlans(), 1)

	missing, err := m.GetPlan(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestManagerSubscriptions(t *testing.T) {
	gdb, logger := dbtest.New(t)
	ctx := context.Background()

	m, err := NewManager(ManagerOptions{
		DB:             gdb,
		Logger:         logger,
		PathToPlanJSON: writeCatalog(t, catalog),
	})
	require.NoError(t, err)

	sub := &Subscription{
		ID:         "sub_1",
		CustomerID: "cus_1",
		PlanID:     "starter-monthly",
		State:      StateActive,
		StartedAt:  time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, m.Create(ctx, sub))

	found, err := m.Get(ctx, "sub_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "cus_1", found.CustomerID)
	assert.Equal(t, "starter-monthly", found.Plan.ID)
	assert.Equal(t, int64(3000), found.Plan.AmountCents)

	missing, err := m.Get(ctx, "sub_2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = m.Get(ctx, "")
	assert.Error(t, err)

	assert.Error(t, m.Create(ctx, &Subscription{ID: "sub_3", PlanID: "starter-monthly", State: StateActive}))
}
