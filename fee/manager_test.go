package fee

import (
	"context"
	"testing"

	"github.com/zllovesuki/rmc-fees/db/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByInvoice(t *testing.T) {
	gdb, logger := dbtest.New(t)
	ctx := context.Background()

	m, err := NewManager(logger, gdb)
	require.NoError(t, err)

	fees, err := m.ListByInvoice(ctx, "inv_1")
	require.NoError(t, err)
	assert.Empty(t, fees)

	f := validFee()
	require.NoError(t, m.Create(ctx, f))

	fees, err = m.ListByInvoice(ctx, "inv_1")
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, f.ID, fees[0].ID)

	pool, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, pool.Close())

	_, err = m.ListByInvoice(ctx, "inv_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot list fees of invoice")
}
