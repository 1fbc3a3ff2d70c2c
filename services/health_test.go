package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"civicwatch/models"
)

func TestHealthProbe(t *testing.T) {
	ctx := context.Background()
	w := newTestWriter(t)
	require.NoError(t, w.UpsertBill(ctx, &models.Bill{BillNumber: "C-1"}))
	m := newTestMetrics()
	h := NewHealthProbe(w, m, zap.NewNop())
	require.True(t, h.Last().CheckedAt.IsZero())

	st := h.Check(ctx)
	require.True(t, st.StoreUp)
	require.Equal(t, int64(1), st.Rows["bills"])
	require.Equal(t, int64(0), st.Rows["officials"])
	require.Equal(t, st, h.Last())

	require.Equal(t, 1.0, testutil.ToFloat64(m.StoreUp))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TableRows.WithLabelValues("bills")))
}

func TestHealthProbeStoreDown(t *testing.T) {
	w := newTestWriter(t)
	sqlDB, err := w.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	m := newTestMetrics()
	st := NewHealthProbe(w, m, zap.NewNop()).Check(context.Background())
	require.False(t, st.StoreUp)
	require.NotEmpty(t, st.Error)
	require.Zero(t, testutil.ToFloat64(m.StoreUp))
}
