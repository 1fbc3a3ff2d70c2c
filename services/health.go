package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"civicwatch/storage"
)

// HealthStatus is the result of the last probe.
type HealthStatus struct {
	CheckedAt time.Time        `json:"checked_at"`
	StoreUp   bool             `json:"store_up"`
	Error     string           `json:"error,omitempty"`
	Rows      map[string]int64 `json:"rows,omitempty"`
}

// HealthProbe checks store liveness and exports row counts as gauges.
type HealthProbe struct {
	writer  *storage.Writer
	metrics *Metrics
	log     *zap.Logger

	mu   sync.RWMutex
	last HealthStatus
}

func NewHealthProbe(writer *storage.Writer, metrics *Metrics, log *zap.Logger) *HealthProbe {
	return &HealthProbe{writer: writer, metrics: metrics, log: log.With(zap.String("component", "health"))}
}

// Check pings the store, counts the rows of every table and remembers the result.
func (h *HealthProbe) Check(ctx context.Context) HealthStatus {
	st := HealthStatus{CheckedAt: time.Now().UTC()}
	if err := h.writer.Ping(ctx); err != nil {
		st.Error = err.Error()
		h.log.Error("Datenbank nicht erreichbar", zap.Error(err))
	} else {
		st.StoreUp = true
		st.Rows = map[string]int64{}
		db := h.writer.DB().WithContext(ctx)
		for _, table := range countedTables {
			var n int64
			if err := db.Table(table).Count(&n).Error; err != nil {
				h.log.Warn("Zeilenzählung fehlgeschlagen", zap.String("table", table), zap.Error(err))
				continue
			}
			st.Rows[table] = n
		}
	}

	if h.metrics != nil {
		up := 0.0
		if st.StoreUp {
			up = 1
		}
		h.metrics.StoreUp.Set(up)
		for table, n := range st.Rows {
			h.metrics.TableRows.WithLabelValues(table).Set(float64(n))
		}
	}

	h.mu.Lock()
	h.last = st
	h.mu.Unlock()
	return st
}

// Last returns the most recent probe result; CheckedAt is zero before the first probe.
func (h *HealthProbe) Last() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}
