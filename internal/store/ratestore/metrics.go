package ratestore

import (
	"time"

	"cryptorates/internal/metrics"

	"gorm.io/gorm"
)

const startTimeKey = "ratestore:start"

// registerMetricsCallbacks times every gorm operation and feeds the
// store duration histogram.
func registerMetricsCallbacks(db *gorm.DB, m *metrics.Metrics) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			m.ObserveStore(op, time.Since(start))
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("ratestore:before_create", before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("ratestore:after_create", after("create")); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("ratestore:before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("ratestore:after_query", after("query")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("ratestore:before_update", before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("ratestore:after_update", after("update")); err != nil {
		return err
	}
	return nil
}
