package ratestore

import (
	"fmt"
	"time"

	"cryptorates/internal/rates"
)

type rateModel struct {
	ID         uint64 `gorm:"column:id;primaryKey"`
	Pair       string `gorm:"column:pair;size:10;uniqueIndex:idx_pair_observed"`
	Rate       string `gorm:"column:rate;type:decimal(20,8)"`
	ObservedAt int64  `gorm:"column:observed_at;uniqueIndex:idx_pair_observed"`
	RecordedAt int64  `gorm:"column:recorded_at"`
}

func (rateModel) TableName() string { return "crypto_rates" }

func rateModelToRate(m rateModel) (rates.Rate, error) {
	value, err := rates.ParseValue(m.Rate)
	if err != nil {
		return rates.Rate{}, fmt.Errorf("stored rate for %s at %d is corrupt: %w", m.Pair, m.ObservedAt, err)
	}
	return rates.Rate{
		Pair:       m.Pair,
		Value:      value,
		ObservedAt: time.Unix(m.ObservedAt, 0).UTC(),
		RecordedAt: time.Unix(m.RecordedAt, 0).UTC(),
	}, nil
}
