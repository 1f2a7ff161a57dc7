package ratestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cryptorates/internal/backfill"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type runModel struct {
	ID             string         `gorm:"column:id;primaryKey;size:36"`
	Mode           string         `gorm:"column:mode;size:16"`
	Status         string         `gorm:"column:status;size:16;index"`
	Days           int            `gorm:"column:days"`
	Pair           string         `gorm:"column:pair;size:10"`
	TotalInserted  int            `gorm:"column:total_inserted"`
	PairsProcessed datatypes.JSON `gorm:"column:pairs_processed"`
	Warnings       datatypes.JSON `gorm:"column:warnings"`
	StartDate      string         `gorm:"column:start_date;size:10"`
	EndDate        string         `gorm:"column:end_date;size:10"`
	Message        string         `gorm:"column:message"`
	CreatedAt      time.Time      `gorm:"column:created_at;index"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`
}

func (runModel) TableName() string { return "backfill_runs" }

func runToModel(run backfill.Run) (runModel, error) {
	pairs, err := json.Marshal(run.PairsProcessed)
	if err != nil {
		return runModel{}, err
	}
	warnings, err := json.Marshal(run.Warnings)
	if err != nil {
		return runModel{}, err
	}
	return runModel{
		ID:             run.ID,
		Mode:           run.Mode,
		Status:         run.Status,
		Days:           run.Days,
		Pair:           run.Pair,
		TotalInserted:  run.TotalInserted,
		PairsProcessed: datatypes.JSON(pairs),
		Warnings:       datatypes.JSON(warnings),
		StartDate:      run.StartDate,
		EndDate:        run.EndDate,
		Message:        run.Message,
		CreatedAt:      run.CreatedAt,
		UpdatedAt:      run.UpdatedAt,
	}, nil
}

func runFromModel(m runModel) (backfill.Run, error) {
	run := backfill.Run{
		ID:            m.ID,
		Mode:          m.Mode,
		Status:        m.Status,
		Days:          m.Days,
		Pair:          m.Pair,
		TotalInserted: m.TotalInserted,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		Message:       m.Message,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if len(m.PairsProcessed) > 0 {
		if err := json.Unmarshal(m.PairsProcessed, &run.PairsProcessed); err != nil {
			return backfill.Run{}, fmt.Errorf("run %s has corrupt pairs_processed: %w", m.ID, err)
		}
	}
	if len(m.Warnings) > 0 {
		if err := json.Unmarshal(m.Warnings, &run.Warnings); err != nil {
			return backfill.Run{}, fmt.Errorf("run %s has corrupt warnings: %w", m.ID, err)
		}
	}
	return run, nil
}

func (s *Store) CreateRun(ctx context.Context, run backfill.Run) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("rate store not initialized")
	}
	model, err := runToModel(run)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *Store) UpdateRun(ctx context.Context, run backfill.Run) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("rate store not initialized")
	}
	model, err := runToModel(run)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(&model).Error
}

func (s *Store) GetRun(ctx context.Context, id string) (backfill.Run, bool, error) {
	if s == nil || s.db == nil {
		return backfill.Run{}, false, fmt.Errorf("rate store not initialized")
	}
	var model runModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return backfill.Run{}, false, nil
		}
		return backfill.Run{}, false, err
	}
	run, err := runFromModel(model)
	if err != nil {
		return backfill.Run{}, false, err
	}
	return run, true, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]backfill.Run, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("rate store not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	var models []runModel
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	runs := make([]backfill.Run, 0, len(models))
	for _, m := range models {
		run, err := runFromModel(m)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
