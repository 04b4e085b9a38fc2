package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("sweep run not found")

// RunRepository provides database operations for sweep runs
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new repository instance
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save stores a finished sweep under a new run ID.
func (r *RunRepository) Save(res *sim.Result) (*SweepRun, error) {
	return r.SaveAs(uuid.New().String(), res)
}

// SaveAs stores a finished sweep under id.
func (r *RunRepository) SaveAs(id string, res *sim.Result) (*SweepRun, error) {
	if res == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}
	if id == "" {
		return nil, fmt.Errorf("run ID cannot be empty")
	}

	run, err := newSweepRun(id, res)
	if err != nil {
		return nil, err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

// Get loads a run with its points in insertion order.
func (r *RunRepository) Get(id string) (*SweepRun, error) {
	var run SweepRun
	err := r.db.Preload("Points", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}
	return &run, nil
}

// List returns the most recent runs without their points.
func (r *RunRepository) List(limit int) ([]SweepRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []SweepRun
	err := r.db.Order("created_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

// Delete removes a run and its points.
func (r *RunRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&BERPoint{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&SweepRun{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil
	})
}

// Count returns the number of stored runs.
func (r *RunRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&SweepRun{}).Count(&count).Error
	return count, err
}
