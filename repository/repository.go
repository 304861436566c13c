package repository

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const tickBatchSize = 200

// Repository archives completed runs to the local file system (sqlite) before they are uploaded to Supabase.
type Repository struct {
	db *gorm.DB
}

func New(path string) (*Repository, error) {

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Migrate the schema
	err = db.AutoMigrate(&StoredRun{}, &StoredTick{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repository{
		db: db,
	}, nil
}

// AddRun stores a run and all of its ticks in one transaction.
func (r *Repository) AddRun(run StoredRun, ticks []StoredTick) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("create run: %w", err)
		}
		if len(ticks) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(ticks, tickBatchSize).Error; err != nil {
			return fmt.Errorf("create ticks: %w", err)
		}
		return nil
	})
}

// GetRuns returns up to `limit` runs. Fresh runs have never been offered for upload; the others have failed at
// least once.
func (r *Repository) GetRuns(limit int, fresh bool) ([]StoredRun, error) {
	var runs []StoredRun

	query := r.db.Limit(limit).Order("upload_attempt_count asc, created_at desc")
	if fresh {
		query = query.Where("upload_attempt_count = ?", 0)
	} else {
		query = query.Where("upload_attempt_count > ?", 0)
	}
	result := query.Find(&runs)
	if result.Error != nil {
		return nil, result.Error
	}
	return runs, nil
}

// GetTicks returns every stored tick of a run in tick then zone order.
func (r *Repository) GetTicks(runID uuid.UUID) ([]StoredTick, error) {
	var ticks []StoredTick
	result := r.db.Where("run_id = ?", runID).Order("tick asc, zone_id asc").Find(&ticks)
	if result.Error != nil {
		return nil, result.Error
	}
	return ticks, nil
}

// DeleteRun removes a run and its ticks.
func (r *Repository) DeleteRun(runID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&StoredTick{}).Error; err != nil {
			return fmt.Errorf("delete ticks: %w", err)
		}
		if err := tx.Where("id = ?", runID).Delete(&StoredRun{}).Error; err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		return nil
	})
}

func (r *Repository) IncrementUploadAttemptCount(runID uuid.UUID) error {
	result := r.db.Model(&StoredRun{}).Where("id = ?", runID).UpdateColumn("upload_attempt_count", gorm.Expr("upload_attempt_count + ?", 1))
	return result.Error
}

// CountRuns returns the number of archived runs.
func (r *Repository) CountRuns() (int64, error) {
	var count int64
	result := r.db.Model(&StoredRun{}).Count(&count)
	return count, result.Error
}
