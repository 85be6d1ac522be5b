package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

const insertBatchSize = 500

// ReportRunRepository 报表批次数据访问接口
type ReportRunRepository interface {
	// CreateWithRecords 在同一事务中写入批次及其班次、换班记录
	CreateWithRecords(ctx context.Context, run *model.ReportRun, shifts []model.ShiftEntry, swaps []model.SwapRecord) error
	GetByID(ctx context.Context, id string) (*model.ReportRun, error)
	List(ctx context.Context, offset, limit int) ([]model.ReportRun, int64, error)
	// ListShiftsByPerson 批次中某人的班次；批次不存在时返回 gorm.ErrRecordNotFound
	ListShiftsByPerson(ctx context.Context, runID, person string) ([]model.ShiftEntry, error)
}

type reportRunRepo struct {
	db *gorm.DB
}

func NewReportRunRepo(db *gorm.DB) ReportRunRepository {
	return &reportRunRepo{db: db}
}

func (r *reportRunRepo) CreateWithRecords(ctx context.Context, run *model.ReportRun, shifts []model.ShiftEntry, swaps []model.SwapRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Shifts", "Swaps").Create(run).Error; err != nil {
			return err
		}
		if len(shifts) > 0 {
			for i := range shifts {
				shifts[i].RunID = run.RunID
			}
			if err := tx.CreateInBatches(&shifts, insertBatchSize).Error; err != nil {
				return err
			}
		}
		if len(swaps) > 0 {
			for i := range swaps {
				swaps[i].RunID = run.RunID
			}
			if err := tx.CreateInBatches(&swaps, insertBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *reportRunRepo) GetByID(ctx context.Context, id string) (*model.ReportRun, error) {
	var run model.ReportRun
	err := r.db.WithContext(ctx).
		Preload("Shifts", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, shift_code ASC, person_name ASC")
		}).
		Preload("Swaps", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, start_time ASC")
		}).
		Where("run_id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *reportRunRepo) List(ctx context.Context, offset, limit int) ([]model.ReportRun, int64, error) {
	var runs []model.ReportRun
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ReportRun{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&runs).Error
	return runs, total, err
}

func (r *reportRunRepo) ListShiftsByPerson(ctx context.Context, runID, person string) ([]model.ShiftEntry, error) {
	var runs int64
	if err := r.db.WithContext(ctx).Model(&model.ReportRun{}).Where("run_id = ?", runID).Count(&runs).Error; err != nil {
		return nil, err
	}
	if runs == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var shifts []model.ShiftEntry
	err := r.db.WithContext(ctx).
		Where("run_id = ? AND person_name = ?", runID, person).
		Order("date ASC, start_time ASC").
		Find(&shifts).Error
	return shifts, err
}
