package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lodging_console_v1_202610/internal/model"
)

// ==================== 仓储接口 ====================

// SubmissionRepository 房源提交记录仓储接口
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.ListingSubmission) error
	GetByID(ctx context.Context, id int64) (*model.ListingSubmission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]model.ListingSubmission, int64, error)

	// 统计查询
	GetStats(ctx context.Context, startTime, endTime time.Time) (*SubmissionStats, error)
}

// SubmissionFilter 列表过滤条件
type SubmissionFilter struct {
	SessionID string
	Status    string
	Page      int
	PageSize  int
}

// ==================== 统计结构 ====================

// SubmissionStats 提交统计
type SubmissionStats struct {
	TotalCount    int64   `json:"total_count"`
	SuccessCount  int64   `json:"success_count"`
	FailedCount   int64   `json:"failed_count"`
	CreateCount   int64   `json:"create_count"`
	UpdateCount   int64   `json:"update_count"`
	TotalAssets   int64   `json:"total_assets"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// ==================== 仓储实现 ====================

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建提交记录仓储
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.ListingSubmission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id int64) (*model.ListingSubmission, error) {
	var sub model.ListingSubmission
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) List(ctx context.Context, filter SubmissionFilter) ([]model.ListingSubmission, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ListingSubmission{})
	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	var subs []model.ListingSubmission
	err := query.
		Omit("payload").
		Order("id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&subs).Error
	return subs, total, err
}

func (r *submissionRepo) GetStats(ctx context.Context, startTime, endTime time.Time) (*SubmissionStats, error) {
	var stats SubmissionStats

	query := r.db.WithContext(ctx).Model(&model.ListingSubmission{})
	if !startTime.IsZero() {
		query = query.Where("created_at >= ?", startTime)
	}
	if !endTime.IsZero() {
		query = query.Where("created_at <= ?", endTime)
	}

	err := query.Select(`
		COUNT(*) as total_count,
		COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) as success_count,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed_count,
		COALESCE(SUM(CASE WHEN mode = 'create' THEN 1 ELSE 0 END), 0) as create_count,
		COALESCE(SUM(CASE WHEN mode = 'update' THEN 1 ELSE 0 END), 0) as update_count,
		COALESCE(SUM(asset_count), 0) as total_assets,
		COALESCE(AVG(duration_ms), 0) as avg_duration_ms
	`).Scan(&stats).Error

	return &stats, err
}
