package repository

import (
	"github.com/vanguard-next/internal/models"

	"gorm.io/gorm"
)

// ActionLogRepository 操作日志数据访问接口
type ActionLogRepository interface {
	WithTx(tx *gorm.DB) ActionLogRepository

	Create(log *models.ActionLog) error
	List(filter ActionLogListFilter) ([]models.ActionLog, int64, error)
}

// GormActionLogRepository GORM 操作日志仓储实现
type GormActionLogRepository struct {
	db *gorm.DB
}

// NewActionLogRepository 创建操作日志仓储
func NewActionLogRepository(db *gorm.DB) *GormActionLogRepository {
	return &GormActionLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormActionLogRepository) WithTx(tx *gorm.DB) ActionLogRepository {
	if tx == nil {
		return r
	}
	return &GormActionLogRepository{db: tx}
}

// Create 创建操作日志
func (r *GormActionLogRepository) Create(log *models.ActionLog) error {
	return r.db.Create(log).Error
}

// List 查询操作日志列表
func (r *GormActionLogRepository) List(filter ActionLogListFilter) ([]models.ActionLog, int64, error) {
	query := r.db.Model(&models.ActionLog{})
	if filter.ActorID != 0 {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.ActionLog
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
