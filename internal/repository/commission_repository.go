package repository

import (
	"errors"
	"time"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository 佣金数据访问接口
type CommissionRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CommissionRepository

	Create(commission *models.Commission) error
	GetByID(id uint) (*models.Commission, error)
	HasByOrder(orderID uint) (bool, error)
	ListByOrder(orderID uint, statuses []string) ([]models.Commission, error)
	ListByOrderForUpdate(orderID uint, statuses []string) ([]models.Commission, error)
	ListDueBlocked(now time.Time, limit int) ([]models.Commission, error)
	MarkReleased(id uint, now time.Time) (bool, error)
	MarkReversed(id uint, fromStatus string, now time.Time) (bool, error)
	List(filter CommissionListFilter) ([]models.Commission, int64, error)
	SumByUser(userID uint, statuses []string) (decimal.Decimal, error)
	SumByUserSince(userID uint, statuses []string, since time.Time) (decimal.Decimal, error)
	SummarizeByUser(userID uint) ([]CommissionLevelSummary, error)
}

// CommissionLevelSummary 按层级与状态聚合的佣金汇总行
type CommissionLevelSummary struct {
	Level  int             `gorm:"column:level" json:"level"`
	Status string          `gorm:"column:status" json:"status"`
	Count  int64           `gorm:"column:cnt" json:"count"`
	Total  decimal.Decimal `gorm:"column:total" json:"total"`
}

// GormCommissionRepository GORM 佣金仓储实现
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓储
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) CommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCommissionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建佣金记录
func (r *GormCommissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}

// GetByID 按 ID 获取佣金记录
func (r *GormCommissionRepository) GetByID(id uint) (*models.Commission, error) {
	if id == 0 {
		return nil, nil
	}
	var commission models.Commission
	if err := r.db.First(&commission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// HasByOrder 订单是否已生成过佣金
func (r *GormCommissionRepository) HasByOrder(orderID uint) (bool, error) {
	if orderID == 0 {
		return false, nil
	}
	var total int64
	if err := r.db.Model(&models.Commission{}).Where("order_id = ?", orderID).Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// ListByOrder 按订单查询佣金记录
func (r *GormCommissionRepository) ListByOrder(orderID uint, statuses []string) ([]models.Commission, error) {
	if orderID == 0 {
		return []models.Commission{}, nil
	}
	query := r.db.Model(&models.Commission{}).Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.Commission
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByOrderForUpdate 按订单查询佣金并加锁
func (r *GormCommissionRepository) ListByOrderForUpdate(orderID uint, statuses []string) ([]models.Commission, error) {
	if orderID == 0 {
		return []models.Commission{}, nil
	}
	query := r.db.Model(&models.Commission{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.Commission
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListDueBlocked 查询已到期待解冻的佣金
func (r *GormCommissionRepository) ListDueBlocked(now time.Time, limit int) ([]models.Commission, error) {
	query := r.db.Model(&models.Commission{}).
		Where("status = ? AND release_at IS NOT NULL AND release_at <= ?", constants.CommissionStatusBlocked, now).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Commission
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkReleased 将单条佣金从冻结转可用（条件更新，已变更则返回 false）
func (r *GormCommissionRepository) MarkReleased(id uint, now time.Time) (bool, error) {
	if id == 0 {
		return false, nil
	}
	result := r.db.Model(&models.Commission{}).
		Where("id = ? AND status = ?", id, constants.CommissionStatusBlocked).
		Updates(map[string]interface{}{
			"status":      constants.CommissionStatusAvailable,
			"released_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkReversed 将单条佣金标记为已回退（条件更新，已变更则返回 false）
func (r *GormCommissionRepository) MarkReversed(id uint, fromStatus string, now time.Time) (bool, error) {
	if id == 0 {
		return false, nil
	}
	result := r.db.Model(&models.Commission{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":      constants.CommissionStatusReversed,
			"reversed_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 查询佣金记录
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.Commission, int64, error) {
	query := r.db.Model(&models.Commission{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Level != nil {
		query = query.Where("level = ?", *filter.Level)
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

	var rows []models.Commission
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SumByUser 汇总指定状态佣金金额
func (r *GormCommissionRepository) SumByUser(userID uint, statuses []string) (decimal.Decimal, error) {
	if userID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Commission{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// SumByUserSince 汇总指定时间之后产生的佣金金额
func (r *GormCommissionRepository) SumByUserSince(userID uint, statuses []string, since time.Time) (decimal.Decimal, error) {
	if userID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Commission{}).
		Where("user_id = ? AND status IN ? AND created_at >= ?", userID, statuses, since).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// SummarizeByUser 按层级与状态分组汇总
func (r *GormCommissionRepository) SummarizeByUser(userID uint) ([]CommissionLevelSummary, error) {
	if userID == 0 {
		return []CommissionLevelSummary{}, nil
	}
	var rows []CommissionLevelSummary
	if err := r.db.Model(&models.Commission{}).
		Where("user_id = ?", userID).
		Select("level, status, COUNT(*) AS cnt, COALESCE(SUM(amount), 0) AS total").
		Group("level, status").
		Order("level ASC, status ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
