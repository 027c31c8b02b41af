package repository

import (
	"github.com/vanguard-next/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository 账务流水数据访问接口
type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository

	Create(txn *models.Transaction) error
	List(filter TransactionListFilter) ([]models.Transaction, int64, error)
	ListByReference(referenceType string, referenceID uint) ([]models.Transaction, error)
}

// GormTransactionRepository GORM 流水仓储实现
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建流水仓储
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	if tx == nil {
		return r
	}
	return &GormTransactionRepository{db: tx}
}

// Create 创建流水（只追加，不更新）
func (r *GormTransactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

// List 查询流水列表
func (r *GormTransactionRepository) List(filter TransactionListFilter) ([]models.Transaction, int64, error) {
	query := r.db.Model(&models.Transaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
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

	var rows []models.Transaction
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByReference 按关联对象查询流水
func (r *GormTransactionRepository) ListByReference(referenceType string, referenceID uint) ([]models.Transaction, error) {
	if referenceType == "" || referenceID == 0 {
		return []models.Transaction{}, nil
	}
	var rows []models.Transaction
	if err := r.db.Where("reference_type = ? AND reference_id = ?", referenceType, referenceID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
