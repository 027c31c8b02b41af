package repository

import (
	"errors"
	"strings"

	"github.com/vanguard-next/internal/constants"
	"github.com/vanguard-next/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) UserRepository

	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByIDForUpdate(id uint) (*models.User, error)
	GetByReferralCode(code string) (*models.User, error)
	ListByIDs(ids []uint) ([]models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	UpdateFields(id uint, updates map[string]interface{}) error
	List(filter UserListFilter) ([]models.User, int64, error)

	AddBalances(userID uint, blockedDelta, availableDelta decimal.Decimal) error
	AddVolumes(userID uint, personalDelta, teamDelta decimal.Decimal) error

	ListResellers() ([]models.User, error)
	ListChildren(sponsorID uint) ([]models.User, error)
	ReparentChildren(sponsorID uint, newSponsorID *uint) (int64, error)
	ResetVolumes(accessLevels []int) (int64, error)
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// Transaction 执行事务
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate 根据 ID 加锁获取用户
func (r *GormUserRepository) GetByIDForUpdate(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByReferralCode 根据推荐码获取用户
func (r *GormUserRepository) GetByReferralCode(code string) (*models.User, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("referral_code = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListByIDs 批量获取用户
func (r *GormUserRepository) ListByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateFields 按字段更新用户
func (r *GormUserRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

// List 用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("email LIKE ? OR display_name LIKE ? OR referral_code LIKE ?", like, like, like)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AccessLevel != nil {
		query = query.Where("access_level = ?", *filter.AccessLevel)
	}
	if filter.SponsorID != 0 {
		query = query.Where("sponsor_id = ?", filter.SponsorID)
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

	var users []models.User
	if err := query.Order("id DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// AddBalances 原子增减余额（正数入账，负数出账）
func (r *GormUserRepository) AddBalances(userID uint, blockedDelta, availableDelta decimal.Decimal) error {
	if userID == 0 {
		return nil
	}
	updates := map[string]interface{}{}
	if !blockedDelta.IsZero() {
		updates["blocked_balance"] = gorm.Expr("blocked_balance + ?", blockedDelta)
	}
	if !availableDelta.IsZero() {
		updates["available_balance"] = gorm.Expr("available_balance + ?", availableDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

// AddVolumes 原子累计业绩
func (r *GormUserRepository) AddVolumes(userID uint, personalDelta, teamDelta decimal.Decimal) error {
	if userID == 0 {
		return nil
	}
	updates := map[string]interface{}{}
	if !personalDelta.IsZero() {
		updates["personal_volume"] = gorm.Expr("personal_volume + ?", personalDelta)
	}
	if !teamDelta.IsZero() {
		updates["team_volume"] = gorm.Expr("team_volume + ?", teamDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

// ListResellers 查询全部经销商
func (r *GormUserRepository) ListResellers() ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("access_level = ?", constants.AccessLevelReseller).
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListChildren 查询直接下级
func (r *GormUserRepository) ListChildren(sponsorID uint) ([]models.User, error) {
	if sponsorID == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("sponsor_id = ?", sponsorID).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ReparentChildren 将直接下级整体挂接到新推荐人并修正层级
func (r *GormUserRepository) ReparentChildren(sponsorID uint, newSponsorID *uint) (int64, error) {
	if sponsorID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.User{}).
		Where("sponsor_id = ?", sponsorID).
		Updates(map[string]interface{}{
			"sponsor_id":      newSponsorID,
			"hierarchy_level": gorm.Expr("hierarchy_level - 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ResetVolumes 按访问级别清零当期业绩
func (r *GormUserRepository) ResetVolumes(accessLevels []int) (int64, error) {
	if len(accessLevels) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.User{}).
		Where("access_level IN ?", accessLevels).
		Updates(map[string]interface{}{
			"personal_volume": decimal.Zero,
			"team_volume":     decimal.Zero,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
