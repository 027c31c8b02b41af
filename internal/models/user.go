package models

import (
	"time"

	"github.com/vanguard-next/internal/constants"

	"gorm.io/gorm"
)

// User 用户表（含分销网络与钱包字段）
type User struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                           // 主键
	Email             string         `gorm:"uniqueIndex;not null" json:"email"`                              // 邮箱
	PasswordHash      string         `gorm:"not null" json:"-"`                                              // 密码哈希（不返回给前端）
	DisplayName       string         `gorm:"default:''" json:"display_name"`                                 // 昵称
	ReferralCode      string         `gorm:"uniqueIndex;not null" json:"referral_code"`                      // 推荐码
	AccessLevel       int            `gorm:"index;not null;default:5" json:"access_level"`                   // 访问级别（0 最高）
	Status            string         `gorm:"index;not null;default:'active'" json:"status"`                  // 账号状态
	SponsorID         *uint          `gorm:"index" json:"sponsor_id,omitempty"`                              // 推荐人ID
	HierarchyLevel    int            `gorm:"not null;default:0" json:"hierarchy_level"`                      // 网络层级深度
	PersonalVolume    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"personal_volume"`   // 个人业绩（当期）
	TeamVolume        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"team_volume"`       // 团队业绩（当期）
	BlockedBalance    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"blocked_balance"`   // 冻结余额
	AvailableBalance  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"available_balance"` // 可用余额
	AmbassadorRate    *float64       `json:"ambassador_rate,omitempty"`                                      // 大使专属佣金比例（百分比）
	BankInfoJSON      JSON           `gorm:"type:json" json:"bank_info,omitempty"`                           // 收款账户信息
	LastQualification *time.Time     `gorm:"index" json:"last_qualification"`                                // 最近一次达标时间
	LastLoginAt       *time.Time     `json:"last_login_at"`                                                  // 最后登录时间
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// RoleTag 返回访问级别对应的角色标签
func (u *User) RoleTag() string {
	return RoleTagForLevel(u.AccessLevel)
}

// IsReseller 是否参与业绩累计（队长或经销商）
func (u *User) IsReseller() bool {
	return u.AccessLevel == constants.AccessLevelLeader || u.AccessLevel == constants.AccessLevelReseller
}

// RoleTagForLevel 访问级别到角色标签的映射
func RoleTagForLevel(level int) string {
	switch level {
	case constants.AccessLevelTechnicalAdmin:
		return constants.RoleTechnicalAdmin
	case constants.AccessLevelGeneralAdmin:
		return constants.RoleGeneralAdmin
	case constants.AccessLevelSupervisor:
		return constants.RoleSupervisor
	case constants.AccessLevelLeader:
		return constants.RoleLeader
	case constants.AccessLevelReseller:
		return constants.RoleReseller
	case constants.AccessLevelClient:
		return constants.RoleClient
	case constants.AccessLevelAmbassador:
		return constants.RoleAmbassador
	default:
		return ""
	}
}
