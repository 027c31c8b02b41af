package models

import (
	"time"

	"gorm.io/gorm"
)

// Withdrawal 提现申请表
type Withdrawal struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                    // 主键
	UserID       uint           `gorm:"index;not null" json:"user_id"`                           // 申请人ID
	Amount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`     // 申请金额
	FeeAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"fee_amount"` // 手续费
	NetAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"net_amount"` // 实际到账金额
	Status       string         `gorm:"index;not null;default:'pending'" json:"status"`          // 提现状态
	BankInfoJSON JSON           `gorm:"type:json" json:"bank_info,omitempty"`                    // 收款账户快照
	RejectReason string         `gorm:"type:varchar(500)" json:"reject_reason,omitempty"`        // 驳回原因
	ProcessedAt  *time.Time     `json:"processed_at"`                                            // 处理时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (Withdrawal) TableName() string {
	return "withdrawals"
}
