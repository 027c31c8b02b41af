package models

import (
	"time"
)

// Transaction 账务流水表（只追加）
type Transaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                // 主键
	UserID        uint      `gorm:"index;not null" json:"user_id"`                       // 用户ID
	Type          string    `gorm:"index;not null" json:"type"`                          // 流水类型
	Amount        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 变动金额（出账为负）
	ReferenceType string    `gorm:"index" json:"reference_type,omitempty"`               // 关联对象类型
	ReferenceID   *uint     `gorm:"index" json:"reference_id,omitempty"`                 // 关联对象ID
	Description   string    `gorm:"type:varchar(500)" json:"description"`                // 流水说明
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                             // 创建时间
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}
