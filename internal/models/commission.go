package models

import (
	"time"
)

// Commission 佣金记录表
type Commission struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                                         // 主键
	OrderID      uint       `gorm:"not null;uniqueIndex:uk_commission_order_user_level,priority:1" json:"order_id"` // 订单ID
	UserID       uint       `gorm:"index;not null;uniqueIndex:uk_commission_order_user_level,priority:2" json:"user_id"` // 受益人ID
	SourceUserID uint       `gorm:"index;not null" json:"source_user_id"`                                         // 购买人ID
	Level        int        `gorm:"not null;uniqueIndex:uk_commission_order_user_level,priority:3" json:"level"`  // 层级（0=直推，1..3=链路）
	Rate         float64    `gorm:"not null" json:"rate"`                                                         // 佣金比例（百分比）
	BaseAmount   Money      `gorm:"type:decimal(20,2);not null;default:0" json:"base_amount"`                     // 计佣基数
	Amount       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                          // 佣金金额
	Status       string     `gorm:"index;not null;default:'blocked'" json:"status"`                               // 佣金状态
	ReleaseAt    *time.Time `gorm:"index" json:"release_at"`                                                      // 预定解冻时间
	ReleasedAt   *time.Time `json:"released_at"`                                                                  // 实际解冻时间
	ReversedAt   *time.Time `json:"reversed_at"`                                                                  // 回退时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                                      // 创建时间
	UpdatedAt    time.Time  `gorm:"index" json:"updated_at"`                                                      // 更新时间
}

// TableName 指定表名
func (Commission) TableName() string {
	return "commissions"
}
